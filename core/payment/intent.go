package payment

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/lyceum/core"
)

type (
	// NewIntent carries an amount already in minor units (cents).
	NewIntent struct {
		Amount   int64  `json:"amount" validate:"required,gt=0"`
		CourseID string `json:"courseId" validate:"required"`
		UserID   string `json:"userId" validate:"required"`
	}

	// NewMonthlyFeeIntent carries an amount in major units (dollars).
	NewMonthlyFeeIntent struct {
		Amount   decimal.Decimal `json:"amount"`
		CourseID string          `json:"courseId" validate:"required"`
		UserID   string          `json:"userId" validate:"required"`
	}

	Service struct {
		gateway  core.PaymentGateway
		currency string
	}
)

func (ni *NewIntent) Validate(validate *validator.Validate) error {
	ni.CourseID = core.CleanString(ni.CourseID)
	ni.UserID = core.CleanString(ni.UserID)
	return validate.Struct(ni)
}

func (ni *NewMonthlyFeeIntent) Validate(validate *validator.Validate) error {
	ni.CourseID = core.CleanString(ni.CourseID)
	ni.UserID = core.CleanString(ni.UserID)
	if err := validate.Struct(ni); err != nil {
		return err
	}
	if !ni.Amount.IsPositive() {
		return core.NewFieldError("amount", "amount must be greater than 0")
	}
	// the gateway charges whole minor units
	if ToMinorUnits(ni.Amount) <= 0 {
		return core.NewFieldError("amount", "amount must be at least 0.01")
	}
	return nil
}

func NewService(gateway core.PaymentGateway, conf *core.Config) *Service {
	return &Service{gateway: gateway, currency: conf.Currency}
}

func (svc *Service) CreateIntent(ctx context.Context, ni NewIntent) (core.PaymentIntent, error) {
	intent, err := svc.gateway.CreatePaymentIntent(ctx, ni.Amount, svc.currency, map[string]string{
		"courseId": ni.CourseID,
		"userId":   ni.UserID,
	})
	return intent, errors.Wrap(err, "creating payment intent")
}

func (svc *Service) CreateMonthlyFeeIntent(ctx context.Context, ni NewMonthlyFeeIntent) (core.PaymentIntent, error) {
	intent, err := svc.gateway.CreatePaymentIntent(ctx, ToMinorUnits(ni.Amount), svc.currency, map[string]string{
		"courseId": ni.CourseID,
		"userId":   ni.UserID,
		"type":     "monthly_fee",
	})
	return intent, errors.Wrap(err, "creating monthly fee payment intent")
}

// ToMinorUnits converts 12.345 to 1235.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Package otp issues and checks one-time codes sent by SMS to verify phone numbers.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/lyceum/core"
)

var (
	// errors
	ErrNotFound         = errors.New("verification not found or expired")
	ErrInvalidCode      = errors.New("invalid verification code")
	ErrTooManyAttempts  = errors.New("too many attempts, request a new code")
	errNotFoundField    = core.FieldError{Field: "verificationId", Error: ErrNotFound.Error()}
	errInvalidCodeField = core.FieldError{Field: "verificationCode", Error: ErrInvalidCode.Error()}
)

type (
	// Verification is what the Store keeps for each code sent.
	Verification struct {
		PhoneNumber string `json:"phoneNumber"`
		CodeHash    []byte `json:"codeHash"`
		Attempts    int    `json:"attempts"`
	}

	// Store keeps Verifications until their ttl expires.
	Store interface {
		Save(ctx context.Context, id string, v Verification, ttl time.Duration) error
		// Get returns ErrNotFound for unknown or expired ids.
		Get(ctx context.Context, id string) (Verification, error)
		// IncrAttempts atomically records an attempt and returns the new count.
		// It returns ErrNotFound for unknown or expired ids.
		IncrAttempts(ctx context.Context, id string) (int, error)
		// Delete removes the verification and reports whether it was still there.
		// Of concurrent calls on the same id, only one reports true.
		Delete(ctx context.Context, id string) (bool, error)
	}

	NewVerification struct {
		PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	}

	CheckVerification struct {
		VerificationID   string `json:"verificationId" validate:"required"`
		VerificationCode string `json:"verificationCode" validate:"required,numeric"`
	}

	Service struct {
		store       Store
		smsSvc      core.SMSService
		appName     string
		ttl         time.Duration
		length      int
		maxAttempts int
	}
)

func (nv *NewVerification) Validate(validate *validator.Validate) error {
	nv.PhoneNumber = core.CleanString(nv.PhoneNumber)
	return validate.Struct(nv)
}

func (cv *CheckVerification) Validate(validate *validator.Validate) error {
	cv.VerificationID = core.CleanString(cv.VerificationID)
	cv.VerificationCode = core.CleanString(cv.VerificationCode)
	return validate.Struct(cv)
}

func NewService(store Store, smsSvc core.SMSService, conf *core.Config) *Service {
	return &Service{
		store:       store,
		smsSvc:      smsSvc,
		appName:     conf.AppName,
		ttl:         conf.OTPTTL,
		length:      conf.OTPLength,
		maxAttempts: conf.OTPMaxAttempts,
	}
}

// Send texts a new code to phoneNumber and returns the id to verify it with.
func (svc *Service) Send(ctx context.Context, phoneNumber string) (string, error) {
	code, err := generateCode(svc.length)
	if err != nil {
		return "", errors.Wrap(err, "generating code")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing code")
	}

	id := core.NewID()
	if err = svc.store.Save(ctx, id, Verification{PhoneNumber: phoneNumber, CodeHash: hash}, svc.ttl); err != nil {
		return "", errors.Wrap(err, "saving verification")
	}

	body := fmt.Sprintf("Your %s verification code is %s. It expires in %d minutes.", svc.appName, code, int(svc.ttl.Minutes()))
	if err = svc.smsSvc.SendSMS(ctx, phoneNumber, body); err != nil {
		_, _ = svc.store.Delete(ctx, id)
		return "", errors.Wrap(err, "sending sms")
	}
	return id, nil
}

// Verify checks the code and returns the verified phone number.
// Every call uses up one attempt before the code is compared, and a verification
// can only succeed once.
func (svc *Service) Verify(ctx context.Context, data CheckVerification) (string, error) {
	notFound := func(err error) (string, error) {
		if errors.Cause(err) == ErrNotFound {
			return "", core.NewValidationError(ErrNotFound, errNotFoundField)
		}
		return "", err
	}

	v, err := svc.store.Get(ctx, data.VerificationID)
	if err != nil {
		return notFound(errors.Wrap(err, "getting verification"))
	}
	attempts, err := svc.store.IncrAttempts(ctx, data.VerificationID)
	if err != nil {
		return notFound(errors.Wrap(err, "counting attempt"))
	}
	if attempts > svc.maxAttempts {
		return "", core.NewValidationError(ErrTooManyAttempts, core.FieldError{Field: "verificationCode", Error: ErrTooManyAttempts.Error()})
	}

	if err = bcrypt.CompareHashAndPassword(v.CodeHash, []byte(data.VerificationCode)); err != nil {
		return "", core.NewValidationError(ErrInvalidCode, errInvalidCodeField)
	}

	deleted, err := svc.store.Delete(ctx, data.VerificationID)
	if err != nil {
		return "", errors.Wrap(err, "deleting verification")
	}
	if !deleted { // consumed by a concurrent call
		return notFound(ErrNotFound)
	}
	return v.PhoneNumber, nil
}

func generateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

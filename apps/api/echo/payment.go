package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/billing"
	"github.com/trezcool/lyceum/core/enrollment"
	"github.com/trezcool/lyceum/core/payment"
)

type paymentApi struct {
	svc           *payment.Service
	enrollmentSvc *enrollment.Service
	validate      *validator.Validate
}

func registerPaymentAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := paymentApi{svc: deps.PaymentSvc, enrollmentSvc: deps.EnrollmentSvc, validate: deps.Validate}

	pg := g.Group("/payments", authed...)
	pg.POST("/intent", api.createIntent)
	pg.POST("/monthly-fee/intent", api.createMonthlyFeeIntent)
	pg.POST("/monthly-fee", api.recordMonthlyFee)
	pg.GET("", api.query)
	pg.GET("/due", api.dueMonths)
}

func (api *paymentApi) createIntent(ctx echo.Context) error {
	var data payment.NewIntent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewIntent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := selfOrStaff(ctx, data.UserID); err != nil {
		return err
	}

	intent, err := api.svc.CreateIntent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating payment intent")
	}
	return ctx.JSON(http.StatusOK, intent)
}

func (api *paymentApi) createMonthlyFeeIntent(ctx echo.Context) error {
	var data payment.NewMonthlyFeeIntent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMonthlyFeeIntent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := selfOrStaff(ctx, data.UserID); err != nil {
		return err
	}

	intent, err := api.svc.CreateMonthlyFeeIntent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating monthly fee payment intent")
	}
	return ctx.JSON(http.StatusOK, intent)
}

func (api *paymentApi) recordMonthlyFee(ctx echo.Context) error {
	var data enrollment.NewMonthlyFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMonthlyFee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := selfOrStaff(ctx, data.UserID); err != nil {
		return err
	}

	p, err := api.enrollmentSvc.RecordMonthlyFee(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording monthly fee")
	}
	return ctx.JSON(http.StatusOK, MonthlyFeeResponse{Message: "Monthly fee payment recorded successfully.", Payment: p})
}

func (api *paymentApi) query(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	payments, err := api.enrollmentSvc.Payments(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) dueMonths(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	if filter.CourseID == "" {
		return core.NewFieldError("courseId", "this field is required")
	}
	if filter.UserID == "" { // staff must name the student
		return core.NewFieldError("userId", "this field is required")
	}

	due, err := api.enrollmentSvc.DueMonths(ctx.Request().Context(), filter.UserID, filter.CourseID)
	if err != nil {
		return errors.Wrap(err, "computing due months")
	}
	return ctx.JSON(http.StatusOK, DueMonthsResponse{DueMonths: due})
}

type (
	MonthlyFeeResponse struct {
		Message string             `json:"message"`
		Payment enrollment.Payment `json:"payment"`
	}

	DueMonthsResponse struct {
		DueMonths []billing.MonthID `json:"dueMonths"`
	}
)

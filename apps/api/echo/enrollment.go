package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/enrollment"
)

type enrollmentApi struct {
	svc      *enrollment.Service
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := enrollmentApi{svc: deps.EnrollmentSvc, validate: deps.Validate}

	eg := g.Group("/enrollments", authed...)
	eg.POST("", api.create)
	eg.GET("", api.query)
	eg.GET("/courses", api.queryCourses)
}

// bindFilter binds the query string; students only see their own records.
func bindFilter(ctx echo.Context) (enrollment.Filter, error) {
	var filter enrollment.Filter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to Filter")
	}
	filter.UserID = core.CleanString(filter.UserID)
	filter.CourseID = core.CleanString(filter.CourseID)

	if usr := contextUser(ctx); !usr.IsStaff() {
		if filter.UserID != "" && filter.UserID != usr.ID {
			return filter, errHttpForbidden
		}
		filter.UserID = usr.ID
	}
	return filter, nil
}

func (api *enrollmentApi) create(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := selfOrStaff(ctx, data.UserID); err != nil {
		return err
	}

	e, err := api.svc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollmentApi) queryCourses(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	if filter.UserID == "" {
		return core.NewFieldError("userId", "this field is required")
	}
	courses, err := api.svc.QueryCourses(ctx.Request().Context(), filter.UserID)
	if err != nil {
		return errors.Wrap(err, "querying enrolled courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

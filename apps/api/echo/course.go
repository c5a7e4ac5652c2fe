package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core/course"
)

type courseApi struct {
	svc      *course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{svc: deps.CourseSvc, validate: deps.Validate}

	cg := g.Group("/courses", authed...)
	cg.POST("", api.create, staffMiddleware())
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

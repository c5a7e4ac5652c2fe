package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core/recording"
	"github.com/trezcool/lyceum/core/schedule"
)

type scheduleApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := scheduleApi{svc: deps.ScheduleSvc, validate: deps.Validate}

	sg := g.Group("/schedules", authed...)
	sg.POST("", api.create, staffMiddleware())
	sg.GET("", api.query)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *scheduleApi) query(ctx echo.Context) error {
	schedules, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	return ctx.JSON(http.StatusOK, schedules)
}

type recordingApi struct {
	svc      *recording.Service
	validate *validator.Validate
}

func registerRecordingAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := recordingApi{svc: deps.RecordingSvc, validate: deps.Validate}

	rg := g.Group("/recordings", authed...)
	rg.POST("", api.save, staffMiddleware())
	rg.GET("", api.query)
}

func (api *recordingApi) save(ctx echo.Context) error {
	var data recording.SaveRecording
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRecording")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, created, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving recording")
	}
	if created {
		return ctx.JSON(http.StatusCreated, rec)
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *recordingApi) query(ctx echo.Context) error {
	recordings, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying recordings")
	}
	return ctx.JSON(http.StatusOK, recordings)
}

package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core/exam"
)

type examApi struct {
	svc      *exam.Service
	validate *validator.Validate
}

func registerExamAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := examApi{svc: deps.ExamSvc, validate: deps.Validate}

	eg := g.Group("/exams", authed...)
	eg.POST("", api.createMockExam, staffMiddleware())
	eg.GET("", api.queryMockExams)

	eg.POST("/banks", api.createBank, staffMiddleware())
	eg.GET("/banks", api.queryBanks(exam.KindMCQ))
	eg.GET("/banks/:id", api.retrieveBank(exam.KindMCQ))

	eg.POST("/audio-banks", api.createAudioBank, staffMiddleware())
	eg.GET("/audio-banks", api.queryBanks(exam.KindAudio))
	eg.GET("/audio-banks/:id", api.retrieveBank(exam.KindAudio))
}

func (api *examApi) createBank(ctx echo.Context) error {
	var data exam.NewQuestionBank
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestionBank")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.CreateBank(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *examApi) createAudioBank(ctx echo.Context) error {
	var data exam.NewAudioBank
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAudioBank")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.CreateAudioBank(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *examApi) queryBanks(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		banks, err := api.svc.QueryBanks(ctx.Request().Context(), kind)
		if err != nil {
			return errors.Wrap(err, "querying question banks")
		}
		return ctx.JSON(http.StatusOK, banks)
	}
}

func (api *examApi) retrieveBank(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		b, err := api.svc.GetBank(ctx.Request().Context(), kind, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding question bank by ID")
		}
		return ctx.JSON(http.StatusOK, b)
	}
}

func (api *examApi) createMockExam(ctx echo.Context) error {
	var data exam.NewMockExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMockExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.CreateMockExam(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *examApi) queryMockExams(ctx echo.Context) error {
	exams, err := api.svc.QueryMockExams(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying mock exams")
	}
	return ctx.JSON(http.StatusOK, exams)
}

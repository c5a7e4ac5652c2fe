package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/attendance"
	"github.com/trezcool/lyceum/core/user"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type attendanceApi struct {
	svc      *attendance.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{svc: deps.AttendanceSvc, userSvc: deps.UserSvc, validate: deps.Validate}

	ag := g.Group("/attendance", authed...)
	ag.POST("", api.mark, staffMiddleware())
	ag.GET("", api.query)
	ag.GET("/export", api.export, staffMiddleware())
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.Mark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Mark")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	count, err := api.svc.Mark(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, AttendanceResponse{Message: "Attendance marked successfully.", Students: count})
}

func (api *attendanceApi) bindFilter(ctx echo.Context) (attendance.Filter, error) {
	var filter attendance.Filter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to Filter")
	}
	filter.CourseID = core.CleanString(filter.CourseID)
	filter.StudentID = core.CleanString(filter.StudentID)

	if usr := contextUser(ctx); !usr.IsStaff() {
		if filter.StudentID != "" && filter.StudentID != usr.ID {
			return filter, errHttpForbidden
		}
		filter.StudentID = usr.ID
	}
	return filter, nil
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	records, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) export(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	if filter.CourseID == "" {
		return core.NewFieldError("courseId", "this field is required")
	}

	records, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	f, err := api.workbook(ctx, records)
	if err != nil {
		return err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return errors.Wrap(err, "writing workbook")
	}

	fileName := fmt.Sprintf("attendance_%s_%s.xlsx", filter.CourseID, time.Now().Format("20060102_150405"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// workbook lays the records out one per row, under a header row.
func (api *attendanceApi) workbook(ctx echo.Context, records []attendance.Record) (*excelize.File, error) {
	const sheet = "Attendance"

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	headers := []string{"Date", "Student ID", "Student Name", "Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, errors.Wrap(err, "writing header")
		}
	}

	names := make(map[string]string)
	for i, rec := range records {
		name, ok := names[rec.StudentID]
		if !ok {
			usr, err := api.userSvc.GetByID(ctx.Request().Context(), rec.StudentID)
			if err != nil && !core.IsNotFound(err) {
				return nil, errors.Wrap(err, "finding student")
			}
			name = usr.Name()
			names[rec.StudentID] = name
		}

		row := i + 2
		values := []interface{}{rec.Date, rec.StudentID, name, rec.Status}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, errors.Wrap(err, "writing record")
			}
		}
	}
	return f, nil
}

type AttendanceResponse struct {
	Message  string `json:"message"`
	Students int    `json:"students"`
}

package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core/notification"
)

type notificationApi struct {
	svc      *notification.Service
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := notificationApi{svc: deps.NotificationSvc, validate: deps.Validate}

	ng := g.Group("/notifications", authed...)
	ng.POST("", api.send, staffMiddleware())
	ng.GET("", api.query)
}

func (api *notificationApi) send(ctx echo.Context) error {
	var data notification.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.Send(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "sending notification")
	}
	return ctx.JSON(http.StatusOK, NotificationResponse{
		Success:    true,
		Message:    "Notification sent successfully.",
		Recipients: n.Recipients,
	})
}

func (api *notificationApi) query(ctx echo.Context) error {
	notifications, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, notifications)
}

type NotificationResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Recipients int    `json:"recipients"`
}

package pushsvc

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/trezcool/lyceum/core"
)

const clickAction = "FLUTTER_NOTIFICATION_CLICK"

type fcmService struct {
	client *messaging.Client
}

var _ core.PushService = (*fcmService)(nil)

func NewFCMService(ctx context.Context, conf *core.Config) (core.PushService, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(conf.FirebaseCredentialsFile))
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing messaging client")
	}
	return &fcmService{client: client}, nil
}

func (svc *fcmService) Push(ctx context.Context, msg core.PushMessage) error {
	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["click_action"] = clickAction

	_, err := svc.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ClickAction: clickAction,
				Sound:       "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	})
	return errors.Wrap(err, "sending push notification")
}

package core

import "context"

type (
	PushMessage struct {
		Token string
		Title string
		Body  string
		Data  map[string]string
	}

	// PushService delivers notifications to a single device.
	PushService interface {
		Push(ctx context.Context, msg PushMessage) error
	}
)

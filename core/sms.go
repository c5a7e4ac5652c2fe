package core

import "context"

// SMSService is any service that can deliver text messages to phone numbers.
type SMSService interface {
	SendSMS(ctx context.Context, to, body string) error
}

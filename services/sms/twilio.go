package smssvc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/trezcool/lyceum/core"
)

type twilioService struct {
	client *twilio.RestClient
	from   string
}

var _ core.SMSService = (*twilioService)(nil)

func NewTwilioService(conf *core.Config) core.SMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: conf.Twilio.AccountSid,
		Password: conf.Twilio.AuthToken,
	})
	return &twilioService{client: client, from: conf.Twilio.FromNumber}
}

func (svc *twilioService) SendSMS(_ context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(svc.from)
	params.SetBody(body)

	if _, err := svc.client.Api.CreateMessage(params); err != nil {
		return errors.Wrap(err, "sending sms")
	}
	return nil
}

package paymentsvc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/trezcool/lyceum/core"
)

type stripeGateway struct {
	sc *client.API
}

var _ core.PaymentGateway = (*stripeGateway)(nil)

func NewStripeGateway(conf *core.Config) core.PaymentGateway {
	sc := &client.API{}
	sc.Init(conf.StripeSecretKey, nil)
	return &stripeGateway{sc: sc}
}

func (g *stripeGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (core.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return core.PaymentIntent{}, errors.Wrap(err, "creating payment intent")
	}
	return core.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

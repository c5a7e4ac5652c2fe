package core

import "context"

type (
	PaymentIntent struct {
		ID           string `json:"id"`
		ClientSecret string `json:"clientSecret"`
	}

	// PaymentGateway creates payment intents that clients confirm on their side.
	// amount is in the currency's minor unit.
	PaymentGateway interface {
		CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (PaymentIntent, error)
	}
)

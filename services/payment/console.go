package paymentsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/lyceum/core"
)

// Intent is a payment intent recorded by the console gateway.
type Intent struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

var (
	CreatedIntents = make([]Intent, 0)
	mu             sync.Mutex
)

// ResetCreatedIntents empties the records of the mock.
func ResetCreatedIntents() {
	mu.Lock()
	CreatedIntents = CreatedIntents[:0]
	mu.Unlock()
}

type consoleGateway struct {
	logger        core.Logger
	disableOutput bool
}

var _ core.PaymentGateway = (*consoleGateway)(nil)

// NewConsoleGateway hands out fake client secrets.
func NewConsoleGateway(logger core.Logger) core.PaymentGateway {
	return &consoleGateway{logger: logger}
}

func NewConsoleGatewayMock() core.PaymentGateway {
	return &consoleGateway{disableOutput: true}
}

func (g *consoleGateway) CreatePaymentIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (core.PaymentIntent, error) {
	id := "pi_" + core.NewID()
	if !g.disableOutput {
		g.logger.Info(fmt.Sprintf("payment intent %s: %d %s %v", id, amount, currency, metadata))
	}
	mu.Lock()
	CreatedIntents = append(CreatedIntents, Intent{Amount: amount, Currency: currency, Metadata: metadata})
	mu.Unlock()
	return core.PaymentIntent{ID: id, ClientSecret: id + "_secret"}, nil
}

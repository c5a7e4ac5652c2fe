package smssvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/lyceum/core"
)

// SMS is a text message recorded by the console services.
type SMS struct {
	To   string
	Body string
}

var (
	SentMessages = make([]SMS, 0)
	mu           sync.Mutex
)

// ResetSentMessages empties the outbox of the mock.
func ResetSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}

// LastMessageTo returns the latest SMS sent to a number.
func LastMessageTo(to string) (SMS, bool) {
	mu.Lock()
	defer mu.Unlock()
	for i := len(SentMessages) - 1; i >= 0; i-- {
		if SentMessages[i].To == to {
			return SentMessages[i], true
		}
	}
	return SMS{}, false
}

type consoleService struct {
	logger        core.Logger
	disableOutput bool
}

var _ core.SMSService = (*consoleService)(nil)

// NewConsoleService logs the text messages instead of sending them.
func NewConsoleService(logger core.Logger) core.SMSService {
	return &consoleService{logger: logger}
}

// NewConsoleServiceMock only records the text messages in SentMessages.
func NewConsoleServiceMock() core.SMSService {
	return &consoleService{disableOutput: true}
}

func (svc *consoleService) SendSMS(_ context.Context, to, body string) error {
	if !svc.disableOutput {
		svc.logger.Info(fmt.Sprintf("SMS to %s: %s", to, body))
	}
	mu.Lock()
	SentMessages = append(SentMessages, SMS{To: to, Body: body})
	mu.Unlock()
	return nil
}

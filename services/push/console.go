package pushsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/lyceum/core"
)

var (
	SentMessages = make([]core.PushMessage, 0)
	mu           sync.Mutex
)

// ResetSentMessages empties the outbox of the mock.
func ResetSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}

type consoleService struct {
	logger        core.Logger
	disableOutput bool
	failTokens    map[string]bool
}

var _ core.PushService = (*consoleService)(nil)

// NewConsoleService logs the notifications instead of pushing them.
func NewConsoleService(logger core.Logger) core.PushService {
	return &consoleService{logger: logger}
}

// NewConsoleServiceMock records the notifications in SentMessages.
// Pushing to one of failTokens returns an error.
func NewConsoleServiceMock(failTokens ...string) core.PushService {
	svc := &consoleService{disableOutput: true, failTokens: make(map[string]bool)}
	for _, t := range failTokens {
		svc.failTokens[t] = true
	}
	return svc
}

func (svc *consoleService) Push(_ context.Context, msg core.PushMessage) error {
	if svc.failTokens[msg.Token] {
		return fmt.Errorf("unregistered token %q", msg.Token)
	}
	if !svc.disableOutput {
		svc.logger.Info(fmt.Sprintf("push to %s: %s - %s", msg.Token, msg.Title, msg.Body))
	}
	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()
	return nil
}

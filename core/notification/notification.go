// Package notification fans push notifications out to every device of a role.
package notification

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
)

const defaultMaxConcurrentPushes = 16

var (
	// errors
	ErrNoRecipients = core.NewNotFoundError("no device tokens found for the target role")
)

type (
	Notification struct {
		ID         string    `json:"id" db:"id"`
		Title      string    `json:"title" db:"title"`
		Body       string    `json:"body" db:"body"`
		TargetRole string    `json:"targetRole" db:"target_role"`
		Recipients int       `json:"recipients" db:"recipients"`
		Failures   int       `json:"failures" db:"failures"`
		CreatedAt  time.Time `json:"timestamp" db:"created_at"` // UTC
	}

	NewNotification struct {
		TargetRole string            `json:"targetRole" validate:"required,oneof=student teacher admin"`
		Title      string            `json:"title" validate:"required"`
		Body       string            `json:"body" validate:"required"`
		Data       map[string]string `json:"data"`
	}

	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		QueryNotifications(ctx context.Context) ([]Notification, error)
	}

	TokenSource interface {
		DeviceTokens(ctx context.Context, role string) ([]string, error)
	}

	Service struct {
		repo    Repository
		tokens  TokenSource
		pushSvc core.PushService
		logger  core.Logger

		// MaxConcurrentPushes caps the in-flight pushes of a single Send.
		MaxConcurrentPushes int
	}
)

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.TargetRole = core.CleanString(nn.TargetRole, true /* lower */)
	nn.Title = core.CleanString(nn.Title)
	nn.Body = core.CleanString(nn.Body)
	return validate.Struct(nn)
}

func NewService(repo Repository, tokens TokenSource, pushSvc core.PushService, logger core.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, pushSvc: pushSvc, logger: logger, MaxConcurrentPushes: defaultMaxConcurrentPushes}
}

// Send pushes to every device of the target role, at most MaxConcurrentPushes at a time.
// Failed deliveries are logged and counted; they do not fail the whole send.
func (svc *Service) Send(ctx context.Context, nn NewNotification) (Notification, error) {
	tokens, err := svc.tokens.DeviceTokens(ctx, nn.TargetRole)
	if err != nil {
		return Notification{}, errors.Wrap(err, "getting device tokens")
	}
	if len(tokens) == 0 {
		return Notification{}, ErrNoRecipients
	}

	limit := svc.MaxConcurrentPushes
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var (
		wg       sync.WaitGroup
		failures int32
	)
	for _, token := range tokens {
		sem <- struct{}{}
		wg.Add(1)
		go func(token string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			msg := core.PushMessage{Token: token, Title: nn.Title, Body: nn.Body, Data: nn.Data}
			if err := svc.pushSvc.Push(ctx, msg); err != nil {
				atomic.AddInt32(&failures, 1)
				svc.logger.Warn(fmt.Sprintf("pushing notification: %v", err), err)
			}
		}(token)
	}
	wg.Wait()

	n, err := svc.repo.CreateNotification(ctx, Notification{
		ID:         core.NewID(),
		Title:      nn.Title,
		Body:       nn.Body,
		TargetRole: nn.TargetRole,
		Recipients: len(tokens),
		Failures:   int(failures),
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return Notification{}, errors.Wrap(err, "saving notification")
	}
	return n, nil
}

// NotifyRole is Send for callers that only need the number of recipients.
func (svc *Service) NotifyRole(ctx context.Context, role, title, body string, data map[string]string) (int, error) {
	n, err := svc.Send(ctx, NewNotification{TargetRole: role, Title: title, Body: body, Data: data})
	if err != nil {
		return 0, err
	}
	return n.Recipients, nil
}

func (svc *Service) Query(ctx context.Context) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx)
}

package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/notification"
)

const notificationColumns = "id, title, body, target_role, recipients, failures, created_at"

type notificationRepository struct {
	repo
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db core.DB) *notificationRepository {
	return &notificationRepository{repo{db: db}}
}

func (r notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	q := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES (:id, :title, :body, :target_role, :recipients, :failures, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, n); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (r notificationRepository) QueryNotifications(ctx context.Context) ([]notification.Notification, error) {
	notifications := make([]notification.Notification, 0)
	q := "SELECT " + notificationColumns + " FROM notifications ORDER BY created_at DESC"
	if err := r.db.SelectContext(ctx, &notifications, q); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifications, nil
}

package inmemdb

import (
	"context"

	"github.com/trezcool/lyceum/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.rows = append(repo.db.rows, n)
	return n, nil
}

// QueryNotifications returns the latest notifications first.
func (repo *notificationRepository) QueryNotifications(context.Context) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifications := make([]notification.Notification, 0, len(repo.db.rows))
	for i := len(repo.db.rows) - 1; i >= 0; i-- {
		notifications = append(notifications, repo.db.rows[i])
	}
	return notifications, nil
}

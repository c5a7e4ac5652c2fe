package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/schedule"
)

const scheduleColumns = `id, title, description, date, time, class_type, zoom_link, course_id, course_name,
	current_students, created_at, updated_at`

type scheduleRepository struct {
	repo
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db core.DB) *scheduleRepository {
	return &scheduleRepository{repo{db: db}}
}

func (r scheduleRepository) CreateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	q := `INSERT INTO schedules (` + scheduleColumns + `) VALUES (:id, :title, :description, :date, :time,
		:class_type, :zoom_link, :course_id, :course_name, :current_students, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, s); err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return s, nil
}

func (r scheduleRepository) QuerySchedules(ctx context.Context) ([]schedule.Schedule, error) {
	schedules := make([]schedule.Schedule, 0)
	q := "SELECT " + scheduleColumns + " FROM schedules ORDER BY date, time"
	if err := r.db.SelectContext(ctx, &schedules, q); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	return schedules, nil
}

package inmemdb

import (
	"context"

	"github.com/trezcool/lyceum/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) CreateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.rows = append(repo.db.rows, s)
	return s, nil
}

func (repo *scheduleRepository) QuerySchedules(context.Context) ([]schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append(make([]schedule.Schedule, 0, len(repo.db.rows)), repo.db.rows...), nil
}

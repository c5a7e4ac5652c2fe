package inmemdb

import (
	"context"

	"github.com/trezcool/lyceum/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

// save must be called with the lock held.
func (repo *attendanceRepository) save(rec attendance.Record) {
	if _, ok := repo.db.table[rec.ID]; !ok {
		repo.db.order = append(repo.db.order, rec.ID)
	}
	repo.db.table[rec.ID] = &rec
}

func (repo *attendanceRepository) AddAbsentees(_ context.Context, records []attendance.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, rec := range records {
		if _, ok := repo.db.table[rec.ID]; !ok {
			repo.save(rec)
		}
	}
	return nil
}

func (repo *attendanceRepository) SaveRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.save(rec)
	return rec, nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0)
	for _, id := range repo.db.order {
		rec := repo.db.table[id]
		if filter.CourseID != "" && rec.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

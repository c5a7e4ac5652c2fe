package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/attendance"
)

const attendanceColumns = "id, course_id, date, student_id, status, updated_at"

type attendanceRepository struct {
	repo
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db core.DB) *attendanceRepository {
	return &attendanceRepository{repo{db: db}}
}

func (r attendanceRepository) AddAbsentees(ctx context.Context, records []attendance.Record) error {
	if len(records) == 0 {
		return nil
	}
	q := `INSERT INTO attendance (` + attendanceColumns + `)
		VALUES (:id, :course_id, :date, :student_id, :status, :updated_at)
		ON CONFLICT (id) DO NOTHING`
	return core.InTx(ctx, r.db, func(tx core.DBExecutor) error {
		for _, rec := range records {
			if _, err := sqlx.NamedExecContext(ctx, tx, q, rec); err != nil {
				return errors.Wrapf(err, "inserting attendance record %s", rec.ID)
			}
		}
		return nil
	})
}

func (r attendanceRepository) SaveRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := `INSERT INTO attendance (` + attendanceColumns + `)
		VALUES (:id, :course_id, :date, :student_id, :status, :updated_at)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, rec); err != nil {
		return attendance.Record{}, errors.Wrap(err, "saving attendance record")
	}
	return rec, nil
}

func (r attendanceRepository) QueryRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conds = append(conds, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conds = append(conds, fmt.Sprintf("student_id = $%d", len(args)))
	}
	q := "SELECT " + attendanceColumns + " FROM attendance"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY date, student_id"

	records := make([]attendance.Record, 0)
	if err := r.db.SelectContext(ctx, &records, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return records, nil
}

package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/billing"
	"github.com/trezcool/lyceum/core/course"
	"github.com/trezcool/lyceum/core/enrollment"
)

type (
	enrollmentRepository struct {
		repo
	}

	enrollmentRow struct {
		ID         string         `db:"id"`
		CourseID   string         `db:"course_id"`
		UserID     string         `db:"user_id"`
		EnrolledAt null.Time      `db:"enrolled_at"`
		PaidMonths pq.StringArray `db:"paid_months"`
	}

	enrolledCourseRow struct {
		enrollmentRow
		Course course.Course `db:"course"`
	}
)

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db core.DB) *enrollmentRepository {
	return &enrollmentRepository{repo{db: db}}
}

func (row enrollmentRow) enrollment() enrollment.Enrollment {
	months := make([]billing.MonthID, 0, len(row.PaidMonths))
	for _, m := range row.PaidMonths {
		months = append(months, billing.MonthID(m))
	}
	return enrollment.Enrollment{
		ID:         row.ID,
		CourseID:   row.CourseID,
		UserID:     row.UserID,
		EnrolledAt: row.EnrolledAt,
		PaidMonths: months,
	}
}

// filterClause turns the non-empty fields of filter into a WHERE clause.
func filterClause(filter enrollment.Filter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conds = append(conds, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	months := make(pq.StringArray, 0, len(e.PaidMonths))
	for _, m := range e.PaidMonths {
		months = append(months, m.String())
	}
	q := `INSERT INTO enrollments (id, course_id, user_id, enrolled_at, paid_months) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, q, e.ID, e.CourseID, e.UserID, e.EnrolledAt, months); err != nil {
		if isUniqueViolation(err) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (r enrollmentRepository) GetEnrollment(ctx context.Context, userID, courseID string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	q := `SELECT id, course_id, user_id, enrolled_at, paid_months FROM enrollments WHERE user_id = $1 AND course_id = $2`
	if err := r.db.GetContext(ctx, &row, q, userID, courseID); err != nil {
		return enrollment.Enrollment{}, r.trapNoRowsErr(err, enrollment.ErrNotFound, "finding enrollment")
	}
	return row.enrollment(), nil
}

func (r enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.Filter) ([]enrollment.Enrollment, error) {
	where, args := filterClause(filter)
	var rows []enrollmentRow
	q := "SELECT id, course_id, user_id, enrolled_at, paid_months FROM enrollments" + where + " ORDER BY enrolled_at"
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.enrollment())
	}
	return enrollments, nil
}

func (r enrollmentRepository) QueryEnrolledCourses(ctx context.Context, userID string) ([]enrollment.EnrolledCourse, error) {
	var rows []enrolledCourseRow
	q := `SELECT e.id, e.course_id, e.user_id, e.enrolled_at, e.paid_months,
			c.id AS "course.id", c.name AS "course.name", c.code AS "course.code",
			c.description AS "course.description", c.status AS "course.status", c.schedule AS "course.schedule",
			c.start_date AS "course.start_date", c.price AS "course.price", c.created_at AS "course.created_at"
		FROM enrollments e JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.enrolled_at`
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying enrolled courses")
	}
	courses := make([]enrollment.EnrolledCourse, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, enrollment.EnrolledCourse{Enrollment: row.enrollment(), Course: row.Course})
	}
	return courses, nil
}

func (r enrollmentRepository) RecordPayment(ctx context.Context, enrollmentID string, p enrollment.Payment) (enrollment.Payment, error) {
	err := core.InTx(ctx, r.db, func(tx core.DBExecutor) error {
		res, err := tx.ExecContext(ctx, `UPDATE enrollments SET paid_months = array_append(paid_months, $2::text)
			WHERE id = $1 AND NOT ($2::text = ANY(paid_months))`, enrollmentID, p.Month.String())
		if err != nil {
			return errors.Wrap(err, "updating paid months")
		}
		if err = expectRows(res, enrollment.ErrMonthAlreadyPaid); err != nil {
			var exists bool
			if e := tx.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM enrollments WHERE id = $1)", enrollmentID); e != nil {
				return errors.Wrap(e, "checking enrollment")
			}
			if !exists {
				return enrollment.ErrNotFound
			}
			return err
		}

		q := `INSERT INTO payments (id, course_id, user_id, amount, month, paid_at) VALUES ($1, $2, $3, $4, $5, $6)`
		_, err = tx.ExecContext(ctx, q, p.ID, p.CourseID, p.UserID, p.Amount, p.Month.String(), p.PaidAt)
		return errors.Wrap(err, "inserting payment")
	})
	if err != nil {
		return enrollment.Payment{}, err
	}
	return p, nil
}

func (r enrollmentRepository) QueryPayments(ctx context.Context, filter enrollment.Filter) ([]enrollment.Payment, error) {
	where, args := filterClause(filter)
	payments := make([]enrollment.Payment, 0)
	q := "SELECT id, course_id, user_id, amount, month, paid_at FROM payments" + where + " ORDER BY paid_at"
	if err := r.db.SelectContext(ctx, &payments, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments, nil
}

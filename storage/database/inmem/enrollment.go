package inmemdb

import (
	"context"

	"github.com/trezcool/lyceum/core/billing"
	"github.com/trezcool/lyceum/core/enrollment"
)

type enrollmentRepository struct {
	db      *enrollmentTable
	courses *courseTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db.enrollment, courses: db.course}
}

// clone copies the paid months so callers never share the stored slice.
func clone(e enrollment.Enrollment) enrollment.Enrollment {
	e.PaidMonths = append([]billing.MonthID{}, e.PaidMonths...)
	return e
}

func matches(filter enrollment.Filter, userID, courseID string) bool {
	return (filter.UserID == "" || filter.UserID == userID) && (filter.CourseID == "" || filter.CourseID == courseID)
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == e.UserID && existing.CourseID == e.CourseID {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
	}
	stored := clone(e)
	repo.db.table[e.ID] = &stored
	repo.db.order = append(repo.db.order, e.ID)
	return clone(e), nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, userID, courseID string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, e := range repo.db.table {
		if e.UserID == userID && e.CourseID == courseID {
			return clone(*e), nil
		}
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) QueryEnrollments(_ context.Context, filter enrollment.Filter) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]enrollment.Enrollment, 0)
	for _, id := range repo.db.order {
		e := repo.db.table[id]
		if matches(filter, e.UserID, e.CourseID) {
			enrollments = append(enrollments, clone(*e))
		}
	}
	return enrollments, nil
}

func (repo *enrollmentRepository) QueryEnrolledCourses(_ context.Context, userID string) ([]enrollment.EnrolledCourse, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.courses.RLock()
	defer repo.courses.RUnlock()

	courses := make([]enrollment.EnrolledCourse, 0)
	for _, id := range repo.db.order {
		e := repo.db.table[id]
		if e.UserID != userID {
			continue
		}
		c, ok := repo.courses.table[e.CourseID]
		if !ok {
			continue
		}
		courses = append(courses, enrollment.EnrolledCourse{Enrollment: clone(*e), Course: *c})
	}
	return courses, nil
}

func (repo *enrollmentRepository) RecordPayment(_ context.Context, enrollmentID string, p enrollment.Payment) (enrollment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.table[enrollmentID]
	if !ok {
		return enrollment.Payment{}, enrollment.ErrNotFound
	}
	for _, m := range e.PaidMonths {
		if m == p.Month {
			return enrollment.Payment{}, enrollment.ErrMonthAlreadyPaid
		}
	}
	e.PaidMonths = append(e.PaidMonths, p.Month)
	repo.db.payments = append(repo.db.payments, p)
	return p, nil
}

func (repo *enrollmentRepository) QueryPayments(_ context.Context, filter enrollment.Filter) ([]enrollment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	payments := make([]enrollment.Payment, 0)
	for _, p := range repo.db.payments {
		if matches(filter, p.UserID, p.CourseID) {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

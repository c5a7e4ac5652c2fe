// Package enrollment links students to courses and tracks their monthly fees.
package enrollment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/billing"
	"github.com/trezcool/lyceum/core/course"
	"github.com/trezcool/lyceum/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("enrollment not found")
	ErrAlreadyEnrolled  = errors.New("user is already enrolled in this course")
	ErrMonthAlreadyPaid = errors.New("payment for this month has already been made")
	ErrMonthOutOfRange  = errors.New("month must be between the enrollment month and the current month")
)

type (
	Enrollment struct {
		ID         string            `json:"id"`
		CourseID   string            `json:"courseId"`
		UserID     string            `json:"userId"`
		EnrolledAt null.Time         `json:"enrolledAt"` // UTC
		PaidMonths []billing.MonthID `json:"paidMonths"`
	}

	EnrolledCourse struct {
		Enrollment
		Course course.Course `json:"course"`
	}

	Payment struct {
		ID       string          `json:"id" db:"id"`
		CourseID string          `json:"courseId" db:"course_id"`
		UserID   string          `json:"userId" db:"user_id"`
		Amount   decimal.Decimal `json:"amount" db:"amount"`
		Month    billing.MonthID `json:"month" db:"month"`
		PaidAt   time.Time       `json:"paidAt" db:"paid_at"` // UTC
	}

	NewEnrollment struct {
		CourseID string `json:"courseId" validate:"required"`
		UserID   string `json:"userId" validate:"required"`
	}

	NewMonthlyFee struct {
		CourseID string          `json:"courseId" validate:"required"`
		UserID   string          `json:"userId" validate:"required"`
		Amount   decimal.Decimal `json:"amount"`
		Month    billing.MonthID `json:"month" validate:"required,monthid"`
	}

	Filter struct {
		UserID   string `query:"userId"`
		CourseID string `query:"courseId"`
	}

	Repository interface {
		// CreateEnrollment returns ErrAlreadyEnrolled if the (user, course) pair exists.
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter Filter) ([]Enrollment, error)
		QueryEnrolledCourses(ctx context.Context, userID string) ([]EnrolledCourse, error)
		// RecordPayment appends p.Month to the paid months of the enrollment and saves p,
		// both or none. It returns ErrMonthAlreadyPaid if the month is already paid.
		RecordPayment(ctx context.Context, enrollmentID string, p Payment) (Payment, error)
		QueryPayments(ctx context.Context, filter Filter) ([]Payment, error)
	}

	CourseGetter interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo    Repository
		courses CourseGetter
		users   UserGetter
		NowFunc func() time.Time // mockable
	}
)

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.CourseID = core.CleanString(ne.CourseID)
	ne.UserID = core.CleanString(ne.UserID)
	return validate.Struct(ne)
}

func (nf *NewMonthlyFee) Validate(validate *validator.Validate) error {
	nf.CourseID = core.CleanString(nf.CourseID)
	nf.UserID = core.CleanString(nf.UserID)
	nf.Month = billing.MonthID(core.CleanString(string(nf.Month)))

	if err := validate.Struct(nf); err != nil {
		return err
	}
	if !nf.Amount.IsPositive() {
		return core.NewFieldError("amount", "amount must be greater than 0")
	}
	return nil
}

func NewService(repo Repository, courses CourseGetter, users UserGetter) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		users:   users,
		NowFunc: time.Now,
	}
}

func (svc *Service) now() time.Time {
	return svc.NowFunc().UTC()
}

// Enroll registers a student in a course. The enrollment month is paid upfront.
func (svc *Service) Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	if _, err := svc.courses.GetByID(ctx, ne.CourseID); err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.users.GetByID(ctx, ne.UserID); err != nil {
		return Enrollment{}, err
	}

	now := svc.now()
	e := Enrollment{
		ID:         core.NewID(),
		CourseID:   ne.CourseID,
		UserID:     ne.UserID,
		EnrolledAt: null.TimeFrom(now),
		PaidMonths: []billing.MonthID{billing.MonthOf(now)},
	}
	e, err := svc.repo.CreateEnrollment(ctx, e)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "courseId", Error: err.Error()})
		}
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return e, nil
}

func (svc *Service) Get(ctx context.Context, userID, courseID string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, userID, courseID)
}

func (svc *Service) Query(ctx context.Context, filter Filter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

func (svc *Service) QueryCourses(ctx context.Context, userID string) ([]EnrolledCourse, error) {
	return svc.repo.QueryEnrolledCourses(ctx, userID)
}

// DueMonths lists the months the student still has to pay for the course.
func (svc *Service) DueMonths(ctx context.Context, userID, courseID string) ([]billing.MonthID, error) {
	e, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	due, err := billing.ComputeDueMonths(e.EnrolledAt.Time, e.PaidMonths, svc.now())
	if err != nil {
		return nil, core.NewValidationError(err)
	}
	return due, nil
}

// RecordMonthlyFee marks a month as paid and keeps a Payment for the history.
func (svc *Service) RecordMonthlyFee(ctx context.Context, nf NewMonthlyFee) (Payment, error) {
	e, err := svc.repo.GetEnrollment(ctx, nf.UserID, nf.CourseID)
	if err != nil {
		return Payment{}, err
	}
	if !e.EnrolledAt.Valid {
		return Payment{}, core.NewValidationError(billing.ErrInvalidEnrollmentDate)
	}

	now := svc.now()
	if !billing.InRange(nf.Month, e.EnrolledAt.Time, now) {
		return Payment{}, core.NewValidationError(ErrMonthOutOfRange, core.FieldError{Field: "month", Error: ErrMonthOutOfRange.Error()})
	}
	for _, m := range e.PaidMonths {
		if m == nf.Month {
			return Payment{}, core.NewValidationError(ErrMonthAlreadyPaid)
		}
	}

	p := Payment{
		ID:       core.NewID(),
		CourseID: e.CourseID,
		UserID:   e.UserID,
		Amount:   nf.Amount,
		Month:    nf.Month,
		PaidAt:   now,
	}
	p, err = svc.repo.RecordPayment(ctx, e.ID, p)
	if err != nil {
		if errors.Cause(err) == ErrMonthAlreadyPaid {
			return Payment{}, core.NewValidationError(err)
		}
		return Payment{}, errors.Wrap(err, "recording payment")
	}
	return p, nil
}

func (svc *Service) Payments(ctx context.Context, filter Filter) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, filter)
}

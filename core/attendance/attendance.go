package attendance

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/enrollment"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

var (
	// errors
	ErrNoEnrollments = core.NewNotFoundError("no students enrolled in this course")
	ErrNotEnrolled   = errors.New("student is not enrolled in this course")
)

type (
	Record struct {
		ID        string    `json:"id" db:"id"`
		CourseID  string    `json:"courseId" db:"course_id"`
		Date      string    `json:"date" db:"date"` // YYYY-MM-DD
		StudentID string    `json:"studentId" db:"student_id"`
		Status    string    `json:"status" db:"status"`
		UpdatedAt time.Time `json:"updatedAt" db:"updated_at"` // UTC
	}

	// Mark opens the register of a course for a date.
	// When StudentID is set, that student is checked in.
	Mark struct {
		CourseID  string `json:"courseId" validate:"required"`
		Date      string `json:"date" validate:"required,isodate"`
		StudentID string `json:"studentId"`
	}

	Filter struct {
		CourseID  string `query:"courseId"`
		StudentID string `query:"studentId"`
	}

	Repository interface {
		// AddAbsentees inserts the records that do not exist yet and leaves the others untouched.
		AddAbsentees(ctx context.Context, records []Record) error
		// SaveRecord inserts or replaces a record.
		SaveRecord(ctx context.Context, rec Record) (Record, error)
		QueryRecords(ctx context.Context, filter Filter) ([]Record, error)
	}

	EnrollmentQuerier interface {
		Query(ctx context.Context, filter enrollment.Filter) ([]enrollment.Enrollment, error)
	}

	Service struct {
		repo        Repository
		enrollments EnrollmentQuerier
	}
)

// RecordID is unique per course, date and student.
func RecordID(courseID, date, studentID string) string {
	return courseID + "_" + date + "_" + studentID
}

func (m *Mark) Validate(validate *validator.Validate) error {
	m.CourseID = core.CleanString(m.CourseID)
	m.Date = core.CleanString(m.Date)
	m.StudentID = core.CleanString(m.StudentID)
	return validate.Struct(m)
}

func NewService(repo Repository, enrollments EnrollmentQuerier) *Service {
	return &Service{repo: repo, enrollments: enrollments}
}

// Mark makes sure every enrolled student has a record for the date, absent by default,
// then checks in m.StudentID if given. It returns the number of enrolled students.
func (svc *Service) Mark(ctx context.Context, m Mark) (int, error) {
	enrollments, err := svc.enrollments.Query(ctx, enrollment.Filter{CourseID: m.CourseID})
	if err != nil {
		return 0, errors.Wrap(err, "querying enrollments")
	}
	if len(enrollments) == 0 {
		return 0, ErrNoEnrollments
	}

	now := time.Now().UTC()
	studentEnrolled := m.StudentID == ""
	absentees := make([]Record, 0, len(enrollments))
	for _, e := range enrollments {
		if e.UserID == m.StudentID {
			studentEnrolled = true
		}
		absentees = append(absentees, Record{
			ID:        RecordID(m.CourseID, m.Date, e.UserID),
			CourseID:  m.CourseID,
			Date:      m.Date,
			StudentID: e.UserID,
			Status:    StatusAbsent,
			UpdatedAt: now,
		})
	}
	if !studentEnrolled {
		return 0, core.NewValidationError(ErrNotEnrolled, core.FieldError{Field: "studentId", Error: ErrNotEnrolled.Error()})
	}

	if err = svc.repo.AddAbsentees(ctx, absentees); err != nil {
		return 0, errors.Wrap(err, "adding absentees")
	}

	if m.StudentID != "" {
		rec := Record{
			ID:        RecordID(m.CourseID, m.Date, m.StudentID),
			CourseID:  m.CourseID,
			Date:      m.Date,
			StudentID: m.StudentID,
			Status:    StatusPresent,
			UpdatedAt: now,
		}
		if _, err = svc.repo.SaveRecord(ctx, rec); err != nil {
			return 0, errors.Wrap(err, "checking in student")
		}
	}
	return len(enrollments), nil
}

func (svc *Service) Query(ctx context.Context, filter Filter) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter)
}

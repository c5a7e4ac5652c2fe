package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/course"
	"github.com/trezcool/lyceum/core/user"
)

type (
	Schedule struct {
		ID              string    `json:"id" db:"id"`
		Title           string    `json:"title" db:"title"`
		Description     string    `json:"description" db:"description"`
		Date            string    `json:"date" db:"date"` // YYYY-MM-DD
		Time            string    `json:"time" db:"time"` // HH:MM
		ClassType       string    `json:"classType" db:"class_type"`
		ZoomLink        string    `json:"zoomLink" db:"zoom_link"`
		CourseID        string    `json:"courseId" db:"course_id"`
		CourseName      string    `json:"courseName" db:"course_name"`
		CurrentStudents int       `json:"currentStudents" db:"current_students"`
		CreatedAt       time.Time `json:"createdAt" db:"created_at"` // UTC
		UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"` // UTC
	}

	NewSchedule struct {
		Title           string `json:"title" validate:"required"`
		Description     string `json:"description"`
		Date            string `json:"date" validate:"required,isodate"`
		Time            string `json:"time" validate:"required,clocktime"`
		ClassType       string `json:"classType"`
		ZoomLink        string `json:"zoomLink" validate:"omitempty,url"`
		CourseID        string `json:"courseId" validate:"required"`
		CourseName      string `json:"courseName" validate:"required"`
		CurrentStudents int    `json:"currentStudents" validate:"gte=0"`
	}

	Repository interface {
		CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		QuerySchedules(ctx context.Context) ([]Schedule, error)
	}

	CourseGetter interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo     Repository
		courses  CourseGetter
		notifier course.Notifier
		logger   core.Logger
	}
)

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	ns.Date = core.CleanString(ns.Date)
	ns.Time = core.CleanString(ns.Time)
	ns.ClassType = core.CleanString(ns.ClassType)
	ns.ZoomLink = core.CleanString(ns.ZoomLink)
	ns.CourseID = core.CleanString(ns.CourseID)
	ns.CourseName = core.CleanString(ns.CourseName)
	return validate.Struct(ns)
}

func NewService(repo Repository, courses CourseGetter, notifier course.Notifier, logger core.Logger) *Service {
	return &Service{repo: repo, courses: courses, notifier: notifier, logger: logger}
}

// Create saves the class and lets students know about it.
func (svc *Service) Create(ctx context.Context, ns NewSchedule) (Schedule, error) {
	if _, err := svc.courses.GetByID(ctx, ns.CourseID); err != nil {
		return Schedule{}, err
	}

	now := time.Now().UTC()
	s, err := svc.repo.CreateSchedule(ctx, Schedule{
		ID:              core.NewID(),
		Title:           ns.Title,
		Description:     ns.Description,
		Date:            ns.Date,
		Time:            ns.Time,
		ClassType:       ns.ClassType,
		ZoomLink:        ns.ZoomLink,
		CourseID:        ns.CourseID,
		CourseName:      ns.CourseName,
		CurrentStudents: ns.CurrentStudents,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Schedule{}, errors.Wrap(err, "creating schedule")
	}

	title := "Class Scheduled: " + s.Title
	body := fmt.Sprintf("%s on %s at %s", s.CourseName, s.Date, s.Time)
	if _, err = svc.notifier.NotifyRole(ctx, user.RoleStudent, title, body, map[string]string{"scheduleId": s.ID, "courseId": s.CourseID}); err != nil {
		svc.logger.Warn(fmt.Sprintf("notifying students of schedule %s: %v", s.ID, err), err)
	}
	return s, nil
}

func (svc *Service) Query(ctx context.Context) ([]Schedule, error) {
	return svc.repo.QuerySchedules(ctx)
}

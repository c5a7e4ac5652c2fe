package course

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/user"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("course not found")
	ErrCodeExists = errors.New("a course with this code already exists")
)

type (
	Course struct {
		ID          string              `json:"id" db:"id"`
		Name        string              `json:"courseName" db:"name"`
		Code        string              `json:"courseCode" db:"code"`
		Description string              `json:"description" db:"description"`
		Status      string              `json:"status" db:"status"`
		Schedule    string              `json:"schedule" db:"schedule"`
		StartDate   string              `json:"startDate" db:"start_date"` // YYYY-MM-DD
		Price       decimal.NullDecimal `json:"price" db:"price"`
		CreatedAt   time.Time           `json:"createdAt" db:"created_at"` // UTC
	}

	NewCourse struct {
		Name        string           `json:"courseName" validate:"required"`
		Code        string           `json:"courseCode" validate:"required"`
		Description string           `json:"description" validate:"required"`
		Status      string           `json:"status" validate:"required"`
		Schedule    string           `json:"schedule" validate:"required"`
		StartDate   string           `json:"startDate" validate:"required,isodate"`
		Price       *decimal.Decimal `json:"price"`
	}

	Repository interface {
		// CreateCourse returns ErrCodeExists when the code is taken.
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
	}

	// Notifier pushes a notification to every User having a role.
	Notifier interface {
		NotifyRole(ctx context.Context, role, title, body string, data map[string]string) (int, error)
	}

	Service struct {
		repo     Repository
		notifier Notifier
		logger   core.Logger
	}
)

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)
	nc.Description = core.CleanString(nc.Description)
	nc.Status = core.CleanString(nc.Status, true /* lower */)
	nc.Schedule = core.CleanString(nc.Schedule)
	nc.StartDate = core.CleanString(nc.StartDate)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	if nc.Price != nil && nc.Price.IsNegative() {
		return core.NewFieldError("price", "price cannot be negative")
	}
	return nil
}

func NewService(repo Repository, notifier Notifier, logger core.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// Create saves the Course then lets students know about it.
// Failing to notify does not fail the creation.
func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	c := Course{
		ID:          core.NewID(),
		Name:        nc.Name,
		Code:        nc.Code,
		Description: nc.Description,
		Status:      nc.Status,
		Schedule:    nc.Schedule,
		StartDate:   nc.StartDate,
		CreatedAt:   time.Now().UTC(),
	}
	if nc.Price != nil {
		c.Price = decimal.NewNullDecimal(*nc.Price)
	}

	c, err := svc.repo.CreateCourse(ctx, c)
	if err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "courseCode", Error: err.Error()})
		}
		return Course{}, errors.Wrap(err, "creating course")
	}

	body := fmt.Sprintf("%s (%s) starts on %s. Enroll now!", c.Name, c.Code, c.StartDate)
	if _, err = svc.notifier.NotifyRole(ctx, user.RoleStudent, "New Course Available", body, map[string]string{"courseId": c.ID}); err != nil {
		svc.logger.Warn(fmt.Sprintf("notifying students of course %s: %v", c.ID, err), err)
	}
	return c, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

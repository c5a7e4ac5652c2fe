package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/course"
	"github.com/trezcool/lyceum/core/user"
	logsvc "github.com/trezcool/lyceum/services/logger"
)

// NewLogger returns a silent logger that never reports to Rollbar.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with every custom tag & translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

type UserOption func(usr *user.User)

func WithPhone(phone string) UserOption {
	return func(usr *user.User) { usr.PhoneNumber = null.StringFrom(phone) }
}

func WithDeviceToken(token string) UserOption {
	return func(usr *user.User) { usr.DeviceToken = null.StringFrom(token) }
}

func Blocked(usr *user.User) {
	usr.Status = user.StatusBlocked
}

func CreatedAt(t time.Time) UserOption {
	return func(usr *user.User) {
		usr.CreatedAt = t.UTC()
		usr.UpdatedAt = t.UTC()
	}
}

func CreateUser(t *testing.T, repo user.Repository, fname, lname, email, pwd, role string, opts ...UserOption) user.User {
	tstamp := time.Now().UTC()
	usr := user.User{
		ID:        core.NewID(),
		FirstName: fname,
		LastName:  lname,
		Email:     email,
		Role:      role,
		Status:    user.StatusActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	for _, opt := range opts {
		opt(&usr)
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, name, code string, price ...decimal.Decimal) course.Course {
	c := course.Course{
		ID:          core.NewID(),
		Name:        name,
		Code:        code,
		Description: name + " course",
		Status:      "active",
		Schedule:    "Mon-Wed 18:00",
		StartDate:   "2024-01-15",
		CreatedAt:   time.Now().UTC(),
	}
	if len(price) > 0 {
		c.Price = decimal.NewNullDecimal(price[0])
	}
	c, err := repo.CreateCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

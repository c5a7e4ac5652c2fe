package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lyceum/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
	ErrPhoneExists = errors.New("a user with this phone number already exists")
	errInvalidVal  = "invalid value"
)

type (
	Repository interface {
		// CheckUniqueness returns ErrEmailExists or ErrPhoneExists when another User
		// (not in excludedUsers) already owns the email or phone number. Empty values are ignored.
		CheckUniqueness(ctx context.Context, email, phoneNumber string, excludedUsers []User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, email, phoneNumber string, exclUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		QueryStudents(ctx context.Context) ([]User, error)
		UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error)
		SetProfilePicture(ctx context.Context, id, url string) (User, error)
		SetDeviceToken(ctx context.Context, id, token string) (User, error)
		ToggleBlocked(ctx context.Context, id string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		MarkPhoneVerified(ctx context.Context, phoneNumber string) (User, error)
		DeviceTokens(ctx context.Context, role string) ([]string, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		tokenGen *TokenGenerator
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		tokenGen: NewTokenGenerator(conf),
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, email, phoneNumber string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(ctx, email, phoneNumber, exclUsers); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrEmailExists:
			field = "email"
		case ErrPhoneExists:
			field = "phoneNumber"
		default:
			return errors.Wrap(err, "checking uniqueness")
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:          core.NewID(),
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		Email:       nu.Email,
		Role:        nu.Role,
		Status:      StatusActive,
		PhoneNumber: null.NewString(nu.PhoneNumber, nu.PhoneNumber != ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if usr.IsStudent() {
		usr.StudentID = null.StringFrom(studentNumber(usr.ID, now))
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// studentNumber derives a human friendly identifier, e.g. "STD-2024-8F0C6A52".
func studentNumber(id string, at time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return "STD-" + at.Format("2006") + "-" + short
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) QueryStudents(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{Role: RoleStudent})
}

func (svc *service) UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error) {
	usr.FirstName = up.FirstName
	usr.LastName = up.LastName
	if up.PhoneNumber != "" && up.PhoneNumber != usr.PhoneNumber.String {
		usr.PhoneNumber = null.StringFrom(up.PhoneNumber)
		usr.PhoneVerified = false
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) update(ctx context.Context, id string, change func(usr *User)) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	change(&usr)
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetProfilePicture(ctx context.Context, id, url string) (User, error) {
	return svc.update(ctx, id, func(usr *User) {
		usr.ImageURL = null.StringFrom(url)
	})
}

func (svc *service) SetDeviceToken(ctx context.Context, id, token string) (User, error) {
	return svc.update(ctx, id, func(usr *User) {
		usr.DeviceToken = null.NewString(token, token != "")
	})
}

// ToggleBlocked blocks an active User and unblocks a blocked one.
func (svc *service) ToggleBlocked(ctx context.Context, id string) (User, error) {
	return svc.update(ctx, id, func(usr *User) {
		if usr.IsBlocked() {
			usr.Status = StatusActive
		} else {
			usr.Status = StatusBlocked
		}
	})
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(time.Now().UTC())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) MarkPhoneVerified(ctx context.Context, phoneNumber string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{PhoneNumber: phoneNumber})
	if err != nil {
		return User{}, err
	}
	usr.PhoneVerified = true
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// DeviceTokens lists the push tokens of the active Users having the given role.
func (svc *service) DeviceTokens(ctx context.Context, role string) ([]string, error) {
	users, err := svc.repo.QueryUsers(ctx, QueryFilter{Role: role, Status: StatusActive, WithDeviceToken: true})
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	tokens := make([]string, 0, len(users))
	for _, usr := range users {
		tokens = append(tokens, usr.DeviceToken.String)
	}
	return tokens, nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if usr.IsBlocked() {
		return ErrNotFound
	}
	token, err := svc.tokenGen.MakeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  usr.Name(),
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalidUID := core.NewValidationError(nil, core.FieldError{Field: "uid", Error: errInvalidVal})

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalidUID
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalidUID
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokenGen.verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "token", Error: errInvalidVal})
	}
	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

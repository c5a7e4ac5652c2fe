package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/lyceum/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Statuses
const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

type User struct {
	ID            string      `json:"uid" db:"id"`
	FirstName     string      `json:"fname" db:"first_name"`
	LastName      string      `json:"lname" db:"last_name"`
	Email         string      `json:"email" db:"email"`
	Role          string      `json:"role" db:"role"`
	Status        string      `json:"status" db:"status"`
	PhoneNumber   null.String `json:"phoneNumber" db:"phone_number"`
	PhoneVerified bool        `json:"phoneVerified" db:"phone_verified"`
	StudentID     null.String `json:"stdId" db:"student_id"`
	ImageURL      null.String `json:"imageUrl" db:"image_url"`
	QRCodeURL     null.String `json:"qrCodeUrl" db:"qr_code_url"`
	DeviceToken   null.String `json:"-" db:"device_token"`
	PasswordHash  []byte      `json:"-" db:"password_hash"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"` // UTC
	LastLogin     null.Time   `json:"lastLogin" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) Name() string {
	return core.CleanString(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// IsStaff is true for teachers and admins.
func (u *User) IsStaff() bool { return u.IsTeacher() || u.IsAdmin() }

func (u *User) IsBlocked() bool { return u.Status == StatusBlocked }

// NewUser contains information needed to register a new User.
// Admins can only be created from the admin CLI.
type NewUser struct {
	FirstName   string `json:"fname" validate:"required"`
	LastName    string `json:"lname" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Role        string `json:"role" validate:"required,oneof=student teacher"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.PhoneNumber = core.CleanString(nu.PhoneNumber)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email, nu.PhoneNumber)
}

// UpdateProfile defines what a User may change on their own profile.
type UpdateProfile struct {
	FirstName   string `json:"fname"`
	LastName    string `json:"lname"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
}

func (up *UpdateProfile) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(up.FirstName); name != "" {
		up.FirstName = name
	} else {
		up.FirstName = origUsr.FirstName
	}
	if name := core.CleanString(up.LastName); name != "" {
		up.LastName = name
	} else {
		up.LastName = origUsr.LastName
	}
	up.PhoneNumber = core.CleanString(up.PhoneNumber)

	if err := validate.Struct(up); err != nil {
		return err
	}
	if up.PhoneNumber == "" || up.PhoneNumber == origUsr.PhoneNumber.String {
		return nil
	}
	return svc.CheckUniqueness(ctx, "", up.PhoneNumber, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// GetFilter finds a single User; the first non-empty field wins.
type GetFilter struct {
	ID          string
	Email       string
	PhoneNumber string
}

// QueryFilter applies AND operation on the non-empty fields.
type QueryFilter struct {
	Role            string
	Status          string
	WithDeviceToken bool
}

package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/user"
)

const userColumns = `id, first_name, last_name, email, role, status, phone_number, phone_verified, student_id,
	image_url, qr_code_url, device_token, password_hash, created_at, updated_at, last_login`

type userRepository struct {
	repo
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{repo{db: db}}
}

func (r userRepository) CheckUniqueness(ctx context.Context, email, phoneNumber string, excludedUsers []user.User) error {
	if email == "" && phoneNumber == "" {
		return nil
	}
	ids := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		ids = append(ids, u.ID)
	}

	var found []struct {
		Email       string      `db:"email"`
		PhoneNumber null.String `db:"phone_number"`
	}
	q := `SELECT email, phone_number FROM users
		WHERE (email = $1 OR (phone_number IS NOT NULL AND phone_number = $2)) AND NOT (id = ANY($3))`
	if err := r.db.SelectContext(ctx, &found, q, email, phoneNumber, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, f := range found {
		if email != "" && f.Email == email {
			return user.ErrEmailExists
		}
	}
	if len(found) > 0 {
		return user.ErrPhoneExists
	}
	return nil
}

func (r userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = core.NewID()
	}
	q := `INSERT INTO users (` + userColumns + `) VALUES (:id, :first_name, :last_name, :email, :role, :status,
		:phone_number, :phone_verified, :student_id, :image_url, :qr_code_url, :device_token, :password_hash,
		:created_at, :updated_at, :last_login)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, usr); err != nil {
		if isUniqueViolation(err, "users_phone_number_key") {
			return user.User{}, user.ErrPhoneExists
		}
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (r userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var col, val string
	switch {
	case filter.ID != "":
		if !core.IsValidID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		col, val = "id", filter.ID
	case filter.Email != "":
		col, val = "email", filter.Email
	case filter.PhoneNumber != "":
		col, val = "phone_number", filter.PhoneNumber
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	q := fmt.Sprintf("SELECT %s FROM users WHERE %s = $1", userColumns, col)
	if err := r.db.GetContext(ctx, &usr, q, val); err != nil {
		return user.User{}, r.trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return usr, nil
}

func (r userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.WithDeviceToken {
		conds = append(conds, "device_token IS NOT NULL AND device_token <> ''")
	}

	q := "SELECT " + userColumns + " FROM users"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at"

	users := make([]user.User, 0)
	if err := r.db.SelectContext(ctx, &users, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (r userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET first_name = :first_name, last_name = :last_name, email = :email, role = :role,
		status = :status, phone_number = :phone_number, phone_verified = :phone_verified, student_id = :student_id,
		image_url = :image_url, qr_code_url = :qr_code_url, device_token = :device_token,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.db, q, usr)
	if err != nil {
		if isUniqueViolation(err, "users_phone_number_key") {
			return user.User{}, user.ErrPhoneExists
		}
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = expectRows(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (r userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return r.CreateUser(ctx, usr)
	}
	updated, err := r.UpdateUser(ctx, usr)
	if errors.Cause(err) == user.ErrNotFound {
		return r.CreateUser(ctx, usr)
	}
	return updated, err
}

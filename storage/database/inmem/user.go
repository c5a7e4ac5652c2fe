package inmemdb

import (
	"context"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		users = append(users, *repo.db.table[id])
	}
	return users
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}

// checkUniqueness must be called with the lock held.
func (repo *userRepository) checkUniqueness(email, phoneNumber string, excludedUsers []user.User) error {
	for _, usr := range repo.query() {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
		if phoneNumber != "" && usr.PhoneNumber.Valid && usr.PhoneNumber.String == phoneNumber {
			return user.ErrPhoneExists
		}
	}
	return nil
}

func (repo *userRepository) CheckUniqueness(_ context.Context, email, phoneNumber string, excludedUsers []user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.checkUniqueness(email, phoneNumber, excludedUsers)
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkUniqueness(usr.Email, usr.PhoneNumber.String, nil); err != nil {
		return user.User{}, err
	}
	if usr.ID == "" {
		usr.ID = core.NewID()
	}
	repo.db.table[usr.ID] = &usr
	repo.db.order = append(repo.db.order, usr.ID)
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		switch {
		case filter.Email != "":
			if usr.Email == filter.Email {
				return usr, nil
			}
		case filter.PhoneNumber != "":
			if usr.PhoneNumber.Valid && usr.PhoneNumber.String == filter.PhoneNumber {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if filter.Status != "" && usr.Status != filter.Status {
			continue
		}
		if filter.WithDeviceToken && usr.DeviceToken.String == "" {
			continue
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.checkUniqueness(usr.Email, usr.PhoneNumber.String, []user.User{usr}); err != nil {
		return user.User{}, err
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.RLock()
	_, exists := repo.db.table[usr.ID]
	repo.db.RUnlock()

	if exists {
		return repo.UpdateUser(ctx, usr)
	}
	return repo.CreateUser(ctx, usr)
}

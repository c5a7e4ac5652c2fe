package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(email, fname, lname, role, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	if !isValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil && err != user.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	if err == user.ErrNotFound {
		usr = user.User{
			ID:        core.NewID(),
			Email:     email,
			CreatedAt: now,
		}
	}
	if fname = core.CleanString(fname, false); fname != "" {
		usr.FirstName = fname
	}
	if lname = core.CleanString(lname, false); lname != "" {
		usr.LastName = lname
	}
	usr.Role = role
	usr.Status = user.StatusActive
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateOrCreateUser(ctx, usr)
	return err
}

func isValidRole(role string) bool {
	for _, r := range user.AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

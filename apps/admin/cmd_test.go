package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lyceum/core/user"
	"github.com/trezcool/lyceum/storage/database"
	inmemdb "github.com/trezcool/lyceum/storage/database/inmem"
	"github.com/trezcool/lyceum/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()
	usrRepo = inmemdb.NewUserRepository(inmemdb.Open())

	// start CLI
	return &commandLine{usrRepo: usrRepo}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCommand, gotDir string
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		gotCommand, gotDir = command, dir
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.args[1], gotCommand)
				assert.Equal(t, database.MigrationsDir, gotDir)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	existing := testutil.CreateUser(t, usrRepo, "Old", "Teacher", "old@test.cd", "Xylo#Phone42", user.RoleTeacher)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"adduser", "-email", "admin@test.cd"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-email", "admin@test.cd", "-role", "janitor"}, pwd: "pwd", wantErrStr: `invalid role "janitor"`},
		{name: "create admin", args: []string{"adduser", "-email", " Admin@Test.cd ", "-fname", "Ada", "-lname", "Admin"}, pwd: "s3cret"},
		{name: "promote existing", args: []string{"adduser", "-email", existing.Email, "-role", "admin"}, pwd: "n3w-s3cret"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
			}
		})
	}

	ctx := context.Background()

	admin, err := usrRepo.GetUser(ctx, user.GetFilter{Email: "admin@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", admin.FirstName)
	assert.True(t, admin.IsAdmin())
	assert.NoError(t, admin.CheckPassword("s3cret"))

	promoted, err := usrRepo.GetUser(ctx, user.GetFilter{ID: existing.ID})
	require.NoError(t, err)
	assert.Equal(t, "Old", promoted.FirstName)
	assert.True(t, promoted.IsAdmin())
	assert.NoError(t, promoted.CheckPassword("n3w-s3cret"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "Awe", "awe@test.cd", "Xylo#Phone42", user.RoleStudent)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "AWE@test.cd"}, pwd: "lmao"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)

			refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshedUsr.CheckPassword(tt.pwd))
		})
	}
}

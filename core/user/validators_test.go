package user_test

import (
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/user"
	appfs "github.com/trezcool/lyceum/fs"
	"github.com/trezcool/lyceum/tests"
)

func TestMain(m *testing.M) {
	user.LoadCommonPasswords(appfs.FS, "common-passwords.txt.gz", testutil.NewLogger(core.NewTestConfig()))
	os.Exit(m.Run())
}

func TestPasswordPolicy(t *testing.T) {
	validate, translator := testutil.NewValidator()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
		wantMsg string
	}{
		{name: "missing", pwd: "", wantTag: "required", wantMsg: "password is a required field"},
		{name: "too short", pwd: "Ab1#", wantTag: "pwdminlen", wantMsg: "password must contain at least 8 characters"},
		{name: "whitespace", pwd: "Abc 12#xyz", wantTag: "pwdnospace"},
		{name: "all numeric", pwd: "12345678", wantTag: "pwdnotallnum"},
		{name: "not complex", pwd: "abcdefg1", wantTag: "pwdcplx"},
		{name: "similar to last name", pwd: "Lovelace#1", wantTag: "pwdtoosim", wantMsg: "password cannot be similar to user attributes"},
		{name: "common", pwd: "P@ssw0rd", wantTag: "pwdnocommon", wantMsg: "password is too common"},
		{name: "valid", pwd: "Xylo#Phone42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := user.NewUser{
				FirstName: "Ada",
				LastName:  "Lovelace",
				Email:     "ada@test.cd",
				Password:  tt.pwd,
				Role:      user.RoleStudent,
			}
			err := validate.Struct(nu)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, "password", verrs[0].Field())
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, verrs[0].Translate(translator))
			}
		})
	}
}

func TestResetPasswordPolicy(t *testing.T) {
	validate, _ := testutil.NewValidator()

	rp := user.ResetUserPassword{Token: "tok", UID: "uid", Password: "short", PasswordConfirm: "short"}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, rp.Validate(validate), &verrs)
	assert.Equal(t, "pwdminlen", verrs[0].Tag())

	rp.Password, rp.PasswordConfirm = "Xylo#Phone42", "Xylo#Phone43"
	require.ErrorAs(t, rp.Validate(validate), &verrs)
	assert.Equal(t, "eqfield", verrs[0].Tag())

	rp.PasswordConfirm = rp.Password
	assert.NoError(t, rp.Validate(validate))
}

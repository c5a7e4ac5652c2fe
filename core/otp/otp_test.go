package otp_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/otp"
	smssvc "github.com/trezcool/lyceum/services/sms"
	inmemdb "github.com/trezcool/lyceum/storage/database/inmem"
)

const phone = "+243810000000"

var codeRegex = regexp.MustCompile(`code is (\d+)`)

func setup(t *testing.T) (*otp.Service, *inmemdb.OTPStore, *core.Config) {
	t.Helper()
	conf := core.NewTestConfig()
	store := inmemdb.NewOTPStore()
	smssvc.ResetSentMessages()
	return otp.NewService(store, smssvc.NewConsoleServiceMock(), conf), store, conf
}

func sentCode(t *testing.T) string {
	t.Helper()
	sms, ok := smssvc.LastMessageTo(phone)
	require.True(t, ok, "no sms sent")
	m := codeRegex.FindStringSubmatch(sms.Body)
	require.Len(t, m, 2, "no code in %q", sms.Body)
	return m[1]
}

func wrongCode(code string) string {
	if code[0] == '0' {
		return "1" + code[1:]
	}
	return "0" + code[1:]
}

func assertValidationErr(t *testing.T, err, want error) {
	t.Helper()
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, want, verr.Err)
}

func TestService_Send(t *testing.T) {
	svc, _, conf := setup(t)

	id, err := svc.Send(context.Background(), phone)
	require.NoError(t, err)
	assert.True(t, core.IsValidID(id))
	assert.Len(t, sentCode(t), conf.OTPLength)
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Verify(ctx, otp.CheckVerification{VerificationID: core.NewID(), VerificationCode: "123456"})
		assertValidationErr(t, err, otp.ErrNotFound)
	})

	t.Run("valid code once", func(t *testing.T) {
		svc, _, _ := setup(t)
		id, err := svc.Send(ctx, phone)
		require.NoError(t, err)
		code := sentCode(t)

		got, err := svc.Verify(ctx, otp.CheckVerification{VerificationID: id, VerificationCode: code})
		require.NoError(t, err)
		assert.Equal(t, phone, got)

		_, err = svc.Verify(ctx, otp.CheckVerification{VerificationID: id, VerificationCode: code})
		assertValidationErr(t, err, otp.ErrNotFound)
	})

	t.Run("too many attempts", func(t *testing.T) {
		svc, _, conf := setup(t)
		id, err := svc.Send(ctx, phone)
		require.NoError(t, err)
		code := sentCode(t)

		for i := 0; i < conf.OTPMaxAttempts; i++ {
			_, err = svc.Verify(ctx, otp.CheckVerification{VerificationID: id, VerificationCode: wrongCode(code)})
			assertValidationErr(t, err, otp.ErrInvalidCode)
		}
		// even the right code is refused now
		_, err = svc.Verify(ctx, otp.CheckVerification{VerificationID: id, VerificationCode: code})
		assertValidationErr(t, err, otp.ErrTooManyAttempts)
	})

	t.Run("expired", func(t *testing.T) {
		svc, store, conf := setup(t)
		id, err := svc.Send(ctx, phone)
		require.NoError(t, err)
		code := sentCode(t)

		store.NowFunc = func() time.Time { return time.Now().Add(conf.OTPTTL + time.Second) }
		_, err = svc.Verify(ctx, otp.CheckVerification{VerificationID: id, VerificationCode: code})
		assertValidationErr(t, err, otp.ErrNotFound)
	})
}

func TestService_Verify_concurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("attempts are capped", func(t *testing.T) {
		svc, _, conf := setup(t)
		id, err := svc.Send(ctx, phone)
		require.NoError(t, err)
		code := sentCode(t)

		const guesses = 40
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		invalidCode, tooMany, other := 0, 0, 0
		for i := 0; i < guesses; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Verify(ctx, otp.CheckVerification{VerificationID: id, VerificationCode: wrongCode(code)})
				mu.Lock()
				defer mu.Unlock()
				var verr *core.ValidationError
				switch {
				case errors.As(err, &verr) && verr.Err == otp.ErrInvalidCode:
					invalidCode++
				case errors.As(err, &verr) && verr.Err == otp.ErrTooManyAttempts:
					tooMany++
				default:
					other++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, conf.OTPMaxAttempts, invalidCode, "codes compared")
		assert.Equal(t, guesses-conf.OTPMaxAttempts, tooMany)
		assert.Zero(t, other)
	})

	t.Run("code is used once", func(t *testing.T) {
		svc, _, conf := setup(t)
		id, err := svc.Send(ctx, phone)
		require.NoError(t, err)
		code := sentCode(t)

		// stay under the attempts limit so every call gets to compare the code
		n := conf.OTPMaxAttempts
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Verify(ctx, otp.CheckVerification{VerificationID: id, VerificationCode: code})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				var verr *core.ValidationError
				if assert.ErrorAs(t, err, &verr) {
					assert.Equal(t, otp.ErrNotFound, verr.Err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
	})
}

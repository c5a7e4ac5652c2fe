package rediscache

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/otp"
)

const otpKeyPrefix = "otp:"

// incrAttempts bumps the attempts of an existing verification without touching its ttl.
var incrAttempts = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

// OTPStore keeps each Verification in a hash that expires with it.
type OTPStore struct {
	client redis.UniversalClient
}

var _ otp.Store = (*OTPStore)(nil)

func NewOTPStore(client redis.UniversalClient) *OTPStore {
	return &OTPStore{client: client}
}

func otpKey(id string) string { return otpKeyPrefix + id }

func (s *OTPStore) Save(ctx context.Context, id string, v otp.Verification, ttl time.Duration) error {
	key := otpKey(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"phoneNumber": v.PhoneNumber,
			"codeHash":    string(v.CodeHash),
			"attempts":    v.Attempts,
		})
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return errors.Wrap(err, "saving verification")
}

func (s *OTPStore) Get(ctx context.Context, id string) (otp.Verification, error) {
	fields, err := s.client.HGetAll(ctx, otpKey(id)).Result()
	if err != nil {
		return otp.Verification{}, errors.Wrap(err, "getting verification")
	}
	if len(fields) == 0 {
		return otp.Verification{}, otp.ErrNotFound
	}
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return otp.Verification{}, errors.Wrap(err, "parsing attempts")
	}
	return otp.Verification{
		PhoneNumber: fields["phoneNumber"],
		CodeHash:    []byte(fields["codeHash"]),
		Attempts:    attempts,
	}, nil
}

func (s *OTPStore) IncrAttempts(ctx context.Context, id string) (int, error) {
	n, err := incrAttempts.Run(ctx, s.client, []string{otpKey(id)}).Int()
	if err != nil {
		return 0, errors.Wrap(err, "incrementing attempts")
	}
	if n < 0 {
		return 0, otp.ErrNotFound
	}
	return n, nil
}

// Delete relies on DEL being atomic: of concurrent calls, only one removes the key.
func (s *OTPStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Del(ctx, otpKey(id)).Result()
	if err != nil && err != redis.Nil {
		return false, errors.Wrap(err, "deleting verification")
	}
	return n == 1, nil
}

// NewClient connects to the configured Redis server.
func NewClient(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

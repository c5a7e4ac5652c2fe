package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/lyceum/core/otp"
)

type (
	otpEntry struct {
		v         otp.Verification
		expiresAt time.Time
	}

	// OTPStore is an otp.Store for tests and single process deployments.
	OTPStore struct {
		mu      sync.Mutex
		entries map[string]*otpEntry
		NowFunc func() time.Time // mockable
	}
)

var _ otp.Store = (*OTPStore)(nil)

func NewOTPStore() *OTPStore {
	return &OTPStore{entries: make(map[string]*otpEntry), NowFunc: time.Now}
}

// get must be called with the lock held.
func (s *OTPStore) get(id string) (*otpEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, otp.ErrNotFound
	}
	if !s.NowFunc().Before(e.expiresAt) {
		delete(s.entries, id)
		return nil, otp.ErrNotFound
	}
	return e, nil
}

func (s *OTPStore) Save(_ context.Context, id string, v otp.Verification, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &otpEntry{v: v, expiresAt: s.NowFunc().Add(ttl)}
	return nil
}

func (s *OTPStore) Get(_ context.Context, id string) (otp.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return otp.Verification{}, err
	}
	return e.v, nil
}

func (s *OTPStore) IncrAttempts(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return 0, err
	}
	e.v.Attempts++
	return e.v.Attempts, nil
}

func (s *OTPStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.get(id); err != nil {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

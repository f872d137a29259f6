// Package session owns the authenticated credential and its expiry. The
// supervisor is the only component that mutates the session; the stores read
// the live credential at call time and never cache a copy.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AndreMoodley/EvolveApp/internal/domain"
	"github.com/AndreMoodley/EvolveApp/internal/identity"
)

// Token lifetime applied on authenticate, matching the identity service's
// one-hour id tokens.
const tokenTTL = time.Hour

// refreshLeeway is how close to expiry a persisted credential must be before
// bootstrap refreshes instead of reusing it.
const refreshLeeway = time.Minute

// TokenRefresher exchanges a refresh token for fresh credentials.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (identity.Credentials, error)
}

// Supervisor holds the live session and schedules its forced expiry.
type Supervisor struct {
	mu        sync.Mutex
	session   domain.Session
	creds     CredentialStore
	logger    *zap.Logger
	timer     *time.Timer
	now       func() time.Time
	listeners []func()
}

// NewSupervisor builds a supervisor in the unauthenticated state.
func NewSupervisor(creds CredentialStore, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		creds:  creds,
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers a callback invoked after every session change. Stores
// use this to reload whenever the token/userId pair changes.
func (s *Supervisor) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Supervisor) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Authenticate installs a credential and persists it. Either argument being
// empty is logged and ignored. Scheduling of the forced logout is the
// bootstrap sequence's job, not Authenticate's.
func (s *Supervisor) Authenticate(token, userID string) {
	if token == "" || userID == "" {
		s.logger.Warn("ignoring authenticate with empty credential",
			zap.Bool("hasToken", token != ""),
			zap.Bool("hasUserID", userID != ""),
		)
		return
	}

	s.mu.Lock()
	expiresAt := s.now().Add(tokenTTL)
	s.session = domain.Session{Token: token, UserID: userID, ExpiresAt: expiresAt}
	s.mu.Unlock()

	if err := s.creds.Set(KeyToken, token); err != nil {
		s.logger.Error("persist token", zap.Error(err))
	}
	if err := s.creds.Set(KeyUserID, userID); err != nil {
		s.logger.Error("persist userId", zap.Error(err))
	}
	if err := s.creds.Set(KeyTokenExpiration, expiresAt.UTC().Format(time.RFC3339)); err != nil {
		s.logger.Error("persist tokenExpiration", zap.Error(err))
	}

	s.notify()
}

// StoreRefreshToken persists the rotated refresh token for the next
// bootstrap.
func (s *Supervisor) StoreRefreshToken(refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.creds.Set(KeyRefreshToken, refreshToken); err != nil {
		s.logger.Error("persist refreshToken", zap.Error(err))
	}
}

// Logout clears the live session and erases the persisted credential. Safe
// to call when already logged out.
func (s *Supervisor) Logout() {
	s.mu.Lock()
	s.session = domain.Session{}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	for _, key := range []string{KeyToken, KeyUserID, KeyTokenExpiration} {
		if err := s.creds.Delete(key); err != nil {
			s.logger.Error("erase credential", zap.String("key", key), zap.Error(err))
		}
	}

	s.notify()
}

// Session returns a copy of the live session.
func (s *Supervisor) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Credentials returns the live token/userId pair. ok is false when
// unauthenticated.
func (s *Supervisor) Credentials() (token, userID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token, s.session.UserID, s.session.IsAuthenticated()
}

// ScheduleLogout arms the forced-logout timer, replacing any previous one.
func (s *Supervisor) ScheduleLogout(after time.Duration) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(after, s.Logout)
	s.mu.Unlock()
}

// Bootstrap restores a persisted session at process start. A credential with
// more than a minute left is reused and its forced logout scheduled; one at
// or past the leeway is refreshed, with a refresh failure degrading to a
// clean logout rather than an error. Nothing persisted also means logout, so
// the process always starts from a known state.
func (s *Supervisor) Bootstrap(ctx context.Context, refresher TokenRefresher) {
	token, err := s.creds.Get(KeyToken)
	if err != nil {
		s.logger.Error("read persisted token", zap.Error(err))
	}
	userID, err := s.creds.Get(KeyUserID)
	if err != nil {
		s.logger.Error("read persisted userId", zap.Error(err))
	}
	expiration, err := s.creds.Get(KeyTokenExpiration)
	if err != nil {
		s.logger.Error("read persisted tokenExpiration", zap.Error(err))
	}

	if token == "" || userID == "" || expiration == "" {
		s.Logout()
		return
	}

	expiresAt, err := time.Parse(time.RFC3339, expiration)
	if err != nil {
		s.logger.Warn("invalid persisted expiration", zap.String("value", expiration))
		s.Logout()
		return
	}

	remaining := expiresAt.Sub(s.now())
	if remaining > refreshLeeway {
		s.Authenticate(token, userID)
		s.ScheduleLogout(remaining)
		return
	}

	refreshToken, err := s.creds.Get(KeyRefreshToken)
	if err != nil {
		s.logger.Error("read persisted refreshToken", zap.Error(err))
	}
	if refresher == nil || refreshToken == "" {
		s.Logout()
		return
	}

	fresh, err := refresher.Refresh(ctx, refreshToken)
	if err != nil {
		s.logger.Warn("token refresh failed, logging out", zap.Error(err))
		s.Logout()
		return
	}

	if fresh.UserID != "" {
		userID = fresh.UserID
	}
	s.Authenticate(fresh.Token, userID)
	s.StoreRefreshToken(fresh.RefreshToken)
	s.ScheduleLogout(fresh.ExpiresIn)
}

package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AndreMoodley/EvolveApp/internal/domain"
)

// VowAPI is the slice of the backend client the vow store uses.
type VowAPI interface {
	StoreVow(ctx context.Context, userID, token string, v domain.Vow) (string, error)
	FetchVows(ctx context.Context, userID, token string) ([]domain.Vow, error)
	UpdateVow(ctx context.Context, id, userID, token string, v domain.Vow) error
	DeleteVow(ctx context.Context, id, userID, token string) error
	StoreProgression(ctx context.Context, vowID, userID, token string, p domain.Progression) (string, error)
	FetchProgressions(ctx context.Context, vowID, userID, token string) ([]domain.Progression, error)
	UpdateProgression(ctx context.Context, vowID, progressionID, userID, token string, p domain.Progression) error
	DeleteProgression(ctx context.Context, vowID, progressionID, userID, token string) error
}

// VowStore owns the vow collection and, per vow, the pending and completed
// progression stacks. A progression lives in exactly one of the two.
type VowStore struct {
	mu        sync.Mutex
	api       VowAPI
	session   CredentialSource
	logger    *zap.Logger
	vows      []domain.Vow
	pending   map[string][]domain.Progression
	completed map[string][]domain.Progression
	listeners []func()
	now       func() time.Time
}

// NewVowStore builds an empty store.
func NewVowStore(api VowAPI, session CredentialSource, logger *zap.Logger) *VowStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VowStore{
		api:       api,
		session:   session,
		logger:    logger,
		pending:   map[string][]domain.Progression{},
		completed: map[string][]domain.Progression{},
		now:       time.Now,
	}
}

// Subscribe registers a callback invoked after every local state transition.
func (s *VowStore) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *VowStore) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Vows returns a snapshot of the vows in insertion order.
func (s *VowStore) Vows() []domain.Vow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Vow, len(s.vows))
	copy(out, s.vows)
	return out
}

// Pending returns a snapshot of a vow's pending progressions.
func (s *VowStore) Pending(vowID string) []domain.Progression {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotProgressions(s.pending[vowID])
}

// Completed returns a snapshot of a vow's completed progressions.
func (s *VowStore) Completed(vowID string) []domain.Progression {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotProgressions(s.completed[vowID])
}

func snapshotProgressions(in []domain.Progression) []domain.Progression {
	out := make([]domain.Progression, len(in))
	copy(out, in)
	return out
}

// AddVow validates the vow, creates it remotely and appends it locally.
// Vows keep insertion order, unlike expenses. A zero StartDate is stamped
// with the call-time instant.
func (s *VowStore) AddVow(ctx context.Context, v domain.Vow) error {
	if v.StartDate.IsZero() {
		v.StartDate = s.now()
	}
	if err := domain.ValidateVow(v, s.now()); err != nil {
		return err
	}
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}

	id, err := s.api.StoreVow(ctx, userID, token, v)
	if err != nil {
		return err
	}
	v.ID = id

	s.mu.Lock()
	s.vows = append(s.vows, v)
	s.mu.Unlock()
	s.notify()
	return nil
}

// UpdateVow replaces the whole record, remotely and locally. Fields the
// caller leaves zero are discarded, not preserved; this is deliberately the
// opposite of the expense store's merge.
func (s *VowStore) UpdateVow(ctx context.Context, id string, v domain.Vow) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}
	if err := s.api.UpdateVow(ctx, id, userID, token, v); err != nil {
		return err
	}

	v.ID = id
	s.mu.Lock()
	for i := range s.vows {
		if s.vows[i].ID == id {
			s.vows[i] = v
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// DeleteVow removes the vow remotely, then locally.
func (s *VowStore) DeleteVow(ctx context.Context, id string) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}
	if err := s.api.DeleteVow(ctx, id, userID, token); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.vows[:0]
	for _, v := range s.vows {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	s.vows = kept
	s.mu.Unlock()
	s.notify()
	return nil
}

// Reload fetches the user's vows and replaces local state.
func (s *VowStore) Reload(ctx context.Context) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}
	vows, err := s.api.FetchVows(ctx, userID, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.vows = vows
	s.mu.Unlock()
	s.notify()
	return nil
}

// AddProgression creates the progression under the vow remotely and appends
// it to the vow's pending stack.
func (s *VowStore) AddProgression(ctx context.Context, vowID string, p domain.Progression) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}
	id, err := s.api.StoreProgression(ctx, vowID, userID, token, p)
	if err != nil {
		return err
	}
	p.ID = id

	s.mu.Lock()
	s.pending[vowID] = append(s.pending[vowID], p)
	s.mu.Unlock()
	s.notify()
	return nil
}

// LoadProgressions fetches the vow's progressions and replaces its pending
// stack wholesale. The completed stack is left untouched.
func (s *VowStore) LoadProgressions(ctx context.Context, vowID string) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}
	progressions, err := s.api.FetchProgressions(ctx, vowID, userID, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pending[vowID] = progressions
	s.mu.Unlock()
	s.notify()
	return nil
}

// CompleteProgression archives the most recent pending progression: the last
// entry is popped, stamped with the current instant and pushed onto the
// completed stack. LIFO is deliberate — it matches "undo most recent
// action". The local transition commits immediately; the remote update is
// pushed afterwards and a failure there is only logged, never rolled back.
// With nothing pending this is a no-op, remote call included.
func (s *VowStore) CompleteProgression(ctx context.Context, vowID string) {
	s.mu.Lock()
	stack := s.pending[vowID]
	if len(stack) == 0 {
		s.mu.Unlock()
		return
	}
	completed := stack[len(stack)-1]
	now := s.now()
	completed.CompletedDate = &now
	s.pending[vowID] = stack[:len(stack)-1]
	s.completed[vowID] = append(s.completed[vowID], completed)
	s.mu.Unlock()
	s.notify()

	s.pushProgression(ctx, vowID, completed)
}

// UndoCompletion is the exact inverse: the most recently completed
// progression returns to the pending stack with its completion date cleared.
func (s *VowStore) UndoCompletion(ctx context.Context, vowID string) {
	s.mu.Lock()
	stack := s.completed[vowID]
	if len(stack) == 0 {
		s.mu.Unlock()
		return
	}
	restored := stack[len(stack)-1]
	restored.CompletedDate = nil
	s.completed[vowID] = stack[:len(stack)-1]
	s.pending[vowID] = append(s.pending[vowID], restored)
	s.mu.Unlock()
	s.notify()

	s.pushProgression(ctx, vowID, restored)
}

// pushProgression sends the updated record to the backend without tying the
// caller to the result.
func (s *VowStore) pushProgression(ctx context.Context, vowID string, p domain.Progression) {
	token, userID, ok := s.session.Credentials()
	if !ok {
		s.logger.Warn("skipping progression sync, not signed in",
			zap.String("vowId", vowID),
			zap.String("progressionId", p.ID),
		)
		return
	}
	go func() {
		if err := s.api.UpdateProgression(ctx, vowID, p.ID, userID, token, p); err != nil {
			s.logger.Warn("progression sync failed",
				zap.String("vowId", vowID),
				zap.String("progressionId", p.ID),
				zap.Error(err),
			)
		}
	}()
}

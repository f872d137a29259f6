// Package store holds the client-side state containers that mirror the
// remote resources. Mutations are optimistic: the remote call goes out first
// and the matching local transition is applied on success, with no rollback
// if a later step fails.
package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/AndreMoodley/EvolveApp/internal/domain"
)

var (
	ErrNotAuthenticated = errors.New("you are not signed in")
	ErrExpenseNotFound  = errors.New("that expense no longer exists")
	ErrVowNotFound      = errors.New("that vow no longer exists")
)

// CredentialSource yields the live credential at call time. Stores never
// cache a copy across calls.
type CredentialSource interface {
	Credentials() (token, userID string, ok bool)
}

// ExpenseAPI is the slice of the backend client the expense store uses.
type ExpenseAPI interface {
	StoreExpense(ctx context.Context, userID, token string, e domain.Expense) (string, error)
	FetchExpenses(ctx context.Context, userID, token string) ([]domain.Expense, error)
	UpdateExpense(ctx context.Context, id, userID, token string, e domain.Expense) error
	DeleteExpense(ctx context.Context, id, userID, token string) error
	StoreWorkout(ctx context.Context, expenseID, userID, token string, w domain.Workout) (string, error)
	FetchWorkouts(ctx context.Context, expenseID, userID, token string) ([]domain.Workout, error)
	UpdateWorkout(ctx context.Context, expenseID, workoutID, userID, token string, w domain.Workout) error
	DeleteWorkout(ctx context.Context, expenseID, workoutID, userID, token string) error
}

// ExpenseStore owns the ordered in-memory expense collection, newest first.
type ExpenseStore struct {
	mu        sync.Mutex
	api       ExpenseAPI
	session   CredentialSource
	logger    *zap.Logger
	expenses  []domain.Expense
	listeners []func()
}

// NewExpenseStore builds an empty store. One store exists per authenticated
// session.
func NewExpenseStore(api ExpenseAPI, session CredentialSource, logger *zap.Logger) *ExpenseStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseStore{api: api, session: session, logger: logger}
}

// Subscribe registers a callback invoked after every local state transition.
func (s *ExpenseStore) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *ExpenseStore) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Expenses returns a snapshot of the collection, most recent first.
func (s *ExpenseStore) Expenses() []domain.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// AddExpense creates the expense remotely, prepends it locally, then creates
// each workout with a non-empty name sequentially under the new id. A
// workout failure propagates but the expense stays stored locally and
// remotely; there is no compensating delete.
func (s *ExpenseStore) AddExpense(ctx context.Context, e domain.Expense, workouts []domain.Workout) (string, error) {
	if err := domain.ValidateExpense(e); err != nil {
		return "", err
	}
	token, userID, ok := s.session.Credentials()
	if !ok {
		return "", ErrNotAuthenticated
	}

	id, err := s.api.StoreExpense(ctx, userID, token, e)
	if err != nil {
		return "", err
	}
	e.ID = id

	s.mu.Lock()
	s.expenses = append([]domain.Expense{e}, s.expenses...)
	s.mu.Unlock()
	s.notify()

	for _, w := range workouts {
		if w.Name == "" {
			continue
		}
		if _, err := s.api.StoreWorkout(ctx, id, userID, token, w); err != nil {
			return id, err
		}
	}
	return id, nil
}

// SetExpenses replaces the collection wholesale. The incoming sequence is in
// remote insertion order (oldest first) and is reversed so display order is
// newest first. The reversal is part of the format contract with Reload.
func (s *ExpenseStore) SetExpenses(expenses []domain.Expense) {
	reversed := make([]domain.Expense, len(expenses))
	for i, e := range expenses {
		reversed[len(expenses)-1-i] = e
	}
	s.mu.Lock()
	s.expenses = reversed
	s.mu.Unlock()
	s.notify()
}

// Reload fetches the user's expenses and replaces local state.
func (s *ExpenseStore) Reload(ctx context.Context) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}
	expenses, err := s.api.FetchExpenses(ctx, userID, token)
	if err != nil {
		return err
	}
	s.SetExpenses(expenses)
	return nil
}

// UpdateExpense shallow-merges the patch into the stored record: fields the
// patch leaves nil keep their prior values. The merged record is PUT in full
// (the wire has no partial updates) and committed locally on success.
func (s *ExpenseStore) UpdateExpense(ctx context.Context, id string, patch domain.ExpensePatch) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrExpenseNotFound
	}
	merged := patch.Apply(s.expenses[idx])
	s.mu.Unlock()

	if err := s.api.UpdateExpense(ctx, id, userID, token, merged); err != nil {
		return err
	}

	s.mu.Lock()
	if idx := s.indexOf(id); idx >= 0 {
		s.expenses[idx] = merged
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// DeleteExpense removes the record remotely, then locally.
func (s *ExpenseStore) DeleteExpense(ctx context.Context, id string) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}
	if err := s.api.DeleteExpense(ctx, id, userID, token); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.expenses[:0]
	for _, e := range s.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.expenses = kept
	s.mu.Unlock()
	s.notify()
	return nil
}

// LoadWorkouts lazily fetches the workouts for an expense and attaches them
// to the local record when it is still present.
func (s *ExpenseStore) LoadWorkouts(ctx context.Context, expenseID string) ([]domain.Workout, error) {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	workouts, err := s.api.FetchWorkouts(ctx, expenseID, userID, token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if idx := s.indexOf(expenseID); idx >= 0 {
		s.expenses[idx].Workouts = workouts
	}
	s.mu.Unlock()
	s.notify()
	return workouts, nil
}

// SaveWorkouts persists a workout list against an existing expense: records
// without an id are created, the rest are replaced in full.
func (s *ExpenseStore) SaveWorkouts(ctx context.Context, expenseID string, workouts []domain.Workout) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}
	for _, w := range workouts {
		if w.ID == "" {
			if _, err := s.api.StoreWorkout(ctx, expenseID, userID, token, w); err != nil {
				return err
			}
			continue
		}
		if err := s.api.UpdateWorkout(ctx, expenseID, w.ID, userID, token, w); err != nil {
			return err
		}
	}
	return nil
}

// DeleteWorkout removes a single workout from an expense, remotely then
// locally.
func (s *ExpenseStore) DeleteWorkout(ctx context.Context, expenseID, workoutID string) error {
	token, userID, ok := s.session.Credentials()
	if !ok {
		return ErrNotAuthenticated
	}
	if err := s.api.DeleteWorkout(ctx, expenseID, workoutID, userID, token); err != nil {
		return err
	}

	s.mu.Lock()
	if idx := s.indexOf(expenseID); idx >= 0 {
		kept := s.expenses[idx].Workouts[:0]
		for _, w := range s.expenses[idx].Workouts {
			if w.ID != workoutID {
				kept = append(kept, w)
			}
		}
		s.expenses[idx].Workouts = kept
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// indexOf must be called with s.mu held.
func (s *ExpenseStore) indexOf(id string) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

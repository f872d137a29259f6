package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AndreMoodley/EvolveApp/internal/domain"
)

type fakeSession struct {
	token  string
	userID string
	ok     bool
}

func (f fakeSession) Credentials() (string, string, bool) {
	return f.token, f.userID, f.ok
}

var liveSession = fakeSession{token: "t1", userID: "u1", ok: true}

type expenseCall struct {
	op     string
	id     string
	parent string
}

type fakeExpenseAPI struct {
	mu              sync.Mutex
	nextID          int
	calls           []expenseCall
	lastUpdate      domain.Expense
	fetchResult     []domain.Expense
	failWorkoutName string
}

func (f *fakeExpenseAPI) record(op, id, parent string) {
	f.mu.Lock()
	f.calls = append(f.calls, expenseCall{op: op, id: id, parent: parent})
	f.mu.Unlock()
}

func (f *fakeExpenseAPI) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *fakeExpenseAPI) StoreExpense(_ context.Context, userID, token string, e domain.Expense) (string, error) {
	f.nextID++
	id := fmt.Sprintf("exp-%d", f.nextID)
	f.record("storeExpense", id, "")
	return id, nil
}

func (f *fakeExpenseAPI) FetchExpenses(_ context.Context, userID, token string) ([]domain.Expense, error) {
	f.record("fetchExpenses", "", "")
	return f.fetchResult, nil
}

func (f *fakeExpenseAPI) UpdateExpense(_ context.Context, id, userID, token string, e domain.Expense) error {
	f.record("updateExpense", id, "")
	f.lastUpdate = e
	return nil
}

func (f *fakeExpenseAPI) DeleteExpense(_ context.Context, id, userID, token string) error {
	f.record("deleteExpense", id, "")
	return nil
}

func (f *fakeExpenseAPI) StoreWorkout(_ context.Context, expenseID, userID, token string, w domain.Workout) (string, error) {
	if f.failWorkoutName != "" && w.Name == f.failWorkoutName {
		return "", errors.New("workout create failed")
	}
	f.nextID++
	id := fmt.Sprintf("wo-%d", f.nextID)
	f.record("storeWorkout", id, expenseID)
	return id, nil
}

func (f *fakeExpenseAPI) FetchWorkouts(_ context.Context, expenseID, userID, token string) ([]domain.Workout, error) {
	f.record("fetchWorkouts", "", expenseID)
	return []domain.Workout{{ID: "wo-1", Name: "squat"}}, nil
}

func (f *fakeExpenseAPI) UpdateWorkout(_ context.Context, expenseID, workoutID, userID, token string, w domain.Workout) error {
	f.record("updateWorkout", workoutID, expenseID)
	return nil
}

func (f *fakeExpenseAPI) DeleteWorkout(_ context.Context, expenseID, workoutID, userID, token string) error {
	f.record("deleteWorkout", workoutID, expenseID)
	return nil
}

func expenseOn(day int) domain.Expense {
	return domain.Expense{
		Rating:      5,
		Date:        time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC),
		Description: fmt.Sprintf("day %d", day),
	}
}

func TestAddExpensePrependsNewestFirst(t *testing.T) {
	api := &fakeExpenseAPI{}
	s := NewExpenseStore(api, liveSession, nil)
	ctx := context.Background()

	for day := 1; day <= 3; day++ {
		if _, err := s.AddExpense(ctx, expenseOn(day), nil); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}

	got := s.Expenses()
	if len(got) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(got))
	}
	for i, want := range []string{"day 3", "day 2", "day 1"} {
		if got[i].Description != want {
			t.Fatalf("position %d: got %q want %q", i, got[i].Description, want)
		}
	}
	if got[0].ID == "" {
		t.Fatalf("server id not attached to local record")
	}
}

func TestAddExpenseWorkouts(t *testing.T) {
	t.Run("skips unnamed workouts", func(t *testing.T) {
		api := &fakeExpenseAPI{}
		s := NewExpenseStore(api, liveSession, nil)

		_, err := s.AddExpense(context.Background(), expenseOn(1), []domain.Workout{
			{Name: "squat"},
			{Name: ""},
			{Name: "bench"},
		})
		if err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
		if n := api.callCount("storeWorkout"); n != 2 {
			t.Fatalf("expected 2 workout creates, got %d", n)
		}
	})

	t.Run("workout failure keeps the expense", func(t *testing.T) {
		api := &fakeExpenseAPI{failWorkoutName: "bench"}
		s := NewExpenseStore(api, liveSession, nil)

		id, err := s.AddExpense(context.Background(), expenseOn(1), []domain.Workout{
			{Name: "squat"},
			{Name: "bench"},
		})
		if err == nil {
			t.Fatalf("expected workout failure to propagate")
		}
		if id == "" {
			t.Fatalf("expense id should still be returned")
		}
		if len(s.Expenses()) != 1 {
			t.Fatalf("expense should remain in local state after workout failure")
		}
	})

	t.Run("validation runs before any remote call", func(t *testing.T) {
		api := &fakeExpenseAPI{}
		s := NewExpenseStore(api, liveSession, nil)

		_, err := s.AddExpense(context.Background(), domain.Expense{Rating: 2000, Date: time.Now()}, nil)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if len(api.calls) != 0 {
			t.Fatalf("no remote call expected, got %v", api.calls)
		}
	})
}

func TestSetExpensesReversesIncoming(t *testing.T) {
	s := NewExpenseStore(&fakeExpenseAPI{}, liveSession, nil)

	s.SetExpenses([]domain.Expense{
		{ID: "a", Description: "oldest"},
		{ID: "b", Description: "middle"},
		{ID: "c", Description: "newest"},
	})

	got := s.Expenses()
	if got[0].ID != "c" || got[1].ID != "b" || got[2].ID != "a" {
		t.Fatalf("expected newest-first order c,b,a; got %s,%s,%s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestUpdateExpenseMergesPatch(t *testing.T) {
	api := &fakeExpenseAPI{}
	s := NewExpenseStore(api, liveSession, nil)
	ctx := context.Background()

	id, err := s.AddExpense(ctx, expenseOn(1), nil)
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	newRating := 9.0
	if err := s.UpdateExpense(ctx, id, domain.ExpensePatch{Rating: &newRating}); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	got := s.Expenses()[0]
	if got.Rating != 9 {
		t.Fatalf("rating not updated: %v", got.Rating)
	}
	if got.Description != "day 1" {
		t.Fatalf("field absent from the patch must be preserved, got %q", got.Description)
	}
	if api.lastUpdate.Description != "day 1" || api.lastUpdate.Rating != 9 {
		t.Fatalf("remote PUT must carry the merged full record, got %+v", api.lastUpdate)
	}

	if err := s.UpdateExpense(ctx, "missing", domain.ExpensePatch{Rating: &newRating}); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	api := &fakeExpenseAPI{}
	s := NewExpenseStore(api, liveSession, nil)
	ctx := context.Background()

	id1, _ := s.AddExpense(ctx, expenseOn(1), nil)
	id2, _ := s.AddExpense(ctx, expenseOn(2), nil)

	if err := s.DeleteExpense(ctx, id1); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}

	got := s.Expenses()
	if len(got) != 1 || got[0].ID != id2 {
		t.Fatalf("expected only %s to remain, got %+v", id2, got)
	}
}

func TestReloadUsesFormatContract(t *testing.T) {
	api := &fakeExpenseAPI{fetchResult: []domain.Expense{
		{ID: "a", Description: "oldest"},
		{ID: "b", Description: "newest"},
	}}
	s := NewExpenseStore(api, liveSession, nil)

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	got := s.Expenses()
	if got[0].ID != "b" {
		t.Fatalf("reload must surface newest first, got %s", got[0].ID)
	}
}

func TestExpenseStoreRequiresSession(t *testing.T) {
	api := &fakeExpenseAPI{}
	s := NewExpenseStore(api, fakeSession{}, nil)

	if _, err := s.AddExpense(context.Background(), expenseOn(1), nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("no remote call expected without a session")
	}
}

func TestExpenseStoreNotifiesSubscribers(t *testing.T) {
	s := NewExpenseStore(&fakeExpenseAPI{}, liveSession, nil)

	var notified int
	s.Subscribe(func() { notified++ })

	if _, err := s.AddExpense(context.Background(), expenseOn(1), nil); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if notified == 0 {
		t.Fatalf("expected subscriber callback after a state transition")
	}
}

func TestDeleteWorkoutRemovesFromLocalRecord(t *testing.T) {
	api := &fakeExpenseAPI{}
	s := NewExpenseStore(api, liveSession, nil)
	ctx := context.Background()

	id, _ := s.AddExpense(ctx, expenseOn(1), nil)
	if _, err := s.LoadWorkouts(ctx, id); err != nil {
		t.Fatalf("LoadWorkouts: %v", err)
	}
	if len(s.Expenses()[0].Workouts) != 1 {
		t.Fatalf("workouts not attached after load")
	}

	if err := s.DeleteWorkout(ctx, id, "wo-1"); err != nil {
		t.Fatalf("DeleteWorkout: %v", err)
	}
	if len(s.Expenses()[0].Workouts) != 0 {
		t.Fatalf("workout not removed from local record")
	}
}

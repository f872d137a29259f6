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

type progressionSync struct {
	vowID       string
	progression domain.Progression
}

type fakeVowAPI struct {
	mu          sync.Mutex
	nextID      int
	vowCalls    int
	fetchVows   []domain.Vow
	fetchProgs  []domain.Progression
	lastVowPut  domain.Vow
	progUpdates chan progressionSync
}

func newFakeVowAPI() *fakeVowAPI {
	return &fakeVowAPI{progUpdates: make(chan progressionSync, 8)}
}

func (f *fakeVowAPI) StoreVow(_ context.Context, userID, token string, v domain.Vow) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.vowCalls++
	return fmt.Sprintf("vow-%d", f.nextID), nil
}

func (f *fakeVowAPI) FetchVows(_ context.Context, userID, token string) ([]domain.Vow, error) {
	return f.fetchVows, nil
}

func (f *fakeVowAPI) UpdateVow(_ context.Context, id, userID, token string, v domain.Vow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastVowPut = v
	return nil
}

func (f *fakeVowAPI) DeleteVow(_ context.Context, id, userID, token string) error {
	return nil
}

func (f *fakeVowAPI) StoreProgression(_ context.Context, vowID, userID, token string, p domain.Progression) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("prog-%d", f.nextID), nil
}

func (f *fakeVowAPI) FetchProgressions(_ context.Context, vowID, userID, token string) ([]domain.Progression, error) {
	return f.fetchProgs, nil
}

func (f *fakeVowAPI) UpdateProgression(_ context.Context, vowID, progressionID, userID, token string, p domain.Progression) error {
	f.progUpdates <- progressionSync{vowID: vowID, progression: p}
	return nil
}

func (f *fakeVowAPI) DeleteProgression(_ context.Context, vowID, progressionID, userID, token string) error {
	return nil
}

func (f *fakeVowAPI) waitForSync(t *testing.T) progressionSync {
	t.Helper()
	select {
	case u := <-f.progUpdates:
		return u
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the progression update to be pushed")
		return progressionSync{}
	}
}

func (f *fakeVowAPI) assertNoSync(t *testing.T) {
	t.Helper()
	select {
	case u := <-f.progUpdates:
		t.Fatalf("unexpected remote progression update: %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestVowStore(api *fakeVowAPI) *VowStore {
	s := NewVowStore(api, liveSession, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func majorVow(title string) domain.Vow {
	return domain.Vow{
		Title: title,
		Type:  domain.VowTypeMajor,
		Date:  testNow.AddDate(0, 0, 90),
	}
}

func addProgressions(t *testing.T, s *VowStore, vowID string, texts ...string) {
	t.Helper()
	for _, text := range texts {
		if err := s.AddProgression(context.Background(), vowID, domain.Progression{Text: text}); err != nil {
			t.Fatalf("AddProgression(%q): %v", text, err)
		}
	}
}

func TestAddVow(t *testing.T) {
	api := newFakeVowAPI()
	s := newTestVowStore(api)
	ctx := context.Background()

	if err := s.AddVow(ctx, majorVow("first")); err != nil {
		t.Fatalf("AddVow: %v", err)
	}
	if err := s.AddVow(ctx, majorVow("second")); err != nil {
		t.Fatalf("AddVow: %v", err)
	}

	got := s.Vows()
	if len(got) != 2 {
		t.Fatalf("expected 2 vows, got %d", len(got))
	}
	// Vows keep insertion order; expenses are the reverse-chronological ones.
	if got[0].Title != "first" || got[1].Title != "second" {
		t.Fatalf("expected insertion order, got %q,%q", got[0].Title, got[1].Title)
	}
	if !got[0].StartDate.Equal(testNow) {
		t.Fatalf("StartDate should be stamped with the call-time instant, got %v", got[0].StartDate)
	}
}

func TestAddVowValidatesBeforeRemote(t *testing.T) {
	api := newFakeVowAPI()
	s := newTestVowStore(api)

	tooSoon := majorVow("rushed")
	tooSoon.Date = testNow.AddDate(0, 1, 0)

	err := s.AddVow(context.Background(), tooSoon)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if api.vowCalls != 0 {
		t.Fatalf("no remote call expected for an invalid vow")
	}
}

func TestUpdateVowReplacesWholeRecord(t *testing.T) {
	api := newFakeVowAPI()
	s := newTestVowStore(api)
	ctx := context.Background()

	vow := majorVow("original")
	vow.Description = "with description"
	if err := s.AddVow(ctx, vow); err != nil {
		t.Fatalf("AddVow: %v", err)
	}
	id := s.Vows()[0].ID

	replacement := majorVow("renamed")
	replacement.StartDate = testNow
	if err := s.UpdateVow(ctx, id, replacement); err != nil {
		t.Fatalf("UpdateVow: %v", err)
	}

	got := s.Vows()[0]
	if got.Title != "renamed" {
		t.Fatalf("title not replaced: %q", got.Title)
	}
	// Replace, not merge: the empty description wins, unlike expense updates.
	if got.Description != "" {
		t.Fatalf("whole-record replace must discard absent fields, got %q", got.Description)
	}
	if got.ID != id {
		t.Fatalf("record id must survive the replace, got %q", got.ID)
	}
	if api.lastVowPut.Title != "renamed" {
		t.Fatalf("remote PUT did not carry the replacement record")
	}
}

func TestDeleteVow(t *testing.T) {
	api := newFakeVowAPI()
	s := newTestVowStore(api)
	ctx := context.Background()

	_ = s.AddVow(ctx, majorVow("keep"))
	_ = s.AddVow(ctx, majorVow("drop"))
	dropID := s.Vows()[1].ID

	if err := s.DeleteVow(ctx, dropID); err != nil {
		t.Fatalf("DeleteVow: %v", err)
	}
	got := s.Vows()
	if len(got) != 1 || got[0].Title != "keep" {
		t.Fatalf("unexpected vows after delete: %+v", got)
	}
}

func TestCompleteProgression(t *testing.T) {
	t.Run("no-op on empty stack", func(t *testing.T) {
		api := newFakeVowAPI()
		s := newTestVowStore(api)

		s.CompleteProgression(context.Background(), "vow-1")

		if len(s.Pending("vow-1")) != 0 || len(s.Completed("vow-1")) != 0 {
			t.Fatalf("no-op must not touch state")
		}
		api.assertNoSync(t)
	})

	t.Run("archives the last pending entry", func(t *testing.T) {
		api := newFakeVowAPI()
		s := newTestVowStore(api)
		ctx := context.Background()

		addProgressions(t, s, "vow-1", "week 1", "week 2", "week 3")
		s.CompleteProgression(ctx, "vow-1")

		pending := s.Pending("vow-1")
		if len(pending) != 2 || pending[0].Text != "week 1" || pending[1].Text != "week 2" {
			t.Fatalf("unexpected pending stack: %+v", pending)
		}
		completed := s.Completed("vow-1")
		if len(completed) != 1 || completed[0].Text != "week 3" {
			t.Fatalf("expected the last-inserted entry to be archived, got %+v", completed)
		}
		if completed[0].CompletedDate == nil || !completed[0].CompletedDate.Equal(testNow) {
			t.Fatalf("completion timestamp not stamped: %+v", completed[0].CompletedDate)
		}

		pushed := api.waitForSync(t)
		if pushed.progression.Text != "week 3" || pushed.progression.CompletedDate == nil {
			t.Fatalf("remote update must carry the stamped record, got %+v", pushed.progression)
		}
	})
}

func TestUndoCompletionReversesComplete(t *testing.T) {
	api := newFakeVowAPI()
	s := newTestVowStore(api)
	ctx := context.Background()

	addProgressions(t, s, "vow-1", "week 1", "week 2", "week 3")

	s.CompleteProgression(ctx, "vow-1")
	api.waitForSync(t)

	s.UndoCompletion(ctx, "vow-1")
	pushed := api.waitForSync(t)
	if pushed.progression.CompletedDate != nil {
		t.Fatalf("undo must clear the completion date on the wire, got %+v", pushed.progression)
	}

	pending := s.Pending("vow-1")
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending after undo, got %d", len(pending))
	}
	for i, want := range []string{"week 1", "week 2", "week 3"} {
		if pending[i].Text != want {
			t.Fatalf("pending order not restored: position %d got %q want %q", i, pending[i].Text, want)
		}
		if pending[i].CompletedDate != nil {
			t.Fatalf("restored entry must have no completion date")
		}
	}
	if len(s.Completed("vow-1")) != 0 {
		t.Fatalf("completed stack should be empty after undo")
	}

	t.Run("no-op when nothing completed", func(t *testing.T) {
		s.UndoCompletion(ctx, "vow-1")
		if len(s.Pending("vow-1")) != 3 {
			t.Fatalf("undo on empty completed stack must not change state")
		}
		api.assertNoSync(t)
	})
}

func TestLoadProgressionsReplacesPendingOnly(t *testing.T) {
	api := newFakeVowAPI()
	s := newTestVowStore(api)
	ctx := context.Background()

	addProgressions(t, s, "vow-1", "local step")
	s.CompleteProgression(ctx, "vow-1")
	api.waitForSync(t)

	api.fetchProgs = []domain.Progression{{ID: "p9", Text: "remote step"}}
	if err := s.LoadProgressions(ctx, "vow-1"); err != nil {
		t.Fatalf("LoadProgressions: %v", err)
	}

	pending := s.Pending("vow-1")
	if len(pending) != 1 || pending[0].ID != "p9" {
		t.Fatalf("pending must be replaced wholesale, got %+v", pending)
	}
	if len(s.Completed("vow-1")) != 1 {
		t.Fatalf("completed stack must be untouched by a load")
	}
}

func TestVowStoreRequiresSession(t *testing.T) {
	api := newFakeVowAPI()
	s := NewVowStore(api, fakeSession{}, nil)
	s.now = func() time.Time { return testNow }

	if err := s.AddVow(context.Background(), majorVow("x")); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

// Package emulator is a local stand-in for the hosted JSON document backend
// and its identity service. It implements the same wire contract the client
// speaks, so the full stack can run and be tested without network access to
// the real thing.
package emulator

import (
	"context"
	"encoding/json"
	"sync"
)

// DocumentStore persists JSON documents keyed by a parent path (for example
// "expenses/<userId>" or "workouts/<userId>/<expenseId>") and a document id.
type DocumentStore interface {
	Put(ctx context.Context, parent, id string, doc json.RawMessage) error
	// Get returns nil for an absent document.
	Get(ctx context.Context, parent, id string) (json.RawMessage, error)
	List(ctx context.Context, parent string) (map[string]json.RawMessage, error)
	Delete(ctx context.Context, parent, id string) error
}

// MemoryDocumentStore is the default backend: a mutex-guarded map.
type MemoryDocumentStore struct {
	mu      sync.Mutex
	parents map[string]map[string]json.RawMessage
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{parents: map[string]map[string]json.RawMessage{}}
}

func (s *MemoryDocumentStore) Put(_ context.Context, parent, id string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	children, ok := s.parents[parent]
	if !ok {
		children = map[string]json.RawMessage{}
		s.parents[parent] = children
	}
	children[id] = append(json.RawMessage(nil), doc...)
	return nil
}

func (s *MemoryDocumentStore) Get(_ context.Context, parent, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.parents[parent][id]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), doc...), nil
}

func (s *MemoryDocumentStore) List(_ context.Context, parent string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage, len(s.parents[parent]))
	for id, doc := range s.parents[parent] {
		out[id] = append(json.RawMessage(nil), doc...)
	}
	return out, nil
}

func (s *MemoryDocumentStore) Delete(_ context.Context, parent, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.parents[parent], id)
	return nil
}

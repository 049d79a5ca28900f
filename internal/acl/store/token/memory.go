package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tokenscope/internal/acl/models"
	"tokenscope/pkg/platform/sentinel"
)

// InMemory keeps tokens in a map guarded by a RWMutex. Tokens are cloned on
// the way in and out so callers never share backing arrays with the store.
type InMemory struct {
	mu     sync.RWMutex
	tokens map[string]*models.Token
}

func NewInMemory() *InMemory {
	return &InMemory{tokens: make(map[string]*models.Token)}
}

func (s *InMemory) Create(_ context.Context, t *models.Token) error {
	if t == nil {
		return fmt.Errorf("token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[t.AccessorID]; exists {
		return fmt.Errorf("accessor %s: %w", t.AccessorID, sentinel.ErrAlreadyUsed)
	}
	s.tokens[t.AccessorID] = t.Clone()
	return nil
}

func (s *InMemory) FindByAccessorID(_ context.Context, accessorID string) (*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tokens[accessorID]; ok {
		return t.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// List returns tokens matching filter in no particular order.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		if filter.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, accessorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[accessorID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.tokens, accessorID)
	return nil
}

// PurgeExpired removes tokens whose expiration time is at or before now.
func (s *InMemory) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for accessorID, t := range s.tokens {
		if t.IsExpired(now) {
			delete(s.tokens, accessorID)
			removed++
		}
	}
	return removed, nil
}

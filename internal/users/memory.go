package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/shared"
)

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[uuid.UUID]*User)}
}

func (s *MemoryStore) Upsert(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			existing.FullName = u.FullName
			existing.Email = u.Email
			existing.Department = u.Department
			existing.Title = u.Title
			existing.IsActive = true
			existing.UpdatedAt = time.Now()
			*u = *existing
			return nil
		}
	}
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return nil, shared.NotFoundf("User not found")
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.IsActive && u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.NotFoundf("User not found")
}

func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []User
	for _, u := range s.users {
		if u.IsActive {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FullName < all[j].FullName })
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

var _ Store = (*MemoryStore)(nil)

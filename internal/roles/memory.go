package roles

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/shared"
)

// MemoryStore is an in-memory Store used by tests. User identities for the
// listing methods are seeded with AddUser since accounts live elsewhere.
type MemoryStore struct {
	mu          sync.Mutex
	roles       map[uuid.UUID]*Role
	assignments map[uuid.UUID][]uuid.UUID
	identities  map[uuid.UUID]UserRoles
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:       make(map[uuid.UUID]*Role),
		assignments: make(map[uuid.UUID][]uuid.UUID),
		identities:  make(map[uuid.UUID]UserRoles),
	}
}

// AddUser seeds an identity for UsersWithRoles/UserWithRoles.
func (s *MemoryStore) AddUser(id uuid.UUID, username, fullName, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[id] = UserRoles{UserID: id, Username: username, FullName: fullName, Email: email}
}

func (s *MemoryStore) Create(ctx context.Context, r *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == r.Name {
			return shared.BadRequestf("Role %s already exists", r.Name)
		}
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.roles[r.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, shared.NotFoundf("Role not found")
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) GetByName(ctx context.Context, name string) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, shared.NotFoundf("Role not found")
}

func (s *MemoryStore) List(ctx context.Context) ([]Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Role
	for _, r := range s.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, in *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[in.ID]
	if !ok {
		return shared.NotFoundf("Role not found")
	}
	r.Name = in.Name
	r.Description = in.Description
	r.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return shared.NotFoundf("Role not found")
	}
	delete(s.roles, id)
	return nil
}

func (s *MemoryStore) AssignmentCount(ctx context.Context, roleID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ids := range s.assignments {
		for _, id := range ids {
			if id == roleID {
				n++
			}
		}
	}
	return n, nil
}

func (s *MemoryStore) ReplaceUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[userID] = append([]uuid.UUID(nil), roleIDs...)
	return nil
}

func (s *MemoryStore) RemoveUserRole(ctx context.Context, userID, roleID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.assignments[userID]
	for i, id := range ids {
		if id == roleID {
			s.assignments[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return shared.NotFoundf("Role assignment not found")
}

func (s *MemoryStore) RolesForUser(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rolesForUserLocked(userID), nil
}

func (s *MemoryStore) rolesForUserLocked(userID uuid.UUID) []Role {
	var out []Role
	for _, id := range s.assignments[userID] {
		if r, ok := s.roles[id]; ok {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *MemoryStore) UsersWithRoles(ctx context.Context, limit, offset int) ([]UserRoles, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []UserRoles
	for _, u := range s.identities {
		u.Roles = s.rolesForUserLocked(u.UserID)
		if u.Roles == nil {
			u.Roles = []Role{}
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (s *MemoryStore) UserWithRoles(ctx context.Context, userID uuid.UUID) (*UserRoles, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.identities[userID]
	if !ok {
		return nil, shared.NotFoundf("User not found")
	}
	u.Roles = s.rolesForUserLocked(userID)
	if u.Roles == nil {
		u.Roles = []Role{}
	}
	return &u, nil
}

var _ Store = (*MemoryStore)(nil)

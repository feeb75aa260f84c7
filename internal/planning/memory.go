package planning

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/shared"
)

// MemoryStore is an in-memory Store used by service tests. It applies writes
// directly (WithTx runs fn against the same state, no rollback). LockScope
// only records the requested keys, since access is already serialized by the
// mutex; tests inspect the recording to check which scopes a mutation holds.
type MemoryStore struct {
	mu          sync.Mutex
	rbsis       map[uuid.UUID]*Rbsi
	programs    map[uuid.UUID]*Program
	initiatives map[uuid.UUID]*Initiative
	lockedKeys  []string
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rbsis:       make(map[uuid.UUID]*Rbsi),
		programs:    make(map[uuid.UUID]*Program),
		initiatives: make(map[uuid.UUID]*Initiative),
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return fn(ctx, s)
}

func (s *MemoryStore) LockScope(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockedKeys = append(s.lockedKeys, key)
	return nil
}

// LockedKeys returns the scope keys requested since the last reset, in order.
func (s *MemoryStore) LockedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lockedKeys...)
}

// ResetLockedKeys clears the lock recording.
func (s *MemoryStore) ResetLockedKeys() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockedKeys = nil
}

func (s *MemoryStore) CreateRbsi(ctx context.Context, r *Rbsi) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.IsActive = true
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.rbsis[r.ID] = &cp
	return nil
}

func (s *MemoryStore) GetRbsi(ctx context.Context, id uuid.UUID) (*Rbsi, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rbsis[id]
	if !ok || !r.IsActive {
		return nil, shared.NotFoundf("RBSI %s not found", id)
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) RbsiPeriodeExists(ctx context.Context, periode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rbsis {
		if r.IsActive && r.Periode == periode {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListRbsi(ctx context.Context, limit, offset int) ([]Rbsi, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Rbsi
	for _, r := range s.rbsis {
		if r.IsActive {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
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

func (s *MemoryStore) SoftDeleteRbsi(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rbsis[id]; ok {
		r.IsActive = false
	}
	return nil
}

func (s *MemoryStore) CountProgramsByRbsi(ctx context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.programs {
		if p.IsActive && p.RbsiID == id {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateProgram(ctx context.Context, p *Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.IsActive = true
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.programs[p.ID] = &cp
	return nil
}

func (s *MemoryStore) GetProgram(ctx context.Context, id uuid.UUID) (*Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[id]
	if !ok || !p.IsActive {
		return nil, shared.NotFoundf("Program %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListPrograms(ctx context.Context, rbsiID uuid.UUID, year int) ([]Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []Program
	for _, p := range s.programs {
		if p.IsActive && p.RbsiID == rbsiID && p.YearVersion == year {
			list = append(list, *p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SortOrder < list[j].SortOrder })
	return list, nil
}

func (s *MemoryStore) ShiftProgramsFrom(ctx context.Context, rbsiID uuid.UUID, year, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.programs {
		if p.IsActive && p.RbsiID == rbsiID && p.YearVersion == year && p.SortOrder >= position {
			p.SortOrder++
		}
	}
	return nil
}

func (s *MemoryStore) SetProgramOrder(ctx context.Context, id uuid.UUID, sortOrder int, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.programs[id]; ok {
		p.SortOrder = sortOrder
		p.Number = number
	}
	return nil
}

func (s *MemoryStore) SetProgramYear(ctx context.Context, id uuid.UUID, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.programs[id]; ok {
		p.YearVersion = year
	}
	return nil
}

func (s *MemoryStore) UpdateProgram(ctx context.Context, in *Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.programs[in.ID]; ok && p.IsActive {
		p.Name = in.Name
		p.Description = in.Description
		p.Status = in.Status
		p.StartDate = in.StartDate
	}
	return nil
}

func (s *MemoryStore) SoftDeleteProgram(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.programs[id]; ok {
		p.IsActive = false
	}
	return nil
}

func (s *MemoryStore) SoftDeleteProgramsByRbsi(ctx context.Context, rbsiID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.programs {
		if p.RbsiID == rbsiID {
			p.IsActive = false
		}
	}
	return nil
}

func (s *MemoryStore) ProgramNumberExists(ctx context.Context, rbsiID uuid.UUID, year int, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.programs {
		if p.IsActive && p.RbsiID == rbsiID && p.YearVersion == year && p.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ProgramYears(ctx context.Context, rbsiID uuid.UUID) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int]struct{})
	var years []int
	for _, p := range s.programs {
		if p.IsActive && p.RbsiID == rbsiID {
			if _, ok := seen[p.YearVersion]; !ok {
				seen[p.YearVersion] = struct{}{}
				years = append(years, p.YearVersion)
			}
		}
	}
	sort.Ints(years)
	return years, nil
}

func (s *MemoryStore) CreateInitiative(ctx context.Context, i *Initiative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i.IsActive = true
	i.CreatedAt = time.Now()
	i.UpdatedAt = i.CreatedAt
	cp := *i
	s.initiatives[i.ID] = &cp
	return nil
}

func (s *MemoryStore) GetInitiative(ctx context.Context, id uuid.UUID) (*Initiative, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.initiatives[id]
	if !ok || !i.IsActive {
		return nil, shared.NotFoundf("Initiative %s not found", id)
	}
	cp := *i
	return &cp, nil
}

func (s *MemoryStore) ListInitiatives(ctx context.Context, programID uuid.UUID, year int) ([]Initiative, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []Initiative
	for _, i := range s.initiatives {
		if i.IsActive && i.ProgramID == programID && i.YearVersion == year {
			list = append(list, *i)
		}
	}
	sort.Slice(list, func(a, b int) bool { return list[a].SortOrder < list[b].SortOrder })
	return list, nil
}

func (s *MemoryStore) ShiftInitiativesFrom(ctx context.Context, programID uuid.UUID, year, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.initiatives {
		if i.IsActive && i.ProgramID == programID && i.YearVersion == year && i.SortOrder >= position {
			i.SortOrder++
		}
	}
	return nil
}

func (s *MemoryStore) SetInitiativeOrder(ctx context.Context, id uuid.UUID, sortOrder int, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.initiatives[id]; ok {
		i.SortOrder = sortOrder
		i.Number = number
	}
	return nil
}

func (s *MemoryStore) SetInitiativeScope(ctx context.Context, id, programID uuid.UUID, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.initiatives[id]; ok {
		i.ProgramID = programID
		i.YearVersion = year
	}
	return nil
}

func (s *MemoryStore) UpdateInitiative(ctx context.Context, in *Initiative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.initiatives[in.ID]; ok && i.IsActive {
		i.Name = in.Name
		i.Description = in.Description
		i.Status = in.Status
		i.DocumentLink = in.DocumentLink
		i.SubmitDate = in.SubmitDate
	}
	return nil
}

func (s *MemoryStore) SetInitiativeStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.initiatives[id]; ok && i.IsActive {
		i.Status = status
	}
	return nil
}

func (s *MemoryStore) SoftDeleteInitiative(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.initiatives[id]; ok {
		i.IsActive = false
	}
	return nil
}

func (s *MemoryStore) SoftDeleteInitiativesByProgram(ctx context.Context, programID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.initiatives {
		if i.ProgramID == programID {
			i.IsActive = false
		}
	}
	return nil
}

func (s *MemoryStore) SoftDeleteInitiativesByRbsi(ctx context.Context, rbsiID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.initiatives {
		p, ok := s.programs[i.ProgramID]
		if ok && p.RbsiID == rbsiID {
			i.IsActive = false
		}
	}
	return nil
}

func (s *MemoryStore) InitiativeNumberExists(ctx context.Context, programID uuid.UUID, year int, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.initiatives {
		if i.IsActive && i.ProgramID == programID && i.YearVersion == year && i.Number == number {
			return true, nil
		}
	}
	return false, nil
}

var _ Store = (*MemoryStore)(nil)

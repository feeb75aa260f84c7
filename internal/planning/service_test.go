package planning

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcs8/orientasi/internal/platform/db"
	"github.com/pcs8/orientasi/internal/shared"
)

func newTestServices(t *testing.T) (*RbsiService, *ProgramService, *InitiativeService, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRbsiService(store, logger, nil),
		NewProgramService(store, logger, nil),
		NewInitiativeService(store, logger, nil),
		store
}

func seedRbsi(t *testing.T, svc *RbsiService) uuid.UUID {
	t.Helper()
	resp, err := svc.Create(context.Background(), CreateRbsiRequest{Periode: "2025-2029"})
	require.NoError(t, err)
	return resp.ID
}

func seedPrograms(t *testing.T, svc *ProgramService, rbsiID uuid.UUID, year, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, n)
	names := []string{"Digitalisasi Layanan", "Penguatan SDM", "Tata Kelola Data", "Integrasi Sistem", "Keamanan Informasi"}
	for i := 0; i < n; i++ {
		resp, err := svc.Create(context.Background(), CreateProgramRequest{
			RbsiID:      rbsiID,
			YearVersion: year,
			Name:        names[i%len(names)],
		})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}
	return ids
}

func programNumbers(t *testing.T, store *MemoryStore, rbsiID uuid.UUID, year int) []string {
	t.Helper()
	list, err := store.ListPrograms(context.Background(), rbsiID, year)
	require.NoError(t, err)
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Number
	}
	return out
}

func TestProgramCreateAppendsSequentially(t *testing.T) {
	rbsiSvc, progSvc, _, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)

	seedPrograms(t, progSvc, rbsiID, 2025, 3)

	assert.Equal(t, []string{"3.1", "3.2", "3.3"}, programNumbers(t, store, rbsiID, 2025))
}

func TestProgramCreateAtPositionShiftsSiblings(t *testing.T) {
	rbsiSvc, progSvc, _, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	ids := seedPrograms(t, progSvc, rbsiID, 2025, 3)

	pos := 2
	resp, err := progSvc.Create(context.Background(), CreateProgramRequest{
		RbsiID:           rbsiID,
		YearVersion:      2025,
		Name:             "Program Sisipan",
		InsertAtPosition: &pos,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.SortOrder)
	assert.Equal(t, "3.2", resp.Number)

	list, err := store.ListPrograms(context.Background(), rbsiID, 2025)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, []string{"3.1", "3.2", "3.3", "3.4"}, programNumbers(t, store, rbsiID, 2025))

	// The previous #2 and #3 slid down one slot.
	byID := make(map[uuid.UUID]Program, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	assert.Equal(t, 3, byID[ids[1]].SortOrder)
	assert.Equal(t, "3.3", byID[ids[1]].Number)
	assert.Equal(t, 4, byID[ids[2]].SortOrder)
	assert.Equal(t, "3.4", byID[ids[2]].Number)
}

func TestProgramCreatePositionBeyondEndAppends(t *testing.T) {
	rbsiSvc, progSvc, _, _ := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	seedPrograms(t, progSvc, rbsiID, 2025, 2)

	pos := 99
	resp, err := progSvc.Create(context.Background(), CreateProgramRequest{
		RbsiID:           rbsiID,
		YearVersion:      2025,
		Name:             "Program Akhir",
		InsertAtPosition: &pos,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.SortOrder)
	assert.Equal(t, "3.3", resp.Number)
}

func TestProgramDeleteClosesGap(t *testing.T) {
	rbsiSvc, progSvc, _, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	ids := seedPrograms(t, progSvc, rbsiID, 2025, 4)

	require.NoError(t, progSvc.Delete(context.Background(), ids[1]))

	list, err := store.ListPrograms(context.Background(), rbsiID, 2025)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, p := range list {
		assert.Equal(t, i+1, p.SortOrder)
	}
	assert.Equal(t, []string{"3.1", "3.2", "3.3"}, programNumbers(t, store, rbsiID, 2025))

	_, err = progSvc.Get(context.Background(), ids[1])
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestProgramDeleteCascadesToInitiatives(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	ids := seedPrograms(t, progSvc, rbsiID, 2025, 1)

	created, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:   ids[0],
		YearVersion: 2025,
		Name:        "Inisiatif Tunggal",
	})
	require.NoError(t, err)

	require.NoError(t, progSvc.Delete(context.Background(), ids[0]))

	_, err = store.GetInitiative(context.Background(), created.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestProgramMoveRenumbersBothYears(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	src := seedPrograms(t, progSvc, rbsiID, 2025, 3)
	seedPrograms(t, progSvc, rbsiID, 2026, 2)

	// Child codes must follow the program into its new slot.
	_, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:   src[1],
		YearVersion: 2025,
		Name:        "Inisiatif Ikut Pindah",
	})
	require.NoError(t, err)

	moved, err := progSvc.Move(context.Background(), src[1], MoveProgramRequest{TargetYear: 2026})
	require.NoError(t, err)
	assert.Equal(t, 2026, moved.YearVersion)
	assert.Equal(t, 3, moved.SortOrder)
	assert.Equal(t, "3.3", moved.Number)

	assert.Equal(t, []string{"3.1", "3.2"}, programNumbers(t, store, rbsiID, 2025))
	assert.Equal(t, []string{"3.1", "3.2", "3.3"}, programNumbers(t, store, rbsiID, 2026))

	children, err := store.ListInitiatives(context.Background(), src[1], 2026)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "3.3.1", children[0].Number)
}

func TestProgramMoveAtPosition(t *testing.T) {
	rbsiSvc, progSvc, _, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	src := seedPrograms(t, progSvc, rbsiID, 2025, 1)
	seedPrograms(t, progSvc, rbsiID, 2026, 3)

	pos := 1
	moved, err := progSvc.Move(context.Background(), src[0], MoveProgramRequest{TargetYear: 2026, Position: &pos})
	require.NoError(t, err)
	assert.Equal(t, 1, moved.SortOrder)
	assert.Equal(t, "3.1", moved.Number)
	assert.Equal(t, []string{"3.1", "3.2", "3.3", "3.4"}, programNumbers(t, store, rbsiID, 2026))
}

func TestProgramMoveSameYearRejected(t *testing.T) {
	rbsiSvc, progSvc, _, _ := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	ids := seedPrograms(t, progSvc, rbsiID, 2025, 1)

	_, err := progSvc.Move(context.Background(), ids[0], MoveProgramRequest{TargetYear: 2025})
	assert.True(t, errors.Is(err, shared.ErrBadRequest))
}

func TestProgramCopyKeepsNumberWithoutSweep(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	src := seedPrograms(t, progSvc, rbsiID, 2025, 2)

	_, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:   src[1],
		YearVersion: 2025,
		Name:        "Inisiatif Sumber",
	})
	require.NoError(t, err)

	copied, err := progSvc.Copy(context.Background(), src[1], CopyProgramRequest{TargetYear: 2026})
	require.NoError(t, err)
	assert.Equal(t, "3.2", copied.Number)
	assert.Equal(t, 2, copied.SortOrder)
	assert.Equal(t, 2026, copied.YearVersion)

	// Copy carries the children and leaves the source untouched.
	children, err := store.ListInitiatives(context.Background(), copied.ID, 2026)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "3.2.1", children[0].Number)
	assert.Equal(t, []string{"3.1", "3.2"}, programNumbers(t, store, rbsiID, 2025))

	// A lone "3.2" in the target year is never renumbered to "3.1".
	assert.Equal(t, []string{"3.2"}, programNumbers(t, store, rbsiID, 2026))
}

func TestProgramCopyDuplicateNumberRejected(t *testing.T) {
	rbsiSvc, progSvc, _, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	src := seedPrograms(t, progSvc, rbsiID, 2025, 2)

	_, err := progSvc.Copy(context.Background(), src[1], CopyProgramRequest{TargetYear: 2026})
	require.NoError(t, err)

	_, err = progSvc.Copy(context.Background(), src[1], CopyProgramRequest{TargetYear: 2026})
	assert.True(t, errors.Is(err, shared.ErrBadRequest))

	list, err := store.ListPrograms(context.Background(), rbsiID, 2026)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProgramCreateWithInlineInitiatives(t *testing.T) {
	rbsiSvc, progSvc, _, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)

	resp, err := progSvc.Create(context.Background(), CreateProgramRequest{
		RbsiID:      rbsiID,
		YearVersion: 2025,
		Name:        "Program Induk",
		Initiatives: []InlineInitiativeRequest{
			{Name: "Kajian Awal"},
			{Name: "Implementasi"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalInitiatives)

	children, err := store.ListInitiatives(context.Background(), resp.ID, 2025)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "3.1.1", children[0].Number)
	assert.Equal(t, "3.1.2", children[1].Number)
	assert.Equal(t, InitiativeStatusPending, children[0].Status)
}

func TestProgramAvailableYears(t *testing.T) {
	rbsiSvc, progSvc, _, _ := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	seedPrograms(t, progSvc, rbsiID, 2026, 1)
	seedPrograms(t, progSvc, rbsiID, 2025, 1)

	years, err := progSvc.AvailableYears(context.Background(), rbsiID)
	require.NoError(t, err)
	assert.Equal(t, []int{2025, 2026}, years)
}

func TestInitiativeCreateAtPositionShiftsSiblings(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	prog := seedPrograms(t, progSvc, rbsiID, 2025, 1)[0]

	for _, name := range []string{"Pertama", "Kedua", "Ketiga"} {
		_, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
			ProgramID:   prog,
			YearVersion: 2025,
			Name:        name,
		})
		require.NoError(t, err)
	}

	pos := 2
	created, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:        prog,
		YearVersion:      2025,
		Name:             "Sisipan",
		InsertAtPosition: &pos,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created.SortOrder)
	assert.Equal(t, "3.1.2", created.Number)

	list, err := store.ListInitiatives(context.Background(), prog, 2025)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i, item := range list {
		assert.Equal(t, i+1, item.SortOrder)
	}
	assert.Equal(t, "3.1.4", list[3].Number)
}

func TestInitiativeYearMismatchRejected(t *testing.T) {
	rbsiSvc, progSvc, initSvc, _ := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	prog := seedPrograms(t, progSvc, rbsiID, 2025, 1)[0]

	_, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:   prog,
		YearVersion: 2030,
		Name:        "Tahun Salah",
	})
	assert.True(t, errors.Is(err, shared.ErrBadRequest))
}

func TestInitiativeDeleteClosesGap(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	prog := seedPrograms(t, progSvc, rbsiID, 2025, 1)[0]

	var ids []uuid.UUID
	for _, name := range []string{"Pertama", "Kedua", "Ketiga"} {
		created, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
			ProgramID:   prog,
			YearVersion: 2025,
			Name:        name,
		})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	require.NoError(t, initSvc.Delete(context.Background(), ids[0]))

	list, err := store.ListInitiatives(context.Background(), prog, 2025)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "3.1.1", list[0].Number)
	assert.Equal(t, "Kedua", list[0].Name)
	assert.Equal(t, "3.1.2", list[1].Number)
}

func TestInitiativeMoveAcrossPrograms(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	progs := seedPrograms(t, progSvc, rbsiID, 2025, 2)

	var ids []uuid.UUID
	for _, name := range []string{"Pertama", "Kedua"} {
		created, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
			ProgramID:   progs[0],
			YearVersion: 2025,
			Name:        name,
		})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	moved, err := initSvc.Move(context.Background(), ids[0], MoveInitiativeRequest{
		TargetProgramID: progs[1],
		TargetYear:      2025,
	})
	require.NoError(t, err)
	assert.Equal(t, progs[1], moved.ProgramID)
	assert.Equal(t, 1, moved.SortOrder)
	assert.Equal(t, "3.2.1", moved.Number)

	// The source scope closed its gap and re-derived its codes.
	src, err := store.ListInitiatives(context.Background(), progs[0], 2025)
	require.NoError(t, err)
	require.Len(t, src, 1)
	assert.Equal(t, 1, src[0].SortOrder)
	assert.Equal(t, "3.1.1", src[0].Number)
	assert.Equal(t, "Kedua", src[0].Name)
}

func TestStructuralMutationsShareRbsiYearLock(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	progs := seedPrograms(t, progSvc, rbsiID, 2025, 2)

	// Program and initiative mutations in the same RBSI year must contend on
	// one key: a program sweep rewrites child display codes, so an initiative
	// insert holding a narrower lock could derive codes from a stale parent.
	key := db.PlanningScopeKey(rbsiID.String(), 2025)

	store.ResetLockedKeys()
	_, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:   progs[0],
		YearVersion: 2025,
		Name:        "Anak Pertama",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{key}, store.LockedKeys())

	store.ResetLockedKeys()
	require.NoError(t, progSvc.Delete(context.Background(), progs[1]))
	assert.Equal(t, []string{key}, store.LockedKeys())
}

func TestInitiativeMoveLocksBothRbsiYears(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	source := seedPrograms(t, progSvc, rbsiID, 2025, 1)
	target := seedPrograms(t, progSvc, rbsiID, 2026, 1)

	created, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:   source[0],
		YearVersion: 2025,
		Name:        "Pindahan",
	})
	require.NoError(t, err)

	store.ResetLockedKeys()
	_, err = initSvc.Move(context.Background(), created.ID, MoveInitiativeRequest{
		TargetProgramID: target[0],
		TargetYear:      2026,
	})
	require.NoError(t, err)

	want := []string{
		db.PlanningScopeKey(rbsiID.String(), 2025),
		db.PlanningScopeKey(rbsiID.String(), 2026),
	}
	sort.Strings(want)
	assert.Equal(t, want, store.LockedKeys())
}

func TestInitiativeCopyDuplicateNumberRejected(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	progs := seedPrograms(t, progSvc, rbsiID, 2025, 1)
	seedPrograms(t, progSvc, rbsiID, 2026, 1)

	target, err := store.ListPrograms(context.Background(), rbsiID, 2026)
	require.NoError(t, err)

	created, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:   progs[0],
		YearVersion: 2025,
		Name:        "Sumber",
	})
	require.NoError(t, err)

	_, err = initSvc.Copy(context.Background(), created.ID, CopyInitiativeRequest{
		TargetProgramID: target[0].ID,
		TargetYear:      2026,
	})
	require.NoError(t, err)

	_, err = initSvc.Copy(context.Background(), created.ID, CopyInitiativeRequest{
		TargetProgramID: target[0].ID,
		TargetYear:      2026,
	})
	assert.True(t, errors.Is(err, shared.ErrBadRequest))

	list, err := store.ListInitiatives(context.Background(), target[0].ID, 2026)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInitiativeUpdateStatus(t *testing.T) {
	rbsiSvc, progSvc, initSvc, _ := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	prog := seedPrograms(t, progSvc, rbsiID, 2025, 1)[0]

	created, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:   prog,
		YearVersion: 2025,
		Name:        "Berjalan",
	})
	require.NoError(t, err)

	updated, err := initSvc.UpdateStatus(context.Background(), created.ID, UpdateInitiativeStatusRequest{Status: InitiativeStatusOngoing})
	require.NoError(t, err)
	assert.Equal(t, InitiativeStatusOngoing, updated.Status)
}

func TestRbsiCreateDuplicatePeriodeRejected(t *testing.T) {
	rbsiSvc, _, _, _ := newTestServices(t)
	_, err := rbsiSvc.Create(context.Background(), CreateRbsiRequest{Periode: "2025-2029"})
	require.NoError(t, err)

	_, err = rbsiSvc.Create(context.Background(), CreateRbsiRequest{Periode: "2025-2029"})
	assert.True(t, errors.Is(err, shared.ErrBadRequest))
}

func TestRbsiDeleteCascades(t *testing.T) {
	rbsiSvc, progSvc, initSvc, store := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	prog := seedPrograms(t, progSvc, rbsiID, 2025, 1)[0]

	created, err := initSvc.Create(context.Background(), CreateInitiativeRequest{
		ProgramID:   prog,
		YearVersion: 2025,
		Name:        "Turunan",
	})
	require.NoError(t, err)

	require.NoError(t, rbsiSvc.Delete(context.Background(), rbsiID))

	_, err = store.GetRbsi(context.Background(), rbsiID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	_, err = store.GetProgram(context.Background(), prog)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	_, err = store.GetInitiative(context.Background(), created.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestRbsiListCountsPrograms(t *testing.T) {
	rbsiSvc, progSvc, _, _ := newTestServices(t)
	rbsiID := seedRbsi(t, rbsiSvc)
	seedPrograms(t, progSvc, rbsiID, 2025, 2)
	seedPrograms(t, progSvc, rbsiID, 2026, 1)

	resp, err := rbsiSvc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 3, resp.Data[0].TotalPrograms)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
}

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// LockScope takes a transaction-scoped advisory lock for the given key.
// Concurrent writers to the same sibling scope serialize on this lock, so
// sort-order computations cannot interleave. Released on commit/rollback.
func LockScope(ctx context.Context, tx pgx.Tx, key string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("platform/db: lock scope %s: %w", key, err)
	}
	return nil
}

// PlanningScopeKey identifies one RBSI year. Program and initiative
// mutations share this key: renumbering a program rewrites its children's
// display codes, and a new initiative reads its parent's current number, so
// both levels must serialize against each other, not just their siblings.
func PlanningScopeKey(rbsiID string, year int) string {
	return fmt.Sprintf("planning:rbsi:%s:year:%d", rbsiID, year)
}

// Package sequence holds the pure renumbering rules for sibling entities
// within one scope (parent id + year). Repositories supply the ordered live
// siblings, services apply the assignments this package computes.
package sequence

import (
	"fmt"

	"github.com/google/uuid"
)

// ProgramPrefix is the fixed first segment of every program number, matching
// the chapter the hierarchy occupies in the published document outline.
const ProgramPrefix = "3"

// Entity is a sibling as seen by the sequencer.
type Entity struct {
	ID        uuid.UUID
	SortOrder int
	Number    string
}

// Assignment gives an entity its corrected rank and display code.
type Assignment struct {
	ID        uuid.UUID
	SortOrder int
	Number    string
}

// Sweep maps the entities, already sorted by their current sort order, onto
// the contiguous ranks 1..N and the display codes codeFor yields for those
// ranks. Entities whose rank and code are both already correct are skipped,
// so the caller only writes rows that actually change.
func Sweep(entities []Entity, codeFor func(order int) string) []Assignment {
	var out []Assignment
	for i, e := range entities {
		want := i + 1
		number := codeFor(want)
		if e.SortOrder != want || e.Number != number {
			out = append(out, Assignment{ID: e.ID, SortOrder: want, Number: number})
		}
	}
	return out
}

// ClampPosition normalizes a requested 1-based insertion rank against the
// current sibling count. Ranks past the end collapse to count+1 (append), so
// no request can leave a gap.
func ClampPosition(position, count int) int {
	if position < 1 {
		return 1
	}
	if position > count+1 {
		return count + 1
	}
	return position
}

// ProgramCode derives a program display code from its rank.
func ProgramCode(order int) string {
	return fmt.Sprintf("%s.%d", ProgramPrefix, order)
}

// ChildCodeFunc returns the code derivation for children of the given parent
// display code.
func ChildCodeFunc(parentCode string) func(int) string {
	return func(order int) string {
		return fmt.Sprintf("%s.%d", parentCode, order)
	}
}

/*
allocation.go - Monthly casual-leave allocation state machine

PURPOSE:
  Grants one casual leave per eligible employee per calendar month, at most
  once per month. The per-month state machine is NotRun -> Completed, and
  Completed is terminal: nothing in this component reverses it.

ELIGIBILITY:
  Any Absent record in the month - even one - disqualifies the employee from
  that month's grant entirely. All-or-nothing, not prorated.

EXCLUSIVITY:
  The plain read-check on the completion marker is advisory: two callers can
  race past it. The transition itself is made exclusive by writing the
  marker and the balance increments through a guarded atomic update that
  applies only while the marker path is still absent. The loser of a race
  gets AlreadyCompleted and zero additional writes.

SEE ALSO:
  - engine/store.go: ConditionalStore.UpdateIfAbsent
  - attendance/aggregator.go: HasAbsence
*/
package leave

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/facultyops/attendance-engine/attendance"
	"github.com/facultyops/attendance-engine/engine"
)

// =============================================================================
// ALLOCATION MARKER
// =============================================================================

// Allocation is the write-once completion marker for one month.
type Allocation struct {
	Month        engine.Month `json:"month"`
	Completed    bool         `json:"completed"`
	Timestamp    time.Time    `json:"timestamp"`
	UpdatedCount int          `json:"updatedCount"`
}

func AllocationPath(month engine.Month) string {
	return engine.JoinPath("monthlyAllocations", month.String())
}

// =============================================================================
// ALLOCATOR
// =============================================================================

type Allocator struct {
	Repo *attendance.Repo

	// now is swappable for tests.
	now func() time.Time
}

func NewAllocator(repo *attendance.Repo) *Allocator {
	return &Allocator{Repo: repo, now: time.Now}
}

// Status returns the allocation marker for a month, if one exists.
func (a *Allocator) Status(ctx context.Context, month engine.Month) (Allocation, bool, error) {
	var alloc Allocation
	ok, err := engine.GetJSON(ctx, a.Repo.Store, AllocationPath(month), &alloc)
	if err != nil || !ok {
		return Allocation{}, false, err
	}
	return alloc, true, nil
}

// Allocate runs the monthly grant for one month:
//
//  1. Refuse if the month's marker is already completed (advisory check).
//  2. Employees with at least one Absent record in the month are ineligible;
//     everyone else on the roster is eligible.
//  3. Increment each eligible employee's casual leaves by exactly 1.
//  4. Write the completion marker - even when UpdatedCount is 0, an
//     all-absent roster is still a valid, locked outcome.
//
// Steps 3 and 4 are one guarded atomic update on the marker path, so a
// concurrent caller racing past step 1 still cannot double-allocate.
func (a *Allocator) Allocate(ctx context.Context, month engine.Month) (Allocation, error) {
	cs, ok := a.Repo.Store.(engine.ConditionalStore)
	if !ok {
		return Allocation{}, engine.ErrStoreRequired
	}

	if existing, found, err := a.Status(ctx, month); err != nil {
		return Allocation{}, err
	} else if found && existing.Completed {
		return Allocation{}, &engine.AlreadyCompletedError{
			Month:       month,
			CompletedAt: existing.Timestamp,
		}
	}

	roster, err := a.Repo.ListFaculty(ctx)
	if err != nil {
		return Allocation{}, err
	}
	records, err := a.Repo.AllRecords(ctx)
	if err != nil {
		return Allocation{}, err
	}
	agg := attendance.AggregateMonth(records, month)

	writes := make(map[string]json.RawMessage)
	updated := 0
	for _, f := range roster {
		if agg.HasAbsence(f.EmpID) {
			continue
		}
		f.CasualLeaves++
		writes[attendance.FacultyPath(f.EmpID)] = engine.MustMarshal(f)
		updated++
	}

	marker := Allocation{
		Month:        month,
		Completed:    true,
		Timestamp:    a.now().UTC(),
		UpdatedCount: updated,
	}
	markerPath := AllocationPath(month)
	writes[markerPath] = engine.MustMarshal(marker)

	if err := cs.UpdateIfAbsent(ctx, markerPath, writes); err != nil {
		if errors.Is(err, engine.ErrDuplicateKey) {
			// Lost the race: another caller completed the month first.
			return Allocation{}, &engine.AlreadyCompletedError{Month: month}
		}
		return Allocation{}, err
	}
	return marker, nil
}

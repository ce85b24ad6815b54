package payroll

import (
	"context"
	"encoding/json"

	"github.com/facultyops/attendance-engine/attendance"
	"github.com/facultyops/attendance-engine/engine"
)

// Finalize persists the casual-leave deductions of a computed summary set:
// for every employee with CasualLeavesUsed > 0, the used count is deducted
// from the stored balance, written as one atomic multi-key update. Returns
// the number of balances written.
//
// NOT idempotent at this layer: calling it twice against the same summaries
// double-deducts. Callers wanting a guard layer the allocation-marker
// pattern on top (see leave.Allocator); this package does not decide that.
func Finalize(ctx context.Context, repo *attendance.Repo, summaries []Summary) (int, error) {
	writes := make(map[string]json.RawMessage)
	updated := 0
	for _, s := range summaries {
		if s.CasualLeavesUsed <= 0 {
			continue
		}
		f, err := repo.Faculty(ctx, s.EmpID)
		if err != nil {
			return 0, err
		}
		// Deduct from the live balance, not the summary snapshot. This is
		// what makes a second Finalize call double-deduct.
		f.CasualLeaves -= s.CasualLeavesUsed
		if f.CasualLeaves < 0 {
			f.CasualLeaves = 0
		}
		writes[attendance.FacultyPath(f.EmpID)] = engine.MustMarshal(f)
		updated++
	}
	if updated == 0 {
		return 0, nil
	}
	if err := repo.Store.Update(ctx, writes); err != nil {
		return 0, err
	}
	return updated, nil
}

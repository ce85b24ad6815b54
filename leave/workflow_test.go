package leave_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facultyops/attendance-engine/attendance"
	"github.com/facultyops/attendance-engine/engine"
	"github.com/facultyops/attendance-engine/engine/store"
	"github.com/facultyops/attendance-engine/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestWorkflow() (*leave.Workflow, *attendance.Repo, *store.Memory) {
	mem := store.NewMemory()
	return leave.NewWorkflow(mem), attendance.NewRepo(mem), mem
}

func application(id string, empID int, start, end engine.Day) leave.Application {
	return leave.Application{
		ID:          id,
		EmpID:       empID,
		Start:       start,
		End:         end,
		SubmittedAt: time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC),
		Status:      leave.StatusPending,
	}
}

func absentRecord(empID int, day engine.Day, leaveID string) attendance.Record {
	return attendance.Record{
		EmpID:              empID,
		Date:               day,
		InTime:             attendance.AbsentInTime,
		Status:             attendance.StatusAbsent,
		LeaveApplicationID: leaveID,
	}
}

// brokenStore wraps Memory and fails selected write operations.
type brokenStore struct {
	*store.Memory
	failSet    bool
	failUpdate bool
}

var errOffline = errors.New("store offline")

func (b *brokenStore) Set(ctx context.Context, path string, value json.RawMessage) error {
	if b.failSet {
		return errOffline
	}
	return b.Memory.Set(ctx, path, value)
}

func (b *brokenStore) Update(ctx context.Context, writes map[string]json.RawMessage) error {
	if b.failUpdate {
		return errOffline
	}
	return b.Memory.Update(ctx, writes)
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_InvalidRange_NoWrite(t *testing.T) {
	ctx := context.Background()
	wf, _, mem := newTestWorkflow()

	app := application("l1", 1,
		engine.NewDay(2025, time.March, 10),
		engine.NewDay(2025, time.March, 9)) // inverted

	err := wf.Submit(ctx, app)
	assert.ErrorIs(t, err, engine.ErrInvalidRange)
	assert.Equal(t, 0, mem.Len(), "inverted range must fail before any write")
}

func TestSubmit_DuplicateID(t *testing.T) {
	ctx := context.Background()
	wf, _, _ := newTestWorkflow()

	app := application("l1", 1,
		engine.NewDay(2025, time.March, 10),
		engine.NewDay(2025, time.March, 12))
	require.NoError(t, wf.Submit(ctx, app))

	err := wf.Submit(ctx, app)
	assert.ErrorIs(t, err, engine.ErrDuplicateKey)
}

// =============================================================================
// APPROVE
// =============================================================================

func TestApprove_SetsStatusOnly(t *testing.T) {
	// GIVEN: A pending application and attendance records in its range
	// WHEN: The application is approved
	// THEN: Only the status changes; attendance is untouched
	ctx := context.Background()
	wf, repo, _ := newTestWorkflow()

	day := engine.NewDay(2025, time.March, 10)
	app := application("l1", 1, day, day)
	require.NoError(t, wf.Submit(ctx, app))
	require.NoError(t, repo.PutRecord(ctx, absentRecord(1, day, "l1")))

	require.NoError(t, wf.Approve(ctx, &app))

	assert.Equal(t, leave.StatusApproved, app.Status)
	stored, err := wf.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, stored.Status)

	_, present, err := repo.Record(ctx, 1, day)
	require.NoError(t, err)
	assert.True(t, present, "approval must not alter attendance")
}

func TestApprove_MissingApplication_RollsBackOptimisticStatus(t *testing.T) {
	ctx := context.Background()
	wf, _, _ := newTestWorkflow()

	app := application("ghost", 1,
		engine.NewDay(2025, time.March, 10),
		engine.NewDay(2025, time.March, 10))

	err := wf.Approve(ctx, &app)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	assert.Equal(t, leave.StatusPending, app.Status,
		"caller's copy must match the pre-operation snapshot")
}

func TestApprove_WriteFailure_RollsBackOptimisticStatus(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	broken := &brokenStore{Memory: mem}
	wf := leave.NewWorkflow(broken)

	app := application("l1", 1,
		engine.NewDay(2025, time.March, 10),
		engine.NewDay(2025, time.March, 10))
	require.NoError(t, wf.Submit(ctx, app))

	broken.failSet = true
	err := wf.Approve(ctx, &app)
	require.Error(t, err)
	assert.Equal(t, leave.StatusPending, app.Status)
}

// =============================================================================
// REJECT
// =============================================================================

func TestReject_ClearsRangeAndSetsStatus(t *testing.T) {
	// GIVEN: A 3-day leave whose days were zeroed as Absent
	// WHEN: The leave is rejected
	// THEN: Status is Rejected and no attendance remains in the range
	ctx := context.Background()
	wf, repo, _ := newTestWorkflow()

	start := engine.NewDay(2025, time.March, 10)
	end := engine.NewDay(2025, time.March, 12)
	app := application("l1", 1, start, end)
	require.NoError(t, wf.Submit(ctx, app))
	require.NoError(t, wf.MarkLeave(ctx, app))

	// An unrelated record outside the range must survive.
	outside := engine.NewDay(2025, time.March, 13)
	require.NoError(t, repo.PutRecord(ctx, absentRecord(1, outside, "")))

	require.NoError(t, wf.Reject(ctx, &app))

	assert.Equal(t, leave.StatusRejected, app.Status)
	stored, err := wf.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, stored.Status)

	for _, d := range app.Range().Days() {
		_, present, err := repo.Record(ctx, 1, d)
		require.NoError(t, err)
		assert.False(t, present, "no record may remain on %s", d)
	}
	_, present, err := repo.Record(ctx, 1, outside)
	require.NoError(t, err)
	assert.True(t, present)
}

func TestReject_InvalidRange_FailsBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()
	wf, _, mem := newTestWorkflow()

	app := application("l1", 1,
		engine.NewDay(2025, time.March, 10),
		engine.NewDay(2025, time.March, 12))
	require.NoError(t, wf.Submit(ctx, app))
	before := mem.Len()

	app.End = engine.NewDay(2025, time.March, 9) // corrupt the range
	err := wf.Reject(ctx, &app)
	assert.ErrorIs(t, err, engine.ErrInvalidRange)
	assert.Equal(t, leave.StatusPending, app.Status)
	assert.Equal(t, before, mem.Len())
}

func TestReject_WriteFailure_RollsBackOptimisticStatus(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	broken := &brokenStore{Memory: mem}
	wf := leave.NewWorkflow(broken)

	app := application("l1", 1,
		engine.NewDay(2025, time.March, 10),
		engine.NewDay(2025, time.March, 12))
	require.NoError(t, wf.Submit(ctx, app))
	require.NoError(t, wf.MarkLeave(ctx, app))

	broken.failUpdate = true
	err := wf.Reject(ctx, &app)
	require.ErrorIs(t, err, errOffline)
	assert.Equal(t, leave.StatusPending, app.Status)

	// Store view is unchanged: status still pending, records still present.
	stored, err := wf.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_PurgesApplicationAndRange(t *testing.T) {
	ctx := context.Background()
	wf, repo, mem := newTestWorkflow()

	start := engine.NewDay(2025, time.March, 10)
	end := engine.NewDay(2025, time.March, 11)
	app := application("l1", 1, start, end)
	require.NoError(t, wf.Submit(ctx, app))
	require.NoError(t, wf.MarkLeave(ctx, app))

	require.NoError(t, wf.Delete(ctx, app))

	_, err := wf.Get(ctx, "l1")
	assert.ErrorIs(t, err, engine.ErrNotFound)
	for _, d := range app.Range().Days() {
		_, present, err := repo.Record(ctx, 1, d)
		require.NoError(t, err)
		assert.False(t, present)
	}
	assert.Equal(t, 0, mem.Len())
}

// =============================================================================
// MARK LEAVE
// =============================================================================

func TestMarkLeave_ZeroesCoveredDays(t *testing.T) {
	ctx := context.Background()
	wf, repo, _ := newTestWorkflow()

	start := engine.NewDay(2025, time.March, 10)
	end := engine.NewDay(2025, time.March, 12)
	app := application("l1", 7, start, end)
	require.NoError(t, wf.Submit(ctx, app))

	require.NoError(t, wf.MarkLeave(ctx, app))

	for _, d := range app.Range().Days() {
		got, present, err := repo.Record(ctx, 7, d)
		require.NoError(t, err)
		require.True(t, present)
		assert.Equal(t, attendance.StatusAbsent, got.Status)
		assert.Equal(t, attendance.AbsentInTime, got.InTime)
		assert.Equal(t, "l1", got.LeaveApplicationID)
	}
}

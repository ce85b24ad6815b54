/*
workflow.go - Leave application lifecycle

PURPOSE:
  Approves, rejects, and deletes leave applications while keeping attendance
  and leave records mutually consistent. Rejection is the delicate one:
  marking-as-leave previously zeroed the covered days, so a rejected leave
  must re-expose them by deleting every attendance record in the leave's
  date range. Status flip and range clearing go through one atomic
  multi-key update.

OPTIMISTIC MUTATION:
  Approve/Reject flip the caller's in-memory status before the store write
  and restore the prior status when the write fails, so a failed operation
  leaves the caller's view identical to the pre-operation snapshot.

ORDERING:
  Every decision read (application lookup, range validation) completes
  before the dependent write is issued. No operation retries; retry policy
  belongs to the store adapter.

SEE ALSO:
  - engine/store.go:   Update atomicity contract
  - allocation.go:     Monthly casual-leave allocation
*/
package leave

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/facultyops/attendance-engine/attendance"
	"github.com/facultyops/attendance-engine/engine"
)

// =============================================================================
// APPLICATION
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Application struct {
	ID          string     `json:"id"`
	EmpID       int        `json:"empId"`
	Start       engine.Day `json:"startDate"`
	End         engine.Day `json:"endDate"`
	SubmittedAt time.Time  `json:"submittedAt"`
	Status      Status     `json:"status"`
}

// Range returns the inclusive calendar span the application covers.
func (a Application) Range() engine.DateRange {
	return engine.DateRange{Start: a.Start, End: a.End}
}

const rootPrefix = "leaveApplications/"

func Path(id string) string {
	return engine.JoinPath("leaveApplications", id)
}

// =============================================================================
// WORKFLOW
// =============================================================================

type Workflow struct {
	Store engine.Store
}

func NewWorkflow(store engine.Store) *Workflow {
	return &Workflow{Store: store}
}

// Submit stores a new pending application. The range is validated before any
// write; duplicate ids are rejected.
func (w *Workflow) Submit(ctx context.Context, app Application) error {
	if err := app.Range().Validate(); err != nil {
		return err
	}
	path := Path(app.ID)
	_, occupied, err := w.Store.Get(ctx, path)
	if err != nil {
		return err
	}
	if occupied {
		return &engine.DuplicateKeyError{Path: path}
	}
	app.Status = StatusPending
	return w.Store.Set(ctx, path, engine.MustMarshal(app))
}

func (w *Workflow) Get(ctx context.Context, id string) (Application, error) {
	var app Application
	ok, err := engine.GetJSON(ctx, w.Store, Path(id), &app)
	if err != nil {
		return Application{}, err
	}
	if !ok {
		return Application{}, &engine.NotFoundError{Kind: "leave", Key: id}
	}
	return app, nil
}

// List returns all applications ordered by submission time, newest first.
func (w *Workflow) List(ctx context.Context) ([]Application, error) {
	raw, err := w.Store.List(ctx, rootPrefix)
	if err != nil {
		return nil, err
	}
	apps := make([]Application, 0, len(raw))
	for _, value := range raw {
		var app Application
		if err := json.Unmarshal(value, &app); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].SubmittedAt.After(apps[j].SubmittedAt) })
	return apps, nil
}

// Approve sets the application status to Approved. Approval is authorization
// only: it never touches attendance. The caller's copy is flipped
// optimistically and restored if the application is missing or the write
// fails.
func (w *Workflow) Approve(ctx context.Context, app *Application) error {
	prev := app.Status
	app.Status = StatusApproved

	path := Path(app.ID)
	_, ok, err := w.Store.Get(ctx, path)
	if err != nil {
		app.Status = prev
		return err
	}
	if !ok {
		app.Status = prev
		return &engine.NotFoundError{Kind: "leave", Key: app.ID}
	}
	if err := w.Store.Set(ctx, path, engine.MustMarshal(*app)); err != nil {
		app.Status = prev
		return err
	}
	return nil
}

// Reject sets the status to Rejected and deletes every attendance record for
// (empId, d) across the leave's inclusive date range, as a single atomic
// multi-key write. An inverted range fails before any write occurs.
func (w *Workflow) Reject(ctx context.Context, app *Application) error {
	if err := app.Range().Validate(); err != nil {
		return err
	}

	prev := app.Status
	app.Status = StatusRejected

	path := Path(app.ID)
	_, ok, err := w.Store.Get(ctx, path)
	if err != nil {
		app.Status = prev
		return err
	}
	if !ok {
		app.Status = prev
		return &engine.NotFoundError{Kind: "leave", Key: app.ID}
	}

	writes := map[string]json.RawMessage{path: engine.MustMarshal(*app)}
	for _, d := range app.Range().Days() {
		writes[attendance.RecordPath(app.EmpID, d)] = nil
	}
	if err := w.Store.Update(ctx, writes); err != nil {
		app.Status = prev
		return err
	}
	return nil
}

// Delete removes the application entirely and clears the same date range
// from attendance. Administrative purge path, outside approve/reject.
func (w *Workflow) Delete(ctx context.Context, app Application) error {
	if err := app.Range().Validate(); err != nil {
		return err
	}

	writes := map[string]json.RawMessage{Path(app.ID): nil}
	for _, d := range app.Range().Days() {
		writes[attendance.RecordPath(app.EmpID, d)] = nil
	}
	return w.Store.Update(ctx, writes)
}

// MarkLeave writes Absent attendance records over the application's range,
// linking them back to the application. This is the zeroing that rejection
// later re-expands.
func (w *Workflow) MarkLeave(ctx context.Context, app Application) error {
	if err := app.Range().Validate(); err != nil {
		return err
	}

	writes := make(map[string]json.RawMessage)
	for _, d := range app.Range().Days() {
		rec := attendance.Record{
			EmpID:              app.EmpID,
			Date:               d,
			InTime:             attendance.AbsentInTime,
			Status:             attendance.StatusAbsent,
			LeaveApplicationID: app.ID,
		}
		writes[attendance.RecordPath(app.EmpID, d)] = engine.MustMarshal(rec)
	}
	return w.Store.Update(ctx, writes)
}

/*
handlers.go - HTTP API handlers for the attendance/payroll engine

PURPOSE:
  Exposes the reconciliation engine via REST. Handles HTTP request/response
  and JSON serialization, delegates everything else to domain logic.

ENDPOINTS:
  Faculty:
    GET    /api/faculty                      List roster
    POST   /api/faculty                      Create faculty record
    GET    /api/faculty/{empId}              Get faculty record
    DELETE /api/faculty/{empId}              Remove (cascades attendance)
    GET    /api/faculty/{empId}/attendance   Records, ?month=YYYY-MM filter

  Attendance:
    POST   /api/attendance                   Mark a day (classified on ingest)

  Leaves:
    GET    /api/leaves                       List applications
    POST   /api/leaves                       Submit application
    POST   /api/leaves/{id}/mark             Zero covered days as leave
    POST   /api/leaves/{id}/approve          Approve
    POST   /api/leaves/{id}/reject           Reject (clears covered days)
    DELETE /api/leaves/{id}                  Purge (clears covered days)

  Holidays:
    GET    /api/holidays                     List
    POST   /api/holidays                     Add (one per date)
    DELETE /api/holidays/{date}              Remove

  Payroll:
    GET    /api/payroll?month=YYYY-MM        Monthly summaries (recomputed)
    POST   /api/payroll/override             Payable-days override for one row
    POST   /api/payroll/finalize             Persist casual-leave deductions

  Allocations:
    GET    /api/allocations/{month}          Completion marker, if any
    POST   /api/allocations/{month}          Run monthly allocation

  Settings:
    GET    /api/settings
    PUT    /api/settings                     Replace wholesale, swap snapshot

ERROR HANDLING:
  Errors map to HTTP status via the engine taxonomy:
  - 400: invalid input, inverted ranges, duplicates
  - 404: missing faculty/leave/record
  - 409: allocation already completed
  - 500: store failures, partial writes

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/facultyops/attendance-engine/attendance"
	"github.com/facultyops/attendance-engine/engine"
	"github.com/facultyops/attendance-engine/leave"
	"github.com/facultyops/attendance-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     engine.Store
	Repo      *attendance.Repo
	Leaves    *leave.Workflow
	Allocator *leave.Allocator

	// Settings snapshot: loaded once at startup, replaced wholesale on
	// update, passed by value into every calculation.
	mu       sync.RWMutex
	settings attendance.Settings
}

// NewHandler creates a new handler with the given store.
func NewHandler(store engine.Store) *Handler {
	repo := attendance.NewRepo(store)
	return &Handler{
		Store:     store,
		Repo:      repo,
		Leaves:    leave.NewWorkflow(store),
		Allocator: leave.NewAllocator(repo),
		settings:  attendance.DefaultSettings(),
	}
}

// LoadSettings reads the stored settings into the in-memory snapshot.
// Called once at startup; UpdateSettings swaps the snapshot afterwards.
func (h *Handler) LoadSettings(ctx context.Context) error {
	settings, err := attendance.LoadSettings(ctx, h.Store)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.settings = settings
	h.mu.Unlock()
	return nil
}

func (h *Handler) snapshot() attendance.Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

// =============================================================================
// FACULTY HANDLERS
// =============================================================================

func (h *Handler) ListFaculty(w http.ResponseWriter, r *http.Request) {
	roster, err := h.Repo.ListFaculty(r.Context())
	if err != nil {
		writeError(w, "failed to list faculty", err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (h *Handler) CreateFaculty(w http.ResponseWriter, r *http.Request) {
	var req CreateFacultyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", err)
		return
	}
	f, err := req.ToFaculty()
	if err != nil {
		writeBadRequest(w, "invalid salary", err)
		return
	}
	if err := h.Repo.AddFaculty(r.Context(), f); err != nil {
		writeError(w, "failed to create faculty", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) GetFaculty(w http.ResponseWriter, r *http.Request) {
	empID, err := empIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid employee id", err)
		return
	}
	f, err := h.Repo.Faculty(r.Context(), empID)
	if err != nil {
		writeError(w, "failed to get faculty", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) DeleteFaculty(w http.ResponseWriter, r *http.Request) {
	empID, err := empIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid employee id", err)
		return
	}
	if err := h.Repo.RemoveFaculty(r.Context(), empID); err != nil {
		writeError(w, "failed to remove faculty", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	empID, err := empIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid employee id", err)
		return
	}
	records, err := h.Repo.RecordsFor(r.Context(), empID)
	if err != nil {
		writeError(w, "failed to list attendance", err)
		return
	}

	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		month, err := engine.ParseMonth(monthStr)
		if err != nil {
			writeBadRequest(w, "invalid month", err)
			return
		}
		records = attendance.AggregateMonth(records, month).Records(empID)
	}
	writeJSON(w, http.StatusOK, records)
}

// MarkAttendance ingests a single day: the status is classified here, once,
// against the current on-time threshold.
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req MarkAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", err)
		return
	}
	date, err := engine.ParseDay(req.Date)
	if err != nil {
		writeBadRequest(w, "invalid date", err)
		return
	}
	status, err := attendance.Classify(req.InTime, h.snapshot().OnTimeThreshold)
	if err != nil {
		writeBadRequest(w, "invalid in-time", err)
		return
	}

	rec := attendance.Record{
		EmpID:  req.EmpID,
		Date:   date,
		InTime: req.InTime,
		Status: status,
	}
	if err := h.Repo.PutRecord(r.Context(), rec); err != nil {
		writeError(w, "failed to mark attendance", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Leaves.List(r.Context())
	if err != nil {
		writeError(w, "failed to list leaves", err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", err)
		return
	}
	app, err := applicationFrom(req)
	if err != nil {
		writeBadRequest(w, "invalid leave application", err)
		return
	}
	if err := h.Leaves.Submit(r.Context(), app); err != nil {
		writeError(w, "failed to submit leave", err)
		return
	}
	app.Status = leave.StatusPending
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) MarkLeave(w http.ResponseWriter, r *http.Request) {
	app, err := h.Leaves.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "failed to load leave", err)
		return
	}
	if err := h.Leaves.MarkLeave(r.Context(), app); err != nil {
		writeError(w, "failed to mark leave days", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	app, err := h.Leaves.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "failed to load leave", err)
		return
	}
	if err := h.Leaves.Approve(r.Context(), &app); err != nil {
		writeError(w, "failed to approve leave", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	app, err := h.Leaves.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "failed to load leave", err)
		return
	}
	if err := h.Leaves.Reject(r.Context(), &app); err != nil {
		writeError(w, "failed to reject leave", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	app, err := h.Leaves.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "failed to load leave", err)
		return
	}
	if err := h.Leaves.Delete(r.Context(), app); err != nil {
		writeError(w, "failed to delete leave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Repo.Holidays(r.Context())
	if err != nil {
		writeError(w, "failed to list holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", err)
		return
	}
	date, err := engine.ParseDay(req.Date)
	if err != nil {
		writeBadRequest(w, "invalid date", err)
		return
	}
	holiday := attendance.Holiday{Date: date, Description: req.Description}
	if err := h.Repo.AddHoliday(r.Context(), holiday); err != nil {
		writeError(w, "failed to add holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, holiday)
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := engine.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeBadRequest(w, "invalid date", err)
		return
	}
	if err := h.Repo.RemoveHoliday(r.Context(), date); err != nil {
		writeError(w, "failed to remove holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeBadRequest(w, "invalid month", err)
		return
	}
	summaries, err := h.summarize(r, month)
	if err != nil {
		writeError(w, "failed to compute payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) OverridePayable(w http.ResponseWriter, r *http.Request) {
	var req OverridePayableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", err)
		return
	}
	month, err := engine.ParseMonth(req.Month)
	if err != nil {
		writeBadRequest(w, "invalid month", err)
		return
	}
	payable, err := decimal.NewFromString(req.PayableDays)
	if err != nil {
		writeBadRequest(w, "invalid payable days", err)
		return
	}

	summaries, err := h.summarize(r, month)
	if err != nil {
		writeError(w, "failed to compute payroll", err)
		return
	}
	for i := range summaries {
		if summaries[i].EmpID == req.EmpID {
			payroll.UpdatePayableDays(&summaries[i], payable)
			writeJSON(w, http.StatusOK, summaries[i])
			return
		}
	}
	writeError(w, "failed to override payable days",
		&engine.NotFoundError{Kind: "faculty", Key: strconv.Itoa(req.EmpID)})
}

func (h *Handler) FinalizePayroll(w http.ResponseWriter, r *http.Request) {
	var req FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", err)
		return
	}
	month, err := engine.ParseMonth(req.Month)
	if err != nil {
		writeBadRequest(w, "invalid month", err)
		return
	}
	summaries, err := h.summarize(r, month)
	if err != nil {
		writeError(w, "failed to compute payroll", err)
		return
	}
	// No completion marker here: finalize double-deducts when re-run.
	// Callers wanting once-only semantics gate this endpoint themselves.
	updated, err := payroll.Finalize(r.Context(), h.Repo, summaries)
	if err != nil {
		writeError(w, "failed to finalize payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, FinalizeResponse{Month: month.String(), Updated: updated})
}

func (h *Handler) summarize(r *http.Request, month engine.Month) ([]payroll.Summary, error) {
	ctx := r.Context()
	roster, err := h.Repo.ListFaculty(ctx)
	if err != nil {
		return nil, err
	}
	records, err := h.Repo.AllRecords(ctx)
	if err != nil {
		return nil, err
	}
	holidays, err := h.Repo.Holidays(ctx)
	if err != nil {
		return nil, err
	}
	return payroll.Summarize(roster, records, holidays, month, h.snapshot().PermissionLimit), nil
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeBadRequest(w, "invalid month", err)
		return
	}
	alloc, run, err := h.Allocator.Status(r.Context(), month)
	if err != nil {
		writeError(w, "failed to read allocation", err)
		return
	}
	resp := AllocationStatusResponse{Month: month.String(), Run: run}
	if run {
		resp.Allocation = &alloc
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RunAllocation(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeBadRequest(w, "invalid month", err)
		return
	}
	alloc, err := h.Allocator.Allocate(r.Context(), month)
	if err != nil {
		writeError(w, "failed to run allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, alloc)
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	// Decode over the current snapshot so omitted keys keep their values.
	settings := h.snapshot()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeBadRequest(w, "invalid request body", err)
		return
	}
	if _, err := attendance.ParseTimeOfDay(settings.OnTimeThreshold); err != nil {
		writeBadRequest(w, "invalid on-time threshold", err)
		return
	}
	if err := attendance.SaveSettings(r.Context(), h.Store, settings); err != nil {
		writeError(w, "failed to save settings", err)
		return
	}
	h.mu.Lock()
	h.settings = settings
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, settings)
}

// =============================================================================
// HELPERS
// =============================================================================

func applicationFrom(req CreateLeaveRequest) (leave.Application, error) {
	start, err := engine.ParseDay(req.StartDate)
	if err != nil {
		return leave.Application{}, err
	}
	end, err := engine.ParseDay(req.EndDate)
	if err != nil {
		return leave.Application{}, err
	}
	id := req.ID
	if id == "" {
		id = fmt.Sprintf("leave-%d-%s", req.EmpID, start)
	}
	return leave.Application{
		ID:          id,
		EmpID:       req.EmpID,
		Start:       start,
		End:         end,
		SubmittedAt: timeNow(),
	}, nil
}

// timeNow is swappable for tests.
var timeNow = time.Now

func empIDParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "empId"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// writeError maps engine taxonomy errors to HTTP status codes.
func writeError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case engine.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrAlreadyCompleted):
		status = http.StatusConflict
	case engine.IsClientError(err):
		status = http.StatusBadRequest
	}
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

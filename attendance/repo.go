/*
repo.go - Record store adapter for the attendance collections

PURPOSE:
  Typed access to faculty, attendance, and holiday records over the abstract
  keyed store. This is deliberately thin: it owns path construction and
  (de)serialization, nothing else. Business rules live in the aggregator,
  the leave workflow, and the payroll calculator.

CASCADE:
  Removing a faculty record atomically removes its entire attendance subtree
  in the same multi-key update, so an orphaned record set can never survive
  an administrative removal.

SEE ALSO:
  - engine/store.go: Store port and atomicity contract
  - aggregator.go:   Month-scoped views over the records read here
*/
package attendance

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/facultyops/attendance-engine/engine"
)

type Repo struct {
	Store engine.Store
}

func NewRepo(store engine.Store) *Repo {
	return &Repo{Store: store}
}

// =============================================================================
// FACULTY
// =============================================================================

// AddFaculty inserts a new faculty record. Fails with DuplicateKeyError when
// the employee id is already taken.
func (r *Repo) AddFaculty(ctx context.Context, f Faculty) error {
	path := FacultyPath(f.EmpID)
	_, occupied, err := r.Store.Get(ctx, path)
	if err != nil {
		return err
	}
	if occupied {
		return &engine.DuplicateKeyError{Path: path}
	}
	return r.Store.Set(ctx, path, engine.MustMarshal(f))
}

// SaveFaculty overwrites an existing faculty record.
func (r *Repo) SaveFaculty(ctx context.Context, f Faculty) error {
	return r.Store.Set(ctx, FacultyPath(f.EmpID), engine.MustMarshal(f))
}

func (r *Repo) Faculty(ctx context.Context, empID int) (Faculty, error) {
	var f Faculty
	ok, err := engine.GetJSON(ctx, r.Store, FacultyPath(empID), &f)
	if err != nil {
		return Faculty{}, err
	}
	if !ok {
		return Faculty{}, &engine.NotFoundError{Kind: "faculty", Key: strconv.Itoa(empID)}
	}
	return f, nil
}

// ListFaculty returns the full roster ordered by employee id.
func (r *Repo) ListFaculty(ctx context.Context) ([]Faculty, error) {
	raw, err := r.Store.List(ctx, FacultyRootPrefix)
	if err != nil {
		return nil, err
	}
	faculty := make([]Faculty, 0, len(raw))
	for _, value := range raw {
		var f Faculty
		if err := json.Unmarshal(value, &f); err != nil {
			return nil, err
		}
		faculty = append(faculty, f)
	}
	sort.Slice(faculty, func(i, j int) bool { return faculty[i].EmpID < faculty[j].EmpID })
	return faculty, nil
}

// RemoveFaculty deletes the faculty record and cascades over its attendance
// subtree as one atomic multi-key update.
func (r *Repo) RemoveFaculty(ctx context.Context, empID int) error {
	path := FacultyPath(empID)
	_, ok, err := r.Store.Get(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return &engine.NotFoundError{Kind: "faculty", Key: strconv.Itoa(empID)}
	}

	records, err := r.Store.List(ctx, AttendancePrefix(empID))
	if err != nil {
		return err
	}
	writes := map[string]json.RawMessage{path: nil}
	for recordPath := range records {
		writes[recordPath] = nil
	}
	return r.Store.Update(ctx, writes)
}

// =============================================================================
// ATTENDANCE RECORDS
// =============================================================================

// PutRecord writes the one record allowed per (empId, date), replacing any
// previous entry for that day.
func (r *Repo) PutRecord(ctx context.Context, rec Record) error {
	return r.Store.Set(ctx, RecordPath(rec.EmpID, rec.Date), engine.MustMarshal(rec))
}

func (r *Repo) Record(ctx context.Context, empID int, date engine.Day) (Record, bool, error) {
	var rec Record
	ok, err := engine.GetJSON(ctx, r.Store, RecordPath(empID, date), &rec)
	if err != nil || !ok {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (r *Repo) RemoveRecord(ctx context.Context, empID int, date engine.Day) error {
	return r.Store.Remove(ctx, RecordPath(empID, date))
}

// RecordsFor returns one employee's records ordered by date.
func (r *Repo) RecordsFor(ctx context.Context, empID int) ([]Record, error) {
	return r.decodeRecords(ctx, AttendancePrefix(empID))
}

// AllRecords returns every attendance record in the store, ordered by
// employee then date. Input to AggregateMonth.
func (r *Repo) AllRecords(ctx context.Context) ([]Record, error) {
	return r.decodeRecords(ctx, AttendanceRootPrefix)
}

func (r *Repo) decodeRecords(ctx context.Context, prefix string) ([]Record, error) {
	raw, err := r.Store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(raw))
	for _, value := range raw {
		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].EmpID != records[j].EmpID {
			return records[i].EmpID < records[j].EmpID
		}
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// AddHoliday inserts a holiday. One per date; duplicates are rejected.
func (r *Repo) AddHoliday(ctx context.Context, h Holiday) error {
	path := HolidayPath(h.Date)
	_, occupied, err := r.Store.Get(ctx, path)
	if err != nil {
		return err
	}
	if occupied {
		return &engine.DuplicateKeyError{Path: path}
	}
	return r.Store.Set(ctx, path, engine.MustMarshal(h))
}

// Holidays returns all holidays ordered by date.
func (r *Repo) Holidays(ctx context.Context) ([]Holiday, error) {
	raw, err := r.Store.List(ctx, HolidayRootPrefix)
	if err != nil {
		return nil, err
	}
	holidays := make([]Holiday, 0, len(raw))
	for _, value := range raw {
		var h Holiday
		if err := json.Unmarshal(value, &h); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return holidays, nil
}

func (r *Repo) RemoveHoliday(ctx context.Context, date engine.Day) error {
	return r.Store.Remove(ctx, HolidayPath(date))
}

package attendance

import (
	"sort"

	"github.com/facultyops/attendance-engine/engine"
)

// =============================================================================
// MONTHLY AGGREGATION - Pure month-scoped view over the record set
// =============================================================================

// MonthlyAttendance is the month-filtered, per-employee view of the record
// set. It is a pure read: building it has no side effects, and an employee
// with no records in the month simply has no entry (zero present days).
type MonthlyAttendance struct {
	Month   engine.Month
	byEmpID map[int][]Record
}

// AggregateMonth filters records down to the target month and groups them per
// employee, ordered by date.
func AggregateMonth(records []Record, month engine.Month) MonthlyAttendance {
	byEmpID := make(map[int][]Record)
	for _, rec := range records {
		if !month.Contains(rec.Date) {
			continue
		}
		byEmpID[rec.EmpID] = append(byEmpID[rec.EmpID], rec)
	}
	for empID := range byEmpID {
		recs := byEmpID[empID]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	}
	return MonthlyAttendance{Month: month, byEmpID: byEmpID}
}

// Records returns one employee's in-month records in date order.
func (ma MonthlyAttendance) Records(empID int) []Record {
	return ma.byEmpID[empID]
}

// PresentDays counts in-month records with a present status
// (OnTime, Late, and OnDuty all count; Absent does not).
func (ma MonthlyAttendance) PresentDays(empID int) int {
	n := 0
	for _, rec := range ma.byEmpID[empID] {
		if rec.Status.Present() {
			n++
		}
	}
	return n
}

// LateCount counts in-month records marked Late.
func (ma MonthlyAttendance) LateCount(empID int) int {
	n := 0
	for _, rec := range ma.byEmpID[empID] {
		if rec.Status == StatusLate {
			n++
		}
	}
	return n
}

// HasAbsence reports whether the employee has at least one Absent record in
// the month. A single Absent day disqualifies an employee from that month's
// casual-leave allocation entirely.
func (ma MonthlyAttendance) HasAbsence(empID int) bool {
	for _, rec := range ma.byEmpID[empID] {
		if rec.Status == StatusAbsent {
			return true
		}
	}
	return false
}

// HolidaysIn counts holidays falling inside the month.
func HolidaysIn(holidays []Holiday, month engine.Month) int {
	n := 0
	for _, h := range holidays {
		if month.Contains(h.Date) {
			n++
		}
	}
	return n
}

// Package attendance holds the faculty roster, daily attendance records, and
// the monthly aggregation the payroll calculator and allocation machine
// consume. Classification of an in-time into a status happens once, at
// ingestion; everything downstream treats the stored status as given.
package attendance

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/facultyops/attendance-engine/engine"
)

// =============================================================================
// STATUS - Ingestion-time classification of a day
// =============================================================================

type Status string

const (
	StatusOnTime Status = "on_time"
	StatusLate   Status = "late"
	StatusAbsent Status = "absent"
	StatusOnDuty Status = "on_duty"
)

// Present reports whether the status counts toward present days.
// OnTime, Late, and OnDuty all count; only Absent does not.
func (s Status) Present() bool { return s != StatusAbsent }

// =============================================================================
// FACULTY - Employee master record
// =============================================================================

// Faculty is the employee master record. CasualLeaves is mutated by two
// independent writers: payroll finalization (deduction) and the monthly
// allocation machine (increment). Callers serialize those at a higher layer.
type Faculty struct {
	EmpID        int             `json:"empId"`
	Name         string          `json:"name"`
	Dept         string          `json:"dept"`
	Designation  string          `json:"designation"`
	Salary       decimal.Decimal `json:"salary"`
	CasualLeaves int             `json:"casualLeaves"`
}

// =============================================================================
// ATTENDANCE RECORD - One per (empId, date)
// =============================================================================

type Record struct {
	EmpID              int        `json:"empId"`
	Date               engine.Day `json:"date"`
	InTime             string     `json:"inTime"` // "HH:MM:SS"
	Status             Status     `json:"status"`
	LeaveApplicationID string     `json:"leaveApplicationId,omitempty"`
}

// =============================================================================
// HOLIDAY - Keyed by date, shrinks the working-day count
// =============================================================================

type Holiday struct {
	Date        engine.Day `json:"date"`
	Description string     `json:"description"`
}

// =============================================================================
// STORE PATHS
// =============================================================================

func FacultyPath(empID int) string {
	return engine.JoinPath("faculty", strconv.Itoa(empID))
}

// AttendancePrefix is the subtree holding one employee's daily records.
// Cascade deletes on faculty removal clear everything under it.
func AttendancePrefix(empID int) string {
	return engine.JoinPath("attendance", strconv.Itoa(empID), "records") + "/"
}

func RecordPath(empID int, date engine.Day) string {
	return engine.JoinPath("attendance", strconv.Itoa(empID), "records", date.String())
}

func HolidayPath(date engine.Day) string {
	return engine.JoinPath("holidays", date.String())
}

const (
	FacultyRootPrefix    = "faculty/"
	AttendanceRootPrefix = "attendance/"
	HolidayRootPrefix    = "holidays/"
	SettingsPath         = "settings"
)

package api

import (
	"github.com/shopspring/decimal"

	"github.com/facultyops/attendance-engine/attendance"
	"github.com/facultyops/attendance-engine/leave"
)

// =============================================================================
// REQUEST DTOs
// =============================================================================

type CreateFacultyRequest struct {
	EmpID        int    `json:"empId"`
	Name         string `json:"name"`
	Dept         string `json:"dept"`
	Designation  string `json:"designation"`
	Salary       string `json:"salary"` // decimal string, e.g. "3000.00"
	CasualLeaves int    `json:"casualLeaves"`
}

func (r CreateFacultyRequest) ToFaculty() (attendance.Faculty, error) {
	salary, err := decimal.NewFromString(r.Salary)
	if err != nil {
		return attendance.Faculty{}, err
	}
	return attendance.Faculty{
		EmpID:        r.EmpID,
		Name:         r.Name,
		Dept:         r.Dept,
		Designation:  r.Designation,
		Salary:       salary,
		CasualLeaves: r.CasualLeaves,
	}, nil
}

type MarkAttendanceRequest struct {
	EmpID  int    `json:"empId"`
	Date   string `json:"date"`   // YYYY-MM-DD
	InTime string `json:"inTime"` // HH:MM:SS, "00:00:00" marks absent
}

type CreateLeaveRequest struct {
	ID        string `json:"id"`
	EmpID     int    `json:"empId"`
	StartDate string `json:"startDate"` // YYYY-MM-DD
	EndDate   string `json:"endDate"`   // YYYY-MM-DD
}

type CreateHolidayRequest struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
}

type OverridePayableRequest struct {
	EmpID       int    `json:"empId"`
	Month       string `json:"month"`       // YYYY-MM
	PayableDays string `json:"payableDays"` // decimal string, e.g. "17.5"
}

type FinalizeRequest struct {
	Month string `json:"month"` // YYYY-MM
}

// =============================================================================
// RESPONSE DTOs
// =============================================================================

// Domain types carry their own JSON tags; responses reuse them directly.
// The few wrappers below exist where the payload is not a domain value.

type FinalizeResponse struct {
	Month   string `json:"month"`
	Updated int    `json:"updated"`
}

type AllocationStatusResponse struct {
	Month      string            `json:"month"`
	Run        bool              `json:"run"`
	Allocation *leave.Allocation `json:"allocation,omitempty"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

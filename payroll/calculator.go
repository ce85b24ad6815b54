/*
Package payroll derives per-employee monthly summaries from attendance,
leave balances, and the holiday calendar.

PURPOSE:
  Summarize is the reconciliation core: a pure function from
  (roster, records, holidays, month, permission limit) to one summary row
  per employee. Summaries are never persisted - they are recomputed on
  demand, so there is no stale cache to invalidate.

SALARY MATH:
  All money and fractional-day arithmetic uses decimal.Decimal. Salary is
  pro-rated as (payableDays / workingDays) * salary, rounded to 2 places.
  workingDays == 0 (a month fully covered by holidays) pays zero - never a
  division by zero.

DEDUCTION CHAIN (per employee):
  workingDays   = max(0, daysInMonth - holidaysInMonth)
  presentDays   = in-month records with status != Absent
  absentDays    = max(0, workingDays - presentDays)
  casual used   = min(absentDays, balance);  unpaid = absentDays - used
  lateness      = lates beyond the permission allowance convert to
                  half-day deductions
  totalLeaves   = unpaid + halfDays * 0.5
  payableDays   = max(0, workingDays - totalLeaves)

SEE ALSO:
  - attendance/aggregator.go: PresentDays / LateCount inputs
  - finalize.go:              Balance deduction persistence
*/
package payroll

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/facultyops/attendance-engine/attendance"
	"github.com/facultyops/attendance-engine/engine"
)

// =============================================================================
// MONTHLY SUMMARY - Derived, never persisted
// =============================================================================

type Summary struct {
	EmpID       int          `json:"empId"`
	Name        string       `json:"name"`
	Dept        string       `json:"dept"`
	Designation string       `json:"designation"`
	Month       engine.Month `json:"month"`

	WorkingDays   int `json:"workingDays"`
	PresentDays   int `json:"presentDays"`
	AbsentDays    int `json:"absentDays"`
	LateCount     int `json:"lateCount"`
	Permissions   int `json:"permissions"`
	HalfDayLeaves int `json:"halfDayLeaves"`

	CasualLeavesAvailable int `json:"casualLeavesAvailable"`
	CasualLeavesUsed      int `json:"casualLeavesUsed"`
	UnpaidLeave           int `json:"unpaidLeave"`

	TotalLeaves      decimal.Decimal `json:"totalLeaves"`
	PayableDays      decimal.Decimal `json:"payableDays"`
	Salary           decimal.Decimal `json:"salary"`
	CalculatedSalary decimal.Decimal `json:"calculatedSalary"`
}

var half = decimal.NewFromFloat(0.5)

// =============================================================================
// SUMMARIZE - Pure reconciliation
// =============================================================================

// Summarize produces one summary row per employee for the month, ordered by
// employee id. Pure: identical inputs yield identical outputs, and nothing
// is mutated or stored.
func Summarize(
	roster []attendance.Faculty,
	records []attendance.Record,
	holidays []attendance.Holiday,
	month engine.Month,
	permissionLimit int,
) []Summary {
	agg := attendance.AggregateMonth(records, month)

	workingDays := month.Days() - attendance.HolidaysIn(holidays, month)
	if workingDays < 0 {
		workingDays = 0
	}

	summaries := make([]Summary, 0, len(roster))
	for _, f := range roster {
		presentDays := agg.PresentDays(f.EmpID)
		absentDays := workingDays - presentDays
		if absentDays < 0 {
			absentDays = 0
		}

		casualUsed := min(absentDays, f.CasualLeaves)
		unpaid := absentDays - casualUsed

		lateCount := agg.LateCount(f.EmpID)
		permissions := min(lateCount, permissionLimit)
		halfDays := lateCount - permissionLimit
		if halfDays < 0 {
			halfDays = 0
		}

		totalLeaves := decimal.NewFromInt(int64(unpaid)).
			Add(decimal.NewFromInt(int64(halfDays)).Mul(half))
		payable := decimal.NewFromInt(int64(workingDays)).Sub(totalLeaves)
		if payable.IsNegative() {
			payable = decimal.Zero
		}

		summaries = append(summaries, Summary{
			EmpID:                 f.EmpID,
			Name:                  f.Name,
			Dept:                  f.Dept,
			Designation:           f.Designation,
			Month:                 month,
			WorkingDays:           workingDays,
			PresentDays:           presentDays,
			AbsentDays:            absentDays,
			LateCount:             lateCount,
			Permissions:           permissions,
			HalfDayLeaves:         halfDays,
			CasualLeavesAvailable: f.CasualLeaves,
			CasualLeavesUsed:      casualUsed,
			UnpaidLeave:           unpaid,
			TotalLeaves:           totalLeaves,
			PayableDays:           payable,
			Salary:                f.Salary,
			CalculatedSalary:      ProRate(f.Salary, payable, workingDays),
		})
	}
	// The roster is not required to arrive sorted; the ordering contract is
	// enforced here.
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].EmpID < summaries[j].EmpID })
	return summaries
}

// ProRate computes (payableDays / workingDays) * salary rounded to 2 places.
// Zero working days pays zero.
func ProRate(salary, payableDays decimal.Decimal, workingDays int) decimal.Decimal {
	if workingDays <= 0 {
		return decimal.Zero.Round(2)
	}
	return payableDays.
		Div(decimal.NewFromInt(int64(workingDays))).
		Mul(salary).
		Round(2)
}

// UpdatePayableDays applies an explicit administrative override and
// recomputes the salary from it. The override is not re-derived from
// attendance; a later Summarize call replaces it wholesale.
func UpdatePayableDays(s *Summary, payableDays decimal.Decimal) {
	s.PayableDays = payableDays
	s.CalculatedSalary = ProRate(s.Salary, payableDays, s.WorkingDays)
}

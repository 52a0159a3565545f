package payroll

import (
	"encoding/json"
	"time"
)

// SalaryComponents is an employee's full-month salary structure.
type SalaryComponents struct {
	Basic              float64 `json:"basic"`
	DearnessAllowance  float64 `json:"dearnessAllowance"`
	HRA                float64 `json:"hra"`
	Conveyance         float64 `json:"conveyance"`
	Medical            float64 `json:"medical"`
	Special            float64 `json:"special"`
	OtherAllowances    float64 `json:"otherAllowances"`
	RetainingAllowance float64 `json:"retainingAllowance,omitempty"`
}

// AttendanceSummary is the attendance-derived input for one pay period.
// PaidDays may exceed TotalWorkingDays when present-on-holiday days are paid.
type AttendanceSummary struct {
	PaidDays         float64 `json:"paidDays"`
	TotalWorkingDays float64 `json:"totalWorkingDays"`
	OvertimeHours    float64 `json:"overtimeHours"`
}

type Applicability struct {
	PF  bool `json:"pf"`
	ESI bool `json:"esi"`
	PT  bool `json:"pt"`
	LWF bool `json:"lwf"`
}

type Input struct {
	Salary             SalaryComponents  `json:"salary"`
	Attendance         AttendanceSummary `json:"attendance"`
	Applicability      Applicability     `json:"applicability"`
	State              string            `json:"state,omitempty"`
	WorkingHoursPerDay float64           `json:"workingHoursPerDay,omitempty"`
}

type Result struct {
	GrossEarnings    float64 `json:"grossEarnings"`
	OvertimeAmount   float64 `json:"overtimeAmount"`
	PFEmployee       float64 `json:"pfEmployee"`
	PFEmployer       float64 `json:"pfEmployer"`
	EPSContribution  float64 `json:"epsContribution"`
	EDLIContribution float64 `json:"edliContribution"`
	PFAdminCharges   float64 `json:"pfAdminCharges"`
	ESIEmployee      float64 `json:"esiEmployee"`
	ESIEmployer      float64 `json:"esiEmployer"`
	ProfessionalTax  float64 `json:"professionalTax"`
	LWFEmployee      float64 `json:"lwfEmployee"`
	LWFEmployer      float64 `json:"lwfEmployer"`
	TotalDeductions  float64 `json:"totalDeductions"`
	NetPay           float64 `json:"netPay"`
	EmployerCost     float64 `json:"employerCost"`
	EPFWages         float64 `json:"epfWages"`
	ESIWages         float64 `json:"esiWages"`
	ProrationFactor  float64 `json:"prorationFactor"`
}

type EPFContribution struct {
	Employee     float64 `json:"employee"`
	Employer     float64 `json:"employer"`
	EPS          float64 `json:"eps"`
	EDLI         float64 `json:"edli"`
	AdminCharges float64 `json:"adminCharges"`
}

type ESIContribution struct {
	Employee float64 `json:"employee"`
	Employer float64 `json:"employer"`
}

type MinimumWageCheck struct {
	Compliant  bool    `json:"compliant"`
	Shortfall  float64 `json:"shortfall"`
	SkillLevel string  `json:"skillLevel,omitempty"`
}

// EmployeePayrollData is what a payroll run reads per active employee.
type EmployeePayrollData struct {
	EmployeeID         string
	EmployeeCode       string
	Name               string
	State              string
	WorkingHoursPerDay float64
	Salary             SalaryComponents
	Applicability      Applicability
	Attendance         AttendanceSummary
	// HasAttendance is false when no summary was recorded for the period.
	HasAttendance bool
}

func (e EmployeePayrollData) Input() Input {
	return Input{
		Salary:             e.Salary,
		Attendance:         e.Attendance,
		Applicability:      e.Applicability,
		State:              e.State,
		WorkingHoursPerDay: e.WorkingHoursPerDay,
	}
}

// Record is a persisted payroll result keyed by (employee, month, year).
type Record struct {
	ID           string            `json:"id"`
	EmployeeID   string            `json:"employeeId"`
	EmployeeCode string            `json:"employeeCode,omitempty"`
	EmployeeName string            `json:"employeeName,omitempty"`
	Month        int               `json:"month"`
	Year         int               `json:"year"`
	State        string            `json:"state,omitempty"`
	Salary       SalaryComponents  `json:"salary"`
	Attendance   AttendanceSummary `json:"attendance"`
	Result       Result            `json:"result"`
	Status       string            `json:"status"`
	PayslipPath  string            `json:"-"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type RunFailure struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

type RunSummary struct {
	Month             int          `json:"month"`
	Year              int          `json:"year"`
	EmployeeCount     int          `json:"employeeCount"`
	Processed         int          `json:"processed"`
	Failed            int          `json:"failed"`
	TotalGross        float64      `json:"totalGross"`
	TotalDeductions   float64      `json:"totalDeductions"`
	TotalNet          float64      `json:"totalNet"`
	TotalEmployerCost float64      `json:"totalEmployerCost"`
	Failures          []RunFailure `json:"failures,omitempty"`
}

// StatutorySettings are a tenant's overrides on top of DefaultJurisdiction.
type StatutorySettings struct {
	Rates     *Rates
	PTTables  map[string]PTTable
	LWFRates  map[string]LWFRate
	UpdatedAt time.Time
}

// SettingsView is the effective jurisdiction for a tenant.
type SettingsView struct {
	Rates     Rates              `json:"rates"`
	PTTables  map[string]PTTable `json:"ptTables"`
	LWFRates  map[string]LWFRate `json:"lwfRates"`
	UpdatedAt *time.Time         `json:"updatedAt,omitempty"`
}

// JobRun is the bookkeeping row of a queued payroll run.
type JobRun struct {
	ID          string          `json:"id"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

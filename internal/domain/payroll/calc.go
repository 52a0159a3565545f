package payroll

import "math"

// Engine computes payroll results against one jurisdiction. It holds no
// mutable state.
type Engine struct {
	jurisdiction Jurisdiction
}

func NewEngine(j Jurisdiction) *Engine {
	return &Engine{jurisdiction: j}
}

func (e *Engine) Jurisdiction() Jurisdiction {
	return e.jurisdiction
}

func (e *Engine) Calculate(in Input) Result {
	return Calculate(e.jurisdiction, in)
}

// Calculate runs the full statutory pipeline for one employee and period.
// Every monetary sub-step is rounded as soon as it is computed; the gross and
// the wage bases feeding the percentages stay unrounded.
func Calculate(j Jurisdiction, in Input) Result {
	rates := j.Rates()
	salary := in.Salary
	factor := ProrationFactor(in.Attendance.PaidDays, in.Attendance.TotalWorkingDays)

	overtime := CalculateOvertime(salary.Basic, salary.DearnessAllowance, in.Attendance.OvertimeHours, in.WorkingHoursPerDay)
	gross := (earnings(salary) + overtime) * factor

	epfWages := EPFWageBase(salary, rates.EPFWageCeiling) * factor
	esiWages := ESIWageBase(salary, rates.ESIWageCeiling) * factor

	result := Result{
		OvertimeAmount:  overtime,
		ProrationFactor: factor,
	}

	if in.Applicability.PF && epfWages > 0 {
		epf := CalculateEPF(epfWages, rates)
		result.PFEmployee = epf.Employee
		result.PFEmployer = epf.Employer
		result.EPSContribution = epf.EPS
		result.EDLIContribution = epf.EDLI
		result.PFAdminCharges = epf.AdminCharges
		result.EPFWages = round(epfWages)
	}

	if in.Applicability.ESI && esiWages > 0 {
		esi := CalculateESI(esiWages, rates)
		result.ESIEmployee = esi.Employee
		result.ESIEmployer = esi.Employer
		result.ESIWages = round(esiWages)
	}

	if in.Applicability.PT {
		result.ProfessionalTax = j.ProfessionalTax(gross, in.State)
	}

	if in.Applicability.LWF && in.State != "" {
		lwf := j.LWF(in.State)
		result.LWFEmployee = lwf.Employee
		result.LWFEmployer = lwf.Employer
	}

	result.GrossEarnings = round(gross)
	result.TotalDeductions = result.PFEmployee + result.ESIEmployee + result.ProfessionalTax + result.LWFEmployee
	result.NetPay = round(gross - result.TotalDeductions)
	result.EmployerCost = round(gross + result.PFEmployer + result.EPSContribution + result.EDLIContribution +
		result.PFAdminCharges + result.ESIEmployer + result.LWFEmployer)
	return result
}

// ProrationFactor is paidDays/totalWorkingDays, or 1 when there are no working
// days. paidDays is deliberately not clamped.
func ProrationFactor(paidDays, totalWorkingDays float64) float64 {
	if totalWorkingDays <= 0 {
		return 1
	}
	return paidDays / totalWorkingDays
}

// CalculateOvertime pays overtime hours at twice the hourly rate derived from
// basic+DA over a fixed 26-day month.
func CalculateOvertime(basic, da, hours, hoursPerDay float64) float64 {
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultWorkingHoursPerDay
	}
	hourlyRate := (basic + da) / DaysPerMonth / hoursPerDay
	return round(hours * hourlyRate * OvertimeMultiplier)
}

// EPFWageBase is basic + DA + retaining allowance, capped at the ceiling.
func EPFWageBase(salary SalaryComponents, ceiling float64) float64 {
	return math.Min(salary.Basic+salary.DearnessAllowance+salary.RetainingAllowance, ceiling)
}

// ESIWageBase is every earning component except overtime, capped at the ceiling.
func ESIWageBase(salary SalaryComponents, ceiling float64) float64 {
	return math.Min(earnings(salary), ceiling)
}

// CalculateEPF splits the provident fund contributions for wages. The employer
// share is what is left of the employer rate after the EPS carve-out and is
// not clamped at zero.
func CalculateEPF(wages float64, rates Rates) EPFContribution {
	if wages <= 0 {
		return EPFContribution{}
	}
	eps := round(math.Min(wages*rates.EPSRate/100, rates.EPSCap))
	return EPFContribution{
		Employee:     round(wages * rates.EPFEmployeeRate / 100),
		Employer:     round(wages*rates.EPFEmployerRate/100) - eps,
		EPS:          eps,
		EDLI:         round(wages * rates.EDLIRate / 100),
		AdminCharges: round(wages * rates.AdminChargeRate / 100),
	}
}

func CalculateESI(wages float64, rates Rates) ESIContribution {
	if wages <= 0 {
		return ESIContribution{}
	}
	return ESIContribution{
		Employee: round(wages * rates.ESIEmployeeRate / 100),
		Employer: round(wages * rates.ESIEmployerRate / 100),
	}
}

func earnings(s SalaryComponents) float64 {
	return s.Basic + s.DearnessAllowance + s.HRA + s.Conveyance + s.Medical + s.Special + s.OtherAllowances
}

// round is half-up rounding to whole rupees, matching what historical payroll
// records were produced with.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

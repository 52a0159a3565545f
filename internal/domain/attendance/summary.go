package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"manpower/internal/domain/payroll"
)

var ErrUnknownMarkCode = errors.New("unknown attendance mark code")

const (
	CodePresent          = "P"
	CodeAbsent           = "A"
	CodeHalfDay          = "HD"
	CodeHoliday          = "H"
	CodeWeeklyOff        = "WO"
	CodePaidLeave        = "L"
	CodeLeaveWithoutPay  = "LWP"
	CodePresentOnHoliday = "PH"
)

// paidUnits is how many paid days one mark earns. Present on a holiday pays
// the holiday plus the day worked.
var paidUnits = map[string]float64{
	CodePresent:          1,
	CodeAbsent:           0,
	CodeHalfDay:          0.5,
	CodeHoliday:          1,
	CodeWeeklyOff:        0,
	CodePaidLeave:        1,
	CodeLeaveWithoutPay:  0,
	CodePresentOnHoliday: 2,
}

type Mark struct {
	Date          time.Time `json:"date"`
	Code          string    `json:"code"`
	OvertimeHours float64   `json:"overtimeHours,omitempty"`
}

func ValidCode(code string) bool {
	_, ok := paidUnits[normalizeCode(code)]
	return ok
}

// Summarize folds daily marks into the payroll attendance summary. Paid days
// are not capped at totalWorkingDays.
func Summarize(marks []Mark, totalWorkingDays float64) (payroll.AttendanceSummary, error) {
	summary := payroll.AttendanceSummary{TotalWorkingDays: totalWorkingDays}
	for _, mark := range marks {
		units, ok := paidUnits[normalizeCode(mark.Code)]
		if !ok {
			return payroll.AttendanceSummary{}, fmt.Errorf("%w: %q on %s", ErrUnknownMarkCode, mark.Code, mark.Date.Format("2006-01-02"))
		}
		summary.PaidDays += units
		if mark.OvertimeHours > 0 {
			summary.OvertimeHours += mark.OvertimeHours
		}
	}
	return summary, nil
}

// SummarizeMonth uses the Sunday-excluded day count of the month as the
// working-day total.
func SummarizeMonth(marks []Mark, month, year int) (payroll.AttendanceSummary, error) {
	return Summarize(marks, float64(payroll.WorkingDaysInMonth(month, year)))
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

package payroll

import (
	"math"
	"time"
)

// CalculateGratuity is the monthly gratuity provision on basic + DA.
func CalculateGratuity(basic, da float64) float64 {
	return round((basic + da) * GratuityRate / 100)
}

// CalculateBonus applies the statutory bonus rate on basic + DA capped at
// 7000, independent of the EPF ceiling.
func CalculateBonus(basic, da float64, eligible bool) float64 {
	if !eligible {
		return 0
	}
	return round(math.Min(basic+da, BonusWageCeiling) * BonusRate / 100)
}

func CalculateLeaveEncashment(basic, da, leaveDays float64) float64 {
	return round((basic + da) / DaysPerMonth * leaveDays)
}

// CheckMinimumWage compares basic + DA against a minimum wage. skillLevel is
// carried through for reporting only.
func CheckMinimumWage(basicPlusDA, minimumWage float64, skillLevel string) MinimumWageCheck {
	shortfall := math.Max(0, minimumWage-basicPlusDA)
	return MinimumWageCheck{
		Compliant:  shortfall <= 0,
		Shortfall:  shortfall,
		SkillLevel: skillLevel,
	}
}

// WorkingDaysInMonth counts the days of the month that are not Sundays. Other
// holidays are not excluded.
func WorkingDaysInMonth(month, year int) int {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	count := 0
	for day := 0; day < days; day++ {
		if first.AddDate(0, 0, day).Weekday() != time.Sunday {
			count++
		}
	}
	return count
}

package payroll

import "fmt"

func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return ErrInvalidPeriod
	}
	return nil
}

func ValidateRates(r Rates) error {
	fields := map[string]float64{
		"epfEmployeeRate": r.EPFEmployeeRate,
		"epfEmployerRate": r.EPFEmployerRate,
		"epsRate":         r.EPSRate,
		"edliRate":        r.EDLIRate,
		"adminChargeRate": r.AdminChargeRate,
		"epfWageCeiling":  r.EPFWageCeiling,
		"epsCap":          r.EPSCap,
		"esiEmployeeRate": r.ESIEmployeeRate,
		"esiEmployerRate": r.ESIEmployerRate,
		"esiWageCeiling":  r.ESIWageCeiling,
	}
	for name, value := range fields {
		if value < 0 {
			return fmt.Errorf("%w: %s is %v", ErrInvalidRates, name, value)
		}
	}
	return nil
}

// ValidatePTTable requires slabs sorted by Min with Min <= Max and
// non-negative amounts. Gaps between slabs are allowed and resolve to MaxPT.
func ValidatePTTable(table PTTable) error {
	if len(table.Slabs) == 0 {
		return fmt.Errorf("%w: no slabs", ErrInvalidPTTable)
	}
	if table.MaxPT < 0 {
		return fmt.Errorf("%w: negative maxPT", ErrInvalidPTTable)
	}
	for i, slab := range table.Slabs {
		if slab.Min > slab.Max || slab.Amount < 0 || slab.Min < 0 {
			return fmt.Errorf("%w: slab %d", ErrInvalidPTTable, i)
		}
		if i > 0 && slab.Min < table.Slabs[i-1].Min {
			return fmt.Errorf("%w: slab %d out of order", ErrInvalidPTTable, i)
		}
	}
	return nil
}

func ValidateLWFRate(rate LWFRate) error {
	if rate.Employee < 0 || rate.Employer < 0 {
		return fmt.Errorf("%w: negative LWF contribution", ErrInvalidRates)
	}
	return nil
}

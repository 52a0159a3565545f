package payroll

import (
	"sort"
	"strings"
)

// Rates holds the statutory contribution rates, in percent, and wage ceilings.
type Rates struct {
	EPFEmployeeRate float64 `json:"epfEmployeeRate"`
	EPFEmployerRate float64 `json:"epfEmployerRate"`
	EPSRate         float64 `json:"epsRate"`
	EDLIRate        float64 `json:"edliRate"`
	AdminChargeRate float64 `json:"adminChargeRate"`
	EPFWageCeiling  float64 `json:"epfWageCeiling"`
	EPSCap          float64 `json:"epsCap"`
	ESIEmployeeRate float64 `json:"esiEmployeeRate"`
	ESIEmployerRate float64 `json:"esiEmployerRate"`
	ESIWageCeiling  float64 `json:"esiWageCeiling"`
}

type PTSlab struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Amount float64 `json:"amount"`
}

type PTTable struct {
	Slabs []PTSlab `json:"slabs"`
	MaxPT float64  `json:"maxPT"`
}

type LWFRate struct {
	Employee float64 `json:"employee"`
	Employer float64 `json:"employer"`
}

// Jurisdiction is an immutable set of statutory rates and per-state tables.
// The With* methods return modified copies and never touch the receiver, so a
// single value can be shared by any number of goroutines.
type Jurisdiction struct {
	rates Rates
	pt    map[string]PTTable
	lwf   map[string]LWFRate
}

// DefaultJurisdiction returns the compiled-in national rates and state tables.
func DefaultJurisdiction() Jurisdiction {
	return NewJurisdiction(defaultRates, defaultPTTables, defaultLWFRates)
}

// NewJurisdiction copies its inputs. State keys are normalised to upper case.
// A DEFAULT professional tax table is added from the compiled-in tables when
// pt does not carry one.
func NewJurisdiction(rates Rates, pt map[string]PTTable, lwf map[string]LWFRate) Jurisdiction {
	j := Jurisdiction{
		rates: rates,
		pt:    make(map[string]PTTable, len(pt)+1),
		lwf:   make(map[string]LWFRate, len(lwf)),
	}
	for state, table := range pt {
		j.pt[normalizeState(state)] = copyTable(table)
	}
	if _, ok := j.pt[DefaultState]; !ok {
		j.pt[DefaultState] = copyTable(defaultPTTables[DefaultState])
	}
	for state, rate := range lwf {
		j.lwf[normalizeState(state)] = rate
	}
	return j
}

func (j Jurisdiction) Rates() Rates {
	return j.rates
}

func (j Jurisdiction) WithRates(rates Rates) Jurisdiction {
	next := j.clone()
	next.rates = rates
	return next
}

func (j Jurisdiction) WithPTTable(state string, table PTTable) Jurisdiction {
	next := j.clone()
	next.pt[normalizeState(state)] = copyTable(table)
	return next
}

func (j Jurisdiction) WithLWFRate(state string, rate LWFRate) Jurisdiction {
	next := j.clone()
	next.lwf[normalizeState(state)] = rate
	return next
}

// PTTable returns the table used for state, falling back to DEFAULT.
func (j Jurisdiction) PTTable(state string) PTTable {
	if table, ok := j.pt[normalizeState(state)]; ok {
		return copyTable(table)
	}
	return copyTable(j.pt[DefaultState])
}

// PTStates lists every state with its own professional tax table, DEFAULT included.
func (j Jurisdiction) PTStates() []string {
	states := make([]string, 0, len(j.pt))
	for state := range j.pt {
		states = append(states, state)
	}
	sort.Strings(states)
	return states
}

// LWFRates returns a copy of the per-state labour welfare fund amounts.
func (j Jurisdiction) LWFRates() map[string]LWFRate {
	out := make(map[string]LWFRate, len(j.lwf))
	for state, rate := range j.lwf {
		out[state] = rate
	}
	return out
}

// ProfessionalTax scans the state's slabs in order and returns the amount of
// the first slab containing gross. When nothing matches it returns the table's
// MaxPT. Unknown or empty states use the DEFAULT table.
func (j Jurisdiction) ProfessionalTax(gross float64, state string) float64 {
	table, ok := j.pt[normalizeState(state)]
	if !ok {
		table = j.pt[DefaultState]
	}
	for _, slab := range table.Slabs {
		if gross >= slab.Min && gross <= slab.Max {
			return slab.Amount
		}
	}
	return table.MaxPT
}

// LWF returns the flat employee/employer amounts for state. Unknown states get
// zero, not a default rate.
func (j Jurisdiction) LWF(state string) LWFRate {
	return j.lwf[normalizeState(state)]
}

func (j Jurisdiction) clone() Jurisdiction {
	return NewJurisdiction(j.rates, j.pt, j.lwf)
}

func copyTable(table PTTable) PTTable {
	slabs := make([]PTSlab, len(table.Slabs))
	copy(slabs, table.Slabs)
	return PTTable{Slabs: slabs, MaxPT: table.MaxPT}
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

package payroll

import "math"

const (
	// DefaultState keys the fallback professional tax table.
	DefaultState = "DEFAULT"

	// Unbounded marks the open upper end of the last professional tax slab.
	Unbounded = math.MaxFloat64

	DefaultWorkingHoursPerDay = 8
	OvertimeMultiplier        = 2

	// DaysPerMonth is the statutory days-per-month divisor for daily and hourly
	// rates. It does not follow the calendar.
	DaysPerMonth = 26

	GratuityRate     = 4.81
	BonusRate        = 8.33
	BonusWageCeiling = 7000

	RecordStatusDraft     = "draft"
	RecordStatusProcessed = "processed"

	JobPayrollRun = "payroll_run"

	ReasonNoAttendance = "no attendance for period"
)

var defaultRates = Rates{
	EPFEmployeeRate: 12,
	EPFEmployerRate: 12,
	EPSRate:         8.33,
	EDLIRate:        0.5,
	AdminChargeRate: 0.5,
	EPFWageCeiling:  15000,
	EPSCap:          1250,
	ESIEmployeeRate: 0.75,
	ESIEmployerRate: 3.25,
	ESIWageCeiling:  21000,
}

// Slab bounds are inclusive on both ends and the first matching slab wins, so
// adjacent slabs share their boundary value.
var defaultPTTables = map[string]PTTable{
	DefaultState: {
		Slabs: []PTSlab{{Min: 0, Max: Unbounded, Amount: 200}},
		MaxPT: 200,
	},
	"MH": {
		Slabs: []PTSlab{
			{Min: 0, Max: 7500, Amount: 0},
			{Min: 7500, Max: 10000, Amount: 175},
			{Min: 10000, Max: Unbounded, Amount: 200},
		},
		MaxPT: 200,
	},
	"GJ": {
		Slabs: []PTSlab{
			{Min: 0, Max: 6000, Amount: 0},
			{Min: 6000, Max: 9000, Amount: 80},
			{Min: 9000, Max: 12000, Amount: 150},
			{Min: 12000, Max: Unbounded, Amount: 200},
		},
		MaxPT: 200,
	},
	"KA": {
		Slabs: []PTSlab{
			{Min: 0, Max: 25000, Amount: 0},
			{Min: 25000, Max: Unbounded, Amount: 200},
		},
		MaxPT: 200,
	},
	"WB": {
		Slabs: []PTSlab{
			{Min: 0, Max: 10000, Amount: 0},
			{Min: 10000, Max: 15000, Amount: 110},
			{Min: 15000, Max: 25000, Amount: 130},
			{Min: 25000, Max: 40000, Amount: 150},
			{Min: 40000, Max: Unbounded, Amount: 200},
		},
		MaxPT: 200,
	},
	"TN": {
		Slabs: []PTSlab{
			{Min: 0, Max: 3500, Amount: 0},
			{Min: 3500, Max: 5000, Amount: 23},
			{Min: 5000, Max: 7500, Amount: 53},
			{Min: 7500, Max: 10000, Amount: 115},
			{Min: 10000, Max: 12500, Amount: 171},
			{Min: 12500, Max: Unbounded, Amount: 208},
		},
		MaxPT: 208,
	},
	"AP": {
		Slabs: []PTSlab{
			{Min: 0, Max: 15000, Amount: 0},
			{Min: 15000, Max: 20000, Amount: 150},
			{Min: 20000, Max: Unbounded, Amount: 200},
		},
		MaxPT: 200,
	},
	"TS": {
		Slabs: []PTSlab{
			{Min: 0, Max: 15000, Amount: 0},
			{Min: 15000, Max: 20000, Amount: 150},
			{Min: 20000, Max: Unbounded, Amount: 200},
		},
		MaxPT: 200,
	},
	"MP": {
		Slabs: []PTSlab{
			{Min: 0, Max: 18750, Amount: 0},
			{Min: 18750, Max: 25000, Amount: 125},
			{Min: 25000, Max: 33333, Amount: 167},
			{Min: 33333, Max: Unbounded, Amount: 208},
		},
		MaxPT: 208,
	},
	"KL": {
		Slabs: []PTSlab{
			{Min: 0, Max: 2000, Amount: 0},
			{Min: 2000, Max: 3000, Amount: 20},
			{Min: 3000, Max: 5000, Amount: 30},
			{Min: 5000, Max: 7500, Amount: 50},
			{Min: 7500, Max: 10000, Amount: 75},
			{Min: 10000, Max: 12500, Amount: 100},
			{Min: 12500, Max: 16667, Amount: 125},
			{Min: 16667, Max: 20834, Amount: 166},
			{Min: 20834, Max: Unbounded, Amount: 208},
		},
		MaxPT: 208,
	},
	"OD": {
		Slabs: []PTSlab{
			{Min: 0, Max: 13304, Amount: 0},
			{Min: 13304, Max: 25000, Amount: 125},
			{Min: 25000, Max: Unbounded, Amount: 200},
		},
		MaxPT: 200,
	},
	"AS": {
		Slabs: []PTSlab{
			{Min: 0, Max: 10000, Amount: 0},
			{Min: 10000, Max: 15000, Amount: 150},
			{Min: 15000, Max: 25000, Amount: 180},
			{Min: 25000, Max: Unbounded, Amount: 208},
		},
		MaxPT: 208,
	},
}

var defaultLWFRates = map[string]LWFRate{
	"MH": {Employee: 12, Employer: 36},
	"GJ": {Employee: 6, Employer: 12},
	"KA": {Employee: 20, Employer: 40},
	"TN": {Employee: 20, Employer: 40},
	"WB": {Employee: 3, Employer: 15},
	"AP": {Employee: 30, Employer: 70},
	"TS": {Employee: 2, Employer: 5},
	"MP": {Employee: 10, Employer: 30},
	"KL": {Employee: 20, Employer: 20},
	"OD": {Employee: 20, Employer: 40},
	"HR": {Employee: 34, Employer: 68},
	"PB": {Employee: 5, Employer: 20},
	"DL": {Employee: 0.75, Employer: 2.25},
	"CH": {Employee: 5, Employer: 20},
	"GA": {Employee: 60, Employer: 180},
}

package payroll

import "errors"

var (
	ErrRecordNotFound   = errors.New("payroll record not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrJobRunNotFound   = errors.New("payroll run not found")
	ErrInvalidPeriod    = errors.New("payroll period month must be 1-12 and year 2000-2100")
	ErrInvalidRates     = errors.New("statutory rates must be non-negative")
	ErrInvalidPTTable   = errors.New("professional tax table needs ordered slabs with min <= max")
)

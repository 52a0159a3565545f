package payroll

import "context"

type StoreAPI interface {
	ListEmployeesForRun(ctx context.Context, tenantID string, month, year int) ([]EmployeePayrollData, error)
	EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error)
	UpsertAttendance(ctx context.Context, tenantID, employeeID string, month, year int, summary AttendanceSummary) error
	UpsertRecord(ctx context.Context, tenantID string, record Record) (string, error)
	GetRecord(ctx context.Context, tenantID, employeeID string, month, year int) (Record, error)
	CountRecords(ctx context.Context, tenantID string, month, year int) (int, error)
	ListRecords(ctx context.Context, tenantID string, month, year, limit, offset int) ([]Record, error)
	SetPayslipPath(ctx context.Context, tenantID, recordID, path string) error
	LoadStatutorySettings(ctx context.Context, tenantID string) (StatutorySettings, error)
	SaveRates(ctx context.Context, tenantID string, rates Rates) error
	SavePTTable(ctx context.Context, tenantID, state string, table PTTable) error
	SaveLWFRate(ctx context.Context, tenantID, state string, rate LWFRate) error
	GetJobRun(ctx context.Context, tenantID, runID string) (JobRun, error)
}

package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = `
    r.id, r.employee_id, e.employee_code, e.name, r.month, r.year, r.state,
    r.paid_days, r.total_working_days, r.overtime_hours,
    r.gross_earnings, r.overtime_amount, r.pf_employee, r.pf_employer, r.eps_contribution,
    r.edli_contribution, r.pf_admin_charges, r.esi_employee, r.esi_employer, r.professional_tax,
    r.lwf_employee, r.lwf_employer, r.total_deductions, r.net_pay, r.employer_cost,
    r.epf_wages, r.esi_wages, r.proration_factor, r.status, COALESCE(r.payslip_path, ''),
    r.salary_json, r.created_at, r.updated_at`

func (s *Store) ListEmployeesForRun(ctx context.Context, tenantID string, month, year int) ([]EmployeePayrollData, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.employee_code, e.name, COALESCE(e.work_state, ''), e.working_hours_per_day,
           COALESCE(ss.basic, 0), COALESCE(ss.dearness_allowance, 0), COALESCE(ss.hra, 0),
           COALESCE(ss.conveyance, 0), COALESCE(ss.medical, 0), COALESCE(ss.special, 0),
           COALESCE(ss.other_allowances, 0), COALESCE(ss.retaining_allowance, 0),
           e.pf_applicable, e.esi_applicable, e.pt_applicable, e.lwf_applicable,
           COALESCE(a.paid_days, 0), COALESCE(a.total_working_days, 0), COALESCE(a.overtime_hours, 0),
           a.employee_id IS NOT NULL
    FROM employees e
    LEFT JOIN salary_structures ss ON ss.employee_id = e.id
    LEFT JOIN attendance_summaries a ON a.employee_id = e.id AND a.month = $2 AND a.year = $3
    WHERE e.tenant_id = $1 AND e.status = 'active'
    ORDER BY e.employee_code
  `, tenantID, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmployeePayrollData
	for rows.Next() {
		var employee EmployeePayrollData
		salary := &employee.Salary
		flags := &employee.Applicability
		att := &employee.Attendance
		if err := rows.Scan(
			&employee.EmployeeID, &employee.EmployeeCode, &employee.Name, &employee.State, &employee.WorkingHoursPerDay,
			&salary.Basic, &salary.DearnessAllowance, &salary.HRA,
			&salary.Conveyance, &salary.Medical, &salary.Special,
			&salary.OtherAllowances, &salary.RetainingAllowance,
			&flags.PF, &flags.ESI, &flags.PT, &flags.LWF,
			&att.PaidDays, &att.TotalWorkingDays, &att.OvertimeHours,
			&employee.HasAttendance,
		); err != nil {
			return nil, err
		}
		out = append(out, employee)
	}
	return out, rows.Err()
}

func (s *Store) EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE tenant_id = $1 AND id = $2", tenantID, employeeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) UpsertAttendance(ctx context.Context, tenantID, employeeID string, month, year int, summary AttendanceSummary) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_summaries (tenant_id, employee_id, month, year, paid_days, total_working_days, overtime_hours)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (employee_id, month, year)
    DO UPDATE SET paid_days = EXCLUDED.paid_days, total_working_days = EXCLUDED.total_working_days,
                  overtime_hours = EXCLUDED.overtime_hours, updated_at = now()
  `, tenantID, employeeID, month, year, summary.PaidDays, summary.TotalWorkingDays, summary.OvertimeHours)
	return err
}

func (s *Store) UpsertRecord(ctx context.Context, tenantID string, record Record) (string, error) {
	res := record.Result
	att := record.Attendance
	salaryJSON, err := json.Marshal(record.Salary)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (
      tenant_id, employee_id, month, year, state,
      paid_days, total_working_days, overtime_hours,
      gross_earnings, overtime_amount, pf_employee, pf_employer, eps_contribution,
      edli_contribution, pf_admin_charges, esi_employee, esi_employer, professional_tax,
      lwf_employee, lwf_employer, total_deductions, net_pay, employer_cost,
      epf_wages, esi_wages, proration_factor, status, salary_json
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
    ON CONFLICT (tenant_id, employee_id, month, year)
    DO UPDATE SET state = EXCLUDED.state,
      paid_days = EXCLUDED.paid_days, total_working_days = EXCLUDED.total_working_days,
      overtime_hours = EXCLUDED.overtime_hours, gross_earnings = EXCLUDED.gross_earnings,
      overtime_amount = EXCLUDED.overtime_amount, pf_employee = EXCLUDED.pf_employee,
      pf_employer = EXCLUDED.pf_employer, eps_contribution = EXCLUDED.eps_contribution,
      edli_contribution = EXCLUDED.edli_contribution, pf_admin_charges = EXCLUDED.pf_admin_charges,
      esi_employee = EXCLUDED.esi_employee, esi_employer = EXCLUDED.esi_employer,
      professional_tax = EXCLUDED.professional_tax, lwf_employee = EXCLUDED.lwf_employee,
      lwf_employer = EXCLUDED.lwf_employer, total_deductions = EXCLUDED.total_deductions,
      net_pay = EXCLUDED.net_pay, employer_cost = EXCLUDED.employer_cost,
      epf_wages = EXCLUDED.epf_wages, esi_wages = EXCLUDED.esi_wages,
      proration_factor = EXCLUDED.proration_factor, status = EXCLUDED.status,
      salary_json = EXCLUDED.salary_json, payslip_path = NULL, updated_at = now()
    RETURNING id
  `, tenantID, record.EmployeeID, record.Month, record.Year, nullIfEmpty(record.State),
		att.PaidDays, att.TotalWorkingDays, att.OvertimeHours,
		res.GrossEarnings, res.OvertimeAmount, res.PFEmployee, res.PFEmployer, res.EPSContribution,
		res.EDLIContribution, res.PFAdminCharges, res.ESIEmployee, res.ESIEmployer, res.ProfessionalTax,
		res.LWFEmployee, res.LWFEmployer, res.TotalDeductions, res.NetPay, res.EmployerCost,
		res.EPFWages, res.ESIWages, res.ProrationFactor, record.Status, salaryJSON).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetRecord(ctx context.Context, tenantID, employeeID string, month, year int) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.tenant_id = $1 AND r.employee_id = $2 AND r.month = $3 AND r.year = $4
  `, tenantID, employeeID, month, year)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return record, err
}

func (s *Store) CountRecords(ctx context.Context, tenantID string, month, year int) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM payroll_records WHERE tenant_id = $1 AND month = $2 AND year = $3
  `, tenantID, month, year).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListRecords(ctx context.Context, tenantID string, month, year, limit, offset int) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.tenant_id = $1 AND r.month = $2 AND r.year = $3
    ORDER BY e.employee_code
    LIMIT $4 OFFSET $5
  `, tenantID, month, year, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) SetPayslipPath(ctx context.Context, tenantID, recordID, path string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_records SET payslip_path = $1, updated_at = now()
    WHERE tenant_id = $2 AND id = $3
  `, path, tenantID, recordID)
	return err
}

func (s *Store) LoadStatutorySettings(ctx context.Context, tenantID string) (StatutorySettings, error) {
	settings := StatutorySettings{
		PTTables: map[string]PTTable{},
		LWFRates: map[string]LWFRate{},
	}

	var ratesJSON []byte
	var updatedAt time.Time
	err := s.DB.QueryRow(ctx, `
    SELECT rates_json, updated_at FROM statutory_settings WHERE tenant_id = $1
  `, tenantID).Scan(&ratesJSON, &updatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return StatutorySettings{}, err
	default:
		var rates Rates
		if err := json.Unmarshal(ratesJSON, &rates); err != nil {
			return StatutorySettings{}, err
		}
		settings.Rates = &rates
		settings.UpdatedAt = updatedAt
	}

	rows, err := s.DB.Query(ctx, `
    SELECT state, table_json FROM pt_table_overrides WHERE tenant_id = $1
  `, tenantID)
	if err != nil {
		return StatutorySettings{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var tableJSON []byte
		if err := rows.Scan(&state, &tableJSON); err != nil {
			return StatutorySettings{}, err
		}
		var table PTTable
		if err := json.Unmarshal(tableJSON, &table); err != nil {
			return StatutorySettings{}, err
		}
		settings.PTTables[state] = table
	}
	if err := rows.Err(); err != nil {
		return StatutorySettings{}, err
	}

	lwfRows, err := s.DB.Query(ctx, `
    SELECT state, employee, employer FROM lwf_rate_overrides WHERE tenant_id = $1
  `, tenantID)
	if err != nil {
		return StatutorySettings{}, err
	}
	defer lwfRows.Close()
	for lwfRows.Next() {
		var state string
		var rate LWFRate
		if err := lwfRows.Scan(&state, &rate.Employee, &rate.Employer); err != nil {
			return StatutorySettings{}, err
		}
		settings.LWFRates[state] = rate
	}
	return settings, lwfRows.Err()
}

func (s *Store) SaveRates(ctx context.Context, tenantID string, rates Rates) error {
	ratesJSON, err := json.Marshal(rates)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO statutory_settings (tenant_id, rates_json)
    VALUES ($1,$2)
    ON CONFLICT (tenant_id)
    DO UPDATE SET rates_json = EXCLUDED.rates_json, updated_at = now()
  `, tenantID, ratesJSON)
	return err
}

func (s *Store) SavePTTable(ctx context.Context, tenantID, state string, table PTTable) error {
	tableJSON, err := json.Marshal(table)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO pt_table_overrides (tenant_id, state, table_json)
    VALUES ($1,$2,$3)
    ON CONFLICT (tenant_id, state)
    DO UPDATE SET table_json = EXCLUDED.table_json, updated_at = now()
  `, tenantID, state, tableJSON)
	return err
}

func (s *Store) SaveLWFRate(ctx context.Context, tenantID, state string, rate LWFRate) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO lwf_rate_overrides (tenant_id, state, employee, employer)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (tenant_id, state)
    DO UPDATE SET employee = EXCLUDED.employee, employer = EXCLUDED.employer, updated_at = now()
  `, tenantID, state, rate.Employee, rate.Employer)
	return err
}

func scanRecord(row pgx.Row) (Record, error) {
	var record Record
	var state *string
	var salaryJSON []byte
	res := &record.Result
	att := &record.Attendance
	err := row.Scan(
		&record.ID, &record.EmployeeID, &record.EmployeeCode, &record.EmployeeName, &record.Month, &record.Year, &state,
		&att.PaidDays, &att.TotalWorkingDays, &att.OvertimeHours,
		&res.GrossEarnings, &res.OvertimeAmount, &res.PFEmployee, &res.PFEmployer, &res.EPSContribution,
		&res.EDLIContribution, &res.PFAdminCharges, &res.ESIEmployee, &res.ESIEmployer, &res.ProfessionalTax,
		&res.LWFEmployee, &res.LWFEmployer, &res.TotalDeductions, &res.NetPay, &res.EmployerCost,
		&res.EPFWages, &res.ESIWages, &res.ProrationFactor, &record.Status, &record.PayslipPath,
		&salaryJSON, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(salaryJSON, &record.Salary); err != nil {
		return Record{}, err
	}
	if state != nil {
		record.State = *state
	}
	return record, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func (s *Store) CreateJobRun(ctx context.Context, tenantID, jobType, status string) (string, error) {
	var runID string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, tenantID, jobType, status).Scan(&runID); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) UpdateJobRun(ctx context.Context, runID, status string, detailsJSON []byte) error {
	if detailsJSON == nil {
		detailsJSON = []byte("{}")
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2,
        completed_at = CASE WHEN $1::text IN ('completed', 'failed') THEN now() ELSE completed_at END
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}

func (s *Store) GetJobRun(ctx context.Context, tenantID, runID string) (JobRun, error) {
	var run JobRun
	err := s.DB.QueryRow(ctx, `
    SELECT id, job_type, status, details_json, started_at, completed_at
    FROM job_runs
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, runID).Scan(&run.ID, &run.JobType, &run.Status, &run.Details, &run.StartedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRun{}, ErrJobRunNotFound
	}
	return run, err
}

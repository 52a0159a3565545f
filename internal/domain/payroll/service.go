package payroll

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Sealer encrypts payslip files at rest.
type Sealer interface {
	Configured() bool
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

var ErrPayslipSealed = errors.New("payslip is encrypted and no key is configured")

type Service struct {
	store      StoreAPI
	sealer     Sealer
	payslipDir string
	workers    int
}

func NewService(store StoreAPI, sealer Sealer, payslipDir string, workers int) *Service {
	if workers <= 0 {
		workers = 1
	}
	if payslipDir == "" {
		payslipDir = "storage/payslips"
	}
	return &Service{store: store, sealer: sealer, payslipDir: payslipDir, workers: workers}
}

// Jurisdiction overlays the tenant's saved overrides on the defaults.
func (s *Service) Jurisdiction(ctx context.Context, tenantID string) (Jurisdiction, error) {
	settings, err := s.store.LoadStatutorySettings(ctx, tenantID)
	if err != nil {
		return Jurisdiction{}, err
	}
	return overlay(settings), nil
}

func overlay(settings StatutorySettings) Jurisdiction {
	j := DefaultJurisdiction()
	if settings.Rates != nil {
		j = j.WithRates(*settings.Rates)
	}
	for state, table := range settings.PTTables {
		j = j.WithPTTable(state, table)
	}
	for state, rate := range settings.LWFRates {
		j = j.WithLWFRate(state, rate)
	}
	return j
}

// Settings reports the effective tables from a single read of the overrides.
func (s *Service) Settings(ctx context.Context, tenantID string) (SettingsView, error) {
	settings, err := s.store.LoadStatutorySettings(ctx, tenantID)
	if err != nil {
		return SettingsView{}, err
	}
	j := overlay(settings)
	view := SettingsView{
		Rates:    j.Rates(),
		PTTables: map[string]PTTable{},
		LWFRates: j.LWFRates(),
	}
	for _, state := range j.PTStates() {
		view.PTTables[state] = j.PTTable(state)
	}
	if !settings.UpdatedAt.IsZero() {
		updated := settings.UpdatedAt
		view.UpdatedAt = &updated
	}
	return view, nil
}

func (s *Service) Preview(ctx context.Context, tenantID string, in Input) (Result, error) {
	j, err := s.Jurisdiction(ctx, tenantID)
	if err != nil {
		return Result{}, err
	}
	return Calculate(j, in), nil
}

// RunPeriod calculates and stores a record for every active employee. One
// employee failing does not stop the batch; the failure lands in the summary.
func (s *Service) RunPeriod(ctx context.Context, tenantID string, month, year int) (RunSummary, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return RunSummary{}, err
	}
	j, err := s.Jurisdiction(ctx, tenantID)
	if err != nil {
		return RunSummary{}, err
	}
	employees, err := s.store.ListEmployeesForRun(ctx, tenantID, month, year)
	if err != nil {
		return RunSummary{}, err
	}

	engine := NewEngine(j)
	summary := RunSummary{Month: month, Year: year, EmployeeCount: len(employees)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, employee := range employees {
		employee := employee
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Zero working days means a factor of 1, so a missing summary
			// would otherwise pay the full month.
			if !employee.HasAttendance {
				slog.Warn("payroll record skipped", "tenantId", tenantID, "employeeId", employee.EmployeeID, "month", month, "year", year, "reason", ReasonNoAttendance)
				mu.Lock()
				defer mu.Unlock()
				summary.Failed++
				summary.Failures = append(summary.Failures, RunFailure{EmployeeID: employee.EmployeeID, Reason: ReasonNoAttendance})
				return nil
			}
			result := engine.Calculate(employee.Input())
			_, err := s.store.UpsertRecord(gctx, tenantID, Record{
				EmployeeID: employee.EmployeeID,
				Month:      month,
				Year:       year,
				State:      employee.State,
				Salary:     employee.Salary,
				Attendance: employee.Attendance,
				Result:     result,
				Status:     RecordStatusProcessed,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("payroll record failed", "tenantId", tenantID, "employeeId", employee.EmployeeID, "month", month, "year", year, "err", err)
				summary.Failed++
				summary.Failures = append(summary.Failures, RunFailure{EmployeeID: employee.EmployeeID, Reason: err.Error()})
				return nil
			}
			summary.Processed++
			summary.TotalGross += result.GrossEarnings
			summary.TotalDeductions += result.TotalDeductions
			summary.TotalNet += result.NetPay
			summary.TotalEmployerCost += result.EmployerCost
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	sort.Slice(summary.Failures, func(a, b int) bool {
		return summary.Failures[a].EmployeeID < summary.Failures[b].EmployeeID
	})
	slog.Info("payroll run complete", "tenantId", tenantID, "month", month, "year", year, "processed", summary.Processed, "failed", summary.Failed)
	return summary, nil
}

func (s *Service) UpdateRates(ctx context.Context, tenantID string, rates Rates) error {
	if err := ValidateRates(rates); err != nil {
		return err
	}
	return s.store.SaveRates(ctx, tenantID, rates)
}

func (s *Service) UpdatePTTable(ctx context.Context, tenantID, state string, table PTTable) error {
	state = normalizeState(state)
	if state == "" {
		return fmt.Errorf("%w: state is required", ErrInvalidPTTable)
	}
	if err := ValidatePTTable(table); err != nil {
		return err
	}
	return s.store.SavePTTable(ctx, tenantID, state, table)
}

func (s *Service) UpdateLWFRate(ctx context.Context, tenantID, state string, rate LWFRate) error {
	state = normalizeState(state)
	if state == "" || state == DefaultState {
		return fmt.Errorf("%w: a concrete state is required", ErrInvalidRates)
	}
	if err := ValidateLWFRate(rate); err != nil {
		return err
	}
	return s.store.SaveLWFRate(ctx, tenantID, state, rate)
}

func (s *Service) RecordAttendance(ctx context.Context, tenantID, employeeID string, month, year int, summary AttendanceSummary) error {
	if err := ValidatePeriod(month, year); err != nil {
		return err
	}
	exists, err := s.store.EmployeeExists(ctx, tenantID, employeeID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEmployeeNotFound
	}
	return s.store.UpsertAttendance(ctx, tenantID, employeeID, month, year, summary)
}

func (s *Service) ListRecords(ctx context.Context, tenantID string, month, year, limit, offset int) ([]Record, int, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountRecords(ctx, tenantID, month, year)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.store.ListRecords(ctx, tenantID, month, year, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *Service) GetRecord(ctx context.Context, tenantID, employeeID string, month, year int) (Record, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return Record{}, err
	}
	return s.store.GetRecord(ctx, tenantID, employeeID, month, year)
}

func (s *Service) GetRun(ctx context.Context, tenantID, runID string) (JobRun, error) {
	return s.store.GetJobRun(ctx, tenantID, runID)
}

// GeneratePayslip renders the stored record to PDF and returns the file path.
func (s *Service) GeneratePayslip(ctx context.Context, tenantID, employeeID string, month, year int) (string, error) {
	record, err := s.GetRecord(ctx, tenantID, employeeID, month, year)
	if err != nil {
		return "", err
	}
	return s.writePayslip(ctx, tenantID, record)
}

// PayslipFile returns the plain PDF bytes, rendering the payslip first when
// it has not been generated or the file is gone.
func (s *Service) PayslipFile(ctx context.Context, tenantID, employeeID string, month, year int) ([]byte, error) {
	record, err := s.GetRecord(ctx, tenantID, employeeID, month, year)
	if err != nil {
		return nil, err
	}
	path := record.PayslipPath
	if path == "" {
		if path, err = s.writePayslip(ctx, tenantID, record); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if path, err = s.writePayslip(ctx, tenantID, record); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".enc") {
		return data, nil
	}
	if s.sealer == nil || !s.sealer.Configured() {
		return nil, ErrPayslipSealed
	}
	return s.sealer.Open(data)
}

func (s *Service) writePayslip(ctx context.Context, tenantID string, record Record) (string, error) {
	data, err := RenderPayslip(record)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.payslipDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.payslipDir, fmt.Sprintf("%s-%04d-%02d.pdf", record.ID, record.Year, record.Month))
	if s.sealer != nil && s.sealer.Configured() {
		if data, err = s.sealer.Seal(data); err != nil {
			return "", err
		}
		path += ".enc"
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	if err := s.store.SetPayslipPath(ctx, tenantID, record.ID, path); err != nil {
		return "", err
	}
	return path, nil
}

package payrollhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"manpower/internal/domain/attendance"
	"manpower/internal/domain/auth"
	"manpower/internal/domain/payroll"
	"manpower/internal/platform/jobs"
	"manpower/internal/transport/http/api"
	"manpower/internal/transport/http/middleware"
	"manpower/internal/transport/http/shared"
)

type PayrollService interface {
	Settings(ctx context.Context, tenantID string) (payroll.SettingsView, error)
	Preview(ctx context.Context, tenantID string, in payroll.Input) (payroll.Result, error)
	RunPeriod(ctx context.Context, tenantID string, month, year int) (payroll.RunSummary, error)
	UpdateRates(ctx context.Context, tenantID string, rates payroll.Rates) error
	UpdatePTTable(ctx context.Context, tenantID, state string, table payroll.PTTable) error
	UpdateLWFRate(ctx context.Context, tenantID, state string, rate payroll.LWFRate) error
	RecordAttendance(ctx context.Context, tenantID, employeeID string, month, year int, summary payroll.AttendanceSummary) error
	ListRecords(ctx context.Context, tenantID string, month, year, limit, offset int) ([]payroll.Record, int, error)
	GetRecord(ctx context.Context, tenantID, employeeID string, month, year int) (payroll.Record, error)
	GetRun(ctx context.Context, tenantID, runID string) (payroll.JobRun, error)
	PayslipFile(ctx context.Context, tenantID, employeeID string, month, year int) ([]byte, error)
}

type JobRunner interface {
	Enqueue(ctx context.Context, jobType, tenantID string, run jobs.RunFunc) (string, error)
	RunNow(ctx context.Context, jobType, tenantID string, run jobs.RunFunc) (any, error)
}

type RunObserver interface {
	RecordPayrollRun(processed, failed int, duration time.Duration)
}

// IdempotencyStore replays the first response given for an Idempotency-Key.
type IdempotencyStore interface {
	Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

const endpointPayrollRun = "payroll.run"

type Handler struct {
	Service     PayrollService
	Jobs        JobRunner
	Perms       middleware.PermissionStore
	Metrics     RunObserver
	Idempotency IdempotencyStore
	Now         func() time.Time
}

func NewHandler(service PayrollService, jobsSvc JobRunner, perms middleware.PermissionStore, metrics RunObserver, idem IdempotencyStore) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc, Perms: perms, Metrics: metrics, Idempotency: idem, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead, h.Perms)
	write := middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)
	run := middleware.RequirePermission(auth.PermPayrollRun, h.Perms)
	settings := middleware.RequirePermission(auth.PermPayrollSettings, h.Perms)

	r.Route("/payroll", func(r chi.Router) {
		r.With(read).Post("/calculate", h.handleCalculate)
		r.With(read).Post("/ancillary/gratuity", h.handleGratuity)
		r.With(read).Post("/ancillary/bonus", h.handleBonus)
		r.With(read).Post("/ancillary/leave-encashment", h.handleLeaveEncashment)
		r.With(read).Post("/ancillary/minimum-wage", h.handleMinimumWage)
		r.With(read).Get("/working-days", h.handleWorkingDays)

		r.With(read).Get("/settings", h.handleGetSettings)
		r.With(settings).Put("/settings/rates", h.handleUpdateRates)
		r.With(settings).Put("/settings/pt/{state}", h.handleUpdatePTTable)
		r.With(settings).Put("/settings/lwf/{state}", h.handleUpdateLWFRate)

		r.With(write).Put("/attendance/{employeeID}", h.handleRecordAttendance)

		r.With(run).Post("/runs", h.handleRunPayroll)
		r.With(read).Get("/runs/{runID}", h.handleGetRun)

		r.With(read).Get("/records", h.handleListRecords)
		r.With(read).Get("/records/{employeeID}/{year}/{month}", h.handleGetRecord)
		r.With(read).Get("/records/{employeeID}/{year}/{month}/payslip", h.handleDownloadPayslip)
	})
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var in payroll.Input
	if !shared.DecodeJSON(w, r, &in, reqID) {
		return
	}
	v := shared.NewValidator()
	validateSalary(v, "salary", in.Salary)
	v.NonNegative("attendance.paidDays", in.Attendance.PaidDays)
	v.NonNegative("attendance.totalWorkingDays", in.Attendance.TotalWorkingDays)
	v.NonNegative("attendance.overtimeHours", in.Attendance.OvertimeHours)
	v.NonNegative("workingHoursPerDay", in.WorkingHoursPerDay)
	if v.Reject(w, reqID) {
		return
	}

	result, err := h.Service.Preview(r.Context(), user.TenantID, in)
	if err != nil {
		h.fail(w, r, err, "payroll_calculate_failed", "failed to calculate payroll")
		return
	}
	api.Success(w, result, reqID)
}

type wagePayload struct {
	Basic             float64 `json:"basic"`
	DearnessAllowance float64 `json:"dearnessAllowance"`
	Eligible          *bool   `json:"eligible,omitempty"`
	LeaveDays         float64 `json:"leaveDays,omitempty"`
}

func (h *Handler) decodeWages(w http.ResponseWriter, r *http.Request) (wagePayload, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload wagePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return payload, false
	}
	v := shared.NewValidator()
	v.NonNegative("basic", payload.Basic)
	v.NonNegative("dearnessAllowance", payload.DearnessAllowance)
	v.NonNegative("leaveDays", payload.LeaveDays)
	return payload, !v.Reject(w, reqID)
}

func (h *Handler) handleGratuity(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeWages(w, r)
	if !ok {
		return
	}
	api.Success(w, map[string]float64{
		"gratuity": payroll.CalculateGratuity(payload.Basic, payload.DearnessAllowance),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBonus(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeWages(w, r)
	if !ok {
		return
	}
	eligible := payload.Eligible == nil || *payload.Eligible
	api.Success(w, map[string]float64{
		"bonus": payroll.CalculateBonus(payload.Basic, payload.DearnessAllowance, eligible),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLeaveEncashment(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeWages(w, r)
	if !ok {
		return
	}
	api.Success(w, map[string]float64{
		"encashment": payroll.CalculateLeaveEncashment(payload.Basic, payload.DearnessAllowance, payload.LeaveDays),
	}, middleware.GetRequestID(r.Context()))
}

type minimumWagePayload struct {
	BasicPlusDA float64 `json:"basicPlusDA"`
	MinimumWage float64 `json:"minimumWage"`
	SkillLevel  string  `json:"skillLevel"`
}

func (h *Handler) handleMinimumWage(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload minimumWagePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.NonNegative("basicPlusDA", payload.BasicPlusDA)
	v.NonNegative("minimumWage", payload.MinimumWage)
	if v.Reject(w, reqID) {
		return
	}
	api.Success(w, payroll.CheckMinimumWage(payload.BasicPlusDA, payload.MinimumWage, payload.SkillLevel), reqID)
}

func (h *Handler) handleWorkingDays(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	month, year, ok := h.period(w, r)
	if !ok {
		return
	}
	api.Success(w, map[string]int{
		"month":       month,
		"year":        year,
		"workingDays": payroll.WorkingDaysInMonth(month, year),
	}, reqID)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	view, err := h.Service.Settings(r.Context(), user.TenantID)
	if err != nil {
		h.fail(w, r, err, "payroll_settings_failed", "failed to load statutory settings")
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRates(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	var rates payroll.Rates
	if !shared.DecodeJSON(w, r, &rates, reqID) {
		return
	}
	if err := h.Service.UpdateRates(r.Context(), user.TenantID, rates); err != nil {
		h.fail(w, r, err, "payroll_settings_failed", "failed to save rates")
		return
	}
	slog.Info("statutory rates updated", "tenantId", user.TenantID, "userId", user.UserID)
	api.Success(w, rates, reqID)
}

func (h *Handler) handleUpdatePTTable(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	var table payroll.PTTable
	if !shared.DecodeJSON(w, r, &table, reqID) {
		return
	}
	state := chi.URLParam(r, "state")
	if err := h.Service.UpdatePTTable(r.Context(), user.TenantID, state, table); err != nil {
		h.fail(w, r, err, "payroll_settings_failed", "failed to save professional tax table")
		return
	}
	slog.Info("professional tax table updated", "tenantId", user.TenantID, "state", state, "userId", user.UserID)
	api.Success(w, table, reqID)
}

func (h *Handler) handleUpdateLWFRate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	var rate payroll.LWFRate
	if !shared.DecodeJSON(w, r, &rate, reqID) {
		return
	}
	state := chi.URLParam(r, "state")
	if err := h.Service.UpdateLWFRate(r.Context(), user.TenantID, state, rate); err != nil {
		h.fail(w, r, err, "payroll_settings_failed", "failed to save labour welfare fund rate")
		return
	}
	api.Success(w, rate, reqID)
}

type markPayload struct {
	Date          string  `json:"date"`
	Code          string  `json:"code"`
	OvertimeHours float64 `json:"overtimeHours"`
}

// attendancePayload carries either a ready summary or daily marks.
type attendancePayload struct {
	PaidDays         *float64      `json:"paidDays,omitempty"`
	TotalWorkingDays *float64      `json:"totalWorkingDays,omitempty"`
	OvertimeHours    float64       `json:"overtimeHours"`
	Marks            []markPayload `json:"marks,omitempty"`
}

func (h *Handler) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	month, year, ok := h.period(w, r)
	if !ok {
		return
	}
	var payload attendancePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	summary, ok := summarizeAttendance(w, reqID, payload, month, year)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.RecordAttendance(r.Context(), user.TenantID, employeeID, month, year, summary); err != nil {
		h.fail(w, r, err, "attendance_save_failed", "failed to save attendance")
		return
	}
	api.Success(w, summary, reqID)
}

func summarizeAttendance(w http.ResponseWriter, reqID string, payload attendancePayload, month, year int) (payroll.AttendanceSummary, bool) {
	v := shared.NewValidator()
	if len(payload.Marks) == 0 {
		if payload.PaidDays == nil {
			v.Add("paidDays", "is required when no marks are given")
		}
		if payload.TotalWorkingDays == nil {
			v.Add("totalWorkingDays", "is required when no marks are given")
		}
		if v.Reject(w, reqID) {
			return payroll.AttendanceSummary{}, false
		}
		v.NonNegative("paidDays", *payload.PaidDays)
		v.NonNegative("totalWorkingDays", *payload.TotalWorkingDays)
		v.NonNegative("overtimeHours", payload.OvertimeHours)
		if v.Reject(w, reqID) {
			return payroll.AttendanceSummary{}, false
		}
		return payroll.AttendanceSummary{
			PaidDays:         *payload.PaidDays,
			TotalWorkingDays: *payload.TotalWorkingDays,
			OvertimeHours:    payload.OvertimeHours,
		}, true
	}

	marks := make([]attendance.Mark, 0, len(payload.Marks))
	seen := map[time.Time]bool{}
	for i, raw := range payload.Marks {
		field := fmt.Sprintf("marks[%d]", i)
		date, ok := v.Date(field+".date", raw.Date)
		if ok {
			if int(date.Month()) != month || date.Year() != year {
				v.Add(field+".date", "must fall in the requested month")
			}
			if seen[date] {
				v.Add(field+".date", "is duplicated")
			}
			seen[date] = true
		}
		if !attendance.ValidCode(raw.Code) {
			v.Add(field+".code", "must be one of P, A, HD, H, WO, L, LWP, PH")
		}
		v.NonNegative(field+".overtimeHours", raw.OvertimeHours)
		marks = append(marks, attendance.Mark{Date: date, Code: raw.Code, OvertimeHours: raw.OvertimeHours})
	}
	if payload.TotalWorkingDays != nil {
		v.NonNegative("totalWorkingDays", *payload.TotalWorkingDays)
	}
	if v.Reject(w, reqID) {
		return payroll.AttendanceSummary{}, false
	}

	var summary payroll.AttendanceSummary
	var err error
	if payload.TotalWorkingDays != nil {
		summary, err = attendance.Summarize(marks, *payload.TotalWorkingDays)
	} else {
		summary, err = attendance.SummarizeMonth(marks, month, year)
	}
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_attendance", err.Error(), reqID)
		return payroll.AttendanceSummary{}, false
	}
	return summary, true
}

type runPayload struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (h *Handler) handleRunPayroll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	var payload runPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if err := payroll.ValidatePeriod(payload.Month, payload.Year); err != nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "period", Reason: err.Error()}})
		return
	}

	sync, _ := strconv.ParseBool(r.URL.Query().Get("sync"))
	status := http.StatusAccepted
	if sync {
		status = http.StatusOK
	}

	// A retried request with the same key gets the first response back and
	// does not queue a second run for the period.
	key := middleware.IdempotencyKey(r.Header.Get(middleware.IdempotencyHeader))
	requestHash := middleware.RequestHash(fmt.Appendf(nil, "%d-%d-%t", payload.Year, payload.Month, sync))
	if key != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.TenantID, user.UserID, endpointPayrollRun, key, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used for a different payroll run", reqID)
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "tenantId", user.TenantID, "err", err)
		}
		if found {
			api.WriteJSON(w, status, api.Envelope{Success: true, Data: stored, RequestID: reqID})
			return
		}
	}

	tenantID := user.TenantID
	runFn := func(ctx context.Context) (any, error) {
		start := time.Now()
		summary, err := h.Service.RunPeriod(ctx, tenantID, payload.Month, payload.Year)
		if err == nil && h.Metrics != nil {
			h.Metrics.RecordPayrollRun(summary.Processed, summary.Failed, time.Since(start))
		}
		return summary, err
	}

	var response any
	if sync {
		result, err := h.Jobs.RunNow(r.Context(), payroll.JobPayrollRun, tenantID, runFn)
		if err != nil {
			h.fail(w, r, err, "payroll_run_failed", "payroll run failed")
			return
		}
		response = result
	} else {
		runID, err := h.Jobs.Enqueue(r.Context(), payroll.JobPayrollRun, tenantID, runFn)
		if errors.Is(err, jobs.ErrQueueFull) {
			api.Fail(w, http.StatusServiceUnavailable, "queue_full", "payroll run queue is full, retry later", reqID)
			return
		}
		if err != nil {
			h.fail(w, r, err, "payroll_run_failed", "failed to queue payroll run")
			return
		}
		response = map[string]any{
			"runId":  runID,
			"status": jobs.StatusQueued,
			"month":  payload.Month,
			"year":   payload.Year,
		}
	}

	if key != "" && h.Idempotency != nil {
		if encoded, err := json.Marshal(response); err != nil {
			slog.Warn("idempotency response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.TenantID, user.UserID, endpointPayrollRun, key, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "tenantId", user.TenantID, "err", err)
		}
	}
	api.WriteJSON(w, status, api.Envelope{Success: true, Data: response, RequestID: reqID})
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	run, err := h.Service.GetRun(r.Context(), user.TenantID, chi.URLParam(r, "runID"))
	if err != nil {
		h.fail(w, r, err, "payroll_run_lookup_failed", "failed to load payroll run")
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	month, year, ok := h.period(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 500)
	records, total, err := h.Service.ListRecords(r.Context(), user.TenantID, month, year, page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err, "payroll_records_failed", "failed to list payroll records")
		return
	}
	if records == nil {
		records = []payroll.Record{}
	}
	api.List(w, records, api.ListMeta{Total: total, Limit: page.Limit, Offset: page.Offset}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID, month, year, ok := h.recordKey(w, r)
	if !ok {
		return
	}
	record, err := h.Service.GetRecord(r.Context(), user.TenantID, employeeID, month, year)
	if err != nil {
		h.fail(w, r, err, "payroll_record_failed", "failed to load payroll record")
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID, month, year, ok := h.recordKey(w, r)
	if !ok {
		return
	}
	data, err := h.Service.PayslipFile(r.Context(), user.TenantID, employeeID, month, year)
	if err != nil {
		h.fail(w, r, err, "payslip_failed", "payslip not available")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payslip-%04d-%02d.pdf"`, year, month))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("payslip write failed", "employeeId", employeeID, "err", err)
	}
}

func (h *Handler) period(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	query := r.URL.Query()
	v := shared.NewValidator()
	month, year := v.Period(query.Get("month"), query.Get("year"), h.Now())
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return 0, 0, false
	}
	return month, year, true
}

func (h *Handler) recordKey(w http.ResponseWriter, r *http.Request) (string, int, int, bool) {
	v := shared.NewValidator()
	employeeID := chi.URLParam(r, "employeeID")
	v.Required("employeeID", employeeID, "is required")
	year, _ := v.IntRange("year", chi.URLParam(r, "year"), 2000, 2100)
	month, _ := v.IntRange("month", chi.URLParam(r, "month"), 1, 12)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return "", 0, 0, false
	}
	return employeeID, month, year, true
}

func validateSalary(v *shared.Validator, prefix string, s payroll.SalaryComponents) {
	fields := []struct {
		name  string
		value float64
	}{
		{"basic", s.Basic},
		{"dearnessAllowance", s.DearnessAllowance},
		{"hra", s.HRA},
		{"conveyance", s.Conveyance},
		{"medical", s.Medical},
		{"special", s.Special},
		{"otherAllowances", s.OtherAllowances},
		{"retainingAllowance", s.RetainingAllowance},
	}
	for _, f := range fields {
		v.NonNegative(prefix+"."+f.name, f.value)
	}
}

// fail maps domain errors to HTTP statuses; anything unknown is a 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound), errors.Is(err, payroll.ErrEmployeeNotFound), errors.Is(err, payroll.ErrJobRunNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrInvalidPeriod), errors.Is(err, payroll.ErrInvalidRates), errors.Is(err, payroll.ErrInvalidPTTable):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), reqID)
	case errors.Is(err, payroll.ErrPayslipSealed):
		api.Fail(w, http.StatusConflict, "payslip_sealed", err.Error(), reqID)
	default:
		slog.Error(message, "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}

package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	totalDurationMs uint64

	jobsCompleted     uint64
	jobsFailed        uint64
	jobsDropped       uint64
	payrollProcessed  uint64
	payrollFailed     uint64
	lastRunDurationMs uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	switch {
	case status >= 500:
		atomic.AddUint64(&c.errorRequests, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordJob(failed bool) {
	if failed {
		atomic.AddUint64(&c.jobsFailed, 1)
		return
	}
	atomic.AddUint64(&c.jobsCompleted, 1)
}

func (c *Collector) RecordDroppedJob() {
	atomic.AddUint64(&c.jobsDropped, 1)
}

// RecordPayrollRun counts employees across all runs.
func (c *Collector) RecordPayrollRun(processed, failed int, duration time.Duration) {
	atomic.AddUint64(&c.payrollProcessed, uint64(processed))
	atomic.AddUint64(&c.payrollFailed, uint64(failed))
	atomic.StoreUint64(&c.lastRunDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":            total,
		"errorsTotal":              atomic.LoadUint64(&c.errorRequests),
		"clientErrorsTotal":        atomic.LoadUint64(&c.clientErrors),
		"avgDurationMs":            avg,
		"totalDurationMs":          totalMs,
		"jobsCompletedTotal":       atomic.LoadUint64(&c.jobsCompleted),
		"jobsFailedTotal":          atomic.LoadUint64(&c.jobsFailed),
		"jobsDroppedTotal":         atomic.LoadUint64(&c.jobsDropped),
		"payrollEmployeesTotal":    atomic.LoadUint64(&c.payrollProcessed),
		"payrollFailuresTotal":     atomic.LoadUint64(&c.payrollFailed),
		"payrollLastRunDurationMs": atomic.LoadUint64(&c.lastRunDurationMs),
	}
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
)

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ReasonShutdown marks jobs still queued when the worker stops.
const ReasonShutdown = "shutdown"

var ErrQueueFull = errors.New("job queue full")

// RunStore persists job_runs bookkeeping.
type RunStore interface {
	CreateJobRun(ctx context.Context, tenantID, jobType, status string) (string, error)
	UpdateJobRun(ctx context.Context, runID, status string, detailsJSON []byte) error
}

type Recorder interface {
	RecordJob(failed bool)
	RecordDroppedJob()
}

type RunFunc func(context.Context) (any, error)

type Service struct {
	store   RunStore
	metrics Recorder
	queue   chan job
	wg      sync.WaitGroup
}

type job struct {
	RunID    string
	Type     string
	TenantID string
	Run      RunFunc
}

func New(store RunStore, metrics Recorder, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Service{
		store:   store,
		metrics: metrics,
		queue:   make(chan job, queueSize),
	}
}

// Start runs one worker until ctx is done. Wait blocks until it has exited.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue records a queued run and hands it to the worker. The returned id
// identifies the job_runs row.
func (s *Service) Enqueue(ctx context.Context, jobType, tenantID string, run RunFunc) (string, error) {
	runID, err := s.store.CreateJobRun(ctx, tenantID, jobType, StatusQueued)
	if err != nil {
		return "", err
	}
	select {
	case s.queue <- job{RunID: runID, Type: jobType, TenantID: tenantID, Run: run}:
		return runID, nil
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		if s.metrics != nil {
			s.metrics.RecordDroppedJob()
		}
		s.finish(ctx, runID, StatusFailed, map[string]string{"error": ErrQueueFull.Error()})
		return "", ErrQueueFull
	}
}

// RunNow executes run inline with the same bookkeeping as a queued job.
func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run RunFunc) (any, error) {
	runID, err := s.store.CreateJobRun(ctx, tenantID, jobType, StatusRunning)
	if err != nil {
		slog.Warn("job run insert failed", "jobType", jobType, "err", err)
	}
	return s.runJob(ctx, job{RunID: runID, Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			s.drain(ctx)
			return
		}
		select {
		case <-ctx.Done():
			s.drain(ctx)
			return
		case j := <-s.queue:
			if err := s.store.UpdateJobRun(ctx, j.RunID, StatusRunning, nil); err != nil {
				slog.Warn("job run update failed", "runId", j.RunID, "err", err)
			}
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "runId", j.RunID, "err", err)
			}
		}
	}
}

// drain fails whatever is still buffered so no job_runs row stays queued.
func (s *Service) drain(ctx context.Context) {
	for {
		select {
		case j := <-s.queue:
			slog.Warn("job dropped on shutdown", "jobType", j.Type, "tenantId", j.TenantID, "runId", j.RunID)
			if s.metrics != nil {
				s.metrics.RecordJob(true)
			}
			s.finish(ctx, j.RunID, StatusFailed, map[string]string{"error": ReasonShutdown})
		default:
			return
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	result, err := j.Run(ctx)
	status := StatusCompleted
	var details any = result
	if err != nil {
		status = StatusFailed
		details = map[string]string{"error": err.Error()}
	}
	if s.metrics != nil {
		s.metrics.RecordJob(err != nil)
	}
	s.finish(ctx, j.RunID, status, details)
	return result, err
}

func (s *Service) finish(ctx context.Context, runID, status string, details any) {
	if runID == "" {
		return
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "err", err)
		detailsJSON = []byte("{}")
	}
	if err := s.store.UpdateJobRun(context.WithoutCancel(ctx), runID, status, detailsJSON); err != nil {
		slog.Warn("job run update failed", "runId", runID, "err", err)
	}
}

package generation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omnimedia/server/internal/module/job"
	"github.com/omnimedia/server/internal/module/media"
	"github.com/omnimedia/server/internal/module/planner"
	"github.com/omnimedia/server/internal/port/outbound"
)

// DefaultSignedURLTTL is how long stored output URLs stay valid.
const DefaultSignedURLTTL = time.Hour

// Recorder receives service-level metrics.
type Recorder interface {
	RecordGeneration(modality, status string)
	RecordJob(event string)
	RecordFallback(kind string)
	SetQueueDepth(depth int)
}

type nopRecorder struct{}

func (nopRecorder) RecordGeneration(string, string) {}
func (nopRecorder) RecordJob(string)                {}
func (nopRecorder) RecordFallback(string)           {}
func (nopRecorder) SetQueueDepth(int)               {}

// ServiceConfig holds service dependencies.
type ServiceConfig struct {
	Orchestrator *media.Orchestrator
	Storage      outbound.MediaStoragePort
	Hooks        media.Hooks
	Provider     outbound.VideoProviderPort
	Fallback     *FallbackConfig
	Worker       *job.Config
	SignedURLTTL time.Duration
	Recorder     Recorder
	Logger       *zap.Logger
}

type stats struct {
	syncTotal     atomic.Int64
	syncCompleted atomic.Int64
	syncFailed    atomic.Int64
	jobsEnqueued  atomic.Int64
	jobsCompleted atomic.Int64
	jobsFailed    atomic.Int64
}

// Service is the entry point for synchronous and queued generation.
type Service struct {
	orchestrator *media.Orchestrator
	planner      *planner.Planner
	storage      outbound.MediaStoragePort
	hooks        media.Hooks
	provider     outbound.VideoProviderPort
	fallback     *FallbackConfig
	ttl          time.Duration
	recorder     Recorder
	logger       *zap.Logger

	queue *job.Queue
	store *job.Store
	pool  *job.Pool

	stats stats
}

// NewService creates a service and its worker pool. Call Start to begin
// draining the queue.
func NewService(cfg *ServiceConfig) (*Service, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("generation: orchestrator is required")
	}
	if cfg.Storage == nil {
		return nil, errors.New("generation: storage is required")
	}

	s := &Service{
		orchestrator: cfg.Orchestrator,
		planner:      cfg.Orchestrator.Planner(),
		storage:      cfg.Storage,
		hooks:        cfg.Hooks,
		provider:     cfg.Provider,
		fallback:     cfg.Fallback,
		ttl:          cfg.SignedURLTTL,
		recorder:     cfg.Recorder,
		logger:       cfg.Logger,
		queue:        job.NewQueue(),
		store:        job.NewStore(),
	}
	if s.hooks == nil {
		s.hooks = media.NewDefaultHooks(nil)
	}
	if s.fallback == nil {
		s.fallback = DefaultFallbackConfig()
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSignedURLTTL
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("generation")
	s.pool = job.NewPool(s.queue, runnerFunc(s.run), s.logger, cfg.Worker)
	return s, nil
}

type runnerFunc func(ctx context.Context, req *media.Request) *media.Response

func (f runnerFunc) Run(ctx context.Context, req *media.Request) *media.Response { return f(ctx, req) }

// Start starts the worker pool.
func (s *Service) Start() error {
	return s.pool.Start()
}

// Stop stops the worker pool, waiting up to timeout for in-flight jobs.
func (s *Service) Stop(timeout time.Duration) error {
	return s.pool.Stop(timeout)
}

// run is the orchestrator plus the video fallback chain.
func (s *Service) run(ctx context.Context, req *media.Request) *media.Response {
	resp := s.orchestrator.Run(ctx, req)
	s.applyFallback(ctx, req, resp)
	return resp
}

// GenerateSync runs a request inline and persists its outputs. A returned
// error means the body was rejected before generation; generation failures
// are reported on the response.
func (s *Service) GenerateSync(ctx context.Context, modality media.Modality, body *GenerateBody) (*media.Response, error) {
	s.stats.syncTotal.Add(1)
	req, err := ToRequest(modality, body, uuid.NewString())
	if err != nil {
		s.stats.syncFailed.Add(1)
		s.recorder.RecordGeneration(string(modality), "rejected")
		return nil, err
	}

	resp := s.run(ctx, req)
	s.persist(ctx, req, resp)

	if resp.Failed() {
		s.stats.syncFailed.Add(1)
	} else {
		s.stats.syncCompleted.Add(1)
	}
	s.recorder.RecordGeneration(string(modality), string(resp.Status))
	return resp, nil
}

// EnqueueJob registers a queued record and hands the request to the pool.
func (s *Service) EnqueueJob(_ context.Context, modality media.Modality, body *GenerateBody) (*job.Record, error) {
	id := uuid.NewString()
	req, err := ToRequest(modality, body, id)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.Create(id, modality)
	if err != nil {
		return nil, err
	}
	s.stats.jobsEnqueued.Add(1)
	s.recorder.RecordJob("enqueued")

	s.queue.Enqueue(job.New(id, req, s.onComplete(req)))
	s.recorder.SetQueueDepth(s.queue.Len())
	return rec, nil
}

// onComplete persists outputs and writes the terminal record. It recovers
// its own panics because a job's callback fires at most once.
func (s *Service) onComplete(req *media.Request) job.CompletionFunc {
	return func(resp *media.Response, runErr error) {
		defer s.recorder.SetQueueDepth(s.queue.Len())
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("job completion panicked", zap.String("job_id", req.ID), zap.Any("panic", r))
				if _, err := s.store.Complete(req.ID, nil, fmt.Errorf("completion failed: %v", r)); err == nil {
					s.stats.jobsFailed.Add(1)
					s.recorder.RecordJob("failed")
				}
			}
		}()

		if runErr == nil && resp != nil {
			s.persist(context.Background(), req, resp)
		}

		rec, err := s.store.Complete(req.ID, resp, runErr)
		if err != nil {
			s.logger.Warn("job record not updated", zap.String("job_id", req.ID), zap.Error(err))
			return
		}
		if rec.Status == job.StatusCompleted {
			s.stats.jobsCompleted.Add(1)
			s.recorder.RecordJob("completed")
		} else {
			s.stats.jobsFailed.Add(1)
			s.recorder.RecordJob("failed")
		}
	}
}

// GetJob returns a job record.
func (s *Service) GetJob(id string) (*job.Record, error) {
	return s.store.Get(id)
}

// persist runs hooks over raw outputs and replaces their bytes with a
// storage URL. Any failure fails the whole response.
func (s *Service) persist(ctx context.Context, req *media.Request, resp *media.Response) {
	if resp.Failed() {
		return
	}
	for i := range resp.Outputs {
		out := &resp.Outputs[i]
		if out.Raw == nil {
			continue
		}
		if err := s.persistOne(ctx, req, resp.ID, i, out); err != nil {
			s.logger.Warn("output persistence failed",
				zap.String("request_id", resp.ID),
				zap.Int("index", i),
				zap.Error(err))
			resp.Status = media.StatusFailed
			resp.Error = err.Error()
			resp.Err = err
			resp.Outputs = nil
			return
		}
	}
}

func (s *Service) persistOne(ctx context.Context, req *media.Request, id string, index int, out *media.Output) error {
	if err := s.hooks.ValidateOutput(out.Type, out.Raw, out.Metadata, req.SafetyLevel); err != nil {
		return err
	}
	data, metadata, err := s.hooks.ApplyWatermark(out.Type, out.Raw, out.Metadata, req.Watermark)
	if err != nil {
		return fmt.Errorf("apply watermark: %w", err)
	}

	url, err := s.storage.Put(ctx, id, out.Type, index, data, InferExtension(out.Type, metadata), s.ttl)
	if err != nil {
		return fmt.Errorf("store output: %w", err)
	}
	out.URL = url
	out.Raw = nil
	out.Metadata = metadata
	return nil
}

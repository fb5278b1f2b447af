package generation

import (
	"context"

	"github.com/omnimedia/server/internal/module/job"
	"github.com/omnimedia/server/internal/port/outbound"
)

// BackendHealth summarizes video generation readiness.
type BackendHealth struct {
	Backend                string                  `json:"backend"`
	BreakerState           string                  `json:"breaker_state,omitempty"`
	RealVideoBackendReady  bool                    `json:"real_video_backend_ready"`
	PlaceholderModeEnabled bool                    `json:"placeholder_mode_enabled"`
	StrictPromptGeneration bool                    `json:"strict_prompt_generation"`
	Provider               *outbound.ProviderProbe `json:"provider"`
}

// Diagnostics is a runtime snapshot.
type Diagnostics struct {
	Stats           map[string]int64   `json:"stats"`
	QueueDepth      int                `json:"queue_depth"`
	WorkerRunning   bool               `json:"worker_running"`
	Workers         int                `json:"workers"`
	JobCounts       map[job.Status]int `json:"job_counts"`
	SignedURLTTLSec int                `json:"signed_url_ttl_sec"`
	StorageAdapter  string             `json:"storage_adapter"`
	HooksAdapter    string             `json:"hooks_adapter"`
	VideoBackend    BackendHealth      `json:"video_backend"`
}

type breakerReporter interface {
	BreakerState() string
}

// Diagnostics reports counters, queue and worker state, adapters and
// backend health. It probes the external provider when one is configured.
func (s *Service) Diagnostics(ctx context.Context) *Diagnostics {
	return &Diagnostics{
		Stats: map[string]int64{
			"sync_total":     s.stats.syncTotal.Load(),
			"sync_completed": s.stats.syncCompleted.Load(),
			"sync_failed":    s.stats.syncFailed.Load(),
			"jobs_enqueued":  s.stats.jobsEnqueued.Load(),
			"jobs_completed": s.stats.jobsCompleted.Load(),
			"jobs_failed":    s.stats.jobsFailed.Load(),
		},
		QueueDepth:      s.queue.Len(),
		WorkerRunning:   s.pool.IsRunning(),
		Workers:         s.pool.Running(),
		JobCounts:       s.store.Counts(),
		SignedURLTTLSec: int(s.ttl.Seconds()),
		StorageAdapter:  s.storage.Name(),
		HooksAdapter:    s.hooks.Name(),
		VideoBackend:    s.backendHealth(ctx),
	}
}

func (s *Service) backendHealth(ctx context.Context) BackendHealth {
	h := BackendHealth{
		Backend:                s.orchestrator.BackendName(),
		PlaceholderModeEnabled: s.fallback.AllowPlaceholder,
		StrictPromptGeneration: !s.fallback.AllowPlaceholder,
		Provider:               &outbound.ProviderProbe{},
	}

	backend := s.orchestrator.Backend()
	backendReady := backend != nil
	if br, ok := backend.(breakerReporter); ok {
		h.BreakerState = br.BreakerState()
		backendReady = h.BreakerState != "open"
	}
	if s.provider != nil {
		h.Provider = s.provider.Probe(ctx)
	}
	h.RealVideoBackendReady = backendReady || h.Provider.Ready
	return h
}

package mediaprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/omnimedia/server/internal/module/media"
)

// maxResponseBytes bounds a backend reply.
const maxResponseBytes = 256 << 20

// BackendConfig configures the HTTP generation backend.
type BackendConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`

	// Breaker trips after this many consecutive failures.
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
	BreakerInterval time.Duration `mapstructure:"breaker_interval"`
}

// statusError is a non-2xx reply from the backend.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.code, e.body)
}

// transportError is a failure to reach or read from the backend.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// HTTPBackend implements media.Backend against a JSON generation service.
//
//	POST {base}/v1/images  -> {"images": [...]}
//	POST {base}/v1/videos  -> {"video": {...}}
type HTTPBackend struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[any]
	logger  *zap.Logger
}

// NewHTTPBackend creates a backend. The breaker only counts transport
// failures and 5xx replies.
func NewHTTPBackend(cfg *BackendConfig, client *http.Client, logger *zap.Logger) *HTTPBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = http.DefaultClient
	}
	name := cfg.Name
	if name == "" {
		name = "http"
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	interval := cfg.BreakerInterval
	if interval == 0 {
		interval = 60 * time.Second
	}

	logger = logger.Named("backend")
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isServerFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("backend breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &HTTPBackend{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
		breaker: breaker,
		logger:  logger,
	}
}

// Name returns the backend name.
func (b *HTTPBackend) Name() string {
	return b.name
}

// BreakerState exposes the breaker state for diagnostics.
func (b *HTTPBackend) BreakerState() string {
	return b.breaker.State().String()
}

type generateRequest struct {
	Model             string         `json:"model"`
	Prompt            string         `json:"prompt"`
	NegativePrompt    string         `json:"negative_prompt,omitempty"`
	Width             int            `json:"width"`
	Height            int            `json:"height"`
	NumImages         int            `json:"num_images,omitempty"`
	NumFrames         int            `json:"num_frames,omitempty"`
	FPS               int            `json:"fps,omitempty"`
	Seed              *int64         `json:"seed,omitempty"`
	GuidanceScale     float64        `json:"guidance_scale,omitempty"`
	NumInferenceSteps int            `json:"num_inference_steps,omitempty"`
	Options           map[string]any `json:"options,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

type imagesResponse struct {
	Images []media.Image `json:"images"`
}

type videoResponse struct {
	Video *media.Video `json:"video"`
}

// GenerateImages calls the image endpoint.
func (b *HTTPBackend) GenerateImages(ctx context.Context, profile *media.Profile, params *media.ImageParams) ([]media.Image, error) {
	body := &generateRequest{
		Model:             profile.Model,
		Prompt:            params.Prompt,
		NegativePrompt:    params.NegativePrompt,
		Width:             params.Width,
		Height:            params.Height,
		NumImages:         params.NumImages,
		Seed:              params.Seed,
		GuidanceScale:     params.GuidanceScale,
		NumInferenceSteps: params.NumInferenceSteps,
		Options:           profile.Options,
		Extra:             params.Extra,
	}

	var out imagesResponse
	if err := b.call(ctx, "/v1/images", body, &out); err != nil {
		return nil, err
	}
	if len(out.Images) == 0 {
		return nil, media.ErrNoOutput
	}
	return out.Images, nil
}

// GenerateVideo calls the video endpoint.
func (b *HTTPBackend) GenerateVideo(ctx context.Context, profile *media.Profile, params *media.VideoParams) (*media.Video, error) {
	body := &generateRequest{
		Model:             profile.Model,
		Prompt:            params.Prompt,
		NegativePrompt:    params.NegativePrompt,
		Width:             params.Width,
		Height:            params.Height,
		NumFrames:         params.NumFrames,
		FPS:               params.FPS,
		Seed:              params.Seed,
		GuidanceScale:     params.GuidanceScale,
		NumInferenceSteps: params.NumInferenceSteps,
		Options:           profile.Options,
		Extra:             params.Extra,
	}

	var out videoResponse
	if err := b.call(ctx, "/v1/videos", body, &out); err != nil {
		return nil, err
	}
	if out.Video == nil {
		return nil, media.ErrNoOutput
	}
	return out.Video, nil
}

// call runs one request through the breaker. Transport failures, 5xx replies
// and an open breaker wrap media.ErrBackendUnavailable.
func (b *HTTPBackend) call(ctx context.Context, path string, body any, out any) error {
	if b.baseURL == "" {
		return fmt.Errorf("%w: no base url configured", media.ErrBackendUnavailable)
	}

	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.do(ctx, path, body, out)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %v", media.ErrBackendUnavailable, b.name, err)
	}
	if isServerFailure(err) {
		b.logger.Warn("backend call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", media.ErrBackendUnavailable, err)
	}
	return err
}

func (b *HTTPBackend) do(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return &transportError{err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &transportError{err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: truncate(string(respBody), 200)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// isServerFailure reports whether err means the backend itself is unhealthy.
func isServerFailure(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	var te *transportError
	if errors.As(err, &te) {
		return !errors.Is(err, context.Canceled)
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ media.Backend = (*HTTPBackend)(nil)

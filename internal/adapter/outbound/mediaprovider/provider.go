package mediaprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omnimedia/server/internal/port/outbound"
)

// ErrProviderNotConfigured is returned when no provider URL is set.
var ErrProviderNotConfigured = errors.New("external video provider is not configured")

// ErrNoVideoURL is returned when the provider reply carries no clip URL.
var ErrNoVideoURL = errors.New("external provider did not return a usable video URL")

// ProviderConfig configures the external video provider.
type ProviderConfig struct {
	VideoURL     string        `mapstructure:"video_url"`
	HealthURL    string        `mapstructure:"health_url"`
	APIKey       string        `mapstructure:"api_key"`
	APIKeyHeader string        `mapstructure:"api_key_header"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// VideoProvider posts prompts to a third-party video service.
type VideoProvider struct {
	cfg    ProviderConfig
	client *http.Client
	logger *zap.Logger
}

// NewVideoProvider creates a provider client. A nil http client gets one with
// cfg.Timeout (default 90s).
func NewVideoProvider(cfg *ProviderConfig, client *http.Client, logger *zap.Logger) *VideoProvider {
	c := *cfg
	c.VideoURL = strings.TrimSpace(c.VideoURL)
	c.HealthURL = strings.TrimSpace(c.HealthURL)
	if c.APIKeyHeader == "" {
		c.APIKeyHeader = "x-api-key"
	}
	if c.Timeout == 0 {
		c.Timeout = 90 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoProvider{cfg: c, client: client, logger: logger.Named("video-provider")}
}

// Configured reports whether a video URL is set.
func (p *VideoProvider) Configured() bool {
	return p.cfg.VideoURL != ""
}

func (p *VideoProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set(p.cfg.APIKeyHeader, p.cfg.APIKey)
	}
}

// GenerateVideoURL submits the request and extracts the clip URL from
// video_url, output_url, url or outputs[0].url.
func (p *VideoProvider) GenerateVideoURL(ctx context.Context, in *outbound.VideoProviderRequest) (*outbound.VideoProviderResult, error) {
	if !p.Configured() {
		return nil, ErrProviderNotConfigured
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal provider request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.VideoURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create provider request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	raw := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decode provider response: %w", err)
		}
	}

	videoURL := extractURL(raw)
	if videoURL == "" {
		return nil, ErrNoVideoURL
	}
	return &outbound.VideoProviderResult{URL: videoURL, Raw: raw}, nil
}

func extractURL(raw map[string]any) string {
	for _, key := range []string{"video_url", "output_url", "url"} {
		if s, ok := raw[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	if outputs, ok := raw["outputs"].([]any); ok && len(outputs) > 0 {
		if first, ok := outputs[0].(map[string]any); ok {
			if s, ok := first["url"].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// Probe checks reachability. With a health URL it issues GET; otherwise it
// sends OPTIONS to the video URL and requires POST to be advertised.
func (p *VideoProvider) Probe(ctx context.Context) *outbound.ProviderProbe {
	if !p.Configured() {
		return &outbound.ProviderProbe{}
	}

	probe := &outbound.ProviderProbe{Configured: true, Target: p.cfg.HealthURL}
	method := http.MethodGet
	if p.cfg.HealthURL == "" {
		probe.Target = p.cfg.VideoURL
		u, err := url.Parse(p.cfg.VideoURL)
		if err != nil {
			probe.Error = err.Error()
			return probe
		}
		if strings.TrimSpace(u.Path) == "" || u.Path == "/" {
			probe.Error = "provider URL points to a base path; configure the generate endpoint"
			return probe
		}
		method = http.MethodOptions
	}
	probe.Method = method

	req, err := http.NewRequestWithContext(ctx, method, probe.Target, nil)
	if err != nil {
		probe.Error = err.Error()
		return probe
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("provider probe failed", zap.String("target", probe.Target), zap.Error(err))
		probe.Error = err.Error()
		return probe
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	methods := strings.ToUpper(resp.Header.Get("Allow") + "," + resp.Header.Get("Access-Control-Allow-Methods"))
	probe.HealthStatus = resp.StatusCode
	probe.HealthOK = resp.StatusCode >= 200 && resp.StatusCode < 300
	probe.SupportsPost = strings.Contains(methods, http.MethodPost)
	probe.Ready = probe.HealthOK && (p.cfg.HealthURL != "" || probe.SupportsPost)
	return probe
}

var _ outbound.VideoProviderPort = (*VideoProvider)(nil)

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omnimedia/server/internal/port/outbound"
)

// Rate limit buckets.
const (
	BucketDefault = "default"
	BucketImage   = "image"
	BucketVideo   = "video"
	BucketGIF     = "gif"
	BucketJobs    = "jobs"
	BucketAdmin   = "admin"
)

const anonymousRequester = "anonymous"

// BucketLimit is the number of requests allowed per window.
type BucketLimit struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// DefaultBucketLimits returns the built-in limits.
func DefaultBucketLimits() map[string]BucketLimit {
	minute := 60 * time.Second
	return map[string]BucketLimit{
		BucketDefault: {Limit: 60, Window: minute},
		BucketImage:   {Limit: 60, Window: minute},
		BucketVideo:   {Limit: 10, Window: minute},
		BucketGIF:     {Limit: 20, Window: minute},
		BucketJobs:    {Limit: 30, Window: minute},
		BucketAdmin:   {Limit: 30, Window: minute},
	}
}

// Admission is the outcome of an Admit call. Requester never holds a raw key.
type Admission struct {
	Requester string
	Bucket    string
	Limit     int
	Remaining int
	Window    time.Duration
}

// GateConfig configures a Gate.
type GateConfig struct {
	Auth    *APIKeyAuth
	Limiter outbound.RateLimiterPort
	Limits  map[string]BucketLimit
	Logger  *zap.Logger
}

// Gate authenticates callers and applies per-bucket rate limits.
type Gate struct {
	auth    *APIKeyAuth
	limiter outbound.RateLimiterPort
	limits  map[string]BucketLimit
	logger  *zap.Logger
}

// NewGate creates a gate. Missing pieces fall back to anonymous auth, an
// in-memory limiter and the default limits.
func NewGate(cfg *GateConfig) *Gate {
	g := &Gate{
		auth:    cfg.Auth,
		limiter: cfg.Limiter,
		limits:  DefaultBucketLimits(),
		logger:  cfg.Logger,
	}
	if g.auth == nil {
		g.auth = NewAPIKeyAuth(nil)
	}
	if g.limiter == nil {
		g.limiter = NewMemoryLimiter(nil)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	for name, l := range cfg.Limits {
		if l.Limit > 0 && l.Window > 0 {
			g.limits[name] = l
		}
	}
	return g
}

// Auth returns the key verifier.
func (g *Gate) Auth() *APIKeyAuth {
	return g.auth
}

// LimiterBackend names the limiter implementation.
func (g *Gate) LimiterBackend() string {
	return g.limiter.Backend()
}

// Limit returns the limit for a bucket, using the default bucket for unknown names.
func (g *Gate) Limit(bucket string) BucketLimit {
	if l, ok := g.limits[bucket]; ok {
		return l
	}
	return g.limits[BucketDefault]
}

// Limits returns a copy of the bucket table.
func (g *Gate) Limits() map[string]BucketLimit {
	out := make(map[string]BucketLimit, len(g.limits))
	for name, l := range g.limits {
		out[name] = l
	}
	return out
}

// Admit verifies the caller and consumes one slot in the bucket.
// Limiter failures are logged and the request is let through.
func (g *Gate) Admit(ctx context.Context, bucket string, headers http.Header) (*Admission, error) {
	key, err := g.auth.Verify(headers)
	if err != nil {
		return nil, err
	}

	requester := limiterIdentity(key, Requester(key, headers))
	limit := g.Limit(bucket)
	adm := &Admission{
		Requester: requester,
		Bucket:    bucket,
		Limit:     limit.Limit,
		Window:    limit.Window,
	}

	limiterKey := bucket + ":" + requester
	allowed, err := g.limiter.Allow(ctx, limiterKey, limit.Limit, limit.Window)
	if err != nil {
		g.logger.Warn("rate limiter unavailable, admitting request",
			zap.String("bucket", bucket),
			zap.String("backend", g.limiter.Backend()),
			zap.Error(err),
		)
		adm.Remaining = limit.Limit
		return adm, nil
	}
	if !allowed {
		return adm, fmt.Errorf("%w: %s", ErrRateLimited, bucket)
	}

	remaining, err := g.limiter.GetRemaining(ctx, limiterKey, limit.Limit, limit.Window)
	if err == nil {
		adm.Remaining = remaining
	}
	return adm, nil
}

// Requester identifies the caller: the API key when present, otherwise the
// first X-Forwarded-For hop, then X-Real-IP, then "anonymous".
func Requester(apiKey string, headers http.Header) string {
	if apiKey != "" {
		return apiKey
	}
	if fwd := headers.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(headers.Get("X-Real-IP")); real != "" {
		return real
	}
	return anonymousRequester
}

// limiterIdentity keeps raw keys out of the limiter's key space.
func limiterIdentity(apiKey, requester string) string {
	if apiKey != "" {
		return "key:" + HashAPIKey(apiKey)[:16]
	}
	return requester
}

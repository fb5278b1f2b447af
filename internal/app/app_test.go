package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnimedia/server/internal/adapter/outbound/localfs"
	"github.com/omnimedia/server/internal/adapter/outbound/mediaprovider"
	"github.com/omnimedia/server/internal/infra/httpclient"
	"github.com/omnimedia/server/internal/module/auth"
	"github.com/omnimedia/server/internal/module/job"
	"github.com/omnimedia/server/internal/module/media"
	"github.com/omnimedia/server/internal/shared/config"
)

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Address:         "127.0.0.1:0",
			Mode:            gin.TestMode,
			ShutdownTimeout: time.Second,
			CORSOrigins:     []string{"*"},
		},
		Log:          config.LogConfig{Level: "error", Format: "json"},
		Auth:         config.AuthConfig{Keys: []string{"test-key"}, RequireKeys: true},
		RateLimit:    config.RateLimitConfig{Backend: "memory", Buckets: auth.DefaultBucketLimits()},
		Worker:       job.Config{PollInterval: 10 * time.Millisecond, StopTimeout: time.Second, Concurrency: 1},
		Backend:      mediaprovider.BackendConfig{Name: "fake", BaseURL: backendURL},
		HTTPClient:   *httpclient.DefaultConfig(),
		Orchestrator: *media.DefaultConfig(),
		Storage: config.StorageConfig{
			Backend:      "local",
			SignedURLTTL: time.Minute,
			Local:        localfs.Config{Root: filepath.Join(dir, "media")},
		},
		Hooks:   *media.DefaultHooksConfig(),
		Audit:   config.AuditConfig{Enabled: true, Path: filepath.Join(dir, "audit", "audit.jsonl")},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"images": []media.Image{{Data: []byte("png-bytes"), Format: "png", Width: 64, Height: 64}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	require.NoError(t, a.Start())
	t.Cleanup(func() { _ = a.Stop() })
	return a
}

func serve(a *App, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func TestInitializeApp_Health(t *testing.T) {
	a := newTestApp(t, testConfig(t, ""))

	w := serve(a, http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestInitializeApp_ImageGeneration(t *testing.T) {
	backend := fakeBackend(t)
	a := newTestApp(t, testConfig(t, backend.URL))

	w := serve(a, http.MethodPost, "/v1/generate/image", `{"prompt":"a red fox in snow"}`,
		map[string]string{auth.APIKeyHeader: "test-key"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp media.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, media.StatusCompleted, resp.Status)
	require.Len(t, resp.Outputs, 1)
	assert.True(t, strings.HasPrefix(resp.Outputs[0].URL, "file://"))
	assert.Equal(t, true, resp.Outputs[0].Metadata["watermark_applied"])

	metrics := serve(a, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `omnimedia_generation_requests_total{modality="image",status="completed"} 1`)
	assert.Contains(t, metrics.Body.String(), "go_goroutines")
}

func TestInitializeApp_RequiresKey(t *testing.T) {
	a := newTestApp(t, testConfig(t, ""))

	w := serve(a, http.MethodPost, "/v1/generate/image", `{"prompt":"a red fox"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInitializeApp_VideoWithoutBackendFails(t *testing.T) {
	a := newTestApp(t, testConfig(t, ""))

	w := serve(a, http.MethodPost, "/v1/generate/video", `{"prompt":"a slow drone shot over a misty forest at dawn"}`,
		map[string]string{auth.APIKeyHeader: "test-key"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "placeholder_allowed")
}

func TestInitializeApp_BadStorageBackend(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Storage.Backend = "s3"

	_, _, err := InitializeApp(cfg)
	assert.Error(t, err)
}

package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnimedia/server/internal/module/media"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New("test", reg), reg
}

func TestNew(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.RecordHTTPRequest("GET", "/v1/health", 200, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// A second registration on the same registry must fail loudly.
	assert.Panics(t, func() { New("test", reg) })
}

func TestRecordHTTPRequest(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordHTTPRequest("POST", "/v1/generate/image", 200, 100*time.Millisecond)
	m.RecordHTTPRequest("POST", "/v1/generate/image", 201, 50*time.Millisecond)
	m.RecordHTTPRequest("POST", "/v1/generate/image", 429, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/generate/image", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/generate/image", "4xx")))
}

func TestObserveBackendCall(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveBackendCall(media.ModalityVideo, "video_default", 1.5, nil)
	m.ObserveBackendCall(media.ModalityVideo, "video_default", 0.1, fmt.Errorf("call: %w", media.ErrBackendUnavailable))
	m.ObserveBackendCall(media.ModalityImage, "image_hd", 0.2, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.BackendCallsTotal.WithLabelValues("video", "video_default", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BackendCallsTotal.WithLabelValues("video", "video_default", "backend_unavailable")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BackendCallsTotal.WithLabelValues("image", "image_hd", "internal")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.BackendCallDuration))
}

func TestGenerationRecorder(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveSceneCall("video_default")
	m.ObserveSceneCall("video_default")
	m.RecordGeneration("image", "completed")
	m.RecordGeneration("video", "rejected")
	m.RecordJob("enqueued")
	m.RecordJob("enqueued")
	m.RecordJob("failed")
	m.RecordFallback("placeholder")
	m.SetQueueDepth(4)
	m.SetQueueDepth(3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SceneCallsTotal.WithLabelValues("video_default")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("video", "rejected")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.JobsTotal.WithLabelValues("enqueued")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("placeholder")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.QueueDepth))
}

func TestRecordAdmission(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordAdmission("video", "admitted")
	m.RecordAdmission("video", "rate_limited")
	m.RecordAdmission("video", "rate_limited")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.AdmissionsTotal.WithLabelValues("video", "rate_limited")))
}

func TestStatusCodeToString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{429, "4xx"},
		{503, "5xx"},
		{100, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusCodeToString(tt.code))
		})
	}
}

package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	client := New(nil)

	assert.Equal(t, 120*time.Second, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 50, transport.MaxIdleConns)
	assert.Equal(t, 20, transport.MaxConnsPerHost)
	assert.True(t, transport.ForceAttemptHTTP2)
}

func TestNew_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResponseTimeout = 5 * time.Second
	cfg.MaxIdleConnsPerHost = 2

	client := New(cfg)

	assert.Equal(t, 5*time.Second, client.Timeout)
	transport := client.Transport.(*http.Transport)
	assert.Equal(t, 2, transport.MaxIdleConnsPerHost)
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingLimiter) AllowN(context.Context, string, int, int, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingLimiter) GetRemaining(context.Context, string, int, time.Duration) (int, error) {
	return 0, errors.New("connection refused")
}
func (failingLimiter) Backend() string { return "broken" }

func TestGenerateAPIKey(t *testing.T) {
	key, prefix, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, APIKeyPrefix))
	assert.Len(t, key, len(APIKeyPrefix)+APIKeyRandomLength)
	assert.Equal(t, key[:APIKeyPrefixDisplayLength], prefix)

	other, _, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
	assert.Len(t, HashAPIKey(key), 64)
}

func TestAPIKeyAuth_Verify(t *testing.T) {
	t.Run("anonymous when no keys", func(t *testing.T) {
		a := NewAPIKeyAuth(nil)
		key, err := a.Verify(http.Header{})
		require.NoError(t, err)
		assert.Empty(t, key)
		assert.Equal(t, "anonymous", a.Mode())
	})

	t.Run("locked when keys required but none set", func(t *testing.T) {
		a := NewAPIKeyAuth(&APIKeyConfig{Keys: []string{" "}, RequireKeys: true})
		_, err := a.Verify(header(APIKeyHeader, "anything"))
		assert.ErrorIs(t, err, ErrKeysRequired)
		assert.Equal(t, "locked", a.Mode())
	})

	t.Run("keys configured", func(t *testing.T) {
		a := NewAPIKeyAuth(&APIKeyConfig{Keys: []string{"alpha", "beta"}})
		assert.Equal(t, 2, a.KeyCount())
		assert.Equal(t, "api_key", a.Mode())

		_, err := a.Verify(http.Header{})
		assert.ErrorIs(t, err, ErrMissingKey)

		_, err = a.Verify(header(APIKeyHeader, "gamma"))
		assert.ErrorIs(t, err, ErrInvalidKey)

		key, err := a.Verify(header(APIKeyHeader, " beta "))
		require.NoError(t, err)
		assert.Equal(t, "beta", key)
	})
}

func TestIPAllowlist(t *testing.T) {
	l, invalid := NewIPAllowlist([]string{"10.0.0.0/8", "192.168.1.5", "bogus", "300.1.1.1/33"})
	assert.Equal(t, []string{"bogus", "300.1.1.1/33"}, invalid)

	assert.True(t, l.Allows("10.2.3.4"))
	assert.True(t, l.Allows("192.168.1.5:4431"))
	assert.False(t, l.Allows("192.168.1.6"))
	assert.False(t, l.Allows("not-an-ip"))

	empty, _ := NewIPAllowlist(nil)
	assert.True(t, empty.Empty())
	assert.True(t, empty.Allows("8.8.8.8"))
}

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("limits within window", func(t *testing.T) {
		clock := newFakeClock()
		l := NewMemoryLimiter(clock.Now)
		for i := 0; i < 3; i++ {
			ok, err := l.Allow(ctx, "k", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, _ := l.Allow(ctx, "k", 3, time.Minute)
		assert.False(t, ok)

		remaining, _ := l.GetRemaining(ctx, "k", 3, time.Minute)
		assert.Equal(t, 0, remaining)

		ok, _ = l.Allow(ctx, "other", 3, time.Minute)
		assert.True(t, ok, "keys are independent")
	})

	t.Run("event exactly at window edge still counts", func(t *testing.T) {
		clock := newFakeClock()
		l := NewMemoryLimiter(clock.Now)
		ok, _ := l.Allow(ctx, "k", 1, time.Minute)
		require.True(t, ok)

		clock.Advance(time.Minute)
		ok, _ = l.Allow(ctx, "k", 1, time.Minute)
		assert.False(t, ok)

		clock.Advance(time.Microsecond)
		ok, _ = l.Allow(ctx, "k", 1, time.Minute)
		assert.True(t, ok)
	})

	t.Run("rejected calls are not recorded", func(t *testing.T) {
		clock := newFakeClock()
		l := NewMemoryLimiter(clock.Now)
		ok, _ := l.AllowN(ctx, "k", 2, 2, time.Minute)
		require.True(t, ok)
		for i := 0; i < 5; i++ {
			ok, _ = l.Allow(ctx, "k", 2, time.Minute)
			assert.False(t, ok)
		}
		clock.Advance(61 * time.Second)
		remaining, _ := l.GetRemaining(ctx, "k", 2, time.Minute)
		assert.Equal(t, 2, remaining)
	})
}

func TestRequester(t *testing.T) {
	assert.Equal(t, "key-1", Requester("key-1", header("X-Forwarded-For", "1.1.1.1")))
	assert.Equal(t, "1.1.1.1", Requester("", header("X-Forwarded-For", " 1.1.1.1 , 2.2.2.2", "X-Real-IP", "3.3.3.3")))
	assert.Equal(t, "3.3.3.3", Requester("", header("X-Real-IP", "3.3.3.3")))
	assert.Equal(t, "anonymous", Requester("", http.Header{}))
}

func TestGate_Admit(t *testing.T) {
	ctx := context.Background()

	t.Run("applies bucket limits per requester", func(t *testing.T) {
		g := NewGate(&GateConfig{
			Limiter: NewMemoryLimiter(newFakeClock().Now),
			Limits:  map[string]BucketLimit{BucketVideo: {Limit: 2, Window: time.Minute}},
		})
		h := header("X-Real-IP", "9.9.9.9")

		adm, err := g.Admit(ctx, BucketVideo, h)
		require.NoError(t, err)
		assert.Equal(t, "9.9.9.9", adm.Requester)
		assert.Equal(t, 2, adm.Limit)
		assert.Equal(t, 1, adm.Remaining)

		_, err = g.Admit(ctx, BucketVideo, h)
		require.NoError(t, err)
		adm, err = g.Admit(ctx, BucketVideo, h)
		assert.ErrorIs(t, err, ErrRateLimited)
		require.NotNil(t, adm)
		assert.Equal(t, 0, adm.Remaining)

		_, err = g.Admit(ctx, BucketImage, h)
		assert.NoError(t, err, "buckets are independent")
		_, err = g.Admit(ctx, BucketVideo, header("X-Real-IP", "8.8.8.8"))
		assert.NoError(t, err, "requesters are independent")
	})

	t.Run("unknown bucket uses default limits", func(t *testing.T) {
		g := NewGate(&GateConfig{})
		assert.Equal(t, DefaultBucketLimits()[BucketDefault], g.Limit("mystery"))
		assert.Equal(t, 10, g.Limit(BucketVideo).Limit)
		assert.Equal(t, "memory", g.LimiterBackend())
	})

	t.Run("rejects bad key before limiting", func(t *testing.T) {
		g := NewGate(&GateConfig{Auth: NewAPIKeyAuth(&APIKeyConfig{Keys: []string{"secret"}})})
		_, err := g.Admit(ctx, BucketImage, http.Header{})
		assert.ErrorIs(t, err, ErrMissingKey)

		adm, err := g.Admit(ctx, BucketImage, header(APIKeyHeader, "secret"))
		require.NoError(t, err)
		assert.NotContains(t, adm.Requester, "secret")
		assert.True(t, strings.HasPrefix(adm.Requester, "key:"))
	})

	t.Run("limiter failure admits", func(t *testing.T) {
		g := NewGate(&GateConfig{Limiter: failingLimiter{}})
		adm, err := g.Admit(ctx, BucketGIF, http.Header{})
		require.NoError(t, err)
		assert.Equal(t, "anonymous", adm.Requester)
		assert.Equal(t, 20, adm.Remaining)
	})
}

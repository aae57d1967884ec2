package retrylimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, fastConfig(), func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: http.StatusBadGateway, Err: errors.New("bad gateway")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnFatal(t *testing.T) {
	calls := 0
	denied := errors.New("missing access")
	err := Do(context.Background(), nil, fastConfig(), func() error {
		calls++
		return &FatalError{Err: denied}
	})
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, 1, calls)
}

func TestDoGivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), nil, fastConfig(), func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialDelay = time.Hour
	cfg.MaxAttempts = 5

	err := Do(ctx, nil, cfg, func() error {
		cancel()
		return errors.New("again")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimiterAdjusts(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 8, 1, 0.5)
	assert.Equal(t, 4.0, lim.CurrentLimit())

	lim.Success()
	assert.Equal(t, 5.0, lim.CurrentLimit())

	lim.RateLimited()
	assert.Equal(t, 2.5, lim.CurrentLimit())

	// Recent overload blocks growth.
	lim.Success()
	assert.Equal(t, 2.5, lim.CurrentLimit())

	for i := 0; i < 5; i++ {
		lim.RateLimited()
	}
	assert.Equal(t, 1.0, lim.CurrentLimit())
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsRateLimited(&StatusError{Code: 429, Err: errors.New("x")}))
	assert.True(t, IsServerError(&StatusError{Code: 503, Err: errors.New("x")}))
	assert.False(t, IsServerError(errors.New("plain")))
}

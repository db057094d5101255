package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts, err := Config{
		URL:         "redis://:secret@cache.internal:6380/2",
		ReadTimeout: 2 * time.Second,
		DialTimeout: 4 * time.Second,
	}.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 2*time.Second, opts.ReadTimeout)
	assert.Equal(t, 4*time.Second, opts.DialTimeout)
}

func TestOptionsRejectsBadURL(t *testing.T) {
	_, err := Config{URL: "memcached://localhost:11211"}.Options()
	require.Error(t, err)
}

func TestNewFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Port 1 is reserved and nothing listens there.
	_, err := Config{URL: "redis://127.0.0.1:1/0", DialTimeout: 200 * time.Millisecond}.New(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

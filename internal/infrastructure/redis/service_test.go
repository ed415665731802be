package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceNotConfigured(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	assert.Nil(t, NewService())
}

func TestNewServiceUnreachable(t *testing.T) {
	t.Setenv("REDIS_URL", "127.0.0.1:1")
	assert.Nil(t, NewService())
}

func TestServiceRoundTrip(t *testing.T) {
	if os.Getenv("REDIS_URL") == "" {
		t.Skip("REDIS_URL not set")
	}
	svc := NewService()
	if svc == nil {
		t.Skip("redis unreachable")
	}
	defer svc.Close()

	ctx := context.Background()
	key := "qabot:test:" + time.Now().Format(time.RFC3339Nano)

	require.NoError(t, svc.Set(ctx, key, "value", time.Minute))
	got, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	require.NoError(t, svc.Delete(ctx, key))
	_, err = svc.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

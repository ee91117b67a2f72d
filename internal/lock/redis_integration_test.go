//go:build integration

package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })
	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb, err := NewRedisClient(addr, "", 0, zap.NewNop())
	require.NoError(t, err)
	defer rdb.Close()

	l := NewRedisLocker(rdb, time.Second, zap.NewNop())
	key := SessionKey(1, time.Now().Format("2006-01-02"))

	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	unlock2, err := l.Lock(context.Background(), key)
	require.NoError(t, err)
	unlock2()
}

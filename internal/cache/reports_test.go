package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Total string `json:"total"`
}

func newReports(t *testing.T) (*Reports, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute), mr
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("7f1b7a4e-2c1d-4b55-9d7e-1f2a3b4c5d6e")
	assert.Equal(t, "bookkeeping:report:7f1b7a4e-2c1d-4b55-9d7e-1f2a3b4c5d6e:trial-balance:v3", Key(id, 3, "trial-balance"))
	assert.Equal(t, "bookkeeping:report:7f1b7a4e-2c1d-4b55-9d7e-1f2a3b4c5d6e:statement:abc:v0", Key(id, 0, "statement", "abc"))
}

func TestFetchJSON_MissThenHit(t *testing.T) {
	c, mr := newReports(t)
	ctx := context.Background()
	key := Key(uuid.New(), 4, "pl")
	calls := 0
	load := func(context.Context) (any, int64, error) {
		calls++
		return payload{Total: "12.50"}, 4, nil
	}

	var first, second payload
	require.NoError(t, c.FetchJSON(ctx, key, 4, &first, load))
	require.NoError(t, c.FetchJSON(ctx, key, 4, &second, load))
	assert.Equal(t, "12.50", first.Total)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestFetchJSON_VersionRaceIsNotCached(t *testing.T) {
	c, mr := newReports(t)
	ctx := context.Background()
	key := Key(uuid.New(), 1, "bs")

	var got payload
	require.NoError(t, c.FetchJSON(ctx, key, 1, &got, func(context.Context) (any, int64, error) {
		return payload{Total: "newer"}, 2, nil
	}))
	assert.Equal(t, "newer", got.Total)
	assert.False(t, mr.Exists(key))
}

func TestFetchJSON_LoaderErrorIsReturned(t *testing.T) {
	c, mr := newReports(t)
	key := Key(uuid.New(), 1, "tb")
	boom := errors.New("boom")
	var got payload
	err := c.FetchJSON(context.Background(), key, 1, &got, func(context.Context) (any, int64, error) {
		return nil, 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(key))
}

func TestFetchJSON_ConcurrentMissesShareOneLoad(t *testing.T) {
	c, _ := newReports(t)
	ctx := context.Background()
	key := Key(uuid.New(), 9, "tb")
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (any, int64, error) {
		calls.Add(1)
		<-release
		return payload{Total: "1"}, 9, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got payload
			assert.NoError(t, c.FetchJSON(ctx, key, 9, &got, load))
			assert.Equal(t, "1", got.Total)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestFetchJSON_NilCacheCallsLoader(t *testing.T) {
	var c *Reports
	var got payload
	require.NoError(t, c.FetchJSON(context.Background(), "k", 1, &got, func(context.Context) (any, int64, error) {
		return payload{Total: "3"}, 1, nil
	}))
	assert.Equal(t, "3", got.Total)
	assert.NoError(t, c.Ready(context.Background()))
}

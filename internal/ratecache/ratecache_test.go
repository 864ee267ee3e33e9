package ratecache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type SharedMock struct {
	mock.Mock
}

func (m *SharedMock) GetWithTTL(ctx context.Context, key string, result any) (bool, time.Duration, error) {
	args := m.Called(ctx, key, result)
	if fill, ok := args.Get(3).(func(any)); ok && fill != nil {
		fill(result)
	}
	return args.Bool(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *SharedMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func TestGetOrRefresh_TTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(newNoopLogger(), nil).WithClock(clock.Now)
	ctx := context.Background()

	var calls int
	fetch := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v, err := GetOrRefresh(ctx, c, "rates", time.Hour, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(59 * time.Minute)
	v, err = GetOrRefresh(ctx, c, "rates", time.Hour, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "value is fresh inside ttl")

	clock.Advance(time.Minute)
	v, err = GetOrRefresh(ctx, c, "rates", time.Hour, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "value expires exactly at ttl")
	assert.Equal(t, 2, calls)
}

func TestGetOrRefresh_SingleFlight(t *testing.T) {
	c := New(newNoopLogger(), nil)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "fresh", nil
	}

	const callers = 20
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := GetOrRefresh(ctx, c, "rates", time.Hour, fetch)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "fresh", r)
	}
}

func TestGetOrRefresh_ErrorNotCached(t *testing.T) {
	c := New(newNoopLogger(), nil)
	ctx := context.Background()
	upstreamErr := errors.New("upstream down")

	_, err := GetOrRefresh(ctx, c, "rates", time.Hour, func(context.Context) (int, error) {
		return 0, upstreamErr
	})
	require.ErrorIs(t, err, upstreamErr)

	v, err := GetOrRefresh(ctx, c, "rates", time.Hour, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestGetOrRefresh_CallerCancelled(t *testing.T) {
	c := New(newNoopLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := GetOrRefresh(ctx, c, "rates", time.Hour, func(fctx context.Context) (int, error) {
			<-release
			assert.NoError(t, fctx.Err(), "refresh must not inherit caller cancellation")
			return 1, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	cancel()
	<-done
	close(release)

	require.Eventually(t, func() bool {
		_, ok := c.lookup("rates")
		return ok
	}, time.Second, time.Millisecond, "refresh finishes and fills the cache")
}

func TestGetOrRefresh_SharedHit(t *testing.T) {
	shared := new(SharedMock)
	c := New(newNoopLogger(), shared)

	shared.On("GetWithTTL", mock.Anything, "rates", mock.Anything).
		Return(true, 10*time.Minute, nil, func(dst any) { *(dst.(*string)) = "from-redis" }).Once()

	v, err := GetOrRefresh(context.Background(), c, "rates", time.Hour, func(context.Context) (string, error) {
		t.Fatal("fetch must not be called on shared hit")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from-redis", v)
	shared.AssertExpectations(t)
}

func TestGetOrRefresh_SharedMissWritesBack(t *testing.T) {
	shared := new(SharedMock)
	c := New(newNoopLogger(), shared)

	shared.On("GetWithTTL", mock.Anything, "rates", mock.Anything).
		Return(false, time.Duration(0), errors.New("redis down"), nil).Once()
	shared.On("Set", mock.Anything, "rates", "fetched", time.Hour).Return(nil).Once()

	v, err := GetOrRefresh(context.Background(), c, "rates", time.Hour, func(context.Context) (string, error) {
		return "fetched", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fetched", v)
	shared.AssertExpectations(t)
}

package rates

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bizfinance/internal/ratecache"
)

const upstreamBody = `{"result":"success","base_code":"KZT","time_last_update_unix":1700000000,
"rates":{"KZT":1,"USD":0.0021,"EUR":0.0019,"RUB":0.19}}`

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestService(url string) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, ratecache.New(log, nil), url, time.Hour, time.Second)
}

func TestService_Latest(t *testing.T) {
	srv, hits := newUpstream(t, http.StatusOK, upstreamBody)
	svc := newTestService(srv.URL)

	r, err := svc.Latest(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "KZT", r.Base)
	assert.Len(t, r.Rates, 4)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), r.UpdatedAt)

	filtered, err := svc.Latest(context.Background(), []string{"usd", " EUR", "XXX"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 0.0021, "EUR": 0.0019}, filtered.Rates)

	assert.Equal(t, int32(1), hits.Load())
}

func TestService_ConcurrentColdCache(t *testing.T) {
	srv, hits := newUpstream(t, http.StatusOK, upstreamBody)
	svc := newTestService(srv.URL)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Latest(context.Background(), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestService_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "bad status", status: http.StatusBadGateway, body: "oops"},
		{name: "bad json", status: http.StatusOK, body: "{"},
		{name: "error result", status: http.StatusOK, body: `{"result":"error","error-type":"unsupported-code"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := newUpstream(t, tt.status, tt.body)
			svc := newTestService(srv.URL)

			_, err := svc.Latest(context.Background(), nil)
			assert.ErrorIs(t, err, ErrUpstream)

			_, err = svc.Latest(context.Background(), nil)
			assert.ErrorIs(t, err, ErrUpstream)
			assert.Equal(t, int32(2), hits.Load(), "errors must not be cached")
		})
	}
}

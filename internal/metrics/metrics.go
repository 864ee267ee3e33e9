// Package metrics объявляет метрики Prometheus сервиса.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Причины отказа в доступе на этапах проверки запроса.
const (
	RejectUnauthenticated = "unauthenticated"
	RejectEntitlement     = "entitlement"
	RejectNotFound        = "not_found"
	RejectRateLimited     = "rate_limited"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bizfinance",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bizfinance",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// GateRejections отказы в доступе по причинам.
	GateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bizfinance",
		Name:      "gate_rejections_total",
		Help:      "Requests rejected before reaching business logic.",
	}, []string{"reason"})

	// RatesUpstreamCalls обращения к внешнему API курсов по результату.
	RatesUpstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bizfinance",
		Name:      "rates_upstream_calls_total",
		Help:      "Calls to the exchange rate upstream.",
	}, []string{"result"})

	// BillingEvents события биллинга по типу и результату обработки.
	BillingEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bizfinance",
		Name:      "billing_events_total",
		Help:      "Billing webhook events by type and outcome.",
	}, []string{"type", "result"})
)

// Middleware считает запросы и их длительность по шаблону маршрута chi.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(started).Seconds())
	})
}

// Package metrics держит собственный Prometheus-реестр шлюза: HTTP-метрики и метрики стора.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourname/share_lite/internal/models"
)

const namespace = "share"

// Metrics объединяет реестр и все коллекторы.
type Metrics struct {
	reg *prometheus.Registry

	inflight prometheus.Gauge
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	storeOps     *prometheus.CounterVec
	storeBytes   *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
	authFailures prometheus.Counter
}

// New создаёт реестр и регистрирует коллекторы.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of inflight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed, partitioned by status code and method.",
		}, []string{"code", "method"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of latencies for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "ops_total",
			Help:      "Total number of store operations by result.",
		}, []string{"op", "result"}),
		storeBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "bytes_total",
			Help:      "Total bytes written or served by the store.",
		}, []string{"op"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "op_duration_seconds",
			Help:      "Histogram of store operation durations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Number of uploads rejected because the token did not verify.",
		}),
	}

	m.reg.MustRegister(
		m.inflight, m.requests, m.latency,
		m.storeOps, m.storeBytes, m.storeLatency,
		m.authFailures,
	)

	return m
}

// Handler отдаёт метрики из внутреннего реестра.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry возвращает реестр, например для тестов.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Middleware считает inflight, количество и длительность запросов.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		m.requests.WithLabelValues(code, r.Method).Inc()
		m.latency.WithLabelValues(code, r.Method).Observe(time.Since(start).Seconds())
	})
}

// AuthFailure отмечает отклонённую подпись.
func (m *Metrics) AuthFailure() {
	m.authFailures.Inc()
}

// Observe реализует store.Observer.
func (m *Metrics) Observe(op string, bytes int64, err error, dur time.Duration) {
	m.storeOps.WithLabelValues(op, result(err)).Inc()
	if err == nil && bytes > 0 {
		m.storeBytes.WithLabelValues(op).Add(float64(bytes))
	}
	m.storeLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrExists):
		return "conflict"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrTooLarge):
		return "too_large"
	default:
		return "error"
	}
}

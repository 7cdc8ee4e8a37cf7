package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newMetrics(registry prometheus.Registerer) *metrics {
	m := &metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "controlescolar_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "controlescolar_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// middleware records every request by route pattern. Errors not yet rendered are rendered here so that their status is counted.
func (m *metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		if err := next(ctx); err != nil {
			ctx.Error(err)
		}

		path := ctx.Path()
		if path == "" {
			path = "unmatched"
		}
		method := ctx.Request().Method
		m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(ctx.Response().Status)).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return nil
	}
}

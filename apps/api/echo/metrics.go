package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Number of HTTP requests handled, by route and status code.",
	}, []string{"method", "route", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of the HTTP requests, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// metricsMiddleware records every request; routes are labeled by path template to bound cardinality.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)

		code := ctx.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		method := ctx.Request().Method
		route := ctx.Path()
		requestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
		requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

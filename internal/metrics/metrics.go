// Package metrics registers the Prometheus instruments and exposes record
// helpers so callers never touch the collectors directly.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once
	registerErr  error

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Auth flow metrics
	loginsTotal      *prometheus.CounterVec // result: ok|invalid_credentials|deactivated|error
	refreshesTotal   *prometheus.CounterVec // result: ok|invalid|revoked|expired|error
	otpIssuedTotal   *prometheus.CounterVec // purpose
	otpVerifiedTotal *prometheus.CounterVec // purpose, result: ok|invalid
	revocationsTotal *prometheus.CounterVec // reason: logout|logout_all|password_change|password_reset|email_change
	cleanupDeleted   *prometheus.CounterVec // kind: refresh_token|otp_challenge
)

// Register initializes the collectors against the given registerer (nil means
// the default one) and returns the handler for /metrics. Safe to call more
// than once; only the first call registers.
func Register(registry prometheus.Registerer) (http.Handler, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Password login attempts by result",
		}, []string{"result"})

		refreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refreshes_total",
			Help: "Refresh token rotations by result",
		}, []string{"result"})

		otpIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_otp_issued_total",
			Help: "One-time codes issued by purpose",
		}, []string{"purpose"})

		otpVerifiedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_otp_verified_total",
			Help: "One-time code verifications by purpose and result",
		}, []string{"purpose", "result"})

		revocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_revocations_total",
			Help: "Refresh tokens revoked by reason",
		}, []string{"reason"})

		cleanupDeleted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_cleanup_deleted_total",
			Help: "Rows removed by the cleanup sweeper by kind",
		}, []string{"kind"})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration,
			loginsTotal, refreshesTotal,
			otpIssuedTotal, otpVerifiedTotal,
			revocationsTotal, cleanupDeleted,
		} {
			if err := registerCollector(registry, c); err != nil {
				registerErr = err
				return
			}
		}
	})
	if registerErr != nil {
		return nil, registerErr
	}

	return promhttp.Handler(), nil
}

func registerCollector(registry prometheus.Registerer, c prometheus.Collector) error {
	err := registry.Register(c)
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return nil
	}
	return err
}

// ─── record helpers ───

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordLogin(result string) {
	if loginsTotal != nil {
		loginsTotal.WithLabelValues(result).Inc()
	}
}

func RecordRefresh(result string) {
	if refreshesTotal != nil {
		refreshesTotal.WithLabelValues(result).Inc()
	}
}

func RecordOtpIssued(purpose string) {
	if otpIssuedTotal != nil {
		otpIssuedTotal.WithLabelValues(purpose).Inc()
	}
}

func RecordOtpVerified(purpose, result string) {
	if otpVerifiedTotal != nil {
		otpVerifiedTotal.WithLabelValues(purpose, result).Inc()
	}
}

func RecordRevocations(reason string, n int) {
	if revocationsTotal != nil && n > 0 {
		revocationsTotal.WithLabelValues(reason).Add(float64(n))
	}
}

func RecordCleanup(kind string, n int) {
	if cleanupDeleted != nil && n > 0 {
		cleanupDeleted.WithLabelValues(kind).Add(float64(n))
	}
}

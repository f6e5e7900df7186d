package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	TwoFATogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twofa_toggles_total",
			Help: "Total number of 2FA state changes, by resulting state.",
		},
		[]string{"state"},
	)

	TwoFAVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twofa_verifications_total",
			Help: "Total number of submitted 2FA codes, by outcome.",
		},
		[]string{"result"},
	)
)

// MustRegister adds every collector to reg. Counters work unregistered, so
// tests never need to call it.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		AuthLoginsTotal,
		TwoFATogglesTotal,
		TwoFAVerificationsTotal,
	)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// AuthMetrics counts login outcomes and gate rejections.
type AuthMetrics struct {
	logins   *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_gate_redirects_total",
		Help: "Requests redirected to login by the gate.",
	}, []string{"reason"})
	reg.MustRegister(logins, rejected)
	return &AuthMetrics{logins: logins, rejected: rejected}
}

// IncLogin records a login outcome such as "success" or "forbidden".
func (m *AuthMetrics) IncLogin(outcome string) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncGateRedirect records why a request was bounced to the login page.
func (m *AuthMetrics) IncGateRedirect(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

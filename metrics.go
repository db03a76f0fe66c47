package authcore

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricSignupSuccess counts accounts created.
	MetricSignupSuccess MetricID = iota
	// MetricSignupDuplicate counts signups rejected for an email in use.
	MetricSignupDuplicate
	// MetricSignupFailure counts signups that failed for any other reason.
	MetricSignupFailure
	// MetricVerificationSuccess counts accounts flipped to verified.
	MetricVerificationSuccess
	// MetricVerificationFailure counts mismatched or expired secrets.
	MetricVerificationFailure
	// MetricVerificationAttemptsExceeded counts exhausted attempt budgets.
	MetricVerificationAttemptsExceeded
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure
	// MetricRefreshSuccess counts successful rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh attempts.
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts reuse signals (mass revokes).
	MetricRefreshReuseDetected
	// MetricLogout counts single-token revocations.
	MetricLogout
	// MetricLogoutAll counts whole-account revocations.
	MetricLogoutAll
	// MetricMailSent counts delivered verification messages.
	MetricMailSent
	// MetricMailFailure counts failed deliveries.
	MetricMailFailure

	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricSignupSuccess:                "signup_success",
	MetricSignupDuplicate:              "signup_duplicate",
	MetricSignupFailure:                "signup_failure",
	MetricVerificationSuccess:          "verification_success",
	MetricVerificationFailure:          "verification_failure",
	MetricVerificationAttemptsExceeded: "verification_attempts_exceeded",
	MetricLoginSuccess:                 "login_success",
	MetricLoginFailure:                 "login_failure",
	MetricRefreshSuccess:               "refresh_success",
	MetricRefreshFailure:               "refresh_failure",
	MetricRefreshReuseDetected:         "refresh_reuse_detected",
	MetricLogout:                       "logout",
	MetricLogoutAll:                    "logout_all",
	MetricMailSent:                     "mail_sent",
	MetricMailFailure:                  "mail_failure",
}

// Name returns the stable export name for the metric.
func (id MetricID) Name() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// MetricIDs returns every defined metric id, in declaration order.
func MetricIDs() []MetricID {
	ids := make([]MetricID, 0, metricIDCount)
	for id := MetricID(0); id < metricIDCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic flow counters. All operations are no-ops when
// the instance is nil or disabled, so callers never branch.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics instance.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot deep-copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}

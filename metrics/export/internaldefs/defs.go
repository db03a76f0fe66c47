// Package internaldefs carries the shared export-name table for the
// metrics exporters. It exists so the otel and prometheus exporters
// render identical metric names and help texts.
package internaldefs

import (
	authcore "github.com/ethrane/authcore"
)

// CounterDef binds a core counter to its stable export name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter, in declaration order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricSignupSuccess, Name: "authcore_signup_success_total", Help: "Accounts created."},
	{ID: authcore.MetricSignupDuplicate, Name: "authcore_signup_duplicate_total", Help: "Signups rejected for an email already in use."},
	{ID: authcore.MetricSignupFailure, Name: "authcore_signup_failure_total", Help: "Signups failed for any other reason."},
	{ID: authcore.MetricVerificationSuccess, Name: "authcore_verification_success_total", Help: "Accounts flipped to verified."},
	{ID: authcore.MetricVerificationFailure, Name: "authcore_verification_failure_total", Help: "Mismatched or expired verification secrets."},
	{ID: authcore.MetricVerificationAttemptsExceeded, Name: "authcore_verification_attempts_exceeded_total", Help: "Verification challenges invalidated due to attempt cap."},
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful logins."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Rejected logins."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh-token rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Rejected refresh attempts."},
	{ID: authcore.MetricRefreshReuseDetected, Name: "authcore_refresh_reuse_detected_total", Help: "Detected refresh-token reuses."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Single-session logout operations."},
	{ID: authcore.MetricLogoutAll, Name: "authcore_logout_all_total", Help: "Logout-all operations."},
	{ID: authcore.MetricMailSent, Name: "authcore_mail_sent_total", Help: "Delivered verification messages."},
	{ID: authcore.MetricMailFailure, Name: "authcore_mail_failure_total", Help: "Failed message deliveries."},
}

// AuditDroppedName is the export name of the audit back-pressure counter.
const AuditDroppedName = "authcore_audit_dropped_total"

// AuditDroppedHelp documents the audit back-pressure counter.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

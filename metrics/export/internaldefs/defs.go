package internaldefs

import (
	dmsclient "github.com/MrEthical07/dmsclient"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   dmsclient.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   dmsclient.MetricID
	Name string
	Help string
}

// EventsDroppedName is the counter of session events dropped under
// back-pressure.
const (
	EventsDroppedName = "dmsclient_events_dropped_total"
	EventsDroppedHelp = "Session events dropped due to dispatcher backpressure."
)

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: dmsclient.MetricRequestSuccess, Name: "dmsclient_request_success_total", Help: "Requests that completed without error."},
	{ID: dmsclient.MetricRequestBusiness, Name: "dmsclient_request_business_error_total", Help: "Requests the backend rejected with success:false."},
	{ID: dmsclient.MetricRequestUnauthorized, Name: "dmsclient_request_unauthorized_total", Help: "Requests answered with HTTP 401."},
	{ID: dmsclient.MetricRequestForbidden, Name: "dmsclient_request_forbidden_total", Help: "Requests answered with HTTP 403."},
	{ID: dmsclient.MetricRequestNotFound, Name: "dmsclient_request_not_found_total", Help: "Requests answered with HTTP 404."},
	{ID: dmsclient.MetricRequestServer, Name: "dmsclient_request_server_error_total", Help: "Requests answered with HTTP 500."},
	{ID: dmsclient.MetricRequestHTTP, Name: "dmsclient_request_http_error_total", Help: "Requests answered with another HTTP error status."},
	{ID: dmsclient.MetricRequestNetwork, Name: "dmsclient_request_network_error_total", Help: "Requests that received no response."},
	{ID: dmsclient.MetricLoginSuccess, Name: "dmsclient_login_success_total", Help: "Successful logins."},
	{ID: dmsclient.MetricLoginFailure, Name: "dmsclient_login_failure_total", Help: "Failed logins."},
	{ID: dmsclient.MetricLogout, Name: "dmsclient_logout_total", Help: "Logouts."},
	{ID: dmsclient.MetricSessionRestored, Name: "dmsclient_session_restored_total", Help: "Sessions restored from a persisted token."},
	{ID: dmsclient.MetricSessionCleared, Name: "dmsclient_session_cleared_total", Help: "Sessions cleared without logout."},
	{ID: dmsclient.MetricRefreshSuccess, Name: "dmsclient_refresh_success_total", Help: "Successful token refreshes."},
	{ID: dmsclient.MetricRefreshFailure, Name: "dmsclient_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: dmsclient.MetricProfileUpdated, Name: "dmsclient_profile_updated_total", Help: "Profile updates."},
	{ID: dmsclient.MetricPasswordChanged, Name: "dmsclient_password_changed_total", Help: "Password changes."},
	{ID: dmsclient.MetricRefreshScheduled, Name: "dmsclient_refresh_scheduled_total", Help: "Refresh timers armed by the freshness monitor."},
	{ID: dmsclient.MetricRefreshImmediate, Name: "dmsclient_refresh_immediate_total", Help: "Refreshes started at once because the token was near expiry."},
	{ID: dmsclient.MetricRefreshTimerFired, Name: "dmsclient_refresh_timer_fired_total", Help: "Refreshes started by a timer."},
	{ID: dmsclient.MetricNavigationAllowed, Name: "dmsclient_navigation_allowed_total", Help: "Navigations that reached the requested route."},
	{ID: dmsclient.MetricNavigationRedirected, Name: "dmsclient_navigation_redirected_total", Help: "Navigations that settled on another route."},
	{ID: dmsclient.MetricNavigationLoginRequired, Name: "dmsclient_navigation_login_required_total", Help: "Navigations sent to the login route."},
	{ID: dmsclient.MetricNavigationAdminDenied, Name: "dmsclient_navigation_admin_denied_total", Help: "Admin routes denied to non-admins."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: dmsclient.MetricRequestLatency, Name: "dmsclient_request_latency_seconds", Help: "Request latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

package dmsclient

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/dmsclient/navigation"
	"github.com/MrEthical07/dmsclient/refresh"
	"github.com/MrEthical07/dmsclient/session"
	"github.com/MrEthical07/dmsclient/transport"
)

// MetricID identifies one counter or histogram.
type MetricID uint16

const (
	// MetricRequestSuccess counts exchanges that completed without error.
	MetricRequestSuccess MetricID = iota
	// MetricRequestBusiness counts success:false replies.
	MetricRequestBusiness
	// MetricRequestUnauthorized counts HTTP 401 replies.
	MetricRequestUnauthorized
	// MetricRequestForbidden counts HTTP 403 replies.
	MetricRequestForbidden
	// MetricRequestNotFound counts HTTP 404 replies.
	MetricRequestNotFound
	// MetricRequestServer counts HTTP 500 replies.
	MetricRequestServer
	// MetricRequestHTTP counts other HTTP error statuses.
	MetricRequestHTTP
	// MetricRequestNetwork counts exchanges with no response.
	MetricRequestNetwork
	MetricLoginSuccess
	MetricLoginFailure
	MetricLogout
	MetricSessionRestored
	MetricSessionCleared
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricProfileUpdated
	MetricPasswordChanged
	// MetricRefreshScheduled counts timers armed by the freshness monitor.
	MetricRefreshScheduled
	// MetricRefreshImmediate counts refreshes started on arm because the
	// token was already inside the threshold.
	MetricRefreshImmediate
	// MetricRefreshTimerFired counts refreshes started by a timer.
	MetricRefreshTimerFired
	MetricNavigationAllowed
	// MetricNavigationRedirected counts navigations that settled somewhere
	// other than the requested route.
	MetricNavigationRedirected
	MetricNavigationLoginRequired
	MetricNavigationAdminDenied
	// MetricRequestLatency is the request latency histogram.
	MetricRequestLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a set of lock-free counters fed by the transport, the session
// store, the freshness monitor and the navigator. A nil or disabled Metrics
// records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	m.add(id, 1)
}

func (m *Metrics) add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records d in the histogram of id. Only MetricRequestLatency has a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricRequestLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricRequestLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}

var (
	_ transport.Observer  = (*Metrics)(nil)
	_ refresh.Observer    = (*Metrics)(nil)
	_ navigation.Observer = (*Metrics)(nil)
	_ session.EventSink   = (*Metrics)(nil)
)

var kindMetrics = map[transport.Kind]MetricID{
	transport.KindBusiness:     MetricRequestBusiness,
	transport.KindUnauthorized: MetricRequestUnauthorized,
	transport.KindForbidden:    MetricRequestForbidden,
	transport.KindNotFound:     MetricRequestNotFound,
	transport.KindServer:       MetricRequestServer,
	transport.KindHTTP:         MetricRequestHTTP,
	transport.KindNetwork:      MetricRequestNetwork,
}

// ObserveRequest implements transport.Observer.
func (m *Metrics) ObserveRequest(_ string, _ int, err *transport.APIError, elapsed time.Duration) {
	m.Observe(MetricRequestLatency, elapsed)
	if err == nil {
		m.Inc(MetricRequestSuccess)
		return
	}
	if id, ok := kindMetrics[err.Kind]; ok {
		m.Inc(id)
		return
	}
	m.Inc(MetricRequestHTTP)
}

// ObserveSchedule implements refresh.Observer.
func (m *Metrics) ObserveSchedule(state refresh.State, _ time.Duration) {
	if state == refresh.StateScheduled {
		m.Inc(MetricRefreshScheduled)
	}
}

// ObserveRefresh implements refresh.Observer. Outcomes are counted from
// session events; this only records what started the refresh.
func (m *Metrics) ObserveRefresh(trigger refresh.Trigger, _ bool) {
	switch trigger {
	case refresh.TriggerImmediate:
		m.Inc(MetricRefreshImmediate)
	case refresh.TriggerTimer:
		m.Inc(MetricRefreshTimerFired)
	}
}

// ObserveNavigation implements navigation.Observer.
func (m *Metrics) ObserveNavigation(_ navigation.Location, redirects int, cause navigation.Cause) {
	if redirects == 0 {
		m.Inc(MetricNavigationAllowed)
		return
	}
	m.Inc(MetricNavigationRedirected)
	switch cause {
	case navigation.CauseNoToken, navigation.CauseUserUnavailable:
		m.Inc(MetricNavigationLoginRequired)
	case navigation.CauseNotAdmin:
		m.Inc(MetricNavigationAdminDenied)
	}
}

var eventMetrics = map[session.EventType]MetricID{
	session.EventLogin:        MetricLoginSuccess,
	session.EventLoginFailed:  MetricLoginFailure,
	session.EventLogout:       MetricLogout,
	session.EventRestore:      MetricSessionRestored,
	session.EventCleared:      MetricSessionCleared,
	session.EventRefresh:      MetricRefreshSuccess,
	session.EventRefreshError: MetricRefreshFailure,
	session.EventProfile:      MetricProfileUpdated,
	session.EventPassword:     MetricPasswordChanged,
}

// Emit implements session.EventSink.
func (m *Metrics) Emit(_ context.Context, ev session.Event) {
	if id, ok := eventMetrics[ev.Type]; ok {
		m.Inc(id)
	}
}

package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	dmsclient "github.com/MrEthical07/dmsclient"
	"github.com/MrEthical07/dmsclient/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() dmsclient.MetricsSnapshot
	EventsDropped() uint64
	NextRefresh() (time.Time, bool)
}

// member is one counter of a family, told apart by an attribute value.
type member struct {
	id    dmsclient.MetricID
	value string
}

// family groups related counters under one instrument with one attribute
// key, the way OTel models a labelled counter.
type family struct {
	name   string
	desc   string
	key    string
	values []member
}

var families = []family{
	{
		name: "dmsclient.requests",
		desc: "Backend requests by outcome.",
		key:  "outcome",
		values: []member{
			{dmsclient.MetricRequestSuccess, "success"},
			{dmsclient.MetricRequestBusiness, "business"},
			{dmsclient.MetricRequestUnauthorized, "unauthorized"},
			{dmsclient.MetricRequestForbidden, "forbidden"},
			{dmsclient.MetricRequestNotFound, "not_found"},
			{dmsclient.MetricRequestServer, "server"},
			{dmsclient.MetricRequestHTTP, "http"},
			{dmsclient.MetricRequestNetwork, "network"},
		},
	},
	{
		name: "dmsclient.session.events",
		desc: "Session state changes by event.",
		key:  "event",
		values: []member{
			{dmsclient.MetricLoginSuccess, "login"},
			{dmsclient.MetricLoginFailure, "login_failed"},
			{dmsclient.MetricLogout, "logout"},
			{dmsclient.MetricSessionRestored, "restored"},
			{dmsclient.MetricSessionCleared, "cleared"},
			{dmsclient.MetricRefreshSuccess, "refresh"},
			{dmsclient.MetricRefreshFailure, "refresh_failed"},
			{dmsclient.MetricProfileUpdated, "profile_updated"},
			{dmsclient.MetricPasswordChanged, "password_changed"},
		},
	},
	{
		name: "dmsclient.refresh.monitor",
		desc: "Freshness monitor actions.",
		key:  "action",
		values: []member{
			{dmsclient.MetricRefreshScheduled, "scheduled"},
			{dmsclient.MetricRefreshImmediate, "immediate"},
			{dmsclient.MetricRefreshTimerFired, "timer_fired"},
		},
	},
	{
		name: "dmsclient.navigations",
		desc: "Guarded navigations by result.",
		key:  "result",
		values: []member{
			{dmsclient.MetricNavigationAllowed, "allowed"},
			{dmsclient.MetricNavigationRedirected, "redirected"},
			{dmsclient.MetricNavigationLoginRequired, "login_required"},
			{dmsclient.MetricNavigationAdminDenied, "admin_denied"},
		},
	},
}

type observedFamily struct {
	instrument metric.Int64ObservableCounter
	ids        []dmsclient.MetricID
	attrs      []metric.ObserveOption
}

// Exporter publishes a client's counters, its latency buckets and the
// freshness monitor's schedule through one OTel callback.
type Exporter struct {
	source       metricsSource
	now          func() time.Time
	registration metric.Registration

	families []observedFamily

	latencyBuckets metric.Int64ObservableGauge
	latencyCount   metric.Int64ObservableGauge
	bucketAttrs    []metric.ObserveOption

	dropped        metric.Int64ObservableCounter
	refreshPending metric.Int64ObservableGauge
	refreshDueIn   metric.Float64ObservableGauge
}

// NewExporter registers instruments on meter that read from client.
func NewExporter(meter metric.Meter, client *dmsclient.Client) (*Exporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, client)
}

// NewExporterFromSource is NewExporter for any snapshot source.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source, now: time.Now}
	var observables []metric.Observable

	for _, f := range families {
		ins, err := meter.Int64ObservableCounter(f.name, metric.WithDescription(f.desc))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", f.name, err)
		}
		of := observedFamily{instrument: ins}
		for _, m := range f.values {
			of.ids = append(of.ids, m.id)
			of.attrs = append(of.attrs, metric.WithAttributeSet(attribute.NewSet(attribute.String(f.key, m.value))))
		}
		e.families = append(e.families, of)
		observables = append(observables, ins)
	}

	var err error
	e.latencyBuckets, err = meter.Int64ObservableGauge("dmsclient.request.latency.bucket",
		metric.WithDescription("Cumulative request count at or below each latency bound."),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, fmt.Errorf("create latency buckets: %w", err)
	}
	e.latencyCount, err = meter.Int64ObservableGauge("dmsclient.request.latency.count",
		metric.WithDescription("Requests recorded in the latency histogram."),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, fmt.Errorf("create latency count: %w", err)
	}
	for _, le := range internaldefs.HistogramUpperBounds {
		e.bucketAttrs = append(e.bucketAttrs, leAttr(strconv.FormatFloat(le, 'g', -1, 64)))
	}
	e.bucketAttrs = append(e.bucketAttrs, leAttr("+Inf"))

	e.dropped, err = meter.Int64ObservableCounter("dmsclient.events.dropped",
		metric.WithDescription(internaldefs.EventsDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create events dropped counter: %w", err)
	}
	e.refreshPending, err = meter.Int64ObservableGauge("dmsclient.refresh.scheduled",
		metric.WithDescription("1 while a token refresh is scheduled, else 0."))
	if err != nil {
		return nil, fmt.Errorf("create refresh scheduled gauge: %w", err)
	}
	e.refreshDueIn, err = meter.Float64ObservableGauge("dmsclient.refresh.due_in",
		metric.WithDescription("Seconds until the scheduled token refresh."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create refresh due gauge: %w", err)
	}
	observables = append(observables, e.latencyBuckets, e.latencyCount, e.dropped, e.refreshPending, e.refreshDueIn)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func leAttr(le string) metric.ObserveOption {
	return metric.WithAttributeSet(attribute.NewSet(attribute.String("le", le)))
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, f := range e.families {
		for i, id := range f.ids {
			o.ObserveInt64(f.instrument, int64(snapshot.Counters[id]), f.attrs[i])
		}
	}

	if raw, ok := snapshot.Histograms[dmsclient.MetricRequestLatency]; ok {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, n := range cumulative {
			o.ObserveInt64(e.latencyBuckets, int64(n), e.bucketAttrs[i])
		}
		o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.dropped, int64(e.source.EventsDropped()))

	if due, ok := e.source.NextRefresh(); ok {
		o.ObserveInt64(e.refreshPending, 1)
		o.ObserveFloat64(e.refreshDueIn, max(due.Sub(e.now()).Seconds(), 0))
	} else {
		o.ObserveInt64(e.refreshPending, 0)
	}
	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

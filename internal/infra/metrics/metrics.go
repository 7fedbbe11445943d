// Package metrics exposes the bot's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "surveybot"

// Recorder holds every counter the bot reports. A nil *Recorder is valid and
// records nothing, so services can be built without metrics in tests.
type Recorder struct {
	inboundTotal    *prometheus.CounterVec
	supersededTotal prometheus.Counter
	turnsTotal      *prometheus.CounterVec
	completedTotal  prometheus.Counter
	sinkWritesTotal *prometheus.CounterVec
	outboundTotal   *prometheus.CounterVec
	pendingTurns    prometheus.Gauge
}

// NewRecorder registers the counters on reg. Passing a fresh registry per
// test avoids duplicate registration panics.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		inboundTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inbound_messages_total",
				Help:      "Inbound messages accepted from the channel, by provider",
			},
			[]string{"provider"},
		),
		supersededTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "debounce_superseded_total",
				Help:      "Pending turns replaced by a newer message before the debounce timer fired",
			},
		),
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "State machine turns by outcome",
			},
			[]string{"outcome"},
		),
		completedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "surveys_completed_total",
				Help:      "Surveys answered to the last question",
			},
		),
		sinkWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_writes_total",
				Help:      "Completed survey writes by sink and status",
			},
			[]string{"sink", "status"},
		),
		outboundTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbound_messages_total",
				Help:      "Messages sent to contacts by status",
			},
			[]string{"status"},
		),
		pendingTurns: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "debounce_pending_turns",
				Help:      "Contacts with a turn waiting on the debounce timer",
			},
		),
	}
}

func (r *Recorder) IncInbound(provider string) {
	if r == nil {
		return
	}
	r.inboundTotal.WithLabelValues(provider).Inc()
}

func (r *Recorder) IncSuperseded() {
	if r == nil {
		return
	}
	r.supersededTotal.Inc()
}

// SetPending reports how many contacts currently have a debounced turn.
func (r *Recorder) SetPending(n int) {
	if r == nil {
		return
	}
	r.pendingTurns.Set(float64(n))
}

// IncTurn counts one state machine turn. Outcomes are short labels such as
// "ignored", "activated", "answered", "invalid", "exit" or "completed".
func (r *Recorder) IncTurn(outcome string) {
	if r == nil {
		return
	}
	r.turnsTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) IncCompleted() {
	if r == nil {
		return
	}
	r.completedTotal.Inc()
}

func (r *Recorder) ObserveSinkWrite(sink string, err error) {
	if r == nil {
		return
	}
	r.sinkWritesTotal.WithLabelValues(sink, status(err)).Inc()
}

func (r *Recorder) ObserveOutbound(err error) {
	if r == nil {
		return
	}
	r.outboundTotal.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums every sample of the named family whose labels include
// the given pairs.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	samples:
		for _, m := range mf.GetMetric() {
			for k, v := range labels {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
					}
				}
				if !found {
					continue samples
				}
			}
			if m.GetCounter() != nil {
				total += m.GetCounter().GetValue()
			}
			if m.GetGauge() != nil {
				total += m.GetGauge().GetValue()
			}
		}
	}
	return total
}

func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.IncInbound("meta")
	r.IncInbound("meta")
	r.IncSuperseded()
	r.SetPending(3)
	r.IncTurn("answered")
	r.IncCompleted()
	r.ObserveSinkWrite("csv", nil)
	r.ObserveSinkWrite("remote", errors.New("boom"))
	r.ObserveOutbound(nil)

	assert.Equal(t, 2.0, counterValue(t, reg, "surveybot_inbound_messages_total", map[string]string{"provider": "meta"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "surveybot_debounce_superseded_total", nil))
	assert.Equal(t, 3.0, counterValue(t, reg, "surveybot_debounce_pending_turns", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "surveybot_turns_total", map[string]string{"outcome": "answered"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "surveybot_surveys_completed_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "surveybot_sink_writes_total", map[string]string{"sink": "csv", "status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "surveybot_sink_writes_total", map[string]string{"sink": "remote", "status": "error"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "surveybot_outbound_messages_total", map[string]string{"status": "success"}))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.IncInbound("meta")
		r.IncSuperseded()
		r.SetPending(1)
		r.IncTurn("ignored")
		r.IncCompleted()
		r.ObserveSinkWrite("csv", nil)
		r.ObserveOutbound(errors.New("x"))
	})
}

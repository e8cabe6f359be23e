package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { Register(reg) })

	EngineEventsTotal.WithLabelValues("file-loaded").Inc()
	SeekCommitsTotal.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "mpvbridge_engine_events_total")
	assert.Contains(t, names, "mpvbridge_seek_commits_total")

	assert.Panics(t, func() { Register(reg) }, "double registration must fail")
}

func TestCounterLabels(t *testing.T) {
	before := testutil.ToFloat64(EngineCommandsTotal.WithLabelValues("loadfile"))
	EngineCommandsTotal.WithLabelValues("loadfile").Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(EngineCommandsTotal.WithLabelValues("loadfile")), 0.001)
}

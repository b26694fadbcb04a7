package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollectorCollect(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var observed *SystemMetrics
	c := NewCollector(0, zap.New(core), func(m *SystemMetrics) { observed = m })
	assert.Equal(t, 30*time.Second, c.Interval(), "sub-second intervals fall back to the default")

	m := c.Collect()
	require.NotNil(t, m)
	assert.Same(t, m, observed)
	assert.Same(t, m, c.GetMetrics())
	assert.Positive(t, m.Goroutines)
	assert.Equal(t, 1, logs.FilterMessage("System metrics").Len())
}

func TestCollectorStartStops(t *testing.T) {
	c := NewCollector(time.Second, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not stop on cancel")
	}
	assert.NotNil(t, c.GetMetrics())
}

func TestRecordBuild(t *testing.T) {
	before := testutil.ToFloat64(ShapesBuilt.WithLabelValues("area"))
	RecordBuild(1, 3, 2, 10*time.Millisecond)
	assert.Equal(t, before+3, testutil.ToFloat64(ShapesBuilt.WithLabelValues("area")))
}

func TestObserve(t *testing.T) {
	Observe(&SystemMetrics{ProcessCPUPercent: 12.5, ProcessRSSMB: 64, MemoryPercent: 40})
	assert.Equal(t, 12.5, testutil.ToFloat64(processCPU))
	assert.Equal(t, 64.0, testutil.ToFloat64(processRSS))
}

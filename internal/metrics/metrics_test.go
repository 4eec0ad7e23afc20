package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(ordersTotal.WithLabelValues("completed"))
	RecordOrder("completed")
	assert.InDelta(t, before+1, testutil.ToFloat64(ordersTotal.WithLabelValues("completed")), 0)

	beforeFail := testutil.ToFloat64(stepFailuresTotal.WithLabelValues("ResolveBOM"))
	RecordStep("ResolveBOM", 10*time.Millisecond, true)
	RecordStep("ResolveBOM", 10*time.Millisecond, false)
	assert.InDelta(t, beforeFail+1, testutil.ToFloat64(stepFailuresTotal.WithLabelValues("ResolveBOM")), 0)

	RecordDeviceJob("printer", "success")
	assert.GreaterOrEqual(t, testutil.ToFloat64(deviceJobsTotal.WithLabelValues("printer", "success")), 1.0)

	SetLedgerSize(7)
	assert.InDelta(t, 7, testutil.ToFloat64(ledgerOrders), 0)
}

func TestRegistry_Gathers(t *testing.T) {
	RecordItem("failed")
	RecordCycle(time.Second)

	families, err := Registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["cellflow_items_total"])
	assert.True(t, names["cellflow_cycle_duration_seconds"])
	assert.True(t, names["go_goroutines"])
}

package orchestration

import (
	"time"

	"github.com/imamik/cellflow/internal/device"
	"github.com/imamik/cellflow/internal/metrics"
)

// Metrics helpers that check enableMetrics before recording.

func (o *Orchestrator) recordOrder(result string) {
	if o.enableMetrics {
		metrics.RecordOrder(result)
	}
}

func (o *Orchestrator) recordItem(res ItemResult) {
	if !o.enableMetrics {
		return
	}
	switch {
	case res.Done() && res.Resumed:
		metrics.RecordItem("resumed")
	case res.Done():
		metrics.RecordItem("completed")
	default:
		metrics.RecordItem("failed")
	}
}

func (o *Orchestrator) recordStep(step Step, d time.Duration, failed bool) {
	if o.enableMetrics {
		metrics.RecordStep(string(step), d, failed)
	}
}

func (o *Orchestrator) recordDeviceJob(name string, outcome device.Outcome) {
	if o.enableMetrics {
		metrics.RecordDeviceJob(name, outcome.String())
	}
}

package world

import "time"

type WorldMetrics struct {
	Tick       uint64      `json:"tick"`
	Players    int         `json:"players"`
	Clients    int         `json:"clients"`
	Containers int         `json:"containers"`
	QueueDepth QueueDepths `json:"queue_depths"`
	StepMS     float64     `json:"step_ms"`

	Clicks           uint64 `json:"clicks"`
	Reorders         uint64 `json:"reorders"`
	ReordersRejected uint64 `json:"reorders_rejected"`
	ReordersSevere   uint64 `json:"reorders_severe"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

// Metrics returns the figures published at the end of the last step.
// Safe to call from any goroutine.
func (w *World) Metrics() WorldMetrics {
	if m, ok := w.metrics.Load().(WorldMetrics); ok {
		return m
	}
	return WorldMetrics{}
}

func (w *World) publishMetrics(nowTick uint64, elapsed time.Duration) {
	w.metrics.Store(WorldMetrics{
		Tick:       nowTick,
		Players:    len(w.players),
		Clients:    len(w.clients),
		Containers: len(w.containers),
		QueueDepth: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS:           float64(elapsed.Microseconds()) / 1000,
		Clicks:           w.counters.clicks,
		Reorders:         w.counters.reorders,
		ReordersRejected: w.counters.rejected,
		ReordersSevere:   w.counters.severe,
	})
}

package main

import (
	"fmt"
	"net/http"

	"slotsort.ai/internal/sim/world"
)

func metricsHandler(w *world.World, idx runtimeIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		id := w.ID()
		m := w.Metrics()

		fmt.Fprintf(rw, "# HELP slotsort_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE slotsort_world_tick gauge\n")
		fmt.Fprintf(rw, "slotsort_world_tick{world=%q} %d\n", id, w.CurrentTick())

		fmt.Fprintf(rw, "# HELP slotsort_world_players Players online.\n")
		fmt.Fprintf(rw, "# TYPE slotsort_world_players gauge\n")
		fmt.Fprintf(rw, "slotsort_world_players{world=%q} %d\n", id, m.Players)

		fmt.Fprintf(rw, "# HELP slotsort_world_containers Containers ever opened.\n")
		fmt.Fprintf(rw, "# TYPE slotsort_world_containers gauge\n")
		fmt.Fprintf(rw, "slotsort_world_containers{world=%q} %d\n", id, m.Containers)

		fmt.Fprintf(rw, "# HELP slotsort_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE slotsort_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "slotsort_world_queue_depth{world=%q,queue=%q} %d\n", id, "inbox", m.QueueDepth.Inbox)
		fmt.Fprintf(rw, "slotsort_world_queue_depth{world=%q,queue=%q} %d\n", id, "join", m.QueueDepth.Join)
		fmt.Fprintf(rw, "slotsort_world_queue_depth{world=%q,queue=%q} %d\n", id, "leave", m.QueueDepth.Leave)

		fmt.Fprintf(rw, "# HELP slotsort_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE slotsort_world_step_ms gauge\n")
		fmt.Fprintf(rw, "slotsort_world_step_ms{world=%q} %.3f\n", id, m.StepMS)

		fmt.Fprintf(rw, "# HELP slotsort_clicks_total Primitive clicks processed.\n")
		fmt.Fprintf(rw, "# TYPE slotsort_clicks_total counter\n")
		fmt.Fprintf(rw, "slotsort_clicks_total{world=%q} %d\n", id, m.Clicks)

		fmt.Fprintf(rw, "# HELP slotsort_reorders_total Bulk reorder requests by outcome.\n")
		fmt.Fprintf(rw, "# TYPE slotsort_reorders_total counter\n")
		fmt.Fprintf(rw, "slotsort_reorders_total{world=%q,outcome=%q} %d\n", id, "accepted", m.Reorders-m.ReordersRejected)
		fmt.Fprintf(rw, "slotsort_reorders_total{world=%q,outcome=%q} %d\n", id, "rejected", m.ReordersRejected-m.ReordersSevere)
		fmt.Fprintf(rw, "slotsort_reorders_total{world=%q,outcome=%q} %d\n", id, "severe", m.ReordersSevere)

		if idx == nil {
			return
		}
		s := idx.Stats()
		fmt.Fprintf(rw, "# HELP slotsort_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE slotsort_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "slotsort_index_queue_depth %d\n", s.QueueDepth)
		fmt.Fprintf(rw, "# HELP slotsort_index_dropped_total Index writes dropped because the queue was full.\n")
		fmt.Fprintf(rw, "# TYPE slotsort_index_dropped_total counter\n")
		fmt.Fprintf(rw, "slotsort_index_dropped_total{kind=%q} %d\n", "tick", s.DropTickTotal)
		fmt.Fprintf(rw, "slotsort_index_dropped_total{kind=%q} %d\n", "audit", s.DropAuditTotal)
		fmt.Fprintf(rw, "slotsort_index_dropped_total{kind=%q} %d\n", "snapshot", s.DropSnapshotTotal)
	}
}

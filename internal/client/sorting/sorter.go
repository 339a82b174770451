// Package sorting plans inventory sorts on the client: a merge pre-pass, a
// mode-specific ordering, and either one bulk REORDER or a chain of
// pick-up/place clicks pushed into the interaction scheduler.
package sorting

import (
	"io"
	"log"

	"slotsort.ai/internal/client/interaction"
	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/protocol"
)

// Queue is the part of the scheduler the sorter needs.
type Queue interface {
	Enqueue(ev interaction.Event)
	EnqueueBatch(evs []interaction.Event)
}

type Config struct {
	SyncID int
	// Bulk sends one REORDER instead of clicks. Only set it when the
	// authority advertised the reorder capability.
	Bulk             bool
	OptimizeCreative bool
}

type Sorter struct {
	queue  Queue
	oracle inventory.Oracle
	cfg    Config
	log    *log.Logger
}

func New(queue Queue, oracle inventory.Oracle, cfg Config, logger *log.Logger) *Sorter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Sorter{queue: queue, oracle: oracle, cfg: cfg, log: logger}
}

// Result describes what one Sort call queued.
type Result struct {
	Mode         Mode
	Permutation  []int
	MergeBatches int
	// Clicks counts queued primitive clicks, merge batches included.
	Clicks int
	Bulk   bool
}

// Sort plans and queues a sort of scope, which must be the slots of one
// scope in screen order. Nothing is queued for fewer than two slots or when
// the merged snapshot is already in order.
func (s *Sorter) Sort(scope []protocol.SlotState, mode Mode) Result {
	res := Result{Mode: mode}
	if len(scope) <= 1 {
		return res
	}
	stacks := make([]inventory.Stack, len(scope))
	for i, sl := range scope {
		stacks[i] = sl.Stack
	}

	for _, batch := range Merge(stacks, s.oracle) {
		evs := make([]interaction.Event, 0, len(batch))
		for _, pos := range batch {
			evs = append(evs, interaction.Pickup(s.cfg.SyncID, scope[pos].ID))
		}
		s.queue.EnqueueBatch(evs)
		res.MergeBatches++
		res.Clicks += len(evs)
	}

	perm := Order(stacks, mode, s.oracle, s.cfg.OptimizeCreative)
	res.Permutation = perm
	if IsIdentity(perm) {
		return res
	}

	if s.cfg.Bulk {
		req := protocol.ReorderRequest{SyncID: s.cfg.SyncID, Pairs: make([]protocol.SlotPair, len(perm))}
		for t, o := range perm {
			req.Pairs[t] = protocol.SlotPair{Origin: scope[o].ID, Dest: scope[t].ID}
		}
		s.queue.Enqueue(interaction.MessageEvent{Payload: protocol.NewReorderMsg(req), Wait: interaction.TickWaiter()})
		res.Bulk = true
		s.log.Printf("sort %s: bulk reorder of %d slots", mode, len(perm))
		return res
	}

	clicks := PlanPrimitive(stacks, perm)
	evs := make([]interaction.Event, 0, len(clicks))
	for _, pos := range clicks {
		evs = append(evs, interaction.Pickup(s.cfg.SyncID, scope[pos].ID))
	}
	s.queue.EnqueueBatch(evs)
	res.Clicks += len(evs)
	s.log.Printf("sort %s: %d clicks over %d slots", mode, len(evs), len(perm))
	return res
}

// Package reorder validates and applies bulk slot reorders declared by a
// client. It runs on the world goroutine and performs no I/O.
package reorder

import (
	"errors"
	"fmt"

	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/protocol"
)

var (
	ErrTooFewPairs      = errors.New("too few slot pairs")
	ErrUnknownSlot      = errors.New("unknown slot id")
	ErrMixedInventories = errors.New("slots span more than one inventory")
	ErrDuplicateOrigin  = errors.New("duplicate origin slot")
	ErrDestination      = errors.New("duplicate destination or destination without origin")
	ErrNoTake           = errors.New("origin slot does not allow taking")
	ErrNoInsert         = errors.New("destination slot refuses origin stack")

	// ErrInvariant means the destination bookkeeping did not balance after
	// every pair passed. That is a validator fault, not bad input.
	ErrInvariant = errors.New("reorder bookkeeping out of balance")
)

// Slot is one screen slot as seen by the reordering player.
type Slot struct {
	Inventory string
	Stack     inventory.Stack
	Access    inventory.Access
}

// Screen is the open screen a reorder targets.
type Screen interface {
	Slot(id int) (Slot, bool)
	SetStack(id int, s inventory.Stack)
}

// Check verifies that pairs form a permutation over the requested origin set,
// within one backing inventory, that the player may carry out.
func Check(screen Screen, pairs []protocol.SlotPair) error {
	if len(pairs) < 2 {
		return fmt.Errorf("%w: %d", ErrTooFewPairs, len(pairs))
	}
	first, ok := screen.Slot(pairs[0].Origin)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, pairs[0].Origin)
	}
	inv := first.Inventory

	requested := make(map[int]struct{}, len(pairs))
	for _, p := range pairs {
		origin, err := slotIn(screen, p.Origin, inv)
		if err != nil {
			return err
		}
		if _, dup := requested[p.Origin]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateOrigin, p.Origin)
		}
		requested[p.Origin] = struct{}{}

		dest, err := slotIn(screen, p.Dest, inv)
		if err != nil {
			return err
		}
		if p.Origin == p.Dest {
			continue
		}
		if !origin.Access.CanTake {
			return fmt.Errorf("%w: %d", ErrNoTake, p.Origin)
		}
		if dest.Access.CanInsert != nil && !origin.Stack.IsEmpty() && !dest.Access.CanInsert(origin.Stack) {
			return fmt.Errorf("%w: %d <- %d", ErrNoInsert, p.Dest, p.Origin)
		}
	}
	return drainDestinations(requested, pairs)
}

func slotIn(screen Screen, id int, inv string) (Slot, error) {
	s, ok := screen.Slot(id)
	if !ok {
		return Slot{}, fmt.Errorf("%w: %d", ErrUnknownSlot, id)
	}
	if s.Inventory != inv {
		return Slot{}, fmt.Errorf("%w: %q then %q at %d", ErrMixedInventories, inv, s.Inventory, id)
	}
	return s, nil
}

// drainDestinations removes every destination from requested; each must be
// present exactly once and nothing may remain.
func drainDestinations(requested map[int]struct{}, pairs []protocol.SlotPair) error {
	for _, p := range pairs {
		if _, ok := requested[p.Dest]; !ok {
			return fmt.Errorf("%w: %d", ErrDestination, p.Dest)
		}
		delete(requested, p.Dest)
	}
	if len(requested) != 0 {
		return fmt.Errorf("%w: %d slots left", ErrInvariant, len(requested))
	}
	return nil
}

// Apply checks pairs and, when they pass, moves every origin's content to its
// destination from one snapshot taken up front. Nothing changes on error.
func Apply(screen Screen, pairs []protocol.SlotPair) error {
	if err := Check(screen, pairs); err != nil {
		return err
	}
	snap := make(map[int]inventory.Stack, len(pairs))
	for _, p := range pairs {
		s, _ := screen.Slot(p.Origin)
		snap[p.Origin] = s.Stack
	}
	for _, p := range pairs {
		screen.SetStack(p.Dest, snap[p.Origin])
	}
	return nil
}

// Severe reports whether err points at a validator bug rather than a bad request.
func Severe(err error) bool { return errors.Is(err, ErrInvariant) }

// Code maps a validation error to its wire error code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownSlot):
		return protocol.ErrInvalidSlot
	case errors.Is(err, ErrNoTake), errors.Is(err, ErrNoInsert):
		return protocol.ErrNoPermission
	case errors.Is(err, ErrInvariant):
		return protocol.ErrInternal
	default:
		return protocol.ErrBadReorder
	}
}

package interaction

import "fmt"

// TriggerKind is an external event that may let the queue advance.
type TriggerKind uint8

const (
	// Initial is the implicit self-check right after a dispatch.
	Initial TriggerKind = iota
	SlotUpdate
	GuiConfirm
	HeldItemChange
	Tick
)

func (k TriggerKind) String() string {
	switch k {
	case Initial:
		return "INITIAL"
	case SlotUpdate:
		return "SLOT_UPDATE"
	case GuiConfirm:
		return "GUI_CONFIRM"
	case HeldItemChange:
		return "HELD_ITEM_CHANGE"
	case Tick:
		return "TICK"
	}
	return fmt.Sprintf("TRIGGER(%d)", uint8(k))
}

type waiterKind uint8

const (
	waitAlways waiterKind = iota + 1
	waitNever
	waitEquals
	waitCount
)

// Waiter gates the queue after a dispatch. It is a small tagged value rather
// than a closure so the scheduler state stays inspectable. The zero Waiter
// behaves like Always.
type Waiter struct {
	kind      waiterKind
	on        TriggerKind
	remaining int
}

// Always passes every trigger, including the Initial self-check.
func Always() Waiter { return Waiter{kind: waitAlways} }

// Never blocks until replaced.
func Never() Waiter { return Waiter{kind: waitNever} }

func Equals(k TriggerKind) Waiter { return Waiter{kind: waitEquals, on: k} }

// CountUntil passes on the n-th trigger of kind k. n <= 0 behaves like Always.
func CountUntil(k TriggerKind, n int) Waiter {
	if n <= 0 {
		return Always()
	}
	return Waiter{kind: waitCount, on: k, remaining: n}
}

func SlotUpdates(n int) Waiter { return CountUntil(SlotUpdate, n) }
func GuiConfirms(n int) Waiter { return CountUntil(GuiConfirm, n) }

// TickWaiter is the default pacing for clicks: one primitive per tick.
func TickWaiter() Waiter { return Equals(Tick) }

// Trigger feeds one trigger and reports whether the queue may advance.
func (w *Waiter) Trigger(k TriggerKind) bool {
	switch w.kind {
	case 0, waitAlways:
		return true
	case waitEquals:
		return k == w.on
	case waitCount:
		if k != w.on {
			return false
		}
		w.remaining--
		return w.remaining <= 0
	}
	return false
}

// Remaining is the outstanding trigger count of a CountUntil waiter.
func (w Waiter) Remaining() int { return w.remaining }

func (w Waiter) String() string {
	switch w.kind {
	case 0, waitAlways:
		return "always"
	case waitNever:
		return "never"
	case waitEquals:
		return "equals(" + w.on.String() + ")"
	case waitCount:
		return fmt.Sprintf("count(%s,%d)", w.on, w.remaining)
	}
	return fmt.Sprintf("waiter(%d)", uint8(w.kind))
}

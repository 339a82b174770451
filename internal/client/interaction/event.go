package interaction

import "slotsort.ai/internal/protocol"

// Remote is the live connection to the authority. Only the Scheduler calls it.
type Remote interface {
	Click(syncID, slot, button int, action string) error
	Send(msg any) error
}

// Event is one queued interaction. Dispatch performs it and returns the Waiter
// that gates the next event.
type Event interface {
	Dispatch(r Remote) (Waiter, error)
	// OnMain reports whether Dispatch must run on the main executor.
	OnMain() bool
}

// ClickEvent is one primitive pick-up/place on a slot of an open screen.
type ClickEvent struct {
	SyncID int
	Slot   int
	Button int
	Action string
	Wait   Waiter
}

// Pickup is a left-click PICKUP paced by TickWaiter.
func Pickup(syncID, slot int) ClickEvent {
	return ClickEvent{SyncID: syncID, Slot: slot, Action: protocol.ActionPickup, Wait: TickWaiter()}
}

func (e ClickEvent) Dispatch(r Remote) (Waiter, error) {
	return e.Wait, r.Click(e.SyncID, e.Slot, e.Button, e.Action)
}

func (e ClickEvent) OnMain() bool { return true }

// CallbackEvent runs Fn; its return value becomes the active Waiter.
type CallbackEvent struct {
	Fn   func() Waiter
	Main bool
}

func (e CallbackEvent) Dispatch(Remote) (Waiter, error) {
	if e.Fn == nil {
		return Always(), nil
	}
	return e.Fn(), nil
}

func (e CallbackEvent) OnMain() bool { return e.Main }

// MessageEvent sends a raw protocol message.
type MessageEvent struct {
	Payload any
	Wait    Waiter
}

func (e MessageEvent) Dispatch(r Remote) (Waiter, error) {
	return e.Wait, r.Send(e.Payload)
}

func (e MessageEvent) OnMain() bool { return false }

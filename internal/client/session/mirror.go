package session

import (
	"encoding/json"

	"slotsort.ai/internal/client/interaction"
	"slotsort.ai/internal/protocol"
)

// handle decodes one server frame. Mirror updates and the triggers they raise
// run on the main loop so they stay ordered with click dispatch.
func (s *Session) handle(msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.log.Printf("WARN bad frame: %v", err)
		return
	}
	switch base.Type {
	case protocol.TypeScreen:
		var m protocol.ScreenMsg
		if s.decode(msg, &m) {
			s.main.Submit(func() { s.applyScreen(m) })
		}
	case protocol.TypeSlotUpdate:
		var m protocol.SlotUpdateMsg
		if s.decode(msg, &m) {
			s.main.Submit(func() {
				s.applySlot(m)
				s.sched.NotifyTrigger(interaction.SlotUpdate)
			})
		}
	case protocol.TypeCursor:
		var m protocol.CursorMsg
		if s.decode(msg, &m) {
			s.main.Submit(func() {
				s.update(func() { s.screen.Cursor = m.Stack })
				s.sched.NotifyTrigger(interaction.HeldItemChange)
			})
		}
	case protocol.TypeConfirm:
		var m protocol.ConfirmMsg
		if s.decode(msg, &m) {
			s.main.Submit(func() {
				s.applyConfirm(m)
				s.sched.NotifyTrigger(interaction.GuiConfirm)
			})
		}
	case protocol.TypeClose:
		var m protocol.CloseMsg
		if s.decode(msg, &m) {
			s.main.Submit(func() { s.sched.Clear() })
		}
	case protocol.TypeError:
		var m protocol.ErrorMsg
		if s.decode(msg, &m) {
			s.log.Printf("WARN server error %s: %s", m.Code, m.Message)
		}
	default:
		s.log.Printf("ignoring %s", base.Type)
	}
}

func (s *Session) decode(msg []byte, v any) bool {
	if err := json.Unmarshal(msg, v); err != nil {
		s.log.Printf("WARN decode: %v", err)
		return false
	}
	return true
}

// applyScreen replaces the mirror. A different sync id means the old screen
// closed, so queued clicks against it are dropped.
func (s *Session) applyScreen(m protocol.ScreenMsg) {
	var prev int
	s.update(func() {
		prev = s.screen.SyncID
		s.screen = m
	})
	if prev != m.SyncID {
		s.sched.Clear()
	}
}

func (s *Session) applySlot(m protocol.SlotUpdateMsg) {
	s.update(func() {
		if m.SyncID != s.screen.SyncID {
			return
		}
		for i := range s.screen.Slots {
			if s.screen.Slots[i].ID == m.Slot {
				s.screen.Slots[i].Stack = m.Stack
				break
			}
		}
		s.screen.StateID = m.StateID
	})
}

func (s *Session) applyConfirm(m protocol.ConfirmMsg) {
	s.update(func() {
		s.confirms++
		if !m.Accepted {
			s.rejected++
			s.lastCode = m.Code
		}
	})
	if !m.Accepted {
		s.log.Printf("WARN sync %d: rejected %s", m.SyncID, m.Code)
	}
}

// update mutates the mirror under the lock and wakes WaitFor callers.
func (s *Session) update(fn func()) {
	s.mu.Lock()
	fn()
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

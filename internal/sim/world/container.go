package world

import (
	"sort"
	"strings"

	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/protocol"
)

// Container is a named shared chest. Every open screen on it is a viewer.
type Container struct {
	Name  string
	Slots []inventory.Stack

	viewers map[string]int // player id -> sync id
}

func containerInventory(name string) string { return "container:" + name }

func (w *World) ensureContainer(name string) *Container {
	if c := w.containers[name]; c != nil {
		return c
	}
	c := &Container{
		Name:    name,
		Slots:   make([]inventory.Stack, w.cfg.ContainerSlots),
		viewers: map[string]int{},
	}
	w.containers[name] = c
	return c
}

func (w *World) openContainer(p *Player, m protocol.OpenMsg) {
	name := strings.TrimSpace(m.Container)
	if name == "" {
		w.sendError(p, protocol.ErrUnknownStore, "container name required")
		return
	}
	w.closeContainer(p)
	c := w.ensureContainer(name)
	p.nextSyncID++
	p.open = &openContainer{syncID: p.nextSyncID, c: c}
	c.viewers[p.ID] = p.open.syncID
	w.sendScreen(p, w.containerScreen(p, p.open))
}

// closeContainer drops the container screen, if any. The cursor stays.
func (w *World) closeContainer(p *Player) {
	if p.open == nil {
		return
	}
	delete(p.open.c.viewers, p.ID)
	p.open = nil
}

func (w *World) handleClose(p *Player, m protocol.CloseMsg) {
	if m.SyncID != protocol.PlayerSyncID && (p.open == nil || p.open.syncID != m.SyncID) {
		return
	}
	w.closeContainer(p)
	w.returnCursor(p)
	w.sendScreen(p, w.playerScreen(p))
}

// otherViewers lists players other than p looking at c, by id.
func (w *World) otherViewers(c *Container, p *Player) []*Player {
	ids := make([]string, 0, len(c.viewers))
	for id := range c.viewers {
		if id != p.ID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]*Player, 0, len(ids))
	for _, id := range ids {
		if v := w.players[id]; v != nil && v.open != nil && v.open.c == c {
			out = append(out, v)
		}
	}
	return out
}

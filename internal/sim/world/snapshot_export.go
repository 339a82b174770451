package world

import (
	"fmt"
	"sort"

	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/persistence/snapshot"
)

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	// Snapshot must be called from the world loop goroutine.
	byName := map[string]snapshot.PlayerV1{}
	for name, inv := range w.saved {
		byName[name] = snapshot.PlayerV1{Name: name, Inventory: inv}
	}
	for _, p := range w.players {
		inv := make([]inventory.Stack, len(p.Inv))
		copy(inv, p.Inv)
		sess := &snapshot.SessionV1{
			PlayerID:   p.ID,
			Cursor:     p.Cursor,
			NextSyncID: p.nextSyncID,
			StateID:    p.stateID,
		}
		if p.open != nil {
			sess.Container = p.open.c.Name
			sess.SyncID = p.open.syncID
		}
		byName[p.Name] = snapshot.PlayerV1{Name: p.Name, Inventory: inv, Session: sess}
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	players := make([]snapshot.PlayerV1, 0, len(names))
	for _, name := range names {
		players = append(players, byName[name])
	}

	cnames := make([]string, 0, len(w.containers))
	for name := range w.containers {
		cnames = append(cnames, name)
	}
	sort.Strings(cnames)
	containers := make([]snapshot.ContainerV1, 0, len(cnames))
	for _, name := range cnames {
		c := w.containers[name]
		slots := make([]inventory.Stack, len(c.Slots))
		copy(slots, c.Slots)
		containers = append(containers, snapshot.ContainerV1{Name: name, Slots: slots})
	}

	return snapshot.SnapshotV1{
		Header:             snapshot.Header{Version: 1, WorldID: w.cfg.ID, Tick: nowTick},
		TickRate:           w.cfg.TickRateHz,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		ContainerSlots:     w.cfg.ContainerSlots,
		StarterKit:         append([]inventory.Stack(nil), w.cfg.StarterKit...),
		ItemDefsDigest:     w.catalogs.Items.DefsDigest,
		Players:            players,
		Containers:         containers,
		Counters:           snapshot.CountersV1{NextPlayer: w.nextPlayerNum.Load()},
	}
}

// ImportSnapshot replaces all persisted state. It must run before Run starts.
// Sessions in the snapshot are closed: a carried stack goes back into the
// inventory the way a leave would put it.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	return w.importSnapshot(s, false)
}

// ImportSnapshotLive is ImportSnapshot with the recorded sessions kept open
// under their player ids, for replaying tick logs written after the snapshot.
func (w *World) ImportSnapshotLive(s snapshot.SnapshotV1) error {
	return w.importSnapshot(s, true)
}

func (w *World) importSnapshot(s snapshot.SnapshotV1, live bool) error {
	if s.Header.Version != 1 {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}
	if s.Header.WorldID != "" && w.cfg.ID != "" && s.Header.WorldID != w.cfg.ID {
		return fmt.Errorf("snapshot world %q does not match %q", s.Header.WorldID, w.cfg.ID)
	}
	if s.ItemDefsDigest != "" && s.ItemDefsDigest != w.catalogs.Items.DefsDigest {
		w.logger.Printf("WARN snapshot item defs digest %s differs from catalog %s", s.ItemDefsDigest, w.catalogs.Items.DefsDigest)
	}

	w.players = map[string]*Player{}
	w.clients = map[string]*clientState{}
	w.online = map[string]string{}
	w.saved = map[string][]inventory.Stack{}
	w.containers = map[string]*Container{}
	for _, cs := range s.Containers {
		c := w.ensureContainer(cs.Name)
		n := copy(c.Slots, cs.Slots)
		if n < len(cs.Slots) {
			w.logger.Printf("WARN container %s: %d slots beyond capacity %d dropped", cs.Name, len(cs.Slots)-n, len(c.Slots))
		}
	}
	for _, ps := range s.Players {
		inv := make([]inventory.Stack, playerSlots)
		copy(inv, ps.Inventory)
		if ps.Session == nil {
			w.saved[ps.Name] = inv
			continue
		}
		p := &Player{
			ID:         ps.Session.PlayerID,
			Name:       ps.Name,
			Inv:        inv,
			Cursor:     ps.Session.Cursor,
			nextSyncID: ps.Session.NextSyncID,
			stateID:    ps.Session.StateID,
		}
		if !live {
			w.returnCursor(p)
			w.saved[ps.Name] = p.Inv
			continue
		}
		if ps.Session.Container != "" {
			c := w.ensureContainer(ps.Session.Container)
			p.open = &openContainer{syncID: ps.Session.SyncID, c: c}
			c.viewers[p.ID] = ps.Session.SyncID
		}
		w.players[p.ID] = p
		w.online[p.Name] = p.ID
	}
	w.tick.Store(s.Header.Tick + 1)
	w.nextPlayerNum.Store(s.Counters.NextPlayer)
	return nil
}

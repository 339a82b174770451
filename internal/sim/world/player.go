package world

import (
	"fmt"
	"strings"

	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/protocol"
)

// Player inventory layout: hotbar, main, armor (HEAD, CHEST, LEGS, FEET), offhand.
const (
	hotbarStart  = 0
	hotbarSlots  = 9
	mainStart    = 9
	mainSlots    = 27
	armorStart   = 36
	offhandIndex = 40
	playerSlots  = 41

	playerInventory = "player"
)

const maxNameRunes = 32

var armorOrder = [...]string{"HEAD", "CHEST", "LEGS", "FEET"}

type Player struct {
	ID     string
	Name   string
	Inv    []inventory.Stack
	Cursor inventory.Stack

	open       *openContainer
	nextSyncID int
	stateID    int
}

type openContainer struct {
	syncID int
	c      *Container
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "player"
	}
	if r := []rune(name); len(r) > maxNameRunes {
		name = strings.TrimSpace(string(r[:maxNameRunes]))
	}
	return name
}

func (w *World) joinPlayer(name string, out chan []byte) JoinResponse {
	name = normalizeName(name)
	if _, dup := w.online[name]; dup {
		return JoinResponse{Err: fmt.Sprintf("player %q already online", name)}
	}

	idNum := w.nextPlayerNum.Add(1)
	p := &Player{
		ID:   fmt.Sprintf("P%d", idNum),
		Name: name,
		Inv:  make([]inventory.Stack, playerSlots),
	}
	if inv, ok := w.saved[name]; ok {
		copy(p.Inv, inv)
		delete(w.saved, name)
	} else {
		w.fillStarterKit(p)
	}

	w.players[p.ID] = p
	w.online[name] = p.ID
	if out != nil {
		w.clients[p.ID] = &clientState{Out: out}
	}
	w.logger.Printf("join %s as %s", name, p.ID)

	return JoinResponse{Welcome: w.buildWelcome(p), Screen: w.screenMsg(p, w.playerScreen(p))}
}

// fillStarterKit places the kit into the main section one stack per slot,
// spilling into the hotbar once main is full.
func (w *World) fillStarterKit(p *Player) {
	slots := make([]int, 0, mainSlots+hotbarSlots)
	for i := 0; i < mainSlots; i++ {
		slots = append(slots, mainStart+i)
	}
	for i := 0; i < hotbarSlots; i++ {
		slots = append(slots, hotbarStart+i)
	}
	next := 0
	for _, s := range w.cfg.StarterKit {
		for left := s.Count; left > 0 && next < len(slots); next++ {
			n := min(left, w.catalogs.Items.MaxCount(s.Item))
			p.Inv[slots[next]] = s.WithCount(n)
			left -= n
		}
	}
}

func (w *World) buildWelcome(p *Player) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        p.ID,
		ServerCapabilities: protocol.ServerCapabilities{
			Reorder: true,
		},
		Catalogs: protocol.CatalogDigests{
			ItemPalette:    protocol.DigestRef{Digest: w.catalogs.Items.PaletteDigest, Count: len(w.catalogs.Items.Palette)},
			ItemDefs:       w.catalogs.Items.DefsDigest,
			CreativeDigest: w.catalogs.Creative.Digest,
		},
	}
}

func (w *World) handleLeave(playerID string) {
	p := w.players[playerID]
	if p == nil {
		return
	}
	w.closeContainer(p)
	w.returnCursor(p)
	inv := make([]inventory.Stack, len(p.Inv))
	copy(inv, p.Inv)
	w.saved[p.Name] = inv

	delete(w.players, playerID)
	delete(w.clients, playerID)
	delete(w.online, p.Name)
	w.logger.Printf("leave %s (%s)", p.Name, playerID)
}

// returnCursor puts the carried stack back into the player inventory: first
// onto matching stacks, then into free slots. Whatever does not fit is lost.
func (w *World) returnCursor(p *Player) {
	if p.Cursor.IsEmpty() {
		return
	}
	order := make([]int, 0, mainSlots+hotbarSlots)
	for i := 0; i < hotbarSlots; i++ {
		order = append(order, hotbarStart+i)
	}
	for i := 0; i < mainSlots; i++ {
		order = append(order, mainStart+i)
	}
	for pass := 0; pass < 2 && !p.Cursor.IsEmpty(); pass++ {
		for _, i := range order {
			slot := p.Inv[i]
			if pass == 0 && !inventory.CanCombine(p.Cursor, slot) {
				continue
			}
			if pass == 1 && !slot.IsEmpty() {
				continue
			}
			p.Cursor, p.Inv[i] = inventory.Pickup(p.Cursor, slot, &w.catalogs.Items, inventory.Access{CanTake: true})
			if p.Cursor.IsEmpty() {
				break
			}
		}
	}
	if !p.Cursor.IsEmpty() {
		w.logger.Printf("WARN %s: no room for cursor %s; dropped", p.ID, p.Cursor)
		p.Cursor = inventory.Empty
	}
}

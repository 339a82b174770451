package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"

	"slotsort.ai/internal/inventory"
)

// stateDigest hashes every inventory in a fixed order. Equal state gives an
// equal digest regardless of map iteration.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)

	ids := make([]string, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := w.players[id]
		h.Write([]byte(id))
		h.Write([]byte{0})
		for _, s := range p.Inv {
			digestStack(h, &tmp, s)
		}
		digestStack(h, &tmp, p.Cursor)
	}

	names := make([]string, 0, len(w.containers))
	for name := range w.containers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		for _, s := range w.containers[name].Slots {
			digestStack(h, &tmp, s)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestStack(h hash.Hash, tmp *[8]byte, s inventory.Stack) {
	if s.IsEmpty() {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte{1})
	h.Write([]byte(s.Item))
	h.Write([]byte{0})
	digestWriteU64(h, tmp, uint64(s.Count))
	c := s.Components
	for _, str := range []string{c.CustomName, c.Enchantments, c.Lore} {
		h.Write([]byte(str))
		h.Write([]byte{0})
	}
	digestWriteU64(h, tmp, uint64(int64(c.Damage)))
	if c.Dyed {
		digestWriteU64(h, tmp, uint64(uint32(c.Color))|1<<32)
	} else {
		digestWriteU64(h, tmp, 0)
	}
}

package snapshot

import (
	"path/filepath"
	"testing"

	"slotsort.ai/internal/inventory"
)

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "120.snap.zst")
	in := SnapshotV1{
		Header:         Header{Version: 1, WorldID: "w1", Tick: 120},
		TickRate:       20,
		ContainerSlots: 27,
		Players: []PlayerV1{{
			Name: "alice",
			Inventory: []inventory.Stack{
				{Item: "STONE", Count: 12},
				{},
				{Item: "LEATHER_HELMET", Count: 1, Components: inventory.Components{Dyed: true, Color: 0x3366ff}},
			},
		}},
		Containers: []ContainerV1{{Name: "spawn", Slots: []inventory.Stack{{Item: "DIRT", Count: 3}}}},
		Counters:   CountersV1{NextPlayer: 4},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h != in.Header {
		t.Fatalf("header=%+v", h)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Header != in.Header || out.Counters != in.Counters || len(out.Players) != 1 || len(out.Containers) != 1 {
		t.Fatalf("snapshot=%+v", out)
	}
	helmet := out.Players[0].Inventory[2]
	if !inventory.Equal(helmet, in.Players[0].Inventory[2]) {
		t.Fatalf("helmet=%+v", helmet)
	}
	if !out.Players[0].Inventory[1].IsEmpty() {
		t.Fatalf("empty slot not kept: %+v", out.Players[0].Inventory[1])
	}
}

func TestReadSnapshot_Missing(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.snap.zst")); err == nil {
		t.Fatalf("expected error")
	}
}

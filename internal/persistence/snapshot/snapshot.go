package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"slotsort.ai/internal/inventory"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 carries every persisted inventory of a world.
type SnapshotV1 struct {
	Header Header `json:"header"`

	TickRate           int `json:"tick_rate_hz"`
	SnapshotEveryTicks int `json:"snapshot_every_ticks,omitempty"`
	ContainerSlots     int `json:"container_slots"`
	// StarterKit is what a first-time name received when the snapshot was taken.
	StarterKit []inventory.Stack `json:"starter_kit,omitempty"`

	// Digests of the item catalogs the stacks were written against.
	ItemDefsDigest string `json:"item_defs_digest,omitempty"`

	Players    []PlayerV1    `json:"players"`
	Containers []ContainerV1 `json:"containers"`

	Counters CountersV1 `json:"counters"`
}

// PlayerV1 is keyed by name; player ids are per connection.
type PlayerV1 struct {
	Name      string            `json:"name"`
	Inventory []inventory.Stack `json:"inventory"`
	// Session is set for players online when the snapshot was taken.
	Session *SessionV1 `json:"session,omitempty"`
}

type SessionV1 struct {
	PlayerID   string          `json:"player_id"`
	Cursor     inventory.Stack `json:"cursor"`
	Container  string          `json:"container,omitempty"`
	SyncID     int             `json:"sync_id,omitempty"`
	NextSyncID int             `json:"next_sync_id"`
	StateID    int             `json:"state_id"`
}

type ContainerV1 struct {
	Name  string            `json:"name"`
	Slots []inventory.Stack `json:"slots"`
}

type CountersV1 struct {
	NextPlayer uint64 `json:"next_player"`
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is repeated inside the gob payload.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// ReadHeader decodes only the leading JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

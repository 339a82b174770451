package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	persistlog "slotsort.ai/internal/persistence/log"
	"slotsort.ai/internal/persistence/snapshot"
	"slotsort.ai/internal/sim/catalogs"
	"slotsort.ai/internal/sim/world"
)

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst")
		eventsDir = flag.String("events", "", "events dir containing events-*.jsonl.zst (optional)")
		configDir = flag.String("configs", "./configs", "config directory")
		fromTick  = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	online := 0
	for _, p := range snap.Players {
		if p.Session != nil {
			online++
		}
	}
	fmt.Printf("snapshot v%d world=%s tick=%d players=%d online=%d containers=%d\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, len(snap.Players), online, len(snap.Containers))

	if *eventsDir == "" {
		return
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	files, err := persistlog.ListFiles(*eventsDir, "events")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	checked, err := replay(snap, cats, files, *fromTick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks (from snapshot tick=%d)\n", checked, snap.Header.Tick)
}

var errStop = errors.New("past -to_tick")

// replay restores snap with its sessions open, re-applies every logged tick
// after it and compares state digests. Idle ticks are not logged and are
// stepped empty.
func replay(snap snapshot.SnapshotV1, cats *catalogs.Catalogs, files []string, fromTick, toTick uint64) (checked uint64, err error) {
	w := world.New(world.WorldConfig{
		ID:                 snap.Header.WorldID,
		TickRateHz:         snap.TickRate,
		SnapshotEveryTicks: snap.SnapshotEveryTicks,
		ContainerSlots:     snap.ContainerSlots,
		StarterKit:         snap.StarterKit,
	}, cats)
	if err := w.ImportSnapshotLive(snap); err != nil {
		return 0, fmt.Errorf("import snapshot: %w", err)
	}
	startTick := w.CurrentTick()
	verifyFrom := fromTick
	if verifyFrom < startTick {
		verifyFrom = startTick
	}

	for _, path := range files {
		err := persistlog.ScanJSONL(path, func(line []byte) error {
			var entry world.TickLogEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				return fmt.Errorf("unmarshal: %w", err)
			}
			if entry.Tick < startTick {
				return nil
			}
			if toTick != 0 && entry.Tick > toTick {
				return errStop
			}
			if entry.Tick < w.CurrentTick() {
				return fmt.Errorf("tick %d logged twice or out of order (at %d)", entry.Tick, w.CurrentTick())
			}
			for w.CurrentTick() < entry.Tick {
				w.StepOnce(nil, nil, nil)
			}

			joins := make([]world.JoinRequest, 0, len(entry.Joins))
			resps := make([]chan world.JoinResponse, 0, len(entry.Joins))
			for _, j := range entry.Joins {
				resp := make(chan world.JoinResponse, 1)
				joins = append(joins, world.JoinRequest{Name: j.Name, Resp: resp})
				resps = append(resps, resp)
			}
			acts := make([]world.ActionEnvelope, 0, len(entry.Actions))
			for _, ra := range entry.Actions {
				env, err := ra.Envelope()
				if err != nil {
					return fmt.Errorf("tick %d: %w", entry.Tick, err)
				}
				acts = append(acts, env)
			}

			tick, gotDigest := w.StepOnce(joins, entry.Leaves, acts)
			if tick != entry.Tick {
				return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
			}
			for i, resp := range resps {
				if got := (<-resp).Welcome.PlayerID; got != entry.Joins[i].PlayerID {
					return fmt.Errorf("tick %d: %s joined as %s, log says %s", tick, entry.Joins[i].Name, got, entry.Joins[i].PlayerID)
				}
			}
			if tick >= verifyFrom {
				checked++
				if gotDigest != entry.Digest {
					return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
				}
			}
			return nil
		})
		if errors.Is(err, errStop) {
			return checked, nil
		}
		if err != nil {
			return checked, err
		}
	}
	return checked, nil
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"slotsort.ai/internal/inventory"
	persistlog "slotsort.ai/internal/persistence/log"
	"slotsort.ai/internal/persistence/snapshot"
	"slotsort.ai/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "restore":
			restoreCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		fail(1, "read:", err)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

type auditFilter struct {
	Name      string
	SinceTick uint64
	ToTick    uint64
	Rejected  bool
}

func (f auditFilter) match(e world.AuditEntry) bool {
	if f.Name != "" && !strings.EqualFold(f.Name, e.Name) {
		return false
	}
	if e.Tick < f.SinceTick || (f.ToTick > 0 && e.Tick > f.ToTick) {
		return false
	}
	return !f.Rejected || !e.Accepted
}

// readAudit collects the matching reorder decisions of a world in log order.
func readAudit(worldDir string, f auditFilter) ([]world.AuditEntry, error) {
	files, err := persistlog.ListFiles(filepath.Join(worldDir, "audit"), "audit")
	if err != nil {
		return nil, err
	}
	var out []world.AuditEntry
	for _, path := range files {
		err := persistlog.ScanJSONL(path, func(line []byte) error {
			var e world.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("unmarshal: %w", err)
			}
			if f.match(e) {
				out = append(out, e)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	var f auditFilter
	fs.StringVar(&f.Name, "name", "", "player name filter")
	fs.Uint64Var(&f.SinceTick, "since_tick", 0, "first tick (inclusive)")
	fs.Uint64Var(&f.ToTick, "to_tick", 0, "last tick (inclusive, 0 = no limit)")
	fs.BoolVar(&f.Rejected, "rejected", false, "only rejected reorders")
	asJSON := fs.Bool("json", false, "print raw entries as JSON lines")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fail(2, "missing -world")
	}
	recs, err := readAudit(filepath.Join(*dataDir, "worlds", *worldID), f)
	if err != nil {
		fail(1, "read audit:", err)
	}

	accepted, rejected, severe := 0, 0, 0
	for _, e := range recs {
		switch {
		case e.Accepted:
			accepted++
		case e.Severe:
			severe++
		default:
			rejected++
		}
		if *asJSON {
			b, _ := json.Marshal(e)
			fmt.Println(string(b))
			continue
		}
		fmt.Println(formatAudit(e))
	}
	if !*asJSON {
		fmt.Printf("%d entries: %s %s %s\n", len(recs),
			color.GreenString("%d accepted", accepted),
			color.YellowString("%d rejected", rejected),
			color.RedString("%d severe", severe))
	}
}

func formatAudit(e world.AuditEntry) string {
	status := color.GreenString("OK")
	switch {
	case e.Severe:
		status = color.RedString("SEVERE %s", e.Code)
	case !e.Accepted:
		status = color.YellowString("REJECTED %s", e.Code)
	}
	line := fmt.Sprintf("tick=%d %s(%s) sync=%d inv=%s pairs=%d %s",
		e.Tick, e.Name, e.PlayerID, e.SyncID, e.Inventory, len(e.Pairs)/2, status)
	if e.Reason != "" && !e.Accepted {
		line += " " + color.New(color.Faint).Sprint(e.Reason)
	}
	return line
}

// restoreCmd copies one player's inventory from an older snapshot into a newer
// one and writes the result as a new snapshot file.
func restoreCmd(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	name := fs.String("name", "", "player name (required)")
	fromPath := fs.String("from", "", "snapshot holding the inventory to restore (required)")
	intoPath := fs.String("into", "", "snapshot to patch (default: latest)")
	outPath := fs.String("out", "", "output snapshot path (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" || strings.TrimSpace(*name) == "" || strings.TrimSpace(*fromPath) == "" {
		fail(2, "restore needs -world, -name and -from")
	}
	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	into := strings.TrimSpace(*intoPath)
	if into == "" {
		into = latestSnapshot(worldDir)
	}
	if into == "" {
		fail(2, "no snapshot found; provide -into or run server until it writes one")
	}

	from, err := snapshot.ReadSnapshot(*fromPath)
	if err != nil {
		fail(1, "read -from snapshot:", err)
	}
	snap, err := snapshot.ReadSnapshot(into)
	if err != nil {
		fail(1, "read -into snapshot:", err)
	}
	if err := restorePlayer(&snap, from, *name); err != nil {
		fail(1, "restore:", err)
	}

	if strings.TrimSpace(*outPath) == "" {
		*outPath = filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.restore.snap.zst", snap.Header.Tick))
	}
	if err := snapshot.WriteSnapshot(*outPath, snap); err != nil {
		fail(1, "write snapshot:", err)
	}
	fmt.Printf("restore ok: %s from tick=%d into tick=%d out=%s\n", *name, from.Header.Tick, snap.Header.Tick, *outPath)
}

func restorePlayer(snap *snapshot.SnapshotV1, from snapshot.SnapshotV1, name string) error {
	var src *snapshot.PlayerV1
	for i := range from.Players {
		if strings.EqualFold(from.Players[i].Name, name) {
			src = &from.Players[i]
			break
		}
	}
	if src == nil {
		return fmt.Errorf("player %q not in source snapshot tick=%d", name, from.Header.Tick)
	}
	inv := append([]inventory.Stack(nil), src.Inventory...)
	for i := range snap.Players {
		if strings.EqualFold(snap.Players[i].Name, name) {
			snap.Players[i].Inventory = inv
			return nil
		}
	}
	snap.Players = append(snap.Players, snapshot.PlayerV1{Name: src.Name, Inventory: inv})
	return nil
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	headerOnly := fs.Bool("header", false, "print only the header")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fail(2, "usage: admin inspect [-header] <file.snap.zst>")
	}
	path := fs.Arg(0)

	if *headerOnly {
		h, err := snapshot.ReadHeader(path)
		if err != nil {
			fail(1, "read header:", err)
		}
		fmt.Printf("world=%s tick=%d version=%d\n", h.WorldID, h.Tick, h.Version)
		return
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fail(1, "read snapshot:", err)
	}
	bold := color.New(color.Bold)
	bold.Printf("world=%s tick=%d version=%d tick_rate=%dHz\n", snap.Header.WorldID, snap.Header.Tick, snap.Header.Version, snap.TickRate)
	for _, p := range snap.Players {
		fmt.Printf("player %-16s %s\n", p.Name, summarize(p.Inventory))
	}
	for _, c := range snap.Containers {
		fmt.Printf("container %-13s %s\n", c.Name, summarize(c.Slots))
	}
}

func summarize(slots []inventory.Stack) string {
	used, items := 0, 0
	for _, s := range slots {
		if !s.IsEmpty() {
			used++
			items += s.Count
		}
	}
	return fmt.Sprintf("%d/%d slots, %d items", used, len(slots), items)
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func fail(code int, a ...any) {
	fmt.Fprintln(os.Stderr, a...)
	os.Exit(code)
}

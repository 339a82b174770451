package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"slotsort.ai/internal/client/session"
	"slotsort.ai/internal/client/sorting"
	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/protocol"
	"slotsort.ai/internal/sim/catalogs"
	"slotsort.ai/internal/sim/tuning"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name      = flag.String("name", "bot", "player name")
		configDir = flag.String("configs", "./configs", "config directory (item catalogs)")
		tuneFile  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		modeFlag  = flag.String("mode", "", "sort mode override: none|alphabet|creative|quantity|raw_id")
		modifier  = flag.String("modifier", "", "held modifier selecting the configured mode: shift|control")
		container = flag.String("container", "", "open this container and sort it")
		origin    = flag.Int("slot", -1, "slot id whose scope is sorted (default: first slot of the screen)")
		timeout   = flag.Duration("timeout", 30*time.Second, "give up after this long")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(*tuneFile)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		tune = tuning.Defaults()
	}
	modeName, err := tune.Sort.ModeFor(*modifier)
	if err != nil {
		logger.Fatalf("modifier: %v", err)
	}
	if *modeFlag != "" {
		modeName = *modeFlag
	}
	mode, err := sorting.ParseMode(modeName)
	if err != nil {
		logger.Fatalf("mode: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	s, err := session.Dial(ctx, session.Config{
		URL:              *url,
		Name:             *name,
		Reorder:          tune.Sort.ServerAccelerated,
		RateMs:           tune.InteractionRateMs,
		IntegratedRateMs: tune.IntegratedInteractionRateMs,
	}, logger)
	if err != nil {
		logger.Fatalf("connect: %v", err)
	}
	defer s.Close()
	go func() {
		if err := s.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Printf("session ended: %v", err)
			cancel()
		}
	}()

	screen := s.Screen()
	if *container != "" {
		if screen, err = s.Open(ctx, *container); err != nil {
			logger.Fatalf("open %s: %v", *container, err)
		}
	}
	slot := *origin
	if slot < 0 && len(screen.Slots) > 0 {
		slot = screen.Slots[0].ID
	}
	scope := sorting.Scope(screen.Slots, slot)
	if scope == nil {
		logger.Fatalf("slot %d has no sortable scope", slot)
	}

	sorter := sorting.New(s.Scheduler(), inventory.NewCatalogOracle(cats), sorting.Config{
		SyncID:           screen.SyncID,
		Bulk:             s.CanReorder(),
		OptimizeCreative: tune.Sort.OptimizeCreative(),
	}, logger)
	res := sorter.Sort(scope, mode)
	if err := s.WaitIdle(ctx); err != nil {
		logger.Fatalf("waiting for the sort to finish: %v", err)
	}
	// Let the last acknowledgments land in the mirror.
	if _, err := s.WaitFor(ctx, func(m protocol.ScreenMsg) bool { return m.Cursor.IsEmpty() }); err != nil {
		logger.Fatalf("cursor never emptied: %v", err)
	}
	total, rejected, code := s.Confirms()
	logger.Printf("sorted %d slots mode=%s bulk=%v clicks=%d confirms=%d rejected=%d %s",
		len(scope), res.Mode, res.Bulk, res.Clicks, total, rejected, code)

	printScope(s.Screen(), scope)
	if *container != "" {
		if err := s.CloseScreen(ctx); err != nil {
			logger.Printf("close: %v", err)
		}
	}
}

func printScope(screen protocol.ScreenMsg, scope []protocol.SlotState) {
	ids := make(map[int]bool, len(scope))
	for _, sl := range scope {
		ids[sl.ID] = true
	}
	for _, sl := range screen.Slots {
		if !ids[sl.ID] {
			continue
		}
		if sl.Stack.IsEmpty() {
			fmt.Printf("%3d  -\n", sl.ID)
			continue
		}
		fmt.Printf("%3d  %s x%d\n", sl.ID, sl.Stack.Item, sl.Stack.Count)
	}
}

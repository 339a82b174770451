package world

import (
	"io"
	"log"
	"sync/atomic"

	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/persistence/snapshot"
	"slotsort.ai/internal/protocol"
	"slotsort.ai/internal/sim/catalogs"
)

type WorldConfig struct {
	ID                 string
	TickRateHz         int
	SnapshotEveryTicks int
	ContainerSlots     int

	// StarterKit fills the main inventory of names never seen before.
	StarterKit []inventory.Stack
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Screen  protocol.ScreenMsg
	Err     string
}

// ActionEnvelope carries one decoded client message. Msg is one of
// protocol.ClickMsg, protocol.ReorderRequest, protocol.OpenMsg or protocol.CloseMsg.
type ActionEnvelope struct {
	PlayerID string
	Msg      any
}

type RecordedJoin struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// World is the authoritative inventory model.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	logger   *log.Logger

	tick atomic.Uint64

	players map[string]*Player
	clients map[string]*clientState
	online  map[string]string // name -> player id

	// Inventories of players that left, keyed by name.
	saved      map[string][]inventory.Stack
	containers map[string]*Container

	inbox chan ActionEnvelope
	join  chan JoinRequest
	leave chan string
	admin chan snapshotReq
	stop  chan struct{}

	nextPlayerNum atomic.Uint64

	counters struct{ clicks, reorders, rejected, severe uint64 }
	metrics  atomic.Value // WorldMetrics

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1
}

type clientState struct {
	Out chan []byte
	// Desync is set when a message was dropped; the next step resends the screen.
	Desync bool
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) *World {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 20
	}
	if cfg.ContainerSlots <= 0 {
		cfg.ContainerSlots = 27
	}
	return &World{
		cfg:        cfg,
		catalogs:   cats,
		logger:     log.New(io.Discard, "", 0),
		players:    map[string]*Player{},
		clients:    map[string]*clientState{},
		online:     map[string]string{},
		saved:      map[string][]inventory.Stack{},
		containers: map[string]*Container{},
		inbox:      make(chan ActionEnvelope, 1024),
		join:       make(chan JoinRequest, 64),
		leave:      make(chan string, 64),
		admin:      make(chan snapshotReq, 8),
		stop:       make(chan struct{}),
	}
}

func (w *World) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	w.logger = l
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)                  { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

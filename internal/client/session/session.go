// Package session is the client end of the websocket protocol. It keeps a
// mirror of the open screen, implements interaction.Remote for the scheduler
// and turns server acknowledgments into scheduler triggers.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"slotsort.ai/internal/client/interaction"
	"slotsort.ai/internal/protocol"
)

type Config struct {
	URL  string
	Name string
	// Reorder asks the authority for the bulk reorder capability.
	Reorder bool

	// Scheduler tick periods against a remote or an integrated authority.
	RateMs           int
	IntegratedRateMs int
}

type Session struct {
	conn    *websocket.Conn
	log     *log.Logger
	welcome protocol.WelcomeMsg

	main  *interaction.MainLoop
	sched *interaction.Scheduler

	writeMu sync.Mutex

	mu       sync.Mutex
	screen   protocol.ScreenMsg
	confirms int
	rejected int
	lastCode string
	changed  chan struct{}
}

// Dial connects, performs the HELLO/WELCOME handshake and waits for the
// initial screen.
func Dial(ctx context.Context, cfg Config, logger *log.Logger) (*Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      cfg.Name,
		Capabilities:    protocol.HelloCapabilities{Reorder: cfg.Reorder},
	}
	if err := writeJSON(conn, hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send HELLO: %w", err)
	}

	var welcome protocol.WelcomeMsg
	if err := readInto(conn, protocol.TypeWelcome, &welcome); err != nil {
		_ = conn.Close()
		return nil, err
	}
	var screen protocol.ScreenMsg
	if err := readInto(conn, protocol.TypeScreen, &screen); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := newSession(conn, welcome, screen, logger)
	rate := cfg.RateMs
	if welcome.Integrated && cfg.IntegratedRateMs > 0 {
		rate = cfg.IntegratedRateMs
	}
	s.sched.SetTickRate(time.Duration(rate) * time.Millisecond)
	s.log.Printf("joined as %s session=%s reorder=%v integrated=%v tick=%dms",
		welcome.PlayerID, welcome.SessionID, welcome.ServerCapabilities.Reorder, welcome.Integrated, rate)
	return s, nil
}

func newSession(conn *websocket.Conn, welcome protocol.WelcomeMsg, screen protocol.ScreenMsg, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Session{
		conn:    conn,
		log:     logger,
		welcome: welcome,
		main:    interaction.NewMainLoop(logger),
		screen:  screen,
		changed: make(chan struct{}),
	}
	s.sched = interaction.New(s, s.main, logger)
	return s
}

func (s *Session) Welcome() protocol.WelcomeMsg { return s.welcome }

// CanReorder reports whether bulk REORDER requests will be honored.
func (s *Session) CanReorder() bool { return s.welcome.ServerCapabilities.Reorder }

func (s *Session) Scheduler() *interaction.Scheduler { return s.sched }

// Run executes the main loop and the read loop until ctx is done or the
// connection drops.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = s.main.Run(ctx) }()
	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()
	defer s.sched.Close()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.handle(msg)
	}
}

func (s *Session) Close() error {
	s.sched.Close()
	if s.conn == nil {
		return nil
	}
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *Session) Click(syncID, slot, button int, action string) error {
	return s.Send(protocol.ClickMsg{
		Type:            protocol.TypeClick,
		ProtocolVersion: protocol.Version,
		SyncID:          syncID,
		Slot:            slot,
		Button:          button,
		Action:          action,
	})
}

func (s *Session) Send(msg any) error {
	if s.conn == nil {
		return errors.New("session not connected")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writeJSON(s.conn, msg)
}

// Open asks for a container screen and waits until the mirror shows it.
func (s *Session) Open(ctx context.Context, container string) (protocol.ScreenMsg, error) {
	prev := s.Screen().SyncID
	if err := s.Send(protocol.OpenMsg{Type: protocol.TypeOpen, ProtocolVersion: protocol.Version, Container: container}); err != nil {
		return protocol.ScreenMsg{}, err
	}
	return s.WaitFor(ctx, func(m protocol.ScreenMsg) bool { return m.SyncID != prev })
}

// CloseScreen closes the open container and waits for the player screen.
func (s *Session) CloseScreen(ctx context.Context) error {
	cur := s.Screen().SyncID
	if cur == protocol.PlayerSyncID {
		return nil
	}
	if err := s.Send(protocol.CloseMsg{Type: protocol.TypeClose, ProtocolVersion: protocol.Version, SyncID: cur}); err != nil {
		return err
	}
	_, err := s.WaitFor(ctx, func(m protocol.ScreenMsg) bool { return m.SyncID == protocol.PlayerSyncID })
	return err
}

// Screen returns a copy of the mirrored screen.
func (s *Session) Screen() protocol.ScreenMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.screen
	out.Slots = append([]protocol.SlotState(nil), s.screen.Slots...)
	return out
}

// Confirms returns how many CONFIRMs arrived, how many of them were
// rejections, and the last rejection code.
func (s *Session) Confirms() (total, rejected int, lastCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirms, s.rejected, s.lastCode
}

// WaitFor blocks until cond holds for the mirrored screen.
func (s *Session) WaitFor(ctx context.Context, cond func(protocol.ScreenMsg) bool) (protocol.ScreenMsg, error) {
	for {
		s.mu.Lock()
		ch := s.changed
		s.mu.Unlock()
		if m := s.Screen(); cond(m) {
			return m, nil
		}
		select {
		case <-ctx.Done():
			return protocol.ScreenMsg{}, ctx.Err()
		case <-ch:
		}
	}
}

// WaitIdle blocks until the scheduler has no queued or in-flight events.
func (s *Session) WaitIdle(ctx context.Context) error {
	t := time.NewTicker(5 * time.Millisecond)
	defer t.Stop()
	for !s.sched.IsIdle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// readInto reads frames until one of type want arrives. An ERROR frame aborts.
func readInto(conn *websocket.Conn, want string, v any) error {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", want, err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case want:
			return json.Unmarshal(msg, v)
		case protocol.TypeError:
			var e protocol.ErrorMsg
			_ = json.Unmarshal(msg, &e)
			return fmt.Errorf("server error %s: %s", e.Code, e.Message)
		}
	}
}

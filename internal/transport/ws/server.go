package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"slotsort.ai/internal/protocol"
	"slotsort.ai/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	// Reorder controls the reorder capability advertised in WELCOME.
	Reorder bool

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		world:   w,
		log:     logger,
		Reorder: true,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, out := s.handshake(conn, isLoopback(r.RemoteAddr))
		if playerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			msgOut, code, reason := s.decode(playerID, msg)
			if code != "" {
				reply(out, protocol.ErrorMsg{Type: protocol.TypeError, ProtocolVersion: protocol.Version, Code: code, Message: reason})
				continue
			}
			if msgOut == nil {
				continue
			}
			select {
			case s.world.Inbox() <- world.ActionEnvelope{PlayerID: playerID, Msg: msgOut}:
			case <-ctx.Done():
			}
		}

		// Cleanup.
		s.world.Leave() <- playerID
	}
}

// decode turns one client frame into a world action. A nil action with an
// empty code means the frame is dropped silently.
func (s *Server) decode(playerID string, msg []byte) (any, string, string) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return nil, protocol.ErrProtoBadRequest, "invalid json"
	}
	if base.ProtocolVersion != protocol.Version {
		return nil, protocol.ErrProtoBadRequest, "bad protocol_version"
	}
	if err := protocol.ValidateMessage(base.Type, msg); err != nil {
		s.log.Printf("WARN %s: %s failed schema: %v", playerID, base.Type, err)
		return nil, protocol.ErrProtoSchema, err.Error()
	}

	switch base.Type {
	case protocol.TypeClick:
		var m protocol.ClickMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, protocol.ErrProtoBadRequest, err.Error()
		}
		return m, "", ""
	case protocol.TypeReorder:
		req, err := protocol.DecodeReorder(msg)
		if err != nil {
			// Unpairable mappings are discarded without a reply.
			s.log.Printf("WARN %s: discarding reorder: %v", playerID, err)
			return nil, "", ""
		}
		return req, "", ""
	case protocol.TypeOpen:
		var m protocol.OpenMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, protocol.ErrProtoBadRequest, err.Error()
		}
		return m, "", ""
	case protocol.TypeClose:
		var m protocol.CloseMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, protocol.ErrProtoBadRequest, err.Error()
		}
		return m, "", ""
	default:
		return nil, protocol.ErrProtoBadRequest, "unexpected message type " + base.Type
	}
}

func (s *Server) handshake(conn *websocket.Conn, integrated bool) (playerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	out = make(chan []byte, 256)
	respCh := make(chan world.JoinResponse, 1)
	s.world.Join() <- world.JoinRequest{Name: hello.PlayerName, Out: out, Resp: respCh}
	resp := <-respCh
	if resp.Err != "" {
		_ = writeJSON(conn, protocol.ErrorMsg{Type: protocol.TypeError, ProtocolVersion: protocol.Version, Code: protocol.ErrProtoBadRequest, Message: resp.Err})
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, resp.Err), time.Now().Add(time.Second))
		return "", nil
	}

	welcome := resp.Welcome
	welcome.SessionID = uuid.NewString()
	welcome.Integrated = integrated
	// Only advertise bulk reorder to clients that asked for it.
	welcome.ServerCapabilities.Reorder = s.Reorder && welcome.ServerCapabilities.Reorder && hello.Capabilities.Reorder

	// Send welcome + the initial screen immediately.
	if err := writeJSON(conn, welcome); err != nil {
		s.world.Leave() <- welcome.PlayerID
		return "", nil
	}
	if err := writeJSON(conn, resp.Screen); err != nil {
		s.world.Leave() <- welcome.PlayerID
		return "", nil
	}
	s.log.Printf("session %s: %s joined as %s (integrated=%v)", welcome.SessionID, hello.PlayerName, welcome.PlayerID, integrated)

	return welcome.PlayerID, out
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func reply(out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

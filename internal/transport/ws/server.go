// Package ws serves the tank over websockets: one pilot seat, any
// number of observers, and a loopback-only command endpoint for local
// tooling. The transport owns authority: only the pilot connection may
// feed inputs and commands into the world.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"frogtank.app/internal/protocol"
	"frogtank.app/internal/sim/tank"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 75 * time.Second
	pingPeriod = 30 * time.Second
)

type Server struct {
	world *tank.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *tank.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		clientID, role, out := s.handshake(conn)
		if clientID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine: frames out, pings on the side.
		go func() {
			ping := time.NewTicker(pingPeriod)
			defer ping.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				case <-ping.C:
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Observers send nothing but pongs; their frames
		// keep flowing as long as the connection answers pings.
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			if role != protocol.RolePilot {
				continue
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.ProtocolVersion != protocol.Version {
				continue
			}
			switch base.Type {
			case protocol.TypeInput:
				var in protocol.InputMsg
				if err := json.Unmarshal(msg, &in); err != nil {
					continue
				}
				s.world.Inbox() <- tank.InputEnvelope{ClientID: clientID, Input: &in}
			case protocol.TypeCmd:
				var cmd protocol.CommandMsg
				if err := json.Unmarshal(msg, &cmd); err != nil {
					continue
				}
				s.world.Inbox() <- tank.InputEnvelope{ClientID: clientID, Cmd: &cmd}
			}
		}

		s.world.Leaves() <- clientID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (clientID, role string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		s.reject(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return "", "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		s.reject(conn, protocol.ErrProtoBadRequest, "malformed HELLO")
		return "", "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		s.reject(conn, protocol.ErrBadVersion, "unsupported protocol_version")
		return "", "", nil
	}
	role = hello.Role
	if role == "" {
		role = protocol.RoleObserver
	}
	if role != protocol.RolePilot && role != protocol.RoleObserver {
		s.reject(conn, protocol.ErrProtoBadRequest, "unknown role")
		return "", "", nil
	}
	name := hello.ClientName
	if name == "" {
		name = role
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan tank.JoinResponse, 1)
	s.world.Joins() <- tank.JoinRequest{Name: name, Role: role, Out: out, Resp: respCh}
	resp := <-respCh
	if resp.ErrCode != "" {
		s.reject(conn, resp.ErrCode, resp.ErrMsg)
		return "", "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Leaves() <- resp.Welcome.ClientID
		return "", "", nil
	}
	return resp.Welcome.ClientID, role, out
}

// reject sends an ERROR message then a close frame; the client gets a
// code it can show instead of a bare disconnect.
func (s *Server) reject(conn *websocket.Conn, code, message string) {
	_ = writeJSON(conn, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code),
		time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// CommandHandler accepts one-shot commands from local tooling, the
// HTTP twin of the pilot's CMD messages. Loopback only.
func (s *Server) CommandHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, 4096)).Decode(&req); err != nil || req.Name == "" {
			http.Error(rw, "bad request", http.StatusBadRequest)
			return
		}
		s.world.Inbox() <- tank.InputEnvelope{Cmd: &protocol.CommandMsg{
			Type:            protocol.TypeCmd,
			ProtocolVersion: protocol.Version,
			Name:            req.Name,
		}}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "name": req.Name})
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

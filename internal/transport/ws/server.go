package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"terrainforge.ai/internal/protocol"
	"terrainforge.ai/internal/query"
)

type Server struct {
	svc *query.Service
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(svc *query.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		svc: svc,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 256 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

type session struct {
	id     string
	colors bool
	out    chan []byte
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		s.log.Printf("session %s connected from %s", sess.id, r.RemoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-sess.out:
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
			reply := s.dispatch(sess, msg)
			if reply == nil {
				continue
			}
			b, err := json.Marshal(reply)
			if err != nil {
				s.log.Printf("session %s: marshal reply: %v", sess.id, err)
				continue
			}
			select {
			case sess.out <- b:
			case <-ctx.Done():
			}
		}
		s.log.Printf("session %s closed", sess.id)
	}
}

// dispatch answers one client message. It returns nil for messages that
// need no reply.
func (s *Server) dispatch(sess *session, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "malformed json")
	}
	if base.ProtocolVersion != protocol.Version {
		return protocol.NewError("", protocol.ErrProtoVersion, "protocol_version must be "+protocol.Version)
	}
	origin := query.Origin{Transport: "ws", Session: sess.id}

	switch base.Type {
	case protocol.TypeTileReq:
		var req protocol.TileReqMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			return protocol.NewError("", protocol.ErrBadRequest, "bad TILE_REQ")
		}
		tile, err := s.svc.Tile(origin, req.ReqID, req.TileX, req.TileZ, sess.colors)
		if err != nil {
			return errorReply(req.ReqID, err)
		}
		return tile

	case protocol.TypePointReq:
		var req protocol.PointReqMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			return protocol.NewError("", protocol.ErrBadRequest, "bad POINT_REQ")
		}
		pt, err := s.svc.Point(origin, req.ReqID, req.X, req.Z)
		if err != nil {
			return errorReply(req.ReqID, err)
		}
		return pt
	}
	return protocol.NewError("", protocol.ErrProtoBadRequest, "unexpected message type "+base.Type)
}

func errorReply(reqID string, err error) protocol.ErrorMsg {
	var re *query.RequestError
	if errors.As(err, &re) {
		return protocol.NewError(reqID, re.Code, re.Message)
	}
	return protocol.NewError(reqID, protocol.ErrInternal, err.Error())
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	sess := &session{
		id:     uuid.NewString(),
		colors: hello.Capabilities.Colors,
		out:    make(chan []byte, maxQ),
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		WorldParams:     s.svc.WorldParams(),
		BiomePalette:    protocol.BiomePalette(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}
	return sess
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

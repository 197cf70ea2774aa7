package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"gsr_go/internal/app"
	"gsr_go/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Local-first app: browser clients only ever come from localhost.
		return origin == "" ||
			strings.HasPrefix(origin, "http://127.0.0.1") ||
			strings.HasPrefix(origin, "http://localhost")
	},
}

// Broadcast queues a fresh view for all connected clients. Non-blocking:
// if the hub is saturated the update is skipped, the next cycle will
// supersede it anyway.
func (s *Server) Broadcast(v app.View) {
	select {
	case s.broadcast <- v:
	default:
	}
}

// runHub is the main hub loop: client registry plus fan-out of cycle views.
func (s *Server) runHub(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			infra.GlobalMetrics.IncrementClients()
			// Send current state on connect
			select {
			case client.send <- s.orch.View():
			default:
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				infra.GlobalMetrics.DecrementClients()
			}

		case view := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- view:
				default:
					// Client too slow, disconnect to keep the hub moving
					delete(s.clients, client)
					close(client.send)
					infra.GlobalMetrics.DecrementClients()
				}
			}
		}
	}
}

// handleWebSocket upgrades the connection and starts the client pumps.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan app.View, 16),
	}
	s.register <- client

	go client.writePump()
	go client.readPump()
}

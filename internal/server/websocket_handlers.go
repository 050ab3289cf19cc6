package server

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"quill/internal/middleware"
)

const wsPingInterval = 30 * time.Second

// NotificationsHandler streams the current user's notifications over a
// WebSocket. Each connection gets its own bus subscription; the connection
// closes when the client disconnects or the subscription is torn down.
func (s *Server) NotificationsHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		// Set by WebSocketAuthRequired before the upgrade.
		uid, ok := conn.Locals("uid").(string)
		if !ok || uid == "" {
			log.Printf("WebSocket notifications: unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		events, cancel := s.bus.Subscribe(uid)
		defer cancel()

		done := make(chan struct{})

		// Read pump. Clients never send payloads here; reading surfaces the
		// close frame so the write pump can stop.
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()

		for {
			select {
			case n, open := <-events:
				if !open {
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
					return
				}
				if err := conn.WriteJSON(n); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	})
}

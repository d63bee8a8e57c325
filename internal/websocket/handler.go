package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"compost-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades HTTP connection to WebSocket. The route sits outside the auth
// middleware, so the token comes from the query string (browsers cannot set handshake
// headers) or from a bearer Authorization header.
func HandleWebSocket(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			var ok bool
			if tokenString, ok = middleware.BearerToken(r); !ok {
				hub.logger.Info("❌ No token for WebSocket connection")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		userClaims, err := middleware.ParseToken(jwtSecret, tokenString)
		if err != nil {
			hub.logger.Info("❌ Invalid WebSocket token", zap.Error(err))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Warn("❌ WebSocket upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(userClaims.UserID, conn, hub)
		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}

package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hearthworks/hearth-be/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers cannot set an Authorization header on the upgrade request,
		// so origin checking is left to the reverse proxy.
		return true
	},
}

// Handler upgrades an authenticated connection and registers it with the hub.
// The token travels in the `token` query parameter because the upgrade
// request carries no headers from the client app.
func Handler(hub *Hub, verifier *middleware.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required", "code": middleware.CodeMissingToken})
			return
		}

		claims, err := verifier.Parse(token)
		if err != nil || claims.TokenType != middleware.TokenAccess {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": middleware.CodeTokenInvalid})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			zap.L().Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, 256),
			userID: claims.UserID,
			role:   claims.Role,
		}
		hub.register <- client

		zap.L().Debug("websocket client connected", zap.Uint("user_id", client.userID))

		go client.writePump()
		go client.readPump()
	}
}

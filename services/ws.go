package services

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/royalbingo/bingo-backend/game"
	"github.com/royalbingo/bingo-backend/utils/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the frontend origins in production
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the connection and starts an anonymous
// session. Identity and room binding arrive later as AUTH / JOIN_ROOM
// messages.
func HandleWebSocket(hub *Hub, reg *game.Registry, auth *Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("[ws] upgrade error: %v", err)
			return
		}

		client := NewClient(conn, hub, reg, auth)
		logger.Debugf("[ws] new session %s", client.id)
		client.start()
	}
}

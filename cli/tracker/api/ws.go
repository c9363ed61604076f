package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from other origins; the API key is the gate.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades the request and hands the connection to the hub. The call
// blocks until the session ends.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	session := h.hub.NewSession(principalFrom(c))
	session.AttachConn(conn)
}

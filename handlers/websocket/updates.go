// Package websocket pushes live draw events to connected clients. Each
// connection owns one hub subscription and a single write pump draining
// it; the client filters events to the canvas it currently displays.
package websocket

import (
	"net/http"
	"time"

	"canvas-collab/hub"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Clients only send control frames; anything larger is a protocol
	// violation.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The update stream is read-only and unauthenticated, so cross-origin
	// dials are harmless.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleUpdates upgrades the connection and streams hub events until the
// client goes away.
func HandleUpdates(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Warn("WebSocket upgrade failed")
			return
		}

		sub := h.Subscribe()
		log := logrus.WithField("subscription_id", sub.ID())
		log.Info("Update subscriber connected")

		go writePump(conn, sub, log)
		readLoop(conn, sub, log)
	}
}

// writePump serializes hub events onto the connection and keeps it alive
// with pings. Exits when the subscription closes or a write fails.
func writePump(conn *websocket.Conn, sub *hub.Subscription, log *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-sub.Events():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.WithError(err).Debug("Write failed, dropping subscriber")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards inbound frames; its job is to notice the peer going
// away and tear the subscription down.
func readLoop(conn *websocket.Conn, sub *hub.Subscription, log *logrus.Entry) {
	defer func() {
		sub.Close()
		conn.Close()
		log.Info("Update subscriber disconnected")
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("Unexpected close")
			}
			return
		}
	}
}

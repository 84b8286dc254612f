// FilePath: api/resources/api.resource.stream.go
package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bartech/facilityhub/internal/hub"
	"github.com/bartech/facilityhub/internal/hubservice"
	nuts "github.com/vaudience/go-nuts"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandlers owns the WebSocket push channel for real-time updates.
type StreamHandlers struct {
	hubservice *hubservice.HubService
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard clients connect cross-origin; auth is not carried on the
	// stream, it only ever pushes data the public endpoints already expose.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is what observers may send upstream.
type clientMessage struct {
	Event string `json:"event"`
}

// @Summary Real-time reading stream
// @Description WebSocket endpoint pushing connected/reading_update/latest_data events
// @Tags monitoring
// @Param facility_id query string false "Restrict the stream to one facility"
// @Router /monitoring/stream [get]
func (h *StreamHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Warnf("[Stream] Upgrade failed: %v", err)
		return
	}

	sub := h.hubservice.Hub.Subscribe(r.URL.Query().Get("facility_id"))
	defer h.hubservice.Hub.Unsubscribe(sub)

	go h.readLoop(conn, sub)
	h.writeLoop(conn, sub)
}

// writeLoop drains the subscription channel onto the socket and keeps the
// connection alive with pings. Returns when the channel closes or a write
// fails; the deferred Unsubscribe in Stream then tears the subscription down.
func (h *StreamHandlers) writeLoop(conn *websocket.Conn, sub *hub.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.Events():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				nuts.L.Debugf("[Stream] Write to %s failed: %v", sub.ID, err)
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

// readLoop consumes client frames: pongs refresh the read deadline, a
// request_snapshot message triggers a one-off latest_data delivery.
func (h *StreamHandlers) readLoop(conn *websocket.Conn, sub *hub.Subscription) {
	defer conn.Close()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.Event == "request_snapshot" || msg.Event == "request_latest_data" {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := h.hubservice.Hub.Snapshot(ctx, sub); err != nil {
				nuts.L.Warnf("[Stream] Snapshot for %s failed: %v", sub.ID, err)
			}
			cancel()
		}
	}
}

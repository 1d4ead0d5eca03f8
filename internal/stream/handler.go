package stream

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades GET /events to a websocket. An optional
// ?events=locationChanged,headingChanged query narrows the stream.
func Handler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.Debug("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		client := hub.Register(parseEvents(c.Query("events"))...)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		// Clients only listen; reading detects the disconnect
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}
}

func parseEvents(raw string) []string {
	var events []string
	for _, e := range strings.Split(raw, ",") {
		if e = strings.TrimSpace(e); e != "" {
			events = append(events, e)
		}
	}
	return events
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/realtime"
)

const pingInterval = 25 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ScoresWS streams score updates for the authenticated user until the
// client disconnects or the hub shuts down.
func ScoresWS(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			app.Logger().Warnf("[request_id=%s] websocket upgrade failed: %v", c.GetString("request_id"), err)
			return
		}
		cl := realtime.NewClient(user.ID, conn)
		if !app.Hub().Register(cl) {
			_ = conn.Close()
			return
		}
		defer app.Hub().Unregister(cl)

		done := make(chan struct{})
		defer close(done)
		go func() {
			t := time.NewTicker(pingInterval)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-t.C:
					if err := cl.Ping(); err != nil {
						app.Hub().Unregister(cl)
						return
					}
				}
			}
		}()

		// read loop ends on client close/error
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

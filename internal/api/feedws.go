package api

import (
	"net/http"
	"time"

	"dailyrise_engine/internal/feed"
	"dailyrise_engine/internal/middleware"
	"dailyrise_engine/internal/service"
	"dailyrise_engine/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type feedRoutes struct {
	feed      *feed.Subscriber
	points    *service.PointsService
	reminders service.ReminderServiceI
	hub       *PushHub
}

func NewFeedRoutes(handler *gin.RouterGroup, fs *feed.Subscriber, ps *service.PointsService, rs service.ReminderServiceI, hub *PushHub) {
	r := &feedRoutes{feed: fs, points: ps, reminders: rs, hub: hub}
	h := handler.Group("/feed")

	h.GET("/ws", r.handleWebSocket)
}

// handleWebSocket streams challenge feed events, points invalidations, and
// alarm activity to one authenticated session. Attaching also re-arms the
// user's enabled reminders so timers come back after a process restart.
func (r *feedRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()
	userID := middleware.UserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if err := r.reminders.ArmAll(c.Request.Context(), userID); err != nil {
		log.Warn("failed to arm reminders on session attach",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	sub := r.feed.Subscribe(userID)
	defer sub.Unsubscribe()

	signals, cancelSignals := r.points.SubscribeInvalidations(userID)
	defer cancelSignals()

	pushes, cancelPushes := r.hub.Subscribe(userID)
	defer cancelPushes()

	// Reader exists only to notice the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return

		case ev, ok := <-sub.C:
			if !ok || !r.write(conn, Envelope{Type: string(ev.Type), Payload: ev}) {
				return
			}

		case sig, ok := <-signals:
			if !ok || !r.write(conn, Envelope{Type: "points_invalidated", Payload: sig}) {
				return
			}

		case env, ok := <-pushes:
			if !ok || !r.write(conn, env) {
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

func (r *feedRoutes) write(conn *websocket.Conn, env Envelope) bool {
	data, err := json.Marshal(env)
	if err != nil {
		logger.Logger().Error("failed to encode websocket frame", zap.Error(err))
		return true
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return false
	}
	return true
}

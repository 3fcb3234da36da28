package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/middlewares"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsMaxMessage = 4096
)

type RealtimeController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeController accepts handshakes from allowedOrigins; "*" allows any origin.
func NewRealtimeController(h *hub.Hub, allowedOrigins []string) *RealtimeController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &RealtimeController{
		Hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

type clientCommand struct {
	Action string `json:"action"`
}

// Connect -> GET /ws, subscribes the caller to their own notification topic
func (rc *RealtimeController) Connect(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.InfoLogger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	topic := services.NotificationTopic(userID)
	client, err := rc.Hub.Subscribe(topic, ws)
	if err != nil {
		ws.Close()
		return
	}
	defer rc.Hub.Unsubscribe(client)

	fields := logrus.Fields{"user_id": userID, "topic": topic}
	utils.InfoLogger.WithFields(fields).Info("Real-time client connected")

	timeout := rc.Hub.WriteTimeout()
	if err := client.Send(hub.EventSubscribed, gin.H{"topic": topic}, timeout); err != nil {
		return
	}

	ws.SetReadLimit(wsMaxMessage)
	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go rc.keepAlive(ws, done, timeout)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		var cmd clientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			client.Send(hub.EventError, gin.H{"message": "Malformed message"}, timeout)
			continue
		}
		switch strings.ToLower(cmd.Action) {
		case "ping":
			client.Send(hub.EventPong, gin.H{"time": time.Now()}, timeout)
		default:
			client.Send(hub.EventError, gin.H{"message": "Unknown action: " + cmd.Action}, timeout)
		}
	}

	utils.InfoLogger.WithFields(fields).Info("Real-time client disconnected")
}

// keepAlive sends protocol pings so idle connections are detected.
func (rc *RealtimeController) keepAlive(ws *websocket.Conn, done <-chan struct{}, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"steprivals/internal/service"
	"steprivals/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub fans challenge projection snapshots out to websocket subscribers. It
// stands in for the document store's realtime listeners: subscribers receive
// a fresh snapshot whenever the sync worker or a command mutates the
// challenge.
type Hub struct {
	cs service.ChallengeServiceI

	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[*websocket.Conn]*sync.Mutex
}

func NewHub(cs service.ChallengeServiceI) *Hub {
	return &Hub{
		cs:          cs,
		subscribers: make(map[uuid.UUID]map[*websocket.Conn]*sync.Mutex),
	}
}

// Publish pushes the current projection to every subscriber of the challenge.
func (h *Hub) Publish(challengeID uuid.UUID) {
	log := logger.Logger()

	h.mu.RLock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.subscribers[challengeID]))
	for conn, mu := range h.subscribers[challengeID] {
		conns[conn] = mu
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	payload, err := h.snapshot(context.Background(), challengeID)
	if err != nil {
		log.Error("failed to build challenge snapshot",
			zap.String("challenge_id", challengeID.String()),
			zap.Error(err))
		return
	}

	for conn, mu := range conns {
		mu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, payload)
		mu.Unlock()
		if err != nil {
			h.unsubscribe(challengeID, conn)
			conn.Close()
		}
	}
}

func (h *Hub) snapshot(ctx context.Context, challengeID uuid.UUID) ([]byte, error) {
	now := time.Now().UTC()
	view, err := h.cs.Projection(ctx, challengeID, now)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Message{
		Type: "challenge_snapshot",
		Data: viewJSON(view, now),
	})
}

func (h *Hub) subscribe(challengeID uuid.UUID, conn *websocket.Conn) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[challengeID] == nil {
		h.subscribers[challengeID] = make(map[*websocket.Conn]*sync.Mutex)
	}
	mu := &sync.Mutex{}
	h.subscribers[challengeID][conn] = mu
	return mu
}

func (h *Hub) unsubscribe(challengeID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subscribers[challengeID], conn)
	if len(h.subscribers[challengeID]) == 0 {
		delete(h.subscribers, challengeID)
	}
}

type wsRoutes struct {
	hub *Hub
}

func NewWSRoutes(handler *gin.RouterGroup, hub *Hub) {
	r := &wsRoutes{hub: hub}
	h := handler.Group("/ws")

	h.GET("/challenges/:challenge_id", r.handleWebSocket)
}

func (r *wsRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	challengeID, err := uuid.Parse(c.Param("challenge_id"))
	if err != nil {
		log.Error("failed to parse challenge_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	mu := r.hub.subscribe(challengeID, conn)

	// Initial snapshot so a fresh subscriber does not wait a full sync tick.
	payload, err := r.hub.snapshot(c.Request.Context(), challengeID)
	if err != nil {
		log.Error("failed to build initial snapshot", zap.Error(err))
		r.hub.unsubscribe(challengeID, conn)
		conn.Close()
		return
	}

	mu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	mu.Unlock()
	if err != nil {
		r.hub.unsubscribe(challengeID, conn)
		conn.Close()
		return
	}

	go r.readLoop(challengeID, conn)
}

// readLoop drains inbound frames so close events are noticed; subscribers
// are push-only.
func (r *wsRoutes) readLoop(challengeID uuid.UUID, conn *websocket.Conn) {
	log := logger.Logger()

	defer func() {
		r.hub.unsubscribe(challengeID, conn)
		conn.Close()
	}()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("websocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}

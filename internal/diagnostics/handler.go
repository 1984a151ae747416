package diagnostics

import (
	"net/http"
	"strconv"
	"time"

	"safaristay/internal/pkg/logger"
	"safaristay/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Handler struct {
	ring     *Ring
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewHandler(ring *Ring, allowedOrigins []string, log logrus.FieldLogger) *Handler {
	return &Handler{
		ring: ring,
		log:  logger.OrDiscard(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// RegisterRoutes mounts the endpoints on an admin-only group.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/diagnostics", h.Snapshot)
	admin.GET("/diagnostics/ws", h.Stream)
}

// Snapshot godoc
// @Summary Recent diagnostic entries
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param kind query string false "Only entries of this kind"
// @Param limit query int false "Newest N entries"
// @Success 200 {object} map[string]interface{}
// @Router /admin/diagnostics [get]
func (h *Handler) Snapshot(c *gin.Context) {
	entries := h.ring.Snapshot()

	if kind := c.Query("kind"); kind != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}

	response.Success(c, http.StatusOK, gin.H{
		"capacity": h.ring.Capacity(),
		"count":    len(entries),
		"entries":  entries,
	})
}

// Stream upgrades to a websocket, replays the snapshot and then pushes new
// entries as they are recorded.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("diagnostics_upgrade_failed")
		return
	}

	entries, cancel := h.ring.Subscribe(128)
	backlog := h.ring.Snapshot()

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, backlog, entries, done)
	cancel()
}

// readPump only watches for the client going away.
func (h *Handler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, backlog []Entry, entries <-chan Entry, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	var lastSeq uint64
	for _, e := range backlog {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(e); err != nil {
			return
		}
		lastSeq = e.Seq
	}

	for {
		select {
		case <-done:
			return
		case e, ok := <-entries:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if e.Seq <= lastSeq {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
			lastSeq = e.Seq
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

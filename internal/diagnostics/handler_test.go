package diagnostics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(ring *Ring) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(ring, nil, nil).RegisterRoutes(r.Group("/admin"))
	return r
}

func TestSnapshotHandler(t *testing.T) {
	ring := NewRing(5)
	ring.Record("notification", "info", "sent", nil)
	ring.Record("gateway", "warn", "auth_failed", nil)
	ring.Record("notification", "error", "failed", nil)

	w := httptest.NewRecorder()
	newRouter(ring).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/diagnostics?kind=notification&limit=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Capacity int     `json:"capacity"`
			Count    int     `json:"count"`
			Entries  []Entry `json:"entries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 5, body.Data.Capacity)
	require.Len(t, body.Data.Entries, 1)
	assert.Equal(t, "failed", body.Data.Entries[0].Message)
}

func TestStreamHandler(t *testing.T) {
	ring := NewRing(5)
	ring.Record("notification", "info", "backlog", nil)

	srv := httptest.NewServer(newRouter(ring))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/diagnostics/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first Entry
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "backlog", first.Message)

	ring.Record("webhook", "info", "live", nil)

	var second Entry
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "live", second.Message)
	assert.Greater(t, second.Seq, first.Seq)
}

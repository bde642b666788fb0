// WebSocket hub pushing bid outcomes to connected driver apps.
package http

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"drover/internal/types"
)

type Hub struct {
	conns    sync.Map // types.ID -> *driverConn
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type driverConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleDriverSocket upgrades the connection and keeps it registered
// until the read loop sees an error. Inbound frames are ignored; the
// socket is push-only.
func (h *Hub) HandleDriverSocket(c *gin.Context) {
	driverID := types.ID(c.Param("driver_id"))
	if driverID == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "driver_id", string(driverID), "error", err)
		return
	}
	dc := &driverConn{conn: conn}
	h.conns.Store(driverID, dc)
	h.logger.Info("driver socket connected", "driver_id", string(driverID))

	defer func() {
		h.conns.CompareAndDelete(driverID, dc)
		_ = conn.Close()
		h.logger.Info("driver socket disconnected", "driver_id", string(driverID))
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Push writes a JSON frame to the driver's socket if one is connected;
// a missing or dead connection just drops the frame.
func (h *Hub) Push(driverID types.ID, v any) {
	val, ok := h.conns.Load(driverID)
	if !ok {
		h.logger.Debug("no socket for driver, dropping frame", "driver_id", string(driverID))
		return
	}
	dc := val.(*driverConn)
	dc.mu.Lock()
	err := dc.conn.WriteJSON(v)
	dc.mu.Unlock()
	if err != nil {
		h.logger.Warn("websocket push failed", "driver_id", string(driverID), "error", err)
	}
}

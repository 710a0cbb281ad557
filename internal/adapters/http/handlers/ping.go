package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// PingHandler answers unauthenticated reachability checks.
type PingHandler struct {
	clock ports.Clock
}

// NewPingHandler creates a ping handler. A nil clock uses the system clock.
func NewPingHandler(clock ports.Clock) *PingHandler {
	if clock == nil {
		clock = ports.SystemClock
	}

	return &PingHandler{clock: clock}
}

// Ping handles GET /ping with the server time in unix seconds.
func (h *PingHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.PingResponse{Ack: h.clock.Now().Unix()})
}

// Root handles GET / by redirecting to /ping.
func (h *PingHandler) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, "/ping")
}

// RegisterRoutes registers / and /ping on the engine.
func (h *PingHandler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/", h.Root)
	engine.GET("/ping", h.Ping)
}

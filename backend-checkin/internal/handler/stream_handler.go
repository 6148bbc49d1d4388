package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/service"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/logger"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/middleware"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/response"
	"go.uber.org/zap"
)

// DefaultHeartbeatInterval keeps idle dashboard connections open through proxies
const DefaultHeartbeatInterval = 15 * time.Second

// AdmissionFeed delivers a session's admission events as raw JSON
type AdmissionFeed interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error)
}

// StreamHandler serves the live admissions dashboard over SSE
type StreamHandler struct {
	checkInService service.CheckInService
	feed           AdmissionFeed
	heartbeat      time.Duration
	log            *logger.Logger
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(checkInService service.CheckInService, feed AdmissionFeed, heartbeat time.Duration, log *logger.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StreamHandler{
		checkInService: checkInService,
		feed:           feed,
		heartbeat:      heartbeat,
		log:            log,
	}
}

// Stream handles GET /sessions/:id/checkins/stream
// The first event is a "stats" snapshot, followed by one "admission" event
// per admit or revert and a "ping" on every heartbeat.
func (h *StreamHandler) Stream(c *gin.Context) {
	sessionID := c.Param("id")
	ctx := c.Request.Context()

	stats, err := h.checkInService.SessionStats(ctx, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	events, stop, err := h.feed.Subscribe(ctx, sessionID)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to subscribe to admission feed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, response.ServiceUnavailable("Live feed unavailable"))
		return
	}
	defer stop()

	middleware.SkipAudit(c)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("stats", stats)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case payload, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("admission", json.RawMessage(payload))
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}

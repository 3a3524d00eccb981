package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"coinpredict/internal/stream"
)

type StreamHandler struct {
	Hub    *stream.Hub
	Logger *zap.Logger
	// OriginPatterns lists extra allowed origins for browser clients.
	OriginPatterns []string
}

func (h *StreamHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/resolutions/stream", h.stream)
}

// @Summary Live resolution run summaries (websocket)
// @Tags resolution
// @Success 101 {string} string "switching protocols"
// @Router /api/v1/resolutions/stream [get]
func (h *StreamHandler) stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	events, unsubscribe := h.Hub.Subscribe(16)
	defer unsubscribe()

	// Clients only listen; CloseRead cancels ctx once the peer goes away.
	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				if h.Logger != nil {
					h.Logger.Debug("websocket write failed", zap.Error(err))
				}
				return
			}
		}
	}
}

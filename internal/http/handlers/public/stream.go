package public

import (
	"io"
	"time"

	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/logger"

	"github.com/gin-gonic/gin"
)

const streamHeartbeatInterval = 25 * time.Second

// StreamBatchProgress 以 SSE 推送批次进度
func (h *Handler) StreamBatchProgress(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	progress, err := h.BatchService.Progress(id)
	if err != nil {
		respondBatchError(c, err)
		return
	}

	ctx := c.Request.Context()
	events, cancel, err := h.Hub.Subscribe(ctx, id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stream_unavailable", err)
		return
	}
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("progress", progress)
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	logger.Debugw("batch_stream_opened", "batch_id", id, "request_id", c.GetString("request_id"))
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
	logger.Debugw("batch_stream_closed", "batch_id", id)
}

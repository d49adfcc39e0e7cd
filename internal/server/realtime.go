package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/origincircle/origin/internal/chat"
)

const (
	sseEventFeedChanged = "feed-change"
	sseEventChat        = "chat"
	sseEventHeartbeat   = "heartbeat"

	heartbeatInterval = 25 * time.Second
)

type feedChangePayload struct {
	Kind      string `json:"kind"`
	MomentID  string `json:"moment_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

type chatEventPayload struct {
	EventType      string `json:"event_type"`
	ConversationID string `json:"conversation_id"`
	Timestamp      string `json:"timestamp"`
}

// handleEvents streams feed and chat changes to the client over SSE until
// the connection drops. Slow clients miss events rather than stall writers.
func (h *httpHandler) handleEvents(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming_unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := c.Request.Context()
	feedEvents, unsubscribeFeed := h.store.Subscribe(ctx)
	defer unsubscribeFeed()

	var chatEvents <-chan chat.Event
	if h.dispatcher != nil {
		stream, unsubscribeChat := h.dispatcher.Subscribe(ctx, c.GetString(userIDContextKey))
		defer unsubscribeChat()
		chatEvents = stream
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-feedEvents:
			if !open {
				return
			}
			writeSSE(c, flusher, sseEventFeedChanged, feedChangePayload{
				Kind:      string(event.Kind),
				MomentID:  event.MomentID,
				Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			})
		case event, open := <-chatEvents:
			if !open {
				chatEvents = nil
				continue
			}
			writeSSE(c, flusher, sseEventChat, chatEventPayload{
				EventType:      event.EventType,
				ConversationID: event.ConversationID,
				Timestamp:      event.Timestamp.UTC().Format(time.RFC3339),
			})
		case <-heartbeat.C:
			writeSSE(c, flusher, sseEventHeartbeat, gin.H{"ts": time.Now().UTC().Format(time.RFC3339)})
		}
	}
}

func writeSSE(c *gin.Context, flusher http.Flusher, eventName string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = c.Writer.WriteString("event: " + eventName + "\n")
	_, _ = c.Writer.WriteString("data: " + string(data) + "\n\n")
	flusher.Flush()
}

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/origincircle/origin/internal/assist"
	"github.com/origincircle/origin/internal/chat"
	"github.com/origincircle/origin/internal/users"
)

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.GetString(userIDContextKey))
	if errors.Is(err, users.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile_not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_load_failed"})
		return
	}
	c.JSON(http.StatusOK, toProfilePayload(profile))
}

type putProfileRequestPayload struct {
	Name      string `json:"name"`
	AvatarRef string `json:"avatar_ref"`
	CoverRef  string `json:"cover_ref"`
	Bio       string `json:"bio"`
	Phone     string `json:"phone"`
	DOB       string `json:"dob"`
}

// handlePutProfile replaces the cached profile wholesale with the submitted
// fields; there is no per-field patch.
func (h *httpHandler) handlePutProfile(c *gin.Context) {
	var request putProfileRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID := c.GetString(userIDContextKey)
	existing, err := h.profiles.Get(userID)
	if err != nil && !errors.Is(err, users.ErrProfileNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_load_failed"})
		return
	}

	updated := users.Profile{
		UserID:    userID,
		Name:      request.Name,
		AvatarRef: request.AvatarRef,
		CoverRef:  request.CoverRef,
		Bio:       request.Bio,
		Email:     existing.Email,
		Phone:     request.Phone,
		DOB:       request.DOB,
		Moments:   existing.Moments,
		Friends:   existing.Friends,
	}
	if err := h.profiles.Save(updated); err != nil {
		if errors.Is(err, users.ErrInvalidProfile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_profile"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_save_failed"})
		return
	}
	c.JSON(http.StatusOK, toProfilePayload(updated))
}

func (h *httpHandler) handleConversations(c *gin.Context) {
	conversations := h.chat.ListConversations()
	payload := make([]conversationPayload, 0, len(conversations))
	for _, conversation := range conversations {
		payload = append(payload, toConversationPayload(conversation))
	}
	c.JSON(http.StatusOK, gin.H{"conversations": payload})
}

func (h *httpHandler) handleMessages(c *gin.Context) {
	messages, err := h.chat.Messages(c.Param("id"))
	if errors.Is(err, chat.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation_not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "messages_load_failed"})
		return
	}
	payload := make([]messagePayload, 0, len(messages))
	for _, message := range messages {
		payload = append(payload, toMessagePayload(message))
	}
	c.JSON(http.StatusOK, gin.H{"messages": payload})
}

type sendMessageRequestPayload struct {
	Text string `json:"text"`
}

func (h *httpHandler) handleSendMessage(c *gin.Context) {
	var request sendMessageRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	message, err := h.chat.Send(c.Param("id"), c.GetString(userIDContextKey), request.Text)
	if errors.Is(err, chat.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation_not_found"})
		return
	}
	if errors.Is(err, chat.ErrEmptyMessage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message_text_required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "message_send_failed"})
		return
	}
	c.JSON(http.StatusCreated, toMessagePayload(message))
}

func (h *httpHandler) handleNotifications(c *gin.Context) {
	notifications := h.notifications.List()
	payload := make([]notificationPayload, 0, len(notifications))
	for _, notification := range notifications {
		payload = append(payload, toNotificationPayload(notification))
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": payload,
		"unread_count":  h.notifications.UnreadCount(),
	})
}

func (h *httpHandler) handleMarkNotificationsRead(c *gin.Context) {
	h.notifications.MarkAllRead()
	c.JSON(http.StatusOK, gin.H{"unread_count": 0})
}

type assistRefineRequestPayload struct {
	Mode string `json:"mode"`
	Text string `json:"text"`
}

func (h *httpHandler) handleAssistRefine(c *gin.Context) {
	var request assistRefineRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	var refined string
	switch request.Mode {
	case "thought":
		refined = h.assistant.RefineThought(c.Request.Context(), request.Text)
	case "song":
		refined = h.assistant.SuggestSong(c.Request.Context(), request.Text)
	case "bio":
		refined = h.assistant.RefineBio(c.Request.Context(), request.Text)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": refined})
}

func (h *httpHandler) handleNearbyPlaces(c *gin.Context) {
	if h.positions == nil {
		c.JSON(http.StatusOK, gin.H{"places": assist.MinimalFallbackPlaces()})
		return
	}
	position, err := h.positions.CurrentPosition(c.Request.Context())
	if err != nil {
		h.logger.Debug("position lookup failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"places": assist.MinimalFallbackPlaces()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": h.assistant.NearbyPlaces(c.Request.Context(), position.Lat, position.Lon)})
}

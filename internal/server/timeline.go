package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/origincircle/origin/internal/feed"
	"github.com/origincircle/origin/internal/notify"
	syncpolicy "github.com/origincircle/origin/internal/sync"
)

func (h *httpHandler) handleTimeline(c *gin.Context) {
	// First load: populate the store before assembling.
	if h.store.Len() == 0 {
		if err := h.publisher.Refresh(c.Request.Context()); err != nil {
			h.logger.Warn("initial timeline refresh failed", zap.Error(err))
		}
	}
	h.respondWithTimeline(c)
}

func (h *httpHandler) handleRefresh(c *gin.Context) {
	if err := h.publisher.Refresh(c.Request.Context()); err != nil {
		h.logger.Warn("timeline refresh failed", zap.Error(err))
	}
	h.respondWithTimeline(c)
}

func (h *httpHandler) respondWithTimeline(c *gin.Context) {
	assembled := feed.Assemble(h.store.Snapshot(), h.sessionDOB(c), time.Now().UTC())
	c.JSON(http.StatusOK, toTimelinePayload(assembled, h.publisher.Refreshing()))
}

type postMomentRequestPayload struct {
	Kind          string `json:"kind"`
	Body          string `json:"body"`
	MediaRef      string `json:"media_ref"`
	LocationLabel string `json:"location_label"`
}

type postMomentResponsePayload struct {
	State  string        `json:"state"`
	Moment momentPayload `json:"moment"`
}

func (h *httpHandler) handlePostMoment(c *gin.Context) {
	var request postMomentRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	kind, err := feed.ParseKind(request.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_kind"})
		return
	}

	author := h.sessionAuthor(c)
	outcome, err := h.publisher.Post(c.Request.Context(), author, syncpolicy.Draft{
		Kind:          kind,
		Body:          request.Body,
		MediaRef:      request.MediaRef,
		LocationLabel: request.LocationLabel,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_draft"})
		return
	}

	if err := h.profiles.TouchActivity(author.ID, true); err != nil {
		h.logger.Debug("activity touch failed", zap.Error(err))
	}

	c.JSON(http.StatusCreated, postMomentResponsePayload{
		State:  string(outcome.State),
		Moment: toMomentPayload(outcome.Moment),
	})
}

type reactionRequestPayload struct {
	Kind string `json:"kind"`
}

func (h *httpHandler) handleReaction(c *gin.Context) {
	momentID, err := feed.NewMomentID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_moment_id"})
		return
	}
	var request reactionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if _, ok := feed.ReactionLabels[request.Kind]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_reaction"})
		return
	}

	actor := h.sessionAuthor(c)
	target, known := h.store.Get(momentID.String())
	applied := h.store.ApplyReaction(momentID.String(), request.Kind, feed.LabelFor(request.Kind), actor.ID)

	if applied && known && target.Author.ID != actor.ID {
		content := fmt.Sprintf("reacted %s to your moment.", feed.LabelFor(request.Kind))
		if _, err := h.notifications.Record(notify.KindReaction, actor.ID, actor.Name, actor.AvatarRef, content, momentID.String()); err != nil {
			h.logger.Debug("reaction notification failed", zap.Error(err))
		}
	}

	// Unknown identifiers are deliberately not an error: the moment may have
	// vanished in a refresh after the client rendered it.
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

type commentRequestPayload struct {
	Text string `json:"text"`
}

func (h *httpHandler) handleComment(c *gin.Context) {
	momentID, err := feed.NewMomentID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_moment_id"})
		return
	}
	var request commentRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comment_text_required"})
		return
	}

	commentID, err := h.ids.NewID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "id_generation_failed"})
		return
	}
	actor := h.sessionAuthor(c)
	comment := feed.Comment{
		ID:        commentID,
		Author:    actor,
		Text:      strings.TrimSpace(request.Text),
		CreatedAt: time.Now().UTC(),
	}

	target, known := h.store.Get(momentID.String())
	appended := h.store.AppendComment(momentID.String(), comment)

	if appended && known && target.Author.ID != actor.ID {
		content := fmt.Sprintf("commented: %q", comment.Text)
		if _, err := h.notifications.Record(notify.KindComment, actor.ID, actor.Name, actor.AvatarRef, content, momentID.String()); err != nil {
			h.logger.Debug("comment notification failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"appended": appended, "comment": commentPayload{
		ID:        comment.ID,
		Author:    toAuthorPayload(comment.Author),
		Text:      comment.Text,
		Timestamp: comment.CreatedAt.Format(time.RFC3339),
	}})
}

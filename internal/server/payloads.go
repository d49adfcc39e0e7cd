package server

import (
	"time"

	"github.com/origincircle/origin/internal/chat"
	"github.com/origincircle/origin/internal/feed"
	"github.com/origincircle/origin/internal/notify"
	"github.com/origincircle/origin/internal/users"
)

type authorPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarRef string `json:"avatar_ref"`
}

type reactionPayload struct {
	Kind    string   `json:"kind"`
	Label   string   `json:"label"`
	Count   int      `json:"count"`
	UserIDs []string `json:"user_ids"`
}

type commentPayload struct {
	ID        string        `json:"id"`
	Author    authorPayload `json:"author"`
	Text      string        `json:"text"`
	Timestamp string        `json:"timestamp"`
}

type momentPayload struct {
	ID            string            `json:"id"`
	Author        authorPayload     `json:"author"`
	Kind          string            `json:"kind"`
	Body          string            `json:"body"`
	MediaRef      string            `json:"media_ref,omitempty"`
	LocationLabel string            `json:"location_label,omitempty"`
	Timestamp     string            `json:"timestamp"`
	Reactions     []reactionPayload `json:"reactions"`
	Comments      []commentPayload  `json:"comments"`
	SyncStatus    string            `json:"sync_status"`
}

type timelineEntryPayload struct {
	momentPayload
	Icon      string `json:"icon"`
	TimeLabel string `json:"time_label"`
}

type timelineResponsePayload struct {
	Entries    []timelineEntryPayload `json:"entries"`
	Birthday   bool                   `json:"birthday"`
	Refreshing bool                   `json:"refreshing"`
}

type profilePayload struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	AvatarRef string `json:"avatar_ref"`
	CoverRef  string `json:"cover_ref"`
	Bio       string `json:"bio"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	DOB       string `json:"dob"`
	Moments   int    `json:"stat_moments"`
	Friends   int    `json:"stat_friends"`
}

type conversationPayload struct {
	ID          string        `json:"id"`
	Participant authorPayload `json:"participant"`
	LastMessage string        `json:"last_message"`
	Timestamp   string        `json:"timestamp"`
	Unread      bool          `json:"unread"`
}

type messagePayload struct {
	ID        string `json:"id"`
	SenderID  string `json:"sender_id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type notificationPayload struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	ActorID     string `json:"actor_id"`
	ActorName   string `json:"actor_name"`
	ActorAvatar string `json:"actor_avatar"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	Read        bool   `json:"read"`
	TargetID    string `json:"target_id,omitempty"`
}

func toMomentPayload(m feed.Moment) momentPayload {
	reactions := make([]reactionPayload, 0, len(m.Reactions))
	for _, reaction := range m.Reactions {
		reactions = append(reactions, reactionPayload{
			Kind:    reaction.Kind,
			Label:   reaction.DisplayLabel,
			Count:   reaction.Count,
			UserIDs: reaction.Users(),
		})
	}
	comments := make([]commentPayload, 0, len(m.Comments))
	for _, comment := range m.Comments {
		comments = append(comments, commentPayload{
			ID:        comment.ID,
			Author:    toAuthorPayload(comment.Author),
			Text:      comment.Text,
			Timestamp: comment.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return momentPayload{
		ID:            m.ID,
		Author:        toAuthorPayload(m.Author),
		Kind:          string(m.Kind),
		Body:          m.Body,
		MediaRef:      m.MediaRef,
		LocationLabel: m.LocationLabel,
		Timestamp:     m.CreatedAt.UTC().Format(time.RFC3339),
		Reactions:     reactions,
		Comments:      comments,
		SyncStatus:    string(m.SyncStatus),
	}
}

func toAuthorPayload(author feed.AuthorRef) authorPayload {
	return authorPayload{ID: author.ID, Name: author.Name, AvatarRef: author.AvatarRef}
}

func toTimelinePayload(assembled feed.Assembled, refreshing bool) timelineResponsePayload {
	entries := make([]timelineEntryPayload, 0, len(assembled.Entries))
	for _, entry := range assembled.Entries {
		entries = append(entries, timelineEntryPayload{
			momentPayload: toMomentPayload(entry.Moment),
			Icon:          entry.Icon,
			TimeLabel:     entry.TimeLabel,
		})
	}
	return timelineResponsePayload{
		Entries:    entries,
		Birthday:   assembled.Birthday,
		Refreshing: refreshing,
	}
}

func toProfilePayload(profile users.Profile) profilePayload {
	return profilePayload{
		UserID:    profile.UserID,
		Name:      profile.Name,
		AvatarRef: profile.AvatarRef,
		CoverRef:  profile.CoverRef,
		Bio:       profile.Bio,
		Email:     profile.Email,
		Phone:     profile.Phone,
		DOB:       profile.DOB,
		Moments:   profile.Moments,
		Friends:   profile.Friends,
	}
}

func toConversationPayload(conversation chat.Conversation) conversationPayload {
	return conversationPayload{
		ID: conversation.ID,
		Participant: authorPayload{
			ID:        conversation.Participant.ID,
			Name:      conversation.Participant.Name,
			AvatarRef: conversation.Participant.AvatarRef,
		},
		LastMessage: conversation.LastMessage,
		Timestamp:   conversation.Timestamp.UTC().Format(time.RFC3339),
		Unread:      conversation.Unread,
	}
}

func toMessagePayload(message chat.Message) messagePayload {
	return messagePayload{
		ID:        message.ID,
		SenderID:  message.SenderID,
		Text:      message.Text,
		Timestamp: message.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toNotificationPayload(notification notify.Notification) notificationPayload {
	return notificationPayload{
		ID:          notification.ID,
		Kind:        string(notification.Kind),
		ActorID:     notification.ActorID,
		ActorName:   notification.ActorName,
		ActorAvatar: notification.ActorAvatar,
		Content:     notification.Content,
		Timestamp:   notification.CreatedAt.UTC().Format(time.RFC3339),
		Read:        notification.Read,
		TargetID:    notification.TargetID,
	}
}

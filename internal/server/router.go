// Package server exposes the app's screens as a JSON surface: timeline,
// composer, reactions and comments, profile, conversations, notifications,
// assistant helpers, and the live event stream.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/origincircle/origin/internal/assist"
	"github.com/origincircle/origin/internal/auth"
	"github.com/origincircle/origin/internal/chat"
	"github.com/origincircle/origin/internal/feed"
	"github.com/origincircle/origin/internal/notify"
	"github.com/origincircle/origin/internal/places"
	syncpolicy "github.com/origincircle/origin/internal/sync"
	"github.com/origincircle/origin/internal/users"
)

const (
	userIDContextKey   = "origin_user_id"
	userNameContextKey = "origin_user_name"
)

var (
	errMissingIdentityProvider = errors.New("identity provider dependency required")
	errMissingTokenIssuer      = errors.New("token issuer dependency required")
	errMissingSessionValidator = errors.New("session validator dependency required")
	errMissingFeedStore        = errors.New("feed store dependency required")
	errMissingPublisher        = errors.New("publisher dependency required")
	errMissingProfilesService  = errors.New("profiles service dependency required")
	errMissingChatService      = errors.New("chat service dependency required")
	errMissingNotifyService    = errors.New("notifications service dependency required")
	errMissingAssistant        = errors.New("assistant dependency required")
	errMissingServerIDProvider = errors.New("id provider dependency required")
	errInvalidAuthorization    = errors.New("authorization missing or invalid")
)

// IdentityProvider is the hosted identity contract consumed by the router.
type IdentityProvider interface {
	Register(ctx context.Context, email, password string, fields auth.ProfileFields) (string, error)
	CurrentSession(ctx context.Context, accessToken string) (auth.Session, error)
}

// SessionTokenIssuer mints app session tokens for verified identities.
type SessionTokenIssuer interface {
	IssueSessionToken(ctx context.Context, session auth.Session) (string, int64, error)
}

// SessionValidator validates the app session token on incoming requests.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
}

// Assistant is the generative helper contract used by the composer and
// profile editor.
type Assistant interface {
	RefineThought(ctx context.Context, text string) string
	SuggestSong(ctx context.Context, text string) string
	RefineBio(ctx context.Context, bio string) string
	NearbyPlaces(ctx context.Context, lat, lon float64) []assist.Place
}

// IDProvider issues identifiers for server-constructed records.
type IDProvider interface {
	NewID() (string, error)
}

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	IdentityProvider IdentityProvider
	TokenIssuer      SessionTokenIssuer
	SessionValidator SessionValidator
	Store            *feed.Store
	Publisher        *syncpolicy.Publisher
	Profiles         *users.Service
	Chat             *chat.Service
	ChatDispatcher   *chat.Dispatcher
	Notifications    *notify.Service
	Assistant        Assistant
	Positions        places.Source
	IDProvider       IDProvider
	Logger           *zap.Logger
}

// NewHTTPHandler wires the routes and returns the app handler.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.IdentityProvider == nil {
		return nil, errMissingIdentityProvider
	}
	if deps.TokenIssuer == nil {
		return nil, errMissingTokenIssuer
	}
	if deps.SessionValidator == nil {
		return nil, errMissingSessionValidator
	}
	if deps.Store == nil {
		return nil, errMissingFeedStore
	}
	if deps.Publisher == nil {
		return nil, errMissingPublisher
	}
	if deps.Profiles == nil {
		return nil, errMissingProfilesService
	}
	if deps.Chat == nil {
		return nil, errMissingChatService
	}
	if deps.Notifications == nil {
		return nil, errMissingNotifyService
	}
	if deps.Assistant == nil {
		return nil, errMissingAssistant
	}
	if deps.IDProvider == nil {
		return nil, errMissingServerIDProvider
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		identity:      deps.IdentityProvider,
		tokens:        deps.TokenIssuer,
		sessions:      deps.SessionValidator,
		store:         deps.Store,
		publisher:     deps.Publisher,
		profiles:      deps.Profiles,
		chat:          deps.Chat,
		dispatcher:    deps.ChatDispatcher,
		notifications: deps.Notifications,
		assistant:     deps.Assistant,
		positions:     deps.Positions,
		ids:           deps.IDProvider,
		logger:        logger,
	}

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/session", handler.handleSessionRestore)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/timeline", handler.handleTimeline)
	protected.POST("/timeline/refresh", handler.handleRefresh)
	protected.POST("/moments", handler.handlePostMoment)
	protected.POST("/moments/:id/reactions", handler.handleReaction)
	protected.POST("/moments/:id/comments", handler.handleComment)
	protected.GET("/profile", handler.handleGetProfile)
	protected.PUT("/profile", handler.handlePutProfile)
	protected.GET("/conversations", handler.handleConversations)
	protected.GET("/conversations/:id/messages", handler.handleMessages)
	protected.POST("/conversations/:id/messages", handler.handleSendMessage)
	protected.GET("/notifications", handler.handleNotifications)
	protected.POST("/notifications/read", handler.handleMarkNotificationsRead)
	protected.POST("/assist/refine", handler.handleAssistRefine)
	protected.GET("/places/nearby", handler.handleNearbyPlaces)
	protected.GET("/events", handler.handleEvents)

	return router, nil
}

type httpHandler struct {
	identity      IdentityProvider
	tokens        SessionTokenIssuer
	sessions      SessionValidator
	store         *feed.Store
	publisher     *syncpolicy.Publisher
	profiles      *users.Service
	chat          *chat.Service
	dispatcher    *chat.Dispatcher
	notifications *notify.Service
	assistant     Assistant
	positions     places.Source
	ids           IDProvider
	logger        *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	claims, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		h.logger.Warn("session validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	c.Set(userIDContextKey, claims.UserID)
	c.Set(userNameContextKey, claims.UserDisplayName)
	c.Next()
}

// sessionAuthor resolves the acting user's author snapshot, preferring the
// cached profile over the token's display-name hint.
func (h *httpHandler) sessionAuthor(c *gin.Context) feed.AuthorRef {
	userID := c.GetString(userIDContextKey)
	author := feed.AuthorRef{ID: userID, Name: c.GetString(userNameContextKey)}
	if profile, err := h.profiles.Get(userID); err == nil {
		author.Name = profile.Name
		author.AvatarRef = profile.AvatarRef
	}
	if author.Name == "" {
		author.Name = "User"
	}
	return author
}

func (h *httpHandler) sessionDOB(c *gin.Context) time.Time {
	profile, err := h.profiles.Get(c.GetString(userIDContextKey))
	if err != nil {
		return time.Time{}
	}
	return profile.DateOfBirth()
}

type registerRequestPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	DOB      string `json:"dob"`
}

type sessionResponsePayload struct {
	AccessToken string         `json:"access_token"`
	ExpiresIn   int64          `json:"expires_in"`
	TokenType   string         `json:"token_type"`
	UserID      string         `json:"user_id"`
	Profile     profilePayload `json:"profile"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil ||
		strings.TrimSpace(request.Email) == "" || strings.TrimSpace(request.Password) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID, err := h.identity.Register(c.Request.Context(), request.Email, request.Password, auth.ProfileFields{
		FullName: request.FullName,
		Phone:    request.Phone,
		DOB:      request.DOB,
	})
	if err != nil {
		h.logger.Warn("registration failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "registration_failed"})
		return
	}

	name := strings.TrimSpace(request.FullName)
	if name == "" {
		name = strings.SplitN(request.Email, "@", 2)[0]
	}
	profile := users.Profile{
		UserID: userID,
		Name:   name,
		Email:  request.Email,
		Phone:  request.Phone,
		DOB:    request.DOB,
	}
	if err := h.profiles.Save(profile); err != nil {
		h.logger.Error("failed to cache profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_save_failed"})
		return
	}

	h.respondWithSession(c, auth.Session{UserID: userID, Email: request.Email, DisplayNameHint: name}, profile)
}

type sessionRestoreRequestPayload struct {
	AccessToken string `json:"access_token"`
}

func (h *httpHandler) handleSessionRestore(c *gin.Context) {
	var request sessionRestoreRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.AccessToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	session, err := h.identity.CurrentSession(c.Request.Context(), request.AccessToken)
	if err != nil {
		h.logger.Warn("session restore failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profile, err := h.profiles.Get(session.UserID)
	if errors.Is(err, users.ErrProfileNotFound) {
		profile = users.Profile{
			UserID: session.UserID,
			Name:   session.DisplayNameHint,
			Email:  session.Email,
		}
		if err := h.profiles.Save(profile); err != nil {
			h.logger.Error("failed to cache restored profile", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_save_failed"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_load_failed"})
		return
	}

	h.respondWithSession(c, session, profile)
}

func (h *httpHandler) respondWithSession(c *gin.Context, session auth.Session, profile users.Profile) {
	token, expiresIn, err := h.tokens.IssueSessionToken(c.Request.Context(), session)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(http.StatusOK, sessionResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		UserID:      session.UserID,
		Profile:     toProfilePayload(profile),
	})
}

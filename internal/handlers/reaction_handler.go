package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/models"
)

// Reactor applies a reaction toggle atomically. *posts.Service satisfies it.
type Reactor interface {
	React(ctx context.Context, postID, userID string, kind models.Reaction) (*models.Post, error)
}

// ReactionNotifier pushes a reaction notification to the post owner.
// *notifier.Notifier satisfies it.
type ReactionNotifier interface {
	NotifyReaction(ctx context.Context, ownerID, reactorID, reactorName, postTitle string, kind models.Reaction) error
}

// ReactionHandler exposes the handlePostReaction function endpoint.
type ReactionHandler struct {
	reactor  Reactor
	notifier ReactionNotifier
	logger   *zap.Logger
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(reactor Reactor, notifier ReactionNotifier, logger *zap.Logger) *ReactionHandler {
	return &ReactionHandler{reactor: reactor, notifier: notifier, logger: logger}
}

// RegisterReactionRoutes registers the reaction function endpoint
func (h *ReactionHandler) RegisterReactionRoutes(e *echo.Echo) {
	e.POST("/handlePostReaction", h.HandlePostReaction)
}

// HandlePostReaction toggles a like/dislike and notifies the post owner.
// The toggle and the notification are deliberately not linked: a notification
// failure is reported as a 500 even though the reaction already committed.
func (h *ReactionHandler) HandlePostReaction(c echo.Context) error {
	var req models.ReactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.PostID == "" || req.UserID == "" || req.UserName == "" || req.PostOwnerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request: Missing required fields")
	}
	kind := models.Reaction(req.Reaction)
	if !kind.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request: reaction must be like or dislike")
	}

	post, err := h.reactor.React(c.Request().Context(), req.PostID, req.UserID, kind)
	if err != nil {
		h.logger.Error("reaction transaction failed",
			zap.String("post", req.PostID),
			zap.String("user", req.UserID),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error: Failed to apply reaction")
	}

	// Only notify when the reaction is now active; an un-react stays silent.
	if post.HasReacted(req.UserID, kind) {
		title := req.PostTitle
		if title == "" {
			title = post.Title
		}
		if err := h.notifier.NotifyReaction(c.Request().Context(), req.PostOwnerID, req.UserID, req.UserName, title, kind); err != nil {
			h.logger.Error("reaction notification failed", zap.String("post", req.PostID), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error: Failed to send reaction notification")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

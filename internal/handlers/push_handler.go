package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

// TopicSender is the push capability the handler needs for topic operations.
// *push.Dispatcher satisfies it.
type TopicSender interface {
	SendToTopic(ctx context.Context, topic, title, body string) (string, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) error
}

// PostFanout dispatches new-post notifications. *notifier.Notifier satisfies it.
type PostFanout interface {
	NotifyNewPost(ctx context.Context, authorID, authorName, postTitle string) error
}

// PushHandler exposes the push-notification function endpoints: topic
// subscription, topic broadcast and the new-post fan-out.
type PushHandler struct {
	userRepository repositories.UserRepository
	sender         TopicSender
	fanout         PostFanout
	logger         *zap.Logger
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(userRepo repositories.UserRepository, sender TopicSender, fanout PostFanout, logger *zap.Logger) *PushHandler {
	return &PushHandler{
		userRepository: userRepo,
		sender:         sender,
		fanout:         fanout,
		logger:         logger,
	}
}

// RegisterPushRoutes registers the push function endpoints
func (h *PushHandler) RegisterPushRoutes(e *echo.Echo) {
	e.POST("/subscribeToTopic", h.SubscribeToTopic)
	e.POST("/sendMessageToTopic", h.SendMessageToTopic)
	e.POST("/notifyNewPost", h.NotifyNewPost)
}

// SubscribeToTopic subscribes every device token of a user to a topic
func (h *PushHandler) SubscribeToTopic(c echo.Context) error {
	var req models.TopicSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Topic == "" || req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request: Missing topic or userId")
	}

	profile, err := h.userRepository.GetProfileByID(req.UserID)
	if err != nil {
		if err == repositories.ErrProfileNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Not Found: User profile not found")
		}
		h.logger.Error("profile lookup failed", zap.String("user", req.UserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error: Failed to subscribe to topic")
	}
	if !profile.HasNotificationTokens() {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request: No notification tokens found for user")
	}

	if err := h.sender.SubscribeToTopic(c.Request().Context(), profile.NotificationTokens, req.Topic); err != nil {
		h.logger.Error("topic subscription failed", zap.String("topic", req.Topic), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error: Failed to subscribe to topic")
	}

	h.logger.Info("user subscribed to topic", zap.String("user", req.UserID), zap.String("topic", req.Topic))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// SendMessageToTopic broadcasts a notification to a topic
func (h *PushHandler) SendMessageToTopic(c echo.Context) error {
	var req models.TopicMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Topic == "" || req.Title == "" || req.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request: Missing topic, title, or body")
	}

	receipt, err := h.sender.SendToTopic(c.Request().Context(), req.Topic, req.Title, req.Body)
	if err != nil {
		h.logger.Error("topic send failed", zap.String("topic", req.Topic), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error: Failed to send message")
	}

	h.logger.Info("message sent to topic", zap.String("topic", req.Topic), zap.String("receipt", receipt))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// NotifyNewPost fans a new-post notification out to every other user's devices
func (h *PushHandler) NotifyNewPost(c echo.Context) error {
	var req models.NewPostNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.AuthorName == "" || req.PostTitle == "" || req.AuthorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request: Missing required fields")
	}

	if err := h.fanout.NotifyNewPost(c.Request().Context(), req.AuthorID, req.AuthorName, req.PostTitle); err != nil {
		h.logger.Error("new post fan-out failed", zap.String("author", req.AuthorID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error: Failed to send notifications")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

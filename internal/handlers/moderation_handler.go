package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/moderation"
)

// ModerationHandler exposes the moderatePost function endpoint.
type ModerationHandler struct {
	moderator moderation.Config
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(moderator moderation.Config) *ModerationHandler {
	return &ModerationHandler{moderator: moderator}
}

// RegisterModerationRoutes registers the moderation function endpoint
func (h *ModerationHandler) RegisterModerationRoutes(e *echo.Echo) {
	e.POST("/moderatePost", h.ModeratePost)
}

// ModeratePost filters the submitted title and content and reports whether
// anything inappropriate was found.
func (h *ModerationHandler) ModeratePost(c echo.Context) error {
	var req models.ModerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Title == "" || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request: Missing title or content")
	}

	resp := models.ModerateResponse{
		Title:                   h.moderator.ModerateText(req.Title),
		Content:                 h.moderator.ModerateText(req.Content),
		HasInappropriateContent: h.moderator.HasInappropriateContent(req.Title + " " + req.Content),
	}
	return c.JSON(http.StatusOK, resp)
}

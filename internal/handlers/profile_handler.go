package handlers

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

// ProfileHandler handles the caller's profile and device token registration
type ProfileHandler struct {
	userRepository repositories.UserRepository
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(userRepo repositories.UserRepository) *ProfileHandler {
	return &ProfileHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers profile-related routes
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.POST("/profile/tokens", h.RegisterToken)
	g.DELETE("/profile/tokens", h.UnregisterToken)
}

// GetProfile returns the caller's profile, creating it lazily on first access
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	displayName, email := "", ""
	if token, ok := c.Get("firebaseToken").(*auth.Token); ok {
		if v, ok := token.Claims["name"].(string); ok {
			displayName = v
		}
		if v, ok := token.Claims["email"].(string); ok {
			email = v
		}
	}

	profile, err := h.userRepository.EnsureProfile(firebaseUID, displayName, email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile edits the caller's profile fields
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.userRepository.EnsureProfile(firebaseUID, req.DisplayName, req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.DisplayName != "" {
		profile.DisplayName = req.DisplayName
	}
	if req.Email != "" {
		profile.Email = req.Email
	}
	if req.Address != "" {
		profile.Address = req.Address
	}
	if req.BirthDate != "" {
		profile.BirthDate = req.BirthDate
	}
	if req.Age != 0 {
		profile.Age = req.Age
	}

	if err := h.userRepository.UpdateProfile(profile); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

// RegisterToken adds a device push token to the caller's profile
func (h *ProfileHandler) RegisterToken(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.TokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request: Missing token")
	}

	if _, err := h.userRepository.EnsureProfile(firebaseUID, "", ""); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	profile, err := h.userRepository.AddNotificationToken(firebaseUID, req.Token)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

// UnregisterToken removes a device push token from the caller's profile
func (h *ProfileHandler) UnregisterToken(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.TokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request: Missing token")
	}

	profile, err := h.userRepository.RemoveNotificationToken(firebaseUID, req.Token)
	if err != nil {
		if err == repositories.ErrProfileNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

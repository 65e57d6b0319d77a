package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

// ContactHandler handles the caller's private contact list
type ContactHandler struct {
	contactRepository repositories.ContactRepository
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactRepo repositories.ContactRepository) *ContactHandler {
	return &ContactHandler{contactRepository: contactRepo}
}

// RegisterContactRoutes registers contact-related routes
func (h *ContactHandler) RegisterContactRoutes(g *echo.Group) {
	g.POST("/contacts", h.CreateContact)
	g.GET("/contacts", h.GetContacts)
	g.PUT("/contacts/:id", h.UpdateContact)
	g.DELETE("/contacts/:id", h.DeleteContact)
}

// CreateContact adds a contact to the caller's list
func (h *ContactHandler) CreateContact(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.ContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contact := &models.Contact{
		OwnerID: firebaseUID,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	if err := h.contactRepository.CreateContact(contact); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, contact)
}

// GetContacts lists the caller's contacts
func (h *ContactHandler) GetContacts(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	contacts, err := h.contactRepository.GetContactsByOwner(firebaseUID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, contacts)
}

// UpdateContact edits one of the caller's contacts
func (h *ContactHandler) UpdateContact(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	contactID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid contact ID")
	}

	var req models.ContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contact, err := h.contactRepository.UpdateContact(firebaseUID, uint(contactID), req)
	if err != nil {
		if errors.Is(err, repositories.ErrContactNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Contact not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, contact)
}

// DeleteContact removes one of the caller's contacts
func (h *ContactHandler) DeleteContact(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	contactID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid contact ID")
	}

	if err := h.contactRepository.DeleteContact(firebaseUID, uint(contactID)); err != nil {
		if errors.Is(err, repositories.ErrContactNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Contact not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

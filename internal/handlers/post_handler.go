package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/posts"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postService    *posts.Service
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postService *posts.Service, postRepo repositories.PostRepository, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{
		postService:    postService,
		postRepository: postRepo,
		userRepository: userRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetPosts) // all posts, or ?view=mine for the caller's own
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post, running the banned-word filter before persisting
func (h *PostHandler) CreatePost(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.userRepository.EnsureProfile(firebaseUID, "", "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authorName := profile.DisplayName
	if authorName == "" {
		authorName = profile.Email
	}

	post, err := h.postService.Create(c.Request().Context(), firebaseUID, authorName, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, post)
}

// GetPosts retrieves recent posts, or the caller's own with ?view=mine
func (h *PostHandler) GetPosts(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var (
		result []models.Post
		err    error
	)
	if c.QueryParam("view") == "mine" {
		result, err = h.postRepository.GetPostsByAuthor(c.Request().Context(), firebaseUID, limit)
	} else {
		result, err = h.postRepository.GetRecentPosts(c.Request().Context(), limit)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

// UpdatePost updates an existing post, re-running the banned-word filter
func (h *PostHandler) UpdatePost(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)
	postID := c.Param("id")

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.postService.Update(c.Request().Context(), postID, firebaseUID, req)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrPostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		case errors.Is(err, posts.ErrNotOwner):
			return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this post")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post and releases its stored image
func (h *PostHandler) DeletePost(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)
	postID := c.Param("id")

	if err := h.postService.Delete(c.Request().Context(), postID, firebaseUID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		case errors.Is(err, posts.ErrNotOwner):
			return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.NoContent(http.StatusNoContent)
}

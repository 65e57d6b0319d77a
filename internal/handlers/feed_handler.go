package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/feed"
	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

// FeedHandler streams each connected client's live notification feed over
// server-sent events. Every connection owns one change-stream subscription
// and one Feed; both are torn down when the client disconnects.
type FeedHandler struct {
	watcher repositories.PostWatcher
	logger  *zap.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(watcher repositories.PostWatcher, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{watcher: watcher, logger: logger}
}

// RegisterFeedRoutes registers the live feed route
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed/stream", h.Stream)
}

// Stream subscribes the caller to the live notification feed and writes each
// synthesized event as an SSE data frame until the connection closes.
func (h *FeedHandler) Stream(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)
	ctx := c.Request().Context()

	stream, err := h.watcher.WatchPosts(ctx, feed.DefaultWindow)
	if err != nil {
		h.logger.Error("failed to open post change stream", zap.String("user", firebaseUID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error: Failed to open feed stream")
	}

	// The listener runs on the feed's stream loop; a slow connection drops
	// frames instead of stalling it.
	events := make(chan models.NotificationEvent, 16)
	sessionFeed := feed.New(firebaseUID, stream, feed.WithListener(func(ev models.NotificationEvent) {
		select {
		case events <- ev:
		default:
		}
	}))
	defer sessionFeed.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("failed to encode feed event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

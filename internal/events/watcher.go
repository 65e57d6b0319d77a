// Package events consumes the posts change stream server-side and dispatches
// store-triggered hooks: fan-out on creation, the moderation re-check on
// content updates. Hook failures are logged and swallowed; they must never
// block or fail the write that produced the event.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

// Handlers are the hooks invoked for observed post changes. Either may be nil.
type Handlers struct {
	// OnPostCreated runs after a new post document exists in the store.
	OnPostCreated func(ctx context.Context, post models.Post) error
	// OnPostUpdated runs when a stored post was modified; changedFields
	// lists the document fields the write touched.
	OnPostUpdated func(ctx context.Context, post models.Post, changedFields []string) error
}

// Watcher runs the hook dispatch loop over a post change subscription.
type Watcher struct {
	source   repositories.PostWatcher
	handlers Handlers
	logger   *zap.Logger
}

// NewWatcher creates a Watcher dispatching to the given handlers.
func NewWatcher(source repositories.PostWatcher, handlers Handlers, logger *zap.Logger) *Watcher {
	return &Watcher{source: source, handlers: handlers, logger: logger}
}

// Run consumes the change stream until ctx is cancelled, resubscribing with
// backoff when the stream drops. Each batch is processed synchronously before
// the next one is read.
func (w *Watcher) Run(ctx context.Context) {
	for {
		stream, err := w.source.WatchPosts(ctx, 0)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to open post change stream, retrying", zap.Error(err))
			select {
			case <-time.After(5 * time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		for batch := range stream.Changes() {
			for _, change := range batch {
				w.dispatch(ctx, change)
			}
		}
		if err := stream.Err(); err != nil {
			w.logger.Error("post change stream closed with error, resubscribing", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, change repositories.PostChange) {
	switch change.Kind {
	case repositories.ChangeAdded:
		if w.handlers.OnPostCreated == nil {
			return
		}
		if err := w.handlers.OnPostCreated(ctx, change.Post); err != nil {
			w.logger.Error("post created hook failed",
				zap.String("post", change.PostID),
				zap.Error(err))
		}
	case repositories.ChangeModified:
		if w.handlers.OnPostUpdated == nil {
			return
		}
		if err := w.handlers.OnPostUpdated(ctx, change.Post, change.ChangedFields); err != nil {
			w.logger.Error("post updated hook failed",
				zap.String("post", change.PostID),
				zap.Error(err))
		}
	}
}

// ContentChanged reports whether a modified event touched the post's title or
// content, i.e. whether the moderation re-check needs to run at all.
func ContentChanged(changedFields []string) bool {
	for _, f := range changedFields {
		if f == "title" || f == "content" {
			return true
		}
	}
	return false
}

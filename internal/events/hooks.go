package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/models"
)

// Moderator re-checks a stored post's content. *posts.Service satisfies it.
type Moderator interface {
	ReModerate(ctx context.Context, post models.Post) error
}

// Fanout dispatches the new-post notification. *notifier.Notifier satisfies it.
type Fanout interface {
	NotifyNewPost(ctx context.Context, authorID, authorName, postTitle string) error
}

// PostHooks builds the store-trigger handlers: a created post gets a
// moderation re-check and the fan-out, a content update gets the re-check
// only. The re-check is best-effort; its failure is logged and never
// suppresses the fan-out.
func PostHooks(moderator Moderator, fanout Fanout, logger *zap.Logger) Handlers {
	return Handlers{
		OnPostCreated: func(ctx context.Context, post models.Post) error {
			if err := moderator.ReModerate(ctx, post); err != nil {
				logger.Warn("moderation re-check failed on new post",
					zap.String("post", post.ID.Hex()),
					zap.Error(err))
			}
			return fanout.NotifyNewPost(ctx, post.AuthorID, post.AuthorDisplayName, post.Title)
		},
		OnPostUpdated: func(ctx context.Context, post models.Post, changedFields []string) error {
			if !ContentChanged(changedFields) {
				return nil
			}
			return moderator.ReModerate(ctx, post)
		},
	}
}

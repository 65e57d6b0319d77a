// Package notifier fans post events out to push-notification recipients.
package notifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/push"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

const newPostTitle = "Nueva publicación"
const reactionTitle = "Nueva reacción"

// Sender is the notification delivery capability the notifier needs.
// *push.Dispatcher satisfies it.
type Sender interface {
	SendToUser(ctx context.Context, tokens []string, title, body string) (push.Result, error)
}

// Notifier resolves recipient sets and dispatches push notifications.
type Notifier struct {
	users  repositories.UserRepository
	sender Sender
	logger *zap.Logger
}

// New creates a Notifier.
func New(users repositories.UserRepository, sender Sender, logger *zap.Logger) *Notifier {
	return &Notifier{users: users, sender: sender, logger: logger}
}

// NotifyNewPost pushes a "new post" notification to every known profile
// except the author. Recipients without registered device tokens are skipped;
// a failed delivery to one recipient is logged and never stops delivery to
// the rest.
func (n *Notifier) NotifyNewPost(ctx context.Context, authorID, authorName, postTitle string) error {
	recipients, err := n.users.GetAllProfilesExcept(authorID)
	if err != nil {
		return fmt.Errorf("resolving recipients: %w", err)
	}

	body := fmt.Sprintf("%s ha publicado: \"%s\"", authorName, postTitle)
	for _, recipient := range recipients {
		if !recipient.HasNotificationTokens() {
			continue
		}
		if _, err := n.sender.SendToUser(ctx, recipient.NotificationTokens, newPostTitle, body); err != nil {
			n.logger.Warn("new post notification failed for recipient",
				zap.String("recipient", recipient.ID),
				zap.Error(err))
		}
	}

	n.logger.Info("new post notifications dispatched",
		zap.String("author", authorName),
		zap.Int("recipients", len(recipients)))
	return nil
}

// NotifyReaction pushes a like/dislike notification to the post owner. When
// the reacting user is the owner, or the owner has no devices, nothing is
// sent. Delivery errors are propagated: the caller decides how to surface
// them, knowing the reaction itself already committed.
func (n *Notifier) NotifyReaction(ctx context.Context, ownerID, reactorID, reactorName, postTitle string, kind models.Reaction) error {
	if reactorID == ownerID {
		return nil
	}

	owner, err := n.users.GetProfileByID(ownerID)
	if err != nil {
		return fmt.Errorf("resolving post owner %s: %w", ownerID, err)
	}
	if !owner.HasNotificationTokens() {
		n.logger.Info("post owner has no devices registered", zap.String("owner", ownerID))
		return nil
	}

	var body string
	if kind == models.ReactionLike {
		body = fmt.Sprintf("A %s 👍 le gustó tu post: \"%s\"", reactorName, postTitle)
	} else {
		body = fmt.Sprintf("A %s 👎 no le gustó tu post: \"%s\"", reactorName, postTitle)
	}

	if _, err := n.sender.SendToUser(ctx, owner.NotificationTokens, reactionTitle, body); err != nil {
		return fmt.Errorf("sending reaction notification: %w", err)
	}
	return nil
}

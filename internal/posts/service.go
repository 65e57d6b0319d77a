// Package posts implements the post lifecycle: creation and edits run the
// banned-word filter synchronously, the asynchronous re-check corrects
// updates that slipped past it, reactions go through the store's atomic
// transaction, and deletion releases the stored image.
package posts

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/moderation"
	"github.com/miapp/redsocial/backend/internal/repositories"
)

// ErrNotOwner is returned when a user tries to edit or delete someone else's post.
var ErrNotOwner = errors.New("post does not belong to the user")

// ImageStore releases stored post images. Destroy must be safe to call with a
// public id that no longer exists.
type ImageStore interface {
	Destroy(ctx context.Context, publicID string) error
}

// Service coordinates post persistence and moderation.
type Service struct {
	posts     repositories.PostRepository
	moderator moderation.Config
	images    ImageStore
	logger    *zap.Logger
}

// NewService creates a post Service. images may be nil when no image backend
// is configured; deletes then skip the release step.
func NewService(posts repositories.PostRepository, moderator moderation.Config, images ImageStore, logger *zap.Logger) *Service {
	return &Service{posts: posts, moderator: moderator, images: images, logger: logger}
}

// Create moderates the submitted title and content and persists the post.
// When the filter redacted anything the stored record carries moderated=true
// and a moderatedAt stamp from the start.
func (s *Service) Create(ctx context.Context, authorID, authorName string, req models.CreatePostRequest) (*models.Post, error) {
	post := &models.Post{
		Title:             req.Title,
		Content:           req.Content,
		AuthorID:          authorID,
		AuthorDisplayName: authorName,
		ImageURL:          req.ImageURL,
		ImagePublicID:     req.ImagePublicID,
		Likes:             []string{},
		Dislikes:          []string{},
	}

	if s.moderator.ModeratePost(post) {
		s.logger.Info("post content redacted on create", zap.String("author", authorID))
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update applies an author's edit. The edited fields are moderated
// synchronously before the write, mirroring Create.
func (s *Service) Update(ctx context.Context, postID, authorID string, req models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != authorID {
		return nil, ErrNotOwner
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	if req.ImageURL != "" {
		post.ImageURL = req.ImageURL
	}
	if req.ImagePublicID != "" {
		post.ImagePublicID = req.ImagePublicID
	}

	if s.moderator.ModeratePost(post) {
		s.logger.Info("post content redacted on update", zap.String("post", postID))
	}

	if err := s.posts.UpdatePost(ctx, postID, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes an author's post and releases its stored image, if any.
// Image release is best-effort: the post is gone either way.
func (s *Service) Delete(ctx context.Context, postID, authorID string) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != authorID {
		return ErrNotOwner
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}

	if s.images != nil && post.ImagePublicID != "" {
		if err := s.images.Destroy(ctx, post.ImagePublicID); err != nil {
			s.logger.Warn("failed to release post image",
				zap.String("post", postID),
				zap.String("public_id", post.ImagePublicID),
				zap.Error(err))
		}
	}
	return nil
}

// React toggles the user's reaction on the post inside the store's atomic
// transaction, so concurrent reactions from different users never lose
// updates. Returns repositories.ErrPostNotFound when the post is gone at
// transaction time.
func (s *Service) React(ctx context.Context, postID, userID string, kind models.Reaction) (*models.Post, error) {
	return s.posts.RunAtomic(ctx, postID, func(post *models.Post) error {
		post.ApplyReaction(userID, kind)
		return nil
	})
}

// ReModerate is the asynchronous moderation re-check run when a stored post's
// title or content changed. It re-runs the filter over the after-state and,
// only when that produces a difference, issues a follow-up write correcting
// the record. The filter is idempotent, so the follow-up write itself never
// triggers a further correction.
func (s *Service) ReModerate(ctx context.Context, post models.Post) error {
	title := s.moderator.ModerateText(post.Title)
	content := s.moderator.ModerateText(post.Content)
	if title == post.Title && content == post.Content {
		return nil
	}

	s.logger.Info("moderation re-check redacting post", zap.String("post", post.ID.Hex()))
	return s.posts.ApplyModeration(ctx, post.ID.Hex(), title, content, models.NowISO())
}

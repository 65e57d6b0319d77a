package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/miapp/redsocial/backend/internal/models"
)

// ErrPostNotFound is returned when a post id does not resolve to a stored document.
var ErrPostNotFound = errors.New("post not found")

// ErrConflict is returned by RunAtomic when the document kept changing under
// the transaction for every retry round.
var ErrConflict = errors.New("post modified concurrently, retries exhausted")

// atomicRetries bounds the optimistic-concurrency retry loop in RunAtomic.
const atomicRetries = 8

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID string, limit int64) ([]models.Post, error)
	GetRecentPosts(ctx context.Context, limit int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, id string, post *models.Post) error
	ApplyModeration(ctx context.Context, id, title, content, moderatedAt string) error
	DeletePost(ctx context.Context, id string) error

	// RunAtomic executes fn as a read-modify-write transaction over the post.
	// fn must be a pure function of the post it receives: on a conflicting
	// concurrent write the transaction is re-executed against the fresh
	// document until it commits cleanly. Returns ErrPostNotFound when the
	// post no longer exists at transaction time.
	RunAtomic(ctx context.Context, id string, fn func(post *models.Post) error) (*models.Post, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost inserts a new post document
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	now := models.NowISO()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Dislikes == nil {
		post.Dislikes = []string{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by its hex id
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID format: %w", err)
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByAuthor retrieves the author's posts, newest first
func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, authorID string, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.M{"author_id": authorID}, limit)
}

// GetRecentPosts retrieves the most recent posts across all authors
func (r *MongoPostRepository) GetRecentPosts(ctx context.Context, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M, limit int64) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost rewrites the editable fields of an existing post
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, post *models.Post) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}

	post.UpdatedAt = models.NowISO()
	update := bson.M{
		"$set": bson.M{
			"title":           post.Title,
			"content":         post.Content,
			"image_url":       post.ImageURL,
			"image_public_id": post.ImagePublicID,
			"moderated":       post.Moderated,
			"moderated_at":    post.ModeratedAt,
			"updated_at":      post.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ApplyModeration is the follow-up write issued by the moderation re-check:
// it corrects title and content and marks the post moderated, leaving every
// other field alone.
func (r *MongoPostRepository) ApplyModeration(ctx context.Context, id, title, content, moderatedAt string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"title":        title,
			"content":      content,
			"moderated":    true,
			"moderated_at": moderatedAt,
			"updated_at":   models.NowISO(),
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes a post document
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// RunAtomic implements optimistic-concurrency read-modify-write: the document
// is re-read, fn re-executed and the conditional write retried until no other
// writer touched the document in between. The updated_at stamp (nanosecond
// precision) doubles as the revision marker.
func (r *MongoPostRepository) RunAtomic(ctx context.Context, id string, fn func(post *models.Post) error) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID format: %w", err)
	}

	for attempt := 0; attempt < atomicRetries; attempt++ {
		var post models.Post
		if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, ErrPostNotFound
			}
			return nil, err
		}

		revision := post.UpdatedAt
		if err := fn(&post); err != nil {
			return nil, err
		}
		post.UpdatedAt = models.NowISO()

		res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objID, "updated_at": revision}, &post)
		if err != nil {
			return nil, err
		}
		if res.ModifiedCount == 1 {
			return &post, nil
		}
		// Lost the race or the post vanished; find out which and retry.
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID})
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrPostNotFound
		}
	}
	return nil, ErrConflict
}

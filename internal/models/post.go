package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction identifies one of the two reaction kinds a user can leave on a post.
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Valid reports whether r is one of the supported reaction kinds.
func (r Reaction) Valid() bool {
	return r == ReactionLike || r == ReactionDislike
}

// Post represents a user publication stored in MongoDB.
//
// Likes and Dislikes hold the UIDs of the users that reacted; a UID appears
// in at most one of the two slices at any time. Timestamps are stored as
// ISO-8601 strings, matching the document shape the web client reads.
type Post struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title             string             `json:"title" bson:"title"`
	Content           string             `json:"content" bson:"content"`
	AuthorID          string             `json:"userId" bson:"author_id"` // Firebase UID of the author
	AuthorDisplayName string             `json:"userDisplayName" bson:"author_display_name"`
	ImageURL          string             `json:"imageURL,omitempty" bson:"image_url,omitempty"`
	ImagePublicID     string             `json:"imagePublicId,omitempty" bson:"image_public_id,omitempty"`
	Likes             []string           `json:"likes" bson:"likes"`
	Dislikes          []string           `json:"dislikes" bson:"dislikes"`
	Moderated         bool               `json:"moderated" bson:"moderated"`
	ModeratedAt       string             `json:"moderatedAt,omitempty" bson:"moderated_at,omitempty"`
	CreatedAt         string             `json:"createdAt" bson:"created_at"`
	UpdatedAt         string             `json:"updatedAt" bson:"updated_at"`
}

// NowISO returns the current UTC time as an ISO-8601 string. Nanosecond
// precision keeps consecutive writes on the same document distinguishable,
// which the post repository relies on for conflict detection.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ApplyReaction toggles the user's membership in the target reaction set and
// unconditionally removes it from the opposite one, so a user is never in
// both. Reacting twice with the same kind undoes the reaction.
func (p *Post) ApplyReaction(userID string, kind Reaction) {
	target, opposite := &p.Likes, &p.Dislikes
	if kind == ReactionDislike {
		target, opposite = &p.Dislikes, &p.Likes
	}

	*opposite = removeUID(*opposite, userID)
	if containsUID(*target, userID) {
		*target = removeUID(*target, userID)
	} else {
		*target = append(*target, userID)
	}
}

// HasReacted reports whether the user currently has the given reaction on the post.
func (p *Post) HasReacted(userID string, kind Reaction) bool {
	if kind == ReactionLike {
		return containsUID(p.Likes, userID)
	}
	return containsUID(p.Dislikes, userID)
}

func containsUID(uids []string, uid string) bool {
	for _, u := range uids {
		if u == uid {
			return true
		}
	}
	return false
}

func removeUID(uids []string, uid string) []string {
	out := make([]string, 0, len(uids))
	for _, u := range uids {
		if u != uid {
			out = append(out, u)
		}
	}
	return out
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=120"`
	Content       string `json:"content" validate:"required,min=1,max=2000"`
	ImageURL      string `json:"imageURL,omitempty" validate:"omitempty,url"`
	ImagePublicID string `json:"imagePublicId,omitempty"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title         string `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	Content       string `json:"content,omitempty" validate:"omitempty,min=1,max=2000"`
	ImageURL      string `json:"imageURL,omitempty" validate:"omitempty,url"`
	ImagePublicID string `json:"imagePublicId,omitempty"`
}

// ReactionRequest defines the request body for the handlePostReaction endpoint.
// Display data (userName, postTitle) is supplied by the client so the push
// notification can be built without an extra lookup.
type ReactionRequest struct {
	PostID      string `json:"postId" validate:"required"`
	UserID      string `json:"userId" validate:"required"`
	UserName    string `json:"userName" validate:"required"`
	Reaction    string `json:"reaction" validate:"required"`
	PostTitle   string `json:"postTitle"`
	PostOwnerID string `json:"postOwnerId" validate:"required"`
}

// ModerateRequest defines the request body for the moderatePost endpoint
type ModerateRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// ModerateResponse is the moderatePost endpoint reply
type ModerateResponse struct {
	Title                   string `json:"title"`
	Content                 string `json:"content"`
	HasInappropriateContent bool   `json:"hasInappropriateContent"`
}

// TopicSubscriptionRequest defines the request body for subscribeToTopic
type TopicSubscriptionRequest struct {
	Topic  string `json:"topic" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// TopicMessageRequest defines the request body for sendMessageToTopic
type TopicMessageRequest struct {
	Topic string `json:"topic" validate:"required"`
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// NewPostNotificationRequest defines the request body for notifyNewPost
type NewPostNotificationRequest struct {
	AuthorName string `json:"authorName" validate:"required"`
	PostTitle  string `json:"postTitle" validate:"required"`
	AuthorID   string `json:"authorId" validate:"required"`
}

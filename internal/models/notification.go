package models

import "time"

// NotificationKind classifies an in-app notification event.
type NotificationKind string

const (
	NotificationNewPost NotificationKind = "new_post"
	NotificationLike    NotificationKind = "like"
	NotificationDislike NotificationKind = "dislike"
)

// NotificationEvent is an ephemeral in-app notification synthesized from the
// live post change stream. It is never persisted: each event lives in a
// client session's feed until it expires or is dismissed.
type NotificationEvent struct {
	ID         string           `json:"id"`
	Kind       NotificationKind `json:"kind"`
	AuthorName string           `json:"authorName"`
	Title      string           `json:"title"`
	ImageURL   string           `json:"imageURL,omitempty"`
	CreatedAt  string           `json:"createdAt"`
	Timestamp  time.Time        `json:"timestamp"` // arrival time, used for ordering and expiry
}

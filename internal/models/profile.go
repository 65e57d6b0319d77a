package models

import "time"

// UserProfile is the stored profile for an authenticated user (PostgreSQL).
// The primary key is the Firebase Auth UID; profiles are created lazily the
// first time a signed-in user touches the API and are never hard-deleted.
type UserProfile struct {
	ID                 string    `json:"id" gorm:"primaryKey"` // Firebase Auth UID
	DisplayName        string    `json:"displayName"`
	Email              string    `json:"email" gorm:"index"`
	Address            string    `json:"address"`
	BirthDate          string    `json:"birthDate"`
	Age                int       `json:"age"`
	NotificationTokens []string  `json:"notificationTokens" gorm:"type:jsonb;serializer:json"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// AddNotificationToken registers a device token, ignoring duplicates.
// It reports whether the token set changed.
func (p *UserProfile) AddNotificationToken(token string) bool {
	if token == "" || containsUID(p.NotificationTokens, token) {
		return false
	}
	p.NotificationTokens = append(p.NotificationTokens, token)
	return true
}

// RemoveNotificationToken unregisters a device token. It reports whether the
// token was present.
func (p *UserProfile) RemoveNotificationToken(token string) bool {
	if !containsUID(p.NotificationTokens, token) {
		return false
	}
	p.NotificationTokens = removeUID(p.NotificationTokens, token)
	return true
}

// HasNotificationTokens reports whether the user has at least one registered device.
func (p *UserProfile) HasNotificationTokens() bool {
	return len(p.NotificationTokens) > 0
}

// UpdateProfileRequest defines the request body for updating the caller's profile
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName,omitempty" validate:"omitempty,min=1,max=80"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Address     string `json:"address,omitempty" validate:"omitempty,max=200"`
	BirthDate   string `json:"birthDate,omitempty"`
	Age         int    `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
}

// TokenRequest defines the request body for device token registration
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/miapp/redsocial/backend/internal/models"
)

// ErrProfileNotFound is returned when no profile exists for a user id.
var ErrProfileNotFound = errors.New("user profile not found")

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	EnsureProfile(id, displayName, email string) (*models.UserProfile, error)
	GetProfileByID(id string) (*models.UserProfile, error)
	GetAllProfilesExcept(excludeID string) ([]models.UserProfile, error)
	UpdateProfile(profile *models.UserProfile) error
	AddNotificationToken(userID, token string) (*models.UserProfile, error)
	RemoveNotificationToken(userID, token string) (*models.UserProfile, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// EnsureProfile returns the profile for the given auth identity, creating an
// empty one on first access.
func (r *PostgresUserRepository) EnsureProfile(id, displayName, email string) (*models.UserProfile, error) {
	profile, err := r.GetProfileByID(id)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	profile = &models.UserProfile{
		ID:                 id,
		DisplayName:        displayName,
		Email:              email,
		NotificationTokens: []string{},
	}
	if err := r.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfileByID retrieves a profile by its auth identity
func (r *PostgresUserRepository) GetProfileByID(id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetAllProfilesExcept retrieves every profile except the given one. Used by
// the fan-out notifier to build the recipient set for a new post.
func (r *PostgresUserRepository) GetAllProfilesExcept(excludeID string) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	if err := r.db.Where("id <> ?", excludeID).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateProfile persists changes to an existing profile
func (r *PostgresUserRepository) UpdateProfile(profile *models.UserProfile) error {
	return r.db.Save(profile).Error
}

// AddNotificationToken registers a device push token for the user,
// de-duplicating against the stored set.
func (r *PostgresUserRepository) AddNotificationToken(userID, token string) (*models.UserProfile, error) {
	profile, err := r.GetProfileByID(userID)
	if err != nil {
		return nil, err
	}
	if profile.AddNotificationToken(token) {
		if err := r.db.Save(profile).Error; err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// RemoveNotificationToken unregisters a device push token for the user.
func (r *PostgresUserRepository) RemoveNotificationToken(userID, token string) (*models.UserProfile, error) {
	profile, err := r.GetProfileByID(userID)
	if err != nil {
		return nil, err
	}
	if profile.RemoveNotificationToken(token) {
		if err := r.db.Save(profile).Error; err != nil {
			return nil, err
		}
	}
	return profile, nil
}

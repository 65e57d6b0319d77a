package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/miapp/redsocial/backend/internal/models"
)

// ErrContactNotFound is returned when a contact id does not exist for the owner.
var ErrContactNotFound = errors.New("contact not found")

// ContactRepository defines the interface for contact list operations
type ContactRepository interface {
	CreateContact(contact *models.Contact) error
	GetContactsByOwner(ownerID string) ([]models.Contact, error)
	UpdateContact(ownerID string, contactID uint, req models.ContactRequest) (*models.Contact, error)
	DeleteContact(ownerID string, contactID uint) error
}

// PostgresContactRepository implements ContactRepository for PostgreSQL
type PostgresContactRepository struct {
	db *gorm.DB
}

// NewPostgresContactRepository creates a new PostgresContactRepository
func NewPostgresContactRepository(db *gorm.DB) *PostgresContactRepository {
	return &PostgresContactRepository{db: db}
}

// CreateContact adds a contact to the owner's list
func (r *PostgresContactRepository) CreateContact(contact *models.Contact) error {
	return r.db.Create(contact).Error
}

// GetContactsByOwner retrieves the owner's full contact list
func (r *PostgresContactRepository) GetContactsByOwner(ownerID string) ([]models.Contact, error) {
	var contacts []models.Contact
	if err := r.db.Where("owner_id = ?", ownerID).Order("name").Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// UpdateContact edits a contact, scoped to its owner
func (r *PostgresContactRepository) UpdateContact(ownerID string, contactID uint, req models.ContactRequest) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.Where("id = ? AND owner_id = ?", contactID, ownerID).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	contact.Name = req.Name
	contact.Phone = req.Phone
	contact.Email = req.Email
	if err := r.db.Save(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// DeleteContact removes a contact, scoped to its owner
func (r *PostgresContactRepository) DeleteContact(ownerID string, contactID uint) error {
	res := r.db.Where("id = ? AND owner_id = ?", contactID, ownerID).Delete(&models.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"gorm.io/gorm"
)

// ContactFields carries the mutable contact attributes.
type ContactFields struct {
	Firstname         string
	Lastname          string
	Email             string
	Phone             string
	Birth             time.Time
	AdditionalDetails *string
}

// Page limits a listing. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// ContactRepository defines contact data operations. Every method is scoped
// to the owning user; rows of other users are never read or written.
type ContactRepository interface {
	Create(ctx context.Context, fields ContactFields, ownerID int64) (*models.Contact, error)
	Update(ctx context.Context, id int64, fields ContactFields, ownerID int64) (*models.Contact, error)
	Remove(ctx context.Context, id int64, ownerID int64) (*models.Contact, error)
	List(ctx context.Context, ownerID int64, page Page) ([]models.Contact, error)
	FindByID(ctx context.Context, id int64, ownerID int64) (*models.Contact, error)
	FindByLastnameAndEmail(ctx context.Context, lastname, email string, ownerID int64) (*models.Contact, error)
	SearchByLastname(ctx context.Context, lastname string, ownerID int64) ([]models.Contact, error)
	SearchByFirstname(ctx context.Context, firstname string, ownerID int64) ([]models.Contact, error)
	SearchByEmail(ctx context.Context, email string, ownerID int64) ([]models.Contact, error)
	UpcomingBirthdays(ctx context.Context, start, end time.Time, ownerID int64) ([]models.Contact, error)
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new ContactRepository instance.
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) owned(ctx context.Context, tx *gorm.DB, ownerID int64) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Model(&models.Contact{}).Where("user_id = ?", ownerID)
}

func (r *contactRepository) Create(ctx context.Context, fields ContactFields, ownerID int64) (*models.Contact, error) {
	contact := &models.Contact{
		Firstname:         fields.Firstname,
		Lastname:          fields.Lastname,
		Email:             fields.Email,
		Phone:             fields.Phone,
		Birth:             truncateDate(fields.Birth),
		AdditionalDetails: fields.AdditionalDetails,
		UserID:            ownerID,
	}

	err := r.db.WithContext(ctx).Create(contact).Error
	if isDuplicate(err) {
		return nil, fmt.Errorf("failed to create contact %s: %w", fields.Email, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}

// Update revises only email, additional details and birth date.
func (r *contactRepository) Update(ctx context.Context, id int64, fields ContactFields, ownerID int64) (*models.Contact, error) {
	var updated *models.Contact

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contact models.Contact
		err := r.owned(ctx, tx, ownerID).Where("id = ?", id).First(&contact).Error
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}

		contact.Email = fields.Email
		contact.AdditionalDetails = fields.AdditionalDetails
		contact.Birth = truncateDate(fields.Birth)

		if err := tx.Save(&contact).Error; err != nil {
			return err
		}
		updated = &contact
		return nil
	})
	if isDuplicate(err) {
		return nil, fmt.Errorf("failed to update contact id %d: %w", id, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update contact id %d: %w", id, err)
	}
	return updated, nil
}

// Remove deletes the contact and returns the row as it was before deletion.
func (r *contactRepository) Remove(ctx context.Context, id int64, ownerID int64) (*models.Contact, error) {
	var removed *models.Contact

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contact models.Contact
		err := r.owned(ctx, tx, ownerID).Where("id = ?", id).First(&contact).Error
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", ownerID).Delete(&models.Contact{}, contact.ID).Error; err != nil {
			return err
		}
		removed = &contact
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove contact id %d: %w", id, err)
	}
	return removed, nil
}

func (r *contactRepository) List(ctx context.Context, ownerID int64, page Page) ([]models.Contact, error) {
	query := r.owned(ctx, nil, ownerID).Order("id")
	if page.Offset > 0 {
		query = query.Offset(page.Offset)
	}
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}

	var contacts []models.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts for user %d: %w", ownerID, err)
	}
	return contacts, nil
}

func (r *contactRepository) FindByID(ctx context.Context, id int64, ownerID int64) (*models.Contact, error) {
	return r.first(ctx, ownerID, "id = ?", id)
}

func (r *contactRepository) FindByLastnameAndEmail(ctx context.Context, lastname, email string, ownerID int64) (*models.Contact, error) {
	return r.first(ctx, ownerID, "lastname = ? AND email = ?", lastname, email)
}

func (r *contactRepository) SearchByLastname(ctx context.Context, lastname string, ownerID int64) ([]models.Contact, error) {
	return r.find(ctx, ownerID, "lastname = ?", lastname)
}

func (r *contactRepository) SearchByFirstname(ctx context.Context, firstname string, ownerID int64) ([]models.Contact, error) {
	return r.find(ctx, ownerID, "firstname = ?", firstname)
}

func (r *contactRepository) SearchByEmail(ctx context.Context, email string, ownerID int64) ([]models.Contact, error) {
	return r.find(ctx, ownerID, "email = ?", email)
}

// UpcomingBirthdays returns contacts whose next birthday anniversary falls in
// [start, end]. Windows that cross the new year are handled.
func (r *contactRepository) UpcomingBirthdays(ctx context.Context, start, end time.Time, ownerID int64) ([]models.Contact, error) {
	start, end = truncateDate(start), truncateDate(end)
	if end.Before(start) {
		return []models.Contact{}, nil
	}

	query, args := "birth IS NOT NULL", []any{}
	if window, windowArgs, ok := birthdayWindow(r.birthKey(), start, end); ok {
		query += " AND " + window
		args = windowArgs
	}
	candidates, err := r.find(ctx, ownerID, query, args...)
	if err != nil {
		return nil, err
	}

	// The SQL window is coarse around Feb 29; the exact check runs here.
	matched := make([]models.Contact, 0, len(candidates))
	for _, contact := range candidates {
		if BirthdayWithin(contact.Birth, start, end) {
			matched = append(matched, contact)
		}
	}
	return matched, nil
}

// birthKey yields month*100 + day of the birth column for the active dialect.
// The SQLite driver stores dates as "YYYY-MM-DD hh:mm:ss" text.
func (r *contactRepository) birthKey() string {
	if r.db.Dialector.Name() == "sqlite" {
		return "CAST(substr(birth, 6, 2) AS INTEGER) * 100 + CAST(substr(birth, 9, 2) AS INTEGER)"
	}
	return "CAST(EXTRACT(MONTH FROM birth) AS INTEGER) * 100 + CAST(EXTRACT(DAY FROM birth) AS INTEGER)"
}

func (r *contactRepository) first(ctx context.Context, ownerID int64, query string, args ...any) (*models.Contact, error) {
	var contact models.Contact
	err := r.owned(ctx, nil, ownerID).Where(query, args...).First(&contact).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact for user %d: %w", ownerID, err)
	}
	return &contact, nil
}

func (r *contactRepository) find(ctx context.Context, ownerID int64, query string, args ...any) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.owned(ctx, nil, ownerID).Where(query, args...).Order("id").Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts for user %d: %w", ownerID, err)
	}
	return contacts, nil
}

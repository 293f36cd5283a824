package service

import (
	"context"
	"errors"
	"time"

	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/GunarsK-portfolio/contacts-service/internal/repository"
)

// DefaultBirthdayWindowDays is the look-ahead used when none is requested.
const DefaultBirthdayWindowDays = 7

// ContactService exposes the owner-scoped contact directory. Lookups return
// a nil contact rather than an error when nothing matches.
type ContactService interface {
	Create(ctx context.Context, fields repository.ContactFields, ownerID int64) (*models.Contact, error)
	Update(ctx context.Context, id int64, fields repository.ContactFields, ownerID int64) (*models.Contact, error)
	Remove(ctx context.Context, id int64, ownerID int64) (*models.Contact, error)
	List(ctx context.Context, ownerID int64, page repository.Page) ([]models.Contact, error)
	FindByID(ctx context.Context, id int64, ownerID int64) (*models.Contact, error)
	SearchByLastname(ctx context.Context, lastname string, ownerID int64) ([]models.Contact, error)
	SearchByFirstname(ctx context.Context, firstname string, ownerID int64) ([]models.Contact, error)
	SearchByEmail(ctx context.Context, email string, ownerID int64) ([]models.Contact, error)
	UpcomingBirthdays(ctx context.Context, start, end time.Time, ownerID int64) ([]models.Contact, error)
	BirthdaysWithin(ctx context.Context, days int, ownerID int64) ([]models.Contact, error)
}

type contactService struct {
	repo repository.ContactRepository
	now  func() time.Time
}

// NewContactService creates a new ContactService instance.
func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactService{repo: repo, now: time.Now}
}

// Create rejects a contact whose lastname and email already exist for the owner.
func (s *contactService) Create(ctx context.Context, fields repository.ContactFields, ownerID int64) (*models.Contact, error) {
	existing, err := s.repo.FindByLastnameAndEmail(ctx, fields.Lastname, fields.Email, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}

	contact, err := s.repo.Create(ctx, fields, ownerID)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrConflict
	}
	return contact, err
}

func (s *contactService) Update(ctx context.Context, id int64, fields repository.ContactFields, ownerID int64) (*models.Contact, error) {
	contact, err := s.repo.Update(ctx, id, fields, ownerID)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrConflict
	}
	return contact, err
}

func (s *contactService) Remove(ctx context.Context, id int64, ownerID int64) (*models.Contact, error) {
	return s.repo.Remove(ctx, id, ownerID)
}

func (s *contactService) List(ctx context.Context, ownerID int64, page repository.Page) ([]models.Contact, error) {
	return s.repo.List(ctx, ownerID, page)
}

func (s *contactService) FindByID(ctx context.Context, id int64, ownerID int64) (*models.Contact, error) {
	return s.repo.FindByID(ctx, id, ownerID)
}

func (s *contactService) SearchByLastname(ctx context.Context, lastname string, ownerID int64) ([]models.Contact, error) {
	return s.repo.SearchByLastname(ctx, lastname, ownerID)
}

func (s *contactService) SearchByFirstname(ctx context.Context, firstname string, ownerID int64) ([]models.Contact, error) {
	return s.repo.SearchByFirstname(ctx, firstname, ownerID)
}

func (s *contactService) SearchByEmail(ctx context.Context, email string, ownerID int64) ([]models.Contact, error) {
	return s.repo.SearchByEmail(ctx, email, ownerID)
}

func (s *contactService) UpcomingBirthdays(ctx context.Context, start, end time.Time, ownerID int64) ([]models.Contact, error) {
	return s.repo.UpcomingBirthdays(ctx, start, end, ownerID)
}

// BirthdaysWithin queries [today, today+days]. Non-positive days use the default window.
func (s *contactService) BirthdaysWithin(ctx context.Context, days int, ownerID int64) ([]models.Contact, error) {
	if days <= 0 {
		days = DefaultBirthdayWindowDays
	}
	y, m, d := s.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return s.repo.UpcomingBirthdays(ctx, today, today.AddDate(0, 0, days), ownerID)
}

package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/database"
	"github.com/AnshRaj112/contacts-backend/internal/models"
	"github.com/AnshRaj112/contacts-backend/internal/repository"
	"github.com/AnshRaj112/contacts-backend/pkg/utils"
)

const (
	DefaultContactLimit = 100
	MaxContactLimit     = 100

	msgContactNotFound  = "Contact not found"
	msgContactDuplicate = "Contact with this email or phone number already exists."
)

// ContactStore is the contacts persistence, bound to a pool or a transaction.
type ContactStore interface {
	List(ctx context.Context, owner int64, f models.ContactFilter, skip, limit int) ([]*models.Contact, error)
	ListAll(ctx context.Context, owner int64) ([]*models.Contact, error)
	Get(ctx context.Context, owner, id int64) (*models.Contact, error)
	ExistsDuplicate(ctx context.Context, owner int64, email, phone string, excludeID int64) (bool, error)
	Create(ctx context.Context, owner int64, in models.ContactInput) (*models.Contact, error)
	Update(ctx context.Context, owner, id int64, in models.ContactInput) (*models.Contact, error)
	Delete(ctx context.Context, owner, id int64) (*models.Contact, error)
}

// TxRunner runs fn with a store bound to one transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context, store ContactStore) error) error

// PostgresTx runs contact writes inside database.WithTx.
func PostgresTx(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context, store ContactStore) error) error {
		return database.WithTx(ctx, db, func(ctx context.Context, tx database.DBTX) error {
			return fn(ctx, repository.NewContactRepository(tx))
		})
	}
}

// ContactService scopes every operation to the owning user.
type ContactService struct {
	store ContactStore
	inTx  TxRunner
}

func NewContactService(store ContactStore, inTx TxRunner) *ContactService {
	return &ContactService{store: store, inTx: inTx}
}

// Page normalizes skip and limit: negative skip is 0, limit defaults to and
// is capped at 100.
func Page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > MaxContactLimit {
		limit = DefaultContactLimit
	}
	return skip, limit
}

func (s *ContactService) List(ctx context.Context, owner *models.User, f models.ContactFilter, skip, limit int) ([]*models.Contact, error) {
	skip, limit = Page(skip, limit)
	return s.store.List(ctx, owner.ID, f, skip, limit)
}

func (s *ContactService) Get(ctx context.Context, owner *models.User, id int64) (*models.Contact, error) {
	c, err := s.store.Get(ctx, owner.ID, id)
	return c, contactError(err)
}

func validateContact(in models.ContactInput) error {
	if err := utils.Validate(in); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if in.Birthday.IsZero() {
		return apperr.Validation("birthday is required")
	}
	return nil
}

// Create adds a contact. The duplicate pre-check and the insert share a
// transaction; the unique constraints still decide concurrent inserts.
func (s *ContactService) Create(ctx context.Context, owner *models.User, in models.ContactInput) (*models.Contact, error) {
	if err := validateContact(in); err != nil {
		return nil, err
	}

	var created *models.Contact
	err := s.inTx(ctx, func(ctx context.Context, store ContactStore) error {
		dup, err := store.ExistsDuplicate(ctx, owner.ID, in.Email, in.PhoneNumber, 0)
		if err != nil {
			return err
		}
		if dup {
			return apperr.Conflict(msgContactDuplicate)
		}
		created, err = store.Create(ctx, owner.ID, in)
		return err
	})
	if err != nil {
		return nil, contactError(err)
	}
	return created, nil
}

func (s *ContactService) Update(ctx context.Context, owner *models.User, id int64, in models.ContactInput) (*models.Contact, error) {
	if err := validateContact(in); err != nil {
		return nil, err
	}

	var updated *models.Contact
	err := s.inTx(ctx, func(ctx context.Context, store ContactStore) error {
		if _, err := store.Get(ctx, owner.ID, id); err != nil {
			return err
		}
		dup, err := store.ExistsDuplicate(ctx, owner.ID, in.Email, in.PhoneNumber, id)
		if err != nil {
			return err
		}
		if dup {
			return apperr.Conflict(msgContactDuplicate)
		}
		updated, err = store.Update(ctx, owner.ID, id, in)
		return err
	})
	if err != nil {
		return nil, contactError(err)
	}
	return updated, nil
}

// Delete removes the contact and returns it.
func (s *ContactService) Delete(ctx context.Context, owner *models.User, id int64) (*models.Contact, error) {
	c, err := s.store.Delete(ctx, owner.ID, id)
	return c, contactError(err)
}

// contactError maps store errors onto the API taxonomy.
func contactError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgContactNotFound)
	}
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		return apperr.Conflict(msgContactDuplicate)
	}
	return err
}

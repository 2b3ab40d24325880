package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AnshRaj112/contacts-backend/internal/database"
	"github.com/AnshRaj112/contacts-backend/internal/models"
)

const (
	ConstraintContactEmail = "uq_user_contact_email"
	ConstraintContactPhone = "uq_user_contact_phone"
)

const contactColumns = `id, first_name, last_name, email, phone_number, birthday, description, created_at, user_id`

type ContactRepository struct {
	db database.DBTX
}

func NewContactRepository(db database.DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

func scanContact(row interface{ Scan(...any) error }) (*models.Contact, error) {
	c := &models.Contact{}
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber,
		&c.Birthday, &c.Description, &c.CreatedAt, &c.UserID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]*models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	contacts := make([]*models.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", asDuplicate(err))
	}
	return c, nil
}

// likeEscaper makes user input literal inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns the owner's contacts matching every non-empty filter field.
// Name and email filters are case-insensitive substring matches, the phone
// filter is a prefix match. Wildcards in filter values match literally.
func (r *ContactRepository) List(ctx context.Context, owner int64, f models.ContactFilter, skip, limit int) ([]*models.Contact, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1`)
	args := []any{owner}

	add := func(clause, value string) {
		args = append(args, value)
		sb.WriteString(" AND " + strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.FirstName != "" {
		add(`first_name ILIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.FirstName)+"%")
	}
	if f.LastName != "" {
		add(`last_name ILIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.LastName)+"%")
	}
	if f.Email != "" {
		add(`email ILIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.Email)+"%")
	}
	if f.PhoneNumber != "" {
		add(`phone_number LIKE ? ESCAPE '\'`, likeEscaper.Replace(f.PhoneNumber)+"%")
	}

	args = append(args, skip, limit)
	fmt.Fprintf(&sb, " ORDER BY id OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	return r.queryContacts(ctx, sb.String(), args...)
}

// ListAll returns every contact of the owner. Used by the birthday lookup,
// which filters in Go.
func (r *ContactRepository) ListAll(ctx context.Context, owner int64) ([]*models.Contact, error) {
	return r.queryContacts(ctx, `SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 ORDER BY id`, owner)
}

func (r *ContactRepository) Get(ctx context.Context, owner, id int64) (*models.Contact, error) {
	return r.queryOne(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`, id, owner)
}

// ExistsDuplicate reports whether another contact of the owner already uses
// email or phone. excludeID skips the contact being updated (0 for none).
func (r *ContactRepository) ExistsDuplicate(ctx context.Context, owner int64, email, phone string, excludeID int64) (bool, error) {
	query :=
		`SELECT EXISTS (
			SELECT 1 FROM contacts
			WHERE user_id = $1 AND (email = $2 OR phone_number = $3) AND id <> $4
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, owner, email, phone, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *ContactRepository) Create(ctx context.Context, owner int64, in models.ContactInput) (*models.Contact, error) {
	query :=
		`INSERT INTO contacts (first_name, last_name, email, phone_number, birthday, description, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING ` + contactColumns

	return r.queryOne(ctx, query, in.FirstName, in.LastName, in.Email, in.PhoneNumber, in.Birthday, in.Description, owner)
}

func (r *ContactRepository) Update(ctx context.Context, owner, id int64, in models.ContactInput) (*models.Contact, error) {
	query :=
		`UPDATE contacts
		 SET first_name = $1, last_name = $2, email = $3, phone_number = $4, birthday = $5, description = $6
		 WHERE id = $7 AND user_id = $8
		 RETURNING ` + contactColumns

	return r.queryOne(ctx, query, in.FirstName, in.LastName, in.Email, in.PhoneNumber, in.Birthday, in.Description, id, owner)
}

// Delete removes the contact and returns it as it was.
func (r *ContactRepository) Delete(ctx context.Context, owner, id int64) (*models.Contact, error) {
	return r.queryOne(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2 RETURNING `+contactColumns, id, owner)
}

// Package storetest provides in-memory user and contact stores that enforce
// the same uniqueness and ownership rules as the Postgres schema.
package storetest

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/contacts-backend/internal/models"
	"github.com/AnshRaj112/contacts-backend/internal/repository"
)

// Users is an in-memory user store enforcing the same unique constraints
// as the database.
type Users struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*models.User
}

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{byName: map[string]*models.User{}}
}

func (m *Users) copyOf(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *Users) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byName[username]; ok {
		return m.copyOf(u), nil
	}
	return nil, repository.ErrNotFound
}

func (m *Users) findEmail(email string) *models.User {
	for _, u := range m.byName {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (m *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.findEmail(email); u != nil {
		return m.copyOf(u), nil
	}
	return nil, repository.ErrNotFound
}

func (m *Users) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[u.Username]; ok {
		return nil, &repository.DuplicateError{Constraint: repository.ConstraintUsername}
	}
	if m.findEmail(u.Email) != nil {
		return nil, &repository.DuplicateError{Constraint: repository.ConstraintEmail}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	m.byName[u.Username] = m.copyOf(u)
	return u, nil
}

func (m *Users) SetConfirmed(_ context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.findEmail(email)
	if u == nil {
		return "", repository.ErrNotFound
	}
	u.Confirmed = true
	return u.Username, nil
}

func (m *Users) SetPasswordHash(_ context.Context, username, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *Users) SetAvatar(_ context.Context, email, url string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.findEmail(email)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	u.Avatar = &url
	return m.copyOf(u), nil
}

func (m *Users) SetRole(_ context.Context, username string, role models.Role) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Role = role
	return m.copyOf(u), nil
}

func (m *Users) Delete(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byName, username)
	return nil
}

func (m *Users) List(_ context.Context, skip, limit int) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*models.User, 0, len(m.byName))
	for _, u := range m.byName {
		all = append(all, m.copyOf(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if skip >= len(all) {
		return []*models.User{}, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Contacts is an in-memory contact store. Its mutex stands in for the
// database's unique constraints.
type Contacts struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Contact
}

// NewContacts returns an empty contact store.
func NewContacts() *Contacts {
	return &Contacts{rows: map[int64]*models.Contact{}}
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (m *Contacts) List(_ context.Context, owner int64, f models.ContactFilter, skip, limit int) ([]*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Contact, 0)
	for _, c := range m.sorted() {
		if c.UserID != owner ||
			!contains(c.FirstName, f.FirstName) || !contains(c.LastName, f.LastName) ||
			!contains(c.Email, f.Email) || !strings.HasPrefix(c.PhoneNumber, f.PhoneNumber) {
			continue
		}
		out = append(out, c)
	}
	if skip >= len(out) {
		return []*models.Contact{}, nil
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *Contacts) sorted() []*models.Contact {
	all := make([]*models.Contact, 0, len(m.rows))
	for _, c := range m.rows {
		cc := *c
		all = append(all, &cc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (m *Contacts) ListAll(ctx context.Context, owner int64) ([]*models.Contact, error) {
	return m.List(ctx, owner, models.ContactFilter{}, 0, math.MaxInt)
}

func (m *Contacts) Get(_ context.Context, owner, id int64) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.UserID != owner {
		return nil, repository.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (m *Contacts) clash(owner int64, email, phone string, excludeID int64) string {
	for _, c := range m.rows {
		if c.UserID != owner || c.ID == excludeID {
			continue
		}
		if c.Email == email {
			return repository.ConstraintContactEmail
		}
		if c.PhoneNumber == phone {
			return repository.ConstraintContactPhone
		}
	}
	return ""
}

func (m *Contacts) ExistsDuplicate(_ context.Context, owner int64, email, phone string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clash(owner, email, phone, excludeID) != "", nil
}

func (m *Contacts) apply(c *models.Contact, in models.ContactInput) {
	c.FirstName, c.LastName = in.FirstName, in.LastName
	c.Email, c.PhoneNumber = in.Email, in.PhoneNumber
	c.Birthday, c.Description = in.Birthday, in.Description
}

func (m *Contacts) Create(_ context.Context, owner int64, in models.ContactInput) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if constraint := m.clash(owner, in.Email, in.PhoneNumber, 0); constraint != "" {
		return nil, &repository.DuplicateError{Constraint: constraint}
	}
	m.nextID++
	c := &models.Contact{ID: m.nextID, UserID: owner, CreatedAt: time.Now().UTC()}
	m.apply(c, in)
	m.rows[c.ID] = c
	cc := *c
	return &cc, nil
}

func (m *Contacts) Update(_ context.Context, owner, id int64, in models.ContactInput) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.UserID != owner {
		return nil, repository.ErrNotFound
	}
	if constraint := m.clash(owner, in.Email, in.PhoneNumber, id); constraint != "" {
		return nil, &repository.DuplicateError{Constraint: constraint}
	}
	m.apply(c, in)
	cc := *c
	return &cc, nil
}

func (m *Contacts) Delete(_ context.Context, owner, id int64) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.UserID != owner {
		return nil, repository.ErrNotFound
	}
	delete(m.rows, id)
	return c, nil
}

package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rl1809/catalog/internal/core/result"
)

const maxUserNameLength = 100

// User is an immutable account identified by id and unique by email.
type User struct {
	id        string
	email     Email
	name      string
	createdAt time.Time
	updatedAt time.Time
	clock     func() time.Time
}

type NewUserParams struct {
	Email string
	Name  string
}

type UserSnapshot struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewUser(p NewUserParams, opts ...Option) result.Result[User, error] {
	email, err := NewEmail(p.Email).Get()
	if err != nil {
		return result.Fail[User](err)
	}
	name, err := validateUserName(p.Name)
	if err != nil {
		return result.Fail[User](err)
	}

	f := newFactory(opts)
	now := f.timestamp()
	return result.Ok[User, error](User{
		id:        f.newID(),
		email:     email,
		name:      name,
		createdAt: now,
		updatedAt: now,
		clock:     f.now,
	})
}

// RestoreUser rebuilds a user from trusted storage without validation.
func RestoreUser(s UserSnapshot, opts ...Option) User {
	f := newFactory(opts)
	return User{
		id:        s.ID,
		email:     Email{value: s.Email},
		name:      s.Name,
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
		clock:     f.now,
	}
}

func (u User) ID() string { return u.id }
func (u User) Email() Email { return u.email }
func (u User) Name() string { return u.name }
func (u User) CreatedAt() time.Time { return u.createdAt }
func (u User) UpdatedAt() time.Time { return u.updatedAt }
func (u User) Equals(other User) bool { return u.id == other.id }

func (u User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:        u.id,
		Email:     u.email.String(),
		Name:      u.name,
		CreatedAt: u.createdAt,
		UpdatedAt: u.updatedAt,
	}
}

func (u User) UpdateEmail(raw string) result.Result[User, error] {
	email, err := NewEmail(raw).Get()
	if err != nil {
		return result.Fail[User](err)
	}
	next := u
	next.email = email
	next.updatedAt = advance(u.clock, u.updatedAt)
	return result.Ok[User, error](next)
}

func (u User) UpdateName(raw string) result.Result[User, error] {
	name, err := validateUserName(raw)
	if err != nil {
		return result.Fail[User](err)
	}
	next := u
	next.name = name
	next.updatedAt = advance(u.clock, u.updatedAt)
	return result.Ok[User, error](next)
}

func validateUserName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", NewInvalidArgument("name", "cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxUserNameLength {
		return "", NewInvalidArgument("name", "cannot exceed 100 characters")
	}
	return name, nil
}

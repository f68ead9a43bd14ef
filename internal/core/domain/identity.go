package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/catalog/internal/core/result"
)

const (
	maxEmailLength = 254
	maxIDLength    = 64
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9\-]+(\.[a-z0-9\-]+)*\.[a-z]{2,}$`)

// Email is a lowercased, RFC-shaped address.
type Email struct {
	value string
}

func NewEmail(raw string) result.Result[Email, error] {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "":
		return result.Fail[Email](error(NewInvalidArgument("email", "cannot be empty")))
	case len(v) > maxEmailLength:
		return result.Fail[Email](error(NewInvalidArgument("email", "is too long")))
	case !emailPattern.MatchString(v):
		return result.Fail[Email](error(NewInvalidArgument("email", "is not a valid address")))
	}
	return result.Ok[Email, error](Email{value: v})
}

func (e Email) String() string { return e.value }

func (e Email) Equals(other Email) bool { return e.value == other.value }

// UserID identifies a user from outside the user aggregate, e.g. on an order.
type UserID struct {
	value string
}

func NewUserID(raw string) result.Result[UserID, error] {
	v := strings.TrimSpace(raw)
	switch {
	case v == "":
		return result.Fail[UserID](error(NewInvalidArgument("userId", "cannot be empty")))
	case len(v) > maxIDLength:
		return result.Fail[UserID](error(NewInvalidArgument("userId", "is too long")))
	}
	return result.Ok[UserID, error](UserID{value: v})
}

func (id UserID) String() string { return id.value }

func (id UserID) Equals(other UserID) bool { return id.value == other.value }

// Option overrides how factories assign identifiers and timestamps.
type Option func(*factory)

type factory struct {
	newID func() string
	now   func() time.Time
}

// WithIDGenerator replaces the default UUIDv4 generator.
func WithIDGenerator(fn func() string) Option {
	return func(f *factory) { f.newID = fn }
}

// WithClock replaces time.Now. Entities keep the clock for later transitions.
func WithClock(fn func() time.Time) Option {
	return func(f *factory) { f.now = fn }
}

func newFactory(opts []Option) factory {
	f := factory{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func (f factory) timestamp() time.Time {
	return f.now().UTC()
}

// advance returns the clock's current time, never earlier than prev.
func advance(clock func() time.Time, prev time.Time) time.Time {
	if clock == nil {
		clock = time.Now
	}
	t := clock().UTC()
	if t.Before(prev) {
		return prev
	}
	return t
}

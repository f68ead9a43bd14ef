package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser(NewUserParams{Email: "  Ada@Example.COM ", Name: " Ada "}, WithIDGenerator(sequentialIDs("user"))).Get()
	require.NoError(t, err)

	assert.Equal(t, "user-1", u.ID())
	assert.Equal(t, "ada@example.com", u.Email().String())
	assert.Equal(t, "Ada", u.Name())
	assert.Equal(t, u.CreatedAt(), u.UpdatedAt())
}

func TestNewUser_Validation(t *testing.T) {
	requireInvalidArgument(t, NewUser(NewUserParams{Email: "", Name: "Ada"}).Err(), "email")
	requireInvalidArgument(t, NewUser(NewUserParams{Email: "not-an-email", Name: "Ada"}).Err(), "email")
	requireInvalidArgument(t, NewUser(NewUserParams{Email: "a@b", Name: "Ada"}).Err(), "email")
	requireInvalidArgument(t, NewUser(NewUserParams{Email: "a@b.io", Name: "  "}).Err(), "name")
	requireInvalidArgument(t, NewUser(NewUserParams{Email: "a@b.io", Name: strings.Repeat("n", 101)}).Err(), "name")

	_, err := NewUser(NewUserParams{Email: "a@b.io", Name: strings.Repeat("n", 100)}).Get()
	assert.NoError(t, err)
}

func TestUser_Updates(t *testing.T) {
	clock := newFakeClock()
	original, err := NewUser(NewUserParams{Email: "ada@example.com", Name: "Ada"}, WithClock(clock.Now)).Get()
	require.NoError(t, err)

	moved, err := original.UpdateEmail("ADA@lovelace.org").Get()
	require.NoError(t, err)
	assert.Equal(t, "ada@lovelace.org", moved.Email().String())
	assert.Equal(t, "ada@example.com", original.Email().String())
	assert.True(t, moved.UpdatedAt().After(original.UpdatedAt()))

	renamed, err := moved.UpdateName("Augusta Ada").Get()
	require.NoError(t, err)
	assert.Equal(t, "Augusta Ada", renamed.Name())
	assert.Equal(t, "Ada", moved.Name())
	assert.True(t, renamed.Equals(original))

	requireInvalidArgument(t, renamed.UpdateEmail("nope").Err(), "email")
	requireInvalidArgument(t, renamed.UpdateName("").Err(), "name")
}

func TestEmailAndUserID(t *testing.T) {
	a, err := NewEmail("X@Y.dev").Get()
	require.NoError(t, err)
	b, err := NewEmail("x@y.dev").Get()
	require.NoError(t, err)
	assert.True(t, a.Equals(b))

	id, err := NewUserID("  abc ").Get()
	require.NoError(t, err)
	assert.Equal(t, "abc", id.String())

	requireInvalidArgument(t, NewUserID(strings.Repeat("x", 65)).Err(), "userId")
}

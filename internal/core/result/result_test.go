package result

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestOkAndFail(t *testing.T) {
	ok := Ok[int, error](42)
	assert.True(t, ok.IsSuccess())
	assert.False(t, ok.IsFailure())
	assert.Equal(t, 42, ok.Value())
	assert.NoError(t, ok.Err())

	failed := Fail[int](errBoom)
	assert.True(t, failed.IsFailure())
	assert.False(t, failed.IsSuccess())
	assert.Equal(t, 0, failed.Value())
	assert.ErrorIs(t, failed.Err(), errBoom)
}

func TestGetOrElse(t *testing.T) {
	assert.Equal(t, 1, Ok[int, error](1).GetOrElse(7))
	assert.Equal(t, 7, Fail[int](errBoom).GetOrElse(7))
}

func TestGet(t *testing.T) {
	v, err := Ok[string, error]("x").Get()
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	_, err = Fail[string](errBoom).Get()
	assert.ErrorIs(t, err, errBoom)
}

func TestMap(t *testing.T) {
	double := func(n int) int { return n * 2 }

	assert.Equal(t, 4, Map(Ok[int, error](2), double).Value())

	called := false
	r := Map(Fail[int](errBoom), func(n int) int {
		called = true
		return n
	})
	assert.False(t, called)
	assert.ErrorIs(t, r.Err(), errBoom)
}

func TestFlatMapShortCircuits(t *testing.T) {
	parse := func(s string) Result[int, error] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Fail[int](err)
		}
		return Ok[int, error](n)
	}
	positive := func(n int) Result[int, error] {
		if n <= 0 {
			return Fail[int](errBoom)
		}
		return Ok[int, error](n)
	}

	assert.Equal(t, 5, FlatMap(parse("5"), positive).Value())
	assert.ErrorIs(t, FlatMap(parse("-1"), positive).Err(), errBoom)

	bad := FlatMap(parse("nope"), positive)
	require.True(t, bad.IsFailure())
	var numErr *strconv.NumError
	assert.ErrorAs(t, bad.Err(), &numErr)
}

func TestMapError(t *testing.T) {
	toString := func(err error) string { return "wrapped: " + err.Error() }

	assert.Equal(t, "wrapped: boom", MapError(Fail[int](errBoom), toString).Err())

	r := MapError(Ok[int, error](3), toString)
	assert.True(t, r.IsSuccess())
	assert.Equal(t, 3, r.Value())
}

func TestCombine(t *testing.T) {
	t.Run("all succeed", func(t *testing.T) {
		r := Combine(Ok[int, error](1), Ok[int, error](2), Ok[int, error](3))
		require.True(t, r.IsSuccess())
		assert.Equal(t, []int{1, 2, 3}, r.Value())
	})

	t.Run("first failure wins", func(t *testing.T) {
		e := errors.New("e")
		later := errors.New("later")
		r := Combine(Ok[int, error](1), Fail[int](e), Ok[int, error](3), Fail[int](later))
		require.True(t, r.IsFailure())
		assert.Same(t, e, r.Err())
	})

	t.Run("empty", func(t *testing.T) {
		r := Combine[int, error]()
		require.True(t, r.IsSuccess())
		assert.Empty(t, r.Value())
	})
}

func TestFromCall(t *testing.T) {
	label := func(err error) string { return err.Error() }

	r := FromCall(func() (int, error) { return 9, nil }, label)
	assert.True(t, r.IsSuccess())
	assert.Equal(t, 9, r.Value())

	r = FromCall(func() (int, error) { return 0, errBoom }, label)
	assert.Equal(t, "boom", r.Err())

	r = FromCall(func() (int, error) { panic("kaput") }, label)
	require.True(t, r.IsFailure())
	assert.Contains(t, r.Err(), "kaput")
}

func TestTry(t *testing.T) {
	r := Try(func() (string, error) { return "", errBoom })
	assert.ErrorIs(t, r.Err(), errBoom)
}

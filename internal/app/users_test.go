package app

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Correct-Horse-9"

func newTestDirectory() *Directory {
	return NewDirectory().WithCost(bcrypt.MinCost)
}

func TestCheckUsername(t *testing.T) {
	tests := []struct {
		username string
		want     error
	}{
		{"nick", nil},
		{"nick_42", nil},
		{"ab", ErrUsernameLength},
		{"abcdefghijklmnopq", ErrUsernameLength},
		{"ni-ck", ErrUsernameFormat},
		{"nick!", ErrUsernameFormat},
		{"a_b_c", ErrUsernameUnderscore},
		{"nick_", ErrUsernameUnderscore},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckUsername(tt.username))
		})
	}
}

func TestCheckEmail(t *testing.T) {
	assert.NoError(t, CheckEmail("nick@example.com"))
	assert.NoError(t, CheckEmail("first.last+tag@mail.example.co"))
	assert.Equal(t, ErrInvalidEmail, CheckEmail("not-an-email"))
	assert.Equal(t, ErrInvalidEmail, CheckEmail("nick@example"))
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", testPassword, nil},
		{"too short", "Sh0rt!", ErrPasswordLength},
		{"too long", "Aa1!" + strings.Repeat("a", 61), ErrPasswordLength},
		{"no uppercase", "alllowercase123!", ErrPasswordCasing},
		{"no lowercase", "ALLUPPERCASE123!", ErrPasswordCasing},
		{"no number", "NoNumbersHere!!", ErrPasswordNumber},
		{"no special", "NoSpecials12345", ErrPasswordSpecial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPassword(tt.password))
		})
	}
}

func TestDirectory_Create(t *testing.T) {
	d := newTestDirectory()

	u, err := d.Create("nick", "nick@example.com", testPassword)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "nick", u.Username)
	assert.NotEqual(t, []byte(testPassword), u.hash)

	_, err = d.Create("NICK", "other@example.com", testPassword)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = d.Create("other", "Nick@Example.com", testPassword)
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = d.Create("x", "x@example.com", testPassword)
	assert.ErrorIs(t, err, ErrUsernameLength)

	_, err = d.Create("other", "x@example.com", "weak")
	assert.ErrorIs(t, err, ErrPasswordLength)
}

func TestDirectory_ConcurrentCreate(t *testing.T) {
	d := newTestDirectory()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = d.Create("racer", "racer@example.com", testPassword)
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrUsernameTaken)
	}
	assert.Equal(t, 1, created)
	assert.Len(t, d.List(), 1)
}

func TestDirectory_Authenticate(t *testing.T) {
	d := newTestDirectory()
	u, err := d.Create("nick", "nick@example.com", testPassword)
	require.NoError(t, err)

	got, err := d.Authenticate("NICK@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = d.Authenticate("nick@example.com", "Wrong-Horse-99")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = d.Authenticate("nobody@example.com", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDirectory_Stats(t *testing.T) {
	d := newTestDirectory()
	_, err := d.Create("nick", "nick@example.com", testPassword)
	require.NoError(t, err)

	stats, err := d.Stats("nick", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"coins": 0, "crystals": 0}, stats)

	stats, err = d.Stats("Nick", []string{"coins"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"coins": 0}, stats)

	_, err = d.Stats("nick", []string{"gems"})
	assert.ErrorIs(t, err, ErrUnknownStat)
	assert.Contains(t, err.Error(), `"gems"`)

	_, err = d.Stats("ghost", nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDirectory_ListAndDelete(t *testing.T) {
	d := newTestDirectory()
	zed, err := d.Create("zed", "zed@example.com", testPassword)
	require.NoError(t, err)
	_, err = d.Create("Amy", "amy@example.com", testPassword)
	require.NoError(t, err)

	users := d.List()
	require.Len(t, users, 2)
	assert.Equal(t, "Amy", users[0].Username)
	assert.Equal(t, "zed", users[1].Username)

	require.NoError(t, d.Delete(zed.ID))
	assert.ErrorIs(t, d.Delete(zed.ID), ErrUserNotFound)

	_, err = d.Get(zed.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// name and email are free again
	_, err = d.Create("zed", "zed@example.com", testPassword)
	assert.NoError(t, err)
}

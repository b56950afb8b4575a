package app

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Validation failures. Their messages are returned to clients as-is.
var (
	ErrUsernameLength     = errors.New("Username must be 3-16 characters long")
	ErrUsernameFormat     = errors.New("Username must contain alphanumeric characters or underscores only")
	ErrUsernameUnderscore = errors.New("Username must not end with or contain more than one underscore")
	ErrInvalidEmail       = errors.New("Email is not valid")
	ErrPasswordLength     = errors.New("Password must be 14 or more characters long")
	ErrPasswordCasing     = errors.New("Password must contain at least one uppercase and lowercase letter")
	ErrPasswordNumber     = errors.New("Password must contain at least one number")
	ErrPasswordSpecial    = errors.New("Password must contain at least one special character")
)

// Directory lookup failures.
var (
	ErrUsernameTaken      = errors.New("Username is already taken")
	ErrEmailTaken         = errors.New("Email is already in use")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrUserNotFound       = errors.New("User not found")
	ErrUnknownStat        = errors.New("unknown stat")
)

var (
	usernamePattern   = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	underscorePattern = regexp.MustCompile(`_[^_]*_|_$`)
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	upperPattern      = regexp.MustCompile(`[A-Z]`)
	lowerPattern      = regexp.MustCompile(`[a-z]`)
	numberPattern     = regexp.MustCompile(`[0-9]`)
	specialPattern    = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// StatNames lists the counters every user starts with.
var StatNames = []string{"coins", "crystals"}

// User is one account in the directory.
type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	CreatedAt time.Time

	hash  []byte
	stats map[string]int
}

// Directory is an in-memory user store safe for concurrent use.
type Directory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byName  map[string]*User
	byEmail map[string]*User
	cost    int
	now     func() time.Time
}

// NewDirectory creates an empty directory hashing passwords at bcrypt's
// default cost.
func NewDirectory() *Directory {
	return &Directory{
		byID:    make(map[uuid.UUID]*User),
		byName:  make(map[string]*User),
		byEmail: make(map[string]*User),
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
	}
}

// WithCost sets the bcrypt cost used for new accounts.
func (d *Directory) WithCost(cost int) *Directory {
	d.cost = cost
	return d
}

// CheckUsername validates a username: 3-16 characters of [a-zA-Z0-9_] with at
// most one underscore, which may not be the last character.
func CheckUsername(username string) error {
	if len(username) < 3 || len(username) > 16 {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameFormat
	}
	if underscorePattern.MatchString(username) {
		return ErrUsernameUnderscore
	}
	return nil
}

// CheckEmail validates the shape of an email address.
func CheckEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// CheckPassword requires 14-64 characters with mixed case, a digit and a
// symbol.
func CheckPassword(password string) error {
	// bcrypt reads at most 72 bytes
	if len(password) < 14 || len(password) > 64 {
		return ErrPasswordLength
	}
	if !upperPattern.MatchString(password) || !lowerPattern.MatchString(password) {
		return ErrPasswordCasing
	}
	if !numberPattern.MatchString(password) {
		return ErrPasswordNumber
	}
	if !specialPattern.MatchString(password) {
		return ErrPasswordSpecial
	}
	return nil
}

// Create validates and stores a new account.
func (d *Directory) Create(username, email, password string) (*User, error) {
	if err := CheckUsername(username); err != nil {
		return nil, err
	}
	if err := CheckEmail(email); err != nil {
		return nil, err
	}
	if err := CheckPassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byName[strings.ToLower(username)]; taken {
		return nil, ErrUsernameTaken
	}
	if _, taken := d.byEmail[strings.ToLower(email)]; taken {
		return nil, ErrEmailTaken
	}

	u := &User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		CreatedAt: d.now(),
		hash:      hash,
		stats:     make(map[string]int, len(StatNames)),
	}
	for _, name := range StatNames {
		u.stats[name] = 0
	}

	d.byID[u.ID] = u
	d.byName[strings.ToLower(username)] = u
	d.byEmail[strings.ToLower(email)] = u
	return u, nil
}

// Authenticate returns the account matching email and password.
func (d *Directory) Authenticate(email, password string) (*User, error) {
	d.mu.RLock()
	u, ok := d.byEmail[strings.ToLower(email)]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns the account with id.
func (d *Directory) Get(id uuid.UUID) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// List returns every account ordered by username.
func (d *Directory) List() []*User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	users := make([]*User, 0, len(d.byID))
	for _, u := range d.byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
	})
	return users
}

// Stats returns the counters of username. A non-empty selection limits the
// result to the named counters.
func (d *Directory) Stats(username string, selection []string) (map[string]int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byName[strings.ToLower(username)]
	if !ok {
		return nil, ErrUserNotFound
	}

	if len(selection) == 0 {
		out := make(map[string]int, len(u.stats))
		for k, v := range u.stats {
			out[k] = v
		}
		return out, nil
	}

	out := make(map[string]int, len(selection))
	for _, name := range selection {
		v, ok := u.stats[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownStat, name)
		}
		out[name] = v
	}
	return out, nil
}

// Delete removes the account with id.
func (d *Directory) Delete(id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(d.byID, id)
	delete(d.byName, strings.ToLower(u.Username))
	delete(d.byEmail, strings.ToLower(u.Email))
	return nil
}

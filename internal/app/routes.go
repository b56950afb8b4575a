package app

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/toyz/trellis/pkg/trellis"
)

// APIRoute is the /api root.
type APIRoute struct{}

// Get reports that the API is up.
func (*APIRoute) Get(c trellis.RequestContext) error {
	return c.Response().JSON(http.StatusOK, map[string]string{"status": "OK"})
}

// UsersRoute serves account management under /api/users.
type UsersRoute struct {
	users    *Directory
	tokens   *Tokens
	validate *validator.Validate
}

// PublicDir is the static mount of the site's files.
type PublicDir struct{}

type signupRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Get lists every account.
func (r *UsersRoute) Get(c trellis.RequestContext) error {
	users := r.users.List()
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{ID: u.ID, Name: u.Username})
	}
	return c.Response().JSON(http.StatusOK, out)
}

// Signup creates an account.
func (r *UsersRoute) Signup(c trellis.RequestContext) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil || r.validate.Struct(&req) != nil {
		return trellis.NewHTTPError(http.StatusBadRequest, "Fields 'email', 'password', and 'username' are required", err)
	}

	u, err := r.users.Create(req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
		return trellis.NewHTTPError(http.StatusConflict, err.Error())
	case isValidationError(err):
		return trellis.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}

	return c.Response().JSON(http.StatusCreated, userResponse{ID: u.ID, Name: u.Username})
}

// Login exchanges credentials for a bearer token. The token is returned in
// the body and as an "authorization" cookie.
func (r *UsersRoute) Login(c trellis.RequestContext) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || r.validate.Struct(&req) != nil {
		return trellis.NewHTTPError(http.StatusBadRequest, "Fields 'email' and 'password' are required", err)
	}

	u, err := r.users.Authenticate(req.Email, req.Password)
	if err != nil {
		return trellis.NewHTTPError(http.StatusNotFound, err.Error())
	}

	token, err := r.tokens.Issue(u.ID)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     "authorization",
		Value:    "Bearer " + token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	c.Response().SetHeader("Set-Cookie", cookie.String())
	return c.Response().JSON(http.StatusOK, map[string]any{"success": true, "token": token})
}

// GetStats returns the counters of a user, optionally narrowed with
// ?select=coins,crystals.
func (r *UsersRoute) GetStats(c trellis.RequestContext) error {
	selection := trellis.QueryOf(c).GetList("select")
	stats, err := r.users.Stats(c.Param("name"), selection)
	if err != nil {
		return trellis.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Response().JSON(http.StatusOK, stats)
}

// DeleteLoggedInUser removes the caller's own account.
func (r *UsersRoute) DeleteLoggedInUser(c trellis.RequestContext) error {
	id, _ := c.Get(UserIDKey).(uuid.UUID)
	if err := r.users.Delete(id); err != nil {
		return trellis.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Response().String(http.StatusOK, "ok")
}

// DeleteUser removes an account by ID. Callers may only delete themselves.
func (r *UsersRoute) DeleteUser(c trellis.RequestContext) error {
	id, err := trellis.ParseUUID(c, "id")
	if err != nil {
		return trellis.NewHTTPError(http.StatusBadRequest, "invalid user id", err)
	}
	if caller, _ := c.Get(UserIDKey).(uuid.UUID); caller != id {
		return trellis.NewHTTPError(http.StatusForbidden, "Forbidden")
	}

	if err := r.users.Delete(id); err != nil {
		return trellis.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Response().String(http.StatusOK, "ok")
}

func isValidationError(err error) bool {
	for _, target := range []error{
		ErrUsernameLength, ErrUsernameFormat, ErrUsernameUnderscore, ErrInvalidEmail,
		ErrPasswordLength, ErrPasswordCasing, ErrPasswordNumber, ErrPasswordSpecial,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// annotated pairs a member with the annotation line declaring it.
type annotated struct {
	member string
	line   string
}

var usersEndpoints = []annotated{
	{"Get", `//trellis::endpoint GET`},
	{"Signup", `//trellis::endpoint POST /signup -Middleware=JSONBody`},
	{"Login", `//trellis::endpoint POST /login -Middleware=JSONBody`},
	{"GetStats", `//trellis::endpoint GET /{name}/stats`},
	{"DeleteLoggedInUser", `//trellis::endpoint DELETE / -Middleware=Auth`},
	{"DeleteUser", `//trellis::endpoint DELETE /{id:uuid} -Middleware=Auth`},
}

// Declare writes the application's routes into store and registers the
// top-level ones in catalog, the static mount last. An empty staticDir
// leaves the static mount out.
func Declare(store *trellis.Store, catalog *trellis.Catalog, users *Directory, tokens *Tokens, staticPath, staticDir string) error {
	api := &APIRoute{}
	usersRoute := &UsersRoute{users: users, tokens: tokens, validate: validator.New()}

	if _, err := store.Annotate(api, `//trellis::route /api -Middleware=RequestID -Endware=AccessLog`, trellis.Nest(usersRoute)); err != nil {
		return err
	}
	if _, err := store.AnnotateMember(api, "Get", `//trellis::endpoint GET`); err != nil {
		return err
	}

	if _, err := store.Annotate(usersRoute, `//trellis::route /users`); err != nil {
		return err
	}
	for _, ep := range usersEndpoints {
		if _, err := store.AnnotateMember(usersRoute, ep.member, ep.line); err != nil {
			return err
		}
	}

	// users is mounted through the api route's nesting only
	catalog.Register("routes/api/index", api)
	if staticDir != "" {
		store.Static(&PublicDir{}, staticPath, staticDir)
		catalog.Register("routes/index", &PublicDir{})
	}
	return nil
}

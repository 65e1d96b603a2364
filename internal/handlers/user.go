package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth/gothic"

	"github.com/petermazzocco/recipe-api/internal/auth"
	"github.com/petermazzocco/recipe-api/internal/httputil"
	"github.com/petermazzocco/recipe-api/internal/logger"
	"github.com/petermazzocco/recipe-api/internal/users"
	"github.com/petermazzocco/recipe-api/models"
)

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name}
}

type createUserPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=128"`
	Name     string `json:"name" validate:"max=255"`
}

type updateUserPayload struct {
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Password *string `json:"password" validate:"omitnil,min=5,max=128"`
	Name     *string `json:"name" validate:"omitnil,max=255"`
}

type tokenPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func CreateUserHandler(w http.ResponseWriter, r *http.Request, svc *users.Service) {
	var p createUserPayload
	if err := decodeJSON(w, r, &p); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := validate.Struct(p); err != nil {
		d := details{}
		d.addValidation(err)
		httputil.Invalid(w, "invalid user", d)
		return
	}

	u, err := svc.Create(r.Context(), users.CreateInput{Email: p.Email, Password: p.Password, Name: p.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, newUserResponse(u))
}

func CreateTokenHandler(w http.ResponseWriter, r *http.Request, svc *users.Service, tokens auth.TokenStore) {
	var p tokenPayload
	if err := decodeJSON(w, r, &p); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := validate.Struct(p); err != nil {
		d := details{}
		d.addValidation(err)
		httputil.Invalid(w, "invalid credentials", d)
		return
	}

	u, err := svc.Authenticate(r.Context(), p.Email, p.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	key, err := tokens.Issue(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"token": key})
}

func GetUserHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	httputil.OK(w, newUserResponse(u))
}

// UpdateUserHandler serves PUT and PATCH on the caller's own profile. PUT
// needs email and password.
func UpdateUserHandler(w http.ResponseWriter, r *http.Request, svc *users.Service) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var p updateUserPayload
	if err := decodeJSON(w, r, &p); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	d := details{}
	if r.Method == http.MethodPut {
		if p.Email == nil {
			d.add("email", "this field is required")
		}
		if p.Password == nil {
			d.add("password", "this field is required")
		}
	}
	if err := validate.Struct(p); err != nil {
		d.addValidation(err)
	}
	if len(d) > 0 {
		httputil.Invalid(w, "invalid user", d)
		return
	}

	updated, err := svc.Update(r.Context(), u.ID, users.UpdateInput{Email: p.Email, Name: p.Name, Password: p.Password})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, newUserResponse(updated))
}

// BeginAuthHandler starts the provider's sign-in redirect.
func BeginAuthHandler(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, chi.URLParam(r, "provider")))
}

// UserLoginHandler finishes a provider sign-in, creating the account on
// first use, and answers with the same token /user/token would.
func UserLoginHandler(w http.ResponseWriter, r *http.Request, svc *users.Service, tokens auth.TokenStore) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		logger.Warn("oauth sign-in failed", "error", err)
		httputil.Unauthorized(w, "sign-in failed")
		return
	}

	u, err := svc.GetOrCreateExternal(r.Context(), gothUser.Email, gothUser.Name)
	if errors.Is(err, users.ErrInvalidCredentials) {
		httputil.Unauthorized(w, "user inactive or deleted")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	key, err := tokens.Issue(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := gothic.Logout(w, r); err != nil {
		logger.Warn("failed to clear oauth session", "error", err)
	}
	httputil.OK(w, map[string]string{"token": key})
}

func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, "authentication credentials were not provided")
		return nil, false
	}
	return u, true
}

// LogoutHandler revokes the caller's token. The next /user/token call issues
// a fresh one.
func LogoutHandler(w http.ResponseWriter, r *http.Request, tokens auth.TokenStore) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := tokens.Revoke(r.Context(), u.ID); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

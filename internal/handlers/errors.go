package handlers

import (
	"errors"
	"net/http"

	"github.com/petermazzocco/recipe-api/internal/httputil"
	"github.com/petermazzocco/recipe-api/internal/images"
	"github.com/petermazzocco/recipe-api/internal/recipes"
	"github.com/petermazzocco/recipe-api/internal/users"
)

// writeError maps service errors to responses. Anything unknown is a 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recipes.ErrNotFound), errors.Is(err, users.ErrNotFound):
		httputil.NotFound(w)
	case errors.Is(err, recipes.ErrInvalidInput):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, users.ErrEmailTaken):
		httputil.Invalid(w, "invalid user", fieldMsg("email", "user with this email already exists"))
	case errors.Is(err, users.ErrEmailRequired):
		httputil.Invalid(w, "invalid user", fieldMsg("email", "this field is required"))
	case errors.Is(err, users.ErrPasswordTooShort):
		httputil.Invalid(w, "invalid user", fieldMsg("password", "ensure this field has at least 5 characters"))
	case errors.Is(err, users.ErrInvalidCredentials):
		httputil.BadRequest(w, "unable to authenticate with provided credentials")
	case errors.Is(err, images.ErrNotAnImage):
		httputil.Invalid(w, "invalid image", fieldMsg("image", images.ErrNotAnImage.Error()))
	case errors.Is(err, images.ErrTooLarge):
		httputil.Invalid(w, "invalid image", fieldMsg("image", images.ErrTooLarge.Error()))
	default:
		httputil.InternalError(w, err)
	}
}

func fieldMsg(field, msg string) map[string][]string {
	return map[string][]string{field: {msg}}
}

var errInvalidIDList = errors.New("expected a comma separated list of ids")

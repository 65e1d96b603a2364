package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/petermazzocco/recipe-api/internal/httputil"
	"github.com/petermazzocco/recipe-api/internal/images"
	"github.com/petermazzocco/recipe-api/internal/logger"
	"github.com/petermazzocco/recipe-api/internal/recipes"
)

// multipartOverhead leaves room for boundaries and headers on top of the
// image itself.
const multipartOverhead = 64 << 10

// UploadRecipeImageHandler replaces the recipe's image with the multipart
// field "image". An invalid upload leaves the current image in place.
func UploadRecipeImageHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service, proc images.Processor, urls ImageURLer) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if _, err := svc.GetRecipe(r.Context(), u.ID, id); err != nil {
		writeError(w, err)
		return
	}

	if proc.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, proc.MaxBytes+multipartOverhead)
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, images.ErrTooLarge)
			return
		}
		httputil.Invalid(w, "invalid image", fieldMsg("image", "no file was submitted"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.Invalid(w, "invalid image", fieldMsg("image", "the submitted file could not be read"))
		return
	}
	up, err := proc.Prepare(data, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := svc.ReplaceImage(r.Context(), u.ID, id, up)
	if err != nil {
		writeError(w, err)
		return
	}
	logger.With("request_id", middleware.GetReqID(r.Context())).Info("recipe image uploaded", "user_id", u.ID, "recipe_id", rec.ID, "key", rec.Image, "bytes", len(up.Data))
	httputil.OK(w, recipeImageResponse{ID: rec.ID, Image: imageURL(rec.Image, urls)})
}

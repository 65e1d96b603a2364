package handlers

import (
	"net/http"

	"github.com/petermazzocco/recipe-api/internal/httputil"
	"github.com/petermazzocco/recipe-api/internal/recipes"
	"github.com/petermazzocco/recipe-api/models"
)

type attributePayload struct {
	Name *string `json:"name" validate:"omitnil,min=1,max=255"`
}

// ListAttributesHandler lists the caller's tags or ingredients.
// ?assigned_only=1 keeps those linked to at least one recipe.
func ListAttributesHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service, kind recipes.Kind) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	assignedOnly := false
	switch r.URL.Query().Get("assigned_only") {
	case "", "0":
	case "1":
		assignedOnly = true
	default:
		httputil.Invalid(w, "invalid filter", fieldMsg("assigned_only", "must be 0 or 1"))
		return
	}

	list, err := svc.ListAttributes(r.Context(), kind, u.ID, assignedOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]attributeResponse, 0, len(list))
	for _, a := range list {
		out = append(out, attributeResponse{ID: a.ID, Name: a.Name})
	}
	httputil.OK(w, out)
}

func GetAttributeHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service, kind recipes.Kind) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	a, err := svc.GetAttribute(r.Context(), kind, u.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, attributeResponse{ID: a.ID, Name: a.Name})
}

// UpdateAttributeHandler renames a tag or ingredient. PUT needs a name,
// PATCH without one changes nothing.
func UpdateAttributeHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service, kind recipes.Kind) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	var p attributePayload
	if err := decodeJSON(w, r, &p); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	d := details{}
	if r.Method == http.MethodPut && p.Name == nil {
		d.add("name", "this field is required")
	}
	if err := validate.Struct(p); err != nil {
		d.addValidation(err)
	}
	if len(d) > 0 {
		httputil.Invalid(w, "invalid "+kind.String(), d)
		return
	}

	var a *models.Attribute
	var err error
	if p.Name == nil {
		a, err = svc.GetAttribute(r.Context(), kind, u.ID, id)
	} else {
		a, err = svc.RenameAttribute(r.Context(), kind, u.ID, id, *p.Name)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, attributeResponse{ID: a.ID, Name: a.Name})
}

func DeleteAttributeHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service, kind recipes.Kind) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	if err := svc.DeleteAttribute(r.Context(), kind, u.ID, id); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

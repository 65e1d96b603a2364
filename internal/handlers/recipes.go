package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/petermazzocco/recipe-api/internal/httputil"
	"github.com/petermazzocco/recipe-api/internal/recipes"
	"github.com/petermazzocco/recipe-api/models"
)

// ImageURLer turns a stored image key into the URL clients fetch it from.
type ImageURLer interface {
	URL(key string) string
}

// maxPrice is the first value that no longer fits five digits with two
// decimals.
var maxPrice = decimal.NewFromInt(1000)

type attributeResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type recipeResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       string              `json:"price"`
	Link        string              `json:"link"`
	Tags        []attributeResponse `json:"tags"`
	Ingredients []attributeResponse `json:"ingredients"`
}

type recipeDetailResponse struct {
	recipeResponse
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

type recipeImageResponse struct {
	ID    uint    `json:"id"`
	Image *string `json:"image"`
}

func newRecipeResponse(rec *models.Recipe) recipeResponse {
	out := recipeResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		TimeMinutes: rec.TimeMinutes,
		Price:       rec.Price.StringFixed(2),
		Link:        rec.Link,
		Tags:        make([]attributeResponse, 0, len(rec.Tags)),
		Ingredients: make([]attributeResponse, 0, len(rec.Ingredients)),
	}
	for _, t := range rec.Tags {
		out.Tags = append(out.Tags, attributeResponse{ID: t.ID, Name: t.Name})
	}
	for _, i := range rec.Ingredients {
		out.Ingredients = append(out.Ingredients, attributeResponse{ID: i.ID, Name: i.Name})
	}
	return out
}

func newRecipeDetailResponse(rec *models.Recipe, urls ImageURLer) recipeDetailResponse {
	return recipeDetailResponse{
		recipeResponse: newRecipeResponse(rec),
		Description:    rec.Description,
		Image:          imageURL(rec.Image, urls),
	}
}

func imageURL(key string, urls ImageURLer) *string {
	if key == "" {
		return nil
	}
	u := urls.URL(key)
	return &u
}

type namePayload struct {
	Name string `json:"name" validate:"required,max=255"`
}

type recipePayload struct {
	Title       *string          `json:"title" validate:"omitnil,min=1,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitnil,min=0"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link" validate:"omitnil,max=255"`
	Description *string          `json:"description"`
	Tags        *[]namePayload   `json:"tags" validate:"omitnil,dive"`
	Ingredients *[]namePayload   `json:"ingredients" validate:"omitnil,dive"`
}

// check validates the payload. full is set for create and PUT, where the
// scalar fields without defaults must be present.
func (p recipePayload) check(full bool) details {
	d := details{}
	if full {
		if p.Title == nil {
			d.add("title", "this field is required")
		}
		if p.TimeMinutes == nil {
			d.add("time_minutes", "this field is required")
		}
		if p.Price == nil {
			d.add("price", "this field is required")
		}
	}
	if err := validate.Struct(p); err != nil {
		d.addValidation(err)
	}
	if p.Price != nil {
		switch {
		case p.Price.IsNegative():
			d.add("price", "ensure this value is greater than or equal to 0")
		case !p.Price.Equal(p.Price.Truncate(2)):
			d.add("price", "ensure that there are no more than 2 decimal places")
		case p.Price.GreaterThanOrEqual(maxPrice):
			d.add("price", "ensure that there are no more than 5 digits in total")
		}
	}
	if p.Link != nil && *p.Link != "" {
		if err := validate.Var(*p.Link, "url"); err != nil {
			d.add("link", "enter a valid URL")
		}
	}
	return d
}

func (p recipePayload) input() recipes.RecipeInput {
	in := recipes.RecipeInput{
		Title:       p.Title,
		TimeMinutes: p.TimeMinutes,
		Price:       p.Price,
		Link:        p.Link,
		Description: p.Description,
		Tags:        names(p.Tags),
		Ingredients: names(p.Ingredients),
	}
	if in.Price != nil {
		price := in.Price.Round(2)
		in.Price = &price
	}
	return in
}

// names keeps the nil versus empty distinction: nil means the relation was
// not sent at all.
func names(items *[]namePayload) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(*items))
	for _, it := range *items {
		out = append(out, it.Name)
	}
	return out
}

func ListRecipesHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var f recipes.RecipeFilter
	var err error
	d := details{}
	if f.TagIDs, err = parseIDs(r.URL.Query().Get("tags")); err != nil {
		d.add("tags", err.Error())
	}
	if f.IngredientIDs, err = parseIDs(r.URL.Query().Get("ingredients")); err != nil {
		d.add("ingredients", err.Error())
	}
	if len(d) > 0 {
		httputil.Invalid(w, "invalid filter", d)
		return
	}

	list, err := svc.ListRecipes(r.Context(), u.ID, f)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]recipeResponse, 0, len(list))
	for i := range list {
		out = append(out, newRecipeResponse(&list[i]))
	}
	httputil.OK(w, out)
}

func GetRecipeHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service, urls ImageURLer) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	rec, err := svc.GetRecipe(r.Context(), u.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, newRecipeDetailResponse(rec, urls))
}

func CreateRecipeHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service, urls ImageURLer) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var p recipePayload
	if err := decodeJSON(w, r, &p); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if d := p.check(true); len(d) > 0 {
		httputil.Invalid(w, "invalid recipe", d)
		return
	}

	rec, err := svc.CreateRecipe(r.Context(), u.ID, p.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, newRecipeDetailResponse(rec, urls))
}

// UpdateRecipeHandler serves PUT and PATCH. Relations are only replaced
// when their key is in the body, for either method.
func UpdateRecipeHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service, urls ImageURLer) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	var p recipePayload
	if err := decodeJSON(w, r, &p); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if d := p.check(r.Method == http.MethodPut); len(d) > 0 {
		httputil.Invalid(w, "invalid recipe", d)
		return
	}

	rec, err := svc.UpdateRecipe(r.Context(), u.ID, id, p.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, newRecipeDetailResponse(rec, urls))
}

func DeleteRecipeHandler(w http.ResponseWriter, r *http.Request, svc *recipes.Service) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	if err := svc.DeleteRecipe(r.Context(), u.ID, id); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

// urlID reads the {id} route parameter. Anything that is not a positive
// integer cannot name a row, so it is a 404.
func urlID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		httputil.NotFound(w)
		return 0, false
	}
	return uint(id), true
}

// parseIDs reads a comma separated id list such as "1,2,3".
func parseIDs(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errInvalidIDList
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

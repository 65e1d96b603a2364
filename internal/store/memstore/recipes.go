package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/petermazzocco/recipe-api/internal/recipes"
	"github.com/petermazzocco/recipe-api/models"
)

type recipeRow struct {
	recipe      models.Recipe // Tags and Ingredients are always nil here
	tags        []uint
	ingredients []uint
}

// RecipeRepo implements recipes.Repository.
type RecipeRepo struct {
	mu         sync.RWMutex
	lastRecipe uint
	lastAttr   map[recipes.Kind]uint
	recipes    map[uint]*recipeRow
	attrs      map[recipes.Kind]map[uint]models.Attribute
}

func NewRecipeRepo() *RecipeRepo {
	return &RecipeRepo{
		lastAttr: make(map[recipes.Kind]uint),
		recipes:  make(map[uint]*recipeRow),
		attrs: map[recipes.Kind]map[uint]models.Attribute{
			recipes.KindTag:        {},
			recipes.KindIngredient: {},
		},
	}
}

func (m *RecipeRepo) ListRecipes(_ context.Context, userID uint, f recipes.RecipeFilter) ([]models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Recipe{}
	for _, row := range m.recipes {
		if row.recipe.UserID != userID {
			continue
		}
		if !linkedTo(row, f) {
			continue
		}
		out = append(out, m.load(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *RecipeRepo) GetRecipe(_ context.Context, userID, id uint) (*models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, err := m.owned(userID, id)
	if err != nil {
		return nil, err
	}
	r := m.load(row)
	return &r, nil
}

func (m *RecipeRepo) CreateRecipe(_ context.Context, userID uint, in recipes.RecipeInput) (*models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastRecipe++
	row := &recipeRow{recipe: models.Recipe{
		ID:        m.lastRecipe,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	applyScalars(&row.recipe, in)
	row.tags = m.reconcile(recipes.KindTag, userID, nil, in.Tags)
	row.ingredients = m.reconcile(recipes.KindIngredient, userID, nil, in.Ingredients)
	m.recipes[row.recipe.ID] = row

	r := m.load(row)
	return &r, nil
}

func (m *RecipeRepo) UpdateRecipe(_ context.Context, userID, id uint, in recipes.RecipeInput) (*models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, err := m.owned(userID, id)
	if err != nil {
		return nil, err
	}
	if in.Tags != nil {
		row.tags = m.reconcile(recipes.KindTag, userID, row.tags, in.Tags)
	}
	if in.Ingredients != nil {
		row.ingredients = m.reconcile(recipes.KindIngredient, userID, row.ingredients, in.Ingredients)
	}
	applyScalars(&row.recipe, in)
	row.recipe.UpdatedAt = time.Now()

	r := m.load(row)
	return &r, nil
}

func (m *RecipeRepo) SetRecipeImage(_ context.Context, userID, id uint, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, err := m.owned(userID, id)
	if err != nil {
		return "", err
	}
	previous := row.recipe.Image
	row.recipe.Image = key
	row.recipe.UpdatedAt = time.Now()
	return previous, nil
}

func (m *RecipeRepo) DeleteRecipe(_ context.Context, userID, id uint) (*models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, err := m.owned(userID, id)
	if err != nil {
		return nil, err
	}
	r := m.load(row)
	delete(m.recipes, id)
	return &r, nil
}

func (m *RecipeRepo) ListAttributes(_ context.Context, kind recipes.Kind, userID uint, assignedOnly bool) ([]models.Attribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assigned := map[uint]bool{}
	if assignedOnly {
		for _, row := range m.recipes {
			for _, id := range m.relation(row, kind) {
				assigned[id] = true
			}
		}
	}

	out := []models.Attribute{}
	for _, a := range m.attrs[kind] {
		if a.UserID != userID {
			continue
		}
		if assignedOnly && !assigned[a.ID] {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name > out[j].Name
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *RecipeRepo) GetAttribute(_ context.Context, kind recipes.Kind, userID, id uint) (*models.Attribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.attrs[kind][id]
	if !ok || a.UserID != userID {
		return nil, recipes.ErrNotFound
	}
	return &a, nil
}

func (m *RecipeRepo) RenameAttribute(_ context.Context, kind recipes.Kind, userID, id uint, name string) (*models.Attribute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attrs[kind][id]
	if !ok || a.UserID != userID {
		return nil, recipes.ErrNotFound
	}
	a.Name = name
	a.UpdatedAt = time.Now()
	m.attrs[kind][id] = a
	return &a, nil
}

func (m *RecipeRepo) DeleteAttribute(_ context.Context, kind recipes.Kind, userID, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attrs[kind][id]
	if !ok || a.UserID != userID {
		return recipes.ErrNotFound
	}
	delete(m.attrs[kind], id)
	for _, row := range m.recipes {
		switch kind {
		case recipes.KindTag:
			row.tags = slices.DeleteFunc(row.tags, func(v uint) bool { return v == id })
		case recipes.KindIngredient:
			row.ingredients = slices.DeleteFunc(row.ingredients, func(v uint) bool { return v == id })
		}
	}
	return nil
}

// owned must be called with the lock held.
func (m *RecipeRepo) owned(userID, id uint) (*recipeRow, error) {
	row, ok := m.recipes[id]
	if !ok || row.recipe.UserID != userID {
		return nil, recipes.ErrNotFound
	}
	return row, nil
}

// reconcile applies the plan for one relation and returns the new id list.
// A nil names slice keeps the current list.
func (m *RecipeRepo) reconcile(kind recipes.Kind, userID uint, current []uint, names []string) []uint {
	if names == nil {
		return current
	}

	var owned, attached []models.Attribute
	for _, a := range m.attrs[kind] {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	for _, id := range current {
		attached = append(attached, m.attrs[kind][id])
	}

	plan := recipes.Reconcile(owned, attached, names)

	detach := map[uint]bool{}
	for _, a := range plan.Detach {
		detach[a.ID] = true
	}
	next := []uint{}
	for _, id := range current {
		if !detach[id] {
			next = append(next, id)
		}
	}
	for _, a := range plan.Attach {
		next = append(next, a.ID)
	}
	now := time.Now()
	for _, name := range plan.Create {
		m.lastAttr[kind]++
		a := models.Attribute{ID: m.lastAttr[kind], Name: name, UserID: userID, CreatedAt: now, UpdatedAt: now}
		m.attrs[kind][a.ID] = a
		next = append(next, a.ID)
	}
	slices.Sort(next)
	return next
}

func (m *RecipeRepo) relation(row *recipeRow, kind recipes.Kind) []uint {
	if kind == recipes.KindTag {
		return row.tags
	}
	return row.ingredients
}

// load copies the row and fills in its relations, ordered by id.
func (m *RecipeRepo) load(row *recipeRow) models.Recipe {
	r := row.recipe
	r.Tags = []models.Tag{}
	for _, id := range row.tags {
		r.Tags = append(r.Tags, models.Tag{Attribute: m.attrs[recipes.KindTag][id]})
	}
	r.Ingredients = []models.Ingredient{}
	for _, id := range row.ingredients {
		r.Ingredients = append(r.Ingredients, models.Ingredient{Attribute: m.attrs[recipes.KindIngredient][id]})
	}
	return r
}

func applyScalars(r *models.Recipe, in recipes.RecipeInput) {
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.TimeMinutes != nil {
		r.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		r.Price = *in.Price
	}
	if in.Link != nil {
		r.Link = *in.Link
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
}

// linkedTo reports whether row matches any of the filter's tag or ingredient
// ids. An empty filter matches everything.
func linkedTo(row *recipeRow, f recipes.RecipeFilter) bool {
	if len(f.TagIDs) == 0 && len(f.IngredientIDs) == 0 {
		return true
	}
	return anyOf(row.tags, f.TagIDs) || anyOf(row.ingredients, f.IngredientIDs)
}

func anyOf(have, want []uint) bool {
	for _, id := range want {
		if slices.Contains(have, id) {
			return true
		}
	}
	return false
}

package recipes

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/petermazzocco/recipe-api/models"
)

// Repository is the data access contract for recipes, tags and ingredients.
// Every method is scoped to userID. Implementations must be safe for
// concurrent use and must apply each recipe write atomically.
type Repository interface {
	// ListRecipes returns the user's recipes, newest (highest id) first, with
	// tags and ingredients loaded.
	ListRecipes(ctx context.Context, userID uint, f RecipeFilter) ([]models.Recipe, error)

	// GetRecipe returns ErrNotFound for a missing or foreign recipe.
	GetRecipe(ctx context.Context, userID, id uint) (*models.Recipe, error)

	// CreateRecipe inserts the recipe and reconciles its nested names.
	CreateRecipe(ctx context.Context, userID uint, in RecipeInput) (*models.Recipe, error)

	// UpdateRecipe applies the non-nil fields of in. Tags and Ingredients are
	// only reconciled when non-nil.
	UpdateRecipe(ctx context.Context, userID, id uint, in RecipeInput) (*models.Recipe, error)

	// SetRecipeImage stores a new image key and returns the one it replaced.
	SetRecipeImage(ctx context.Context, userID, id uint, key string) (previous string, err error)

	// DeleteRecipe removes the recipe and its join rows and returns the
	// deleted row so the caller can clean up its image.
	DeleteRecipe(ctx context.Context, userID, id uint) (*models.Recipe, error)

	// ListAttributes returns the user's tags or ingredients ordered by name
	// descending. assignedOnly keeps rows linked to at least one recipe.
	ListAttributes(ctx context.Context, kind Kind, userID uint, assignedOnly bool) ([]models.Attribute, error)

	GetAttribute(ctx context.Context, kind Kind, userID, id uint) (*models.Attribute, error)

	RenameAttribute(ctx context.Context, kind Kind, userID, id uint, name string) (*models.Attribute, error)

	// DeleteAttribute removes the row and detaches it from every recipe.
	DeleteAttribute(ctx context.Context, kind Kind, userID, id uint) error
}

// RecipeFilter narrows ListRecipes. A recipe is kept when it is linked to any
// of TagIDs or any of IngredientIDs. Empty lists are ignored.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// RecipeInput carries a create or update. Nil scalar pointers are left
// unchanged on update. A nil Tags or Ingredients slice leaves that relation
// untouched; a non-nil empty slice detaches everything.
type RecipeInput struct {
	Title       *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Link        *string
	Description *string
	Tags        []string
	Ingredients []string
}

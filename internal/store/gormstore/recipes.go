package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/petermazzocco/recipe-api/internal/recipes"
	"github.com/petermazzocco/recipe-api/models"
)

// attrTable names the table of one attribute kind and its join table.
type attrTable struct {
	table  string
	join   string
	column string
}

var attrTables = map[recipes.Kind]attrTable{
	recipes.KindTag:        {table: "tags", join: "recipe_tags", column: "tag_id"},
	recipes.KindIngredient: {table: "ingredients", join: "recipe_ingredients", column: "ingredient_id"},
}

// RecipeRepo implements recipes.Repository. Every query is scoped to the
// caller, so rows owned by someone else look exactly like missing rows.
type RecipeRepo struct{ db *gorm.DB }

func NewRecipeRepo(db *gorm.DB) *RecipeRepo { return &RecipeRepo{db: db} }

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredients.id") })
}

func (r *RecipeRepo) ListRecipes(ctx context.Context, userID uint, f recipes.RecipeFilter) ([]models.Recipe, error) {
	q := withRelations(r.db.WithContext(ctx)).Where("user_id = ?", userID)
	if linked := r.linkedTo(f); linked != nil {
		q = q.Where(linked)
	}

	out := []models.Recipe{}
	if err := q.Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return out, nil
}

// linkedTo groups the tag and ingredient predicates so a recipe matching
// either one is kept. Nil when the filter is empty.
func (r *RecipeRepo) linkedTo(f recipes.RecipeFilter) *gorm.DB {
	var cond *gorm.DB
	add := func(join, column string, ids []uint) {
		if len(ids) == 0 {
			return
		}
		sub := r.db.Table(join).Select("recipe_id").Where(column+" IN ?", ids)
		if cond == nil {
			cond = r.db.Where("id IN (?)", sub)
			return
		}
		cond = cond.Or("id IN (?)", sub)
	}
	add("recipe_tags", "tag_id", f.TagIDs)
	add("recipe_ingredients", "ingredient_id", f.IngredientIDs)
	return cond
}

func (r *RecipeRepo) GetRecipe(ctx context.Context, userID, id uint) (*models.Recipe, error) {
	var rec models.Recipe
	err := withRelations(r.db.WithContext(ctx)).Where("user_id = ?", userID).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, recipes.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &rec, nil
}

func (r *RecipeRepo) CreateRecipe(ctx context.Context, userID uint, in recipes.RecipeInput) (*models.Recipe, error) {
	var id uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := models.Recipe{UserID: userID}
		applyScalars(&rec, in)
		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		id = rec.ID

		if err := reconcile(tx, recipes.KindTag, userID, rec.ID, in.Tags); err != nil {
			return err
		}
		return reconcile(tx, recipes.KindIngredient, userID, rec.ID, in.Ingredients)
	})
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return r.GetRecipe(ctx, userID, id)
}

func (r *RecipeRepo) UpdateRecipe(ctx context.Context, userID, id uint, in recipes.RecipeInput) (*models.Recipe, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockRecipe(tx, userID, id)
		if err != nil {
			return err
		}
		if err := reconcile(tx, recipes.KindTag, userID, rec.ID, in.Tags); err != nil {
			return err
		}
		if err := reconcile(tx, recipes.KindIngredient, userID, rec.ID, in.Ingredients); err != nil {
			return err
		}

		updates := scalarUpdates(in)
		updates["updated_at"] = time.Now()
		if err := tx.Model(rec).Updates(updates).Error; err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetRecipe(ctx, userID, id)
}

func (r *RecipeRepo) SetRecipeImage(ctx context.Context, userID, id uint, key string) (string, error) {
	var previous string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockRecipe(tx, userID, id)
		if err != nil {
			return err
		}
		previous = rec.Image
		return tx.Model(rec).Updates(map[string]any{"image": key, "updated_at": time.Now()}).Error
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

func (r *RecipeRepo) DeleteRecipe(ctx context.Context, userID, id uint) (*models.Recipe, error) {
	var deleted *models.Recipe
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockRecipe(tx, userID, id)
		if err != nil {
			return err
		}
		for _, t := range attrTables {
			if err := tx.Exec("DELETE FROM "+t.join+" WHERE recipe_id = ?", rec.ID).Error; err != nil {
				return fmt.Errorf("unlink %s: %w", t.table, err)
			}
		}
		if err := tx.Delete(rec).Error; err != nil {
			return fmt.Errorf("delete recipe: %w", err)
		}
		deleted = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *RecipeRepo) ListAttributes(ctx context.Context, kind recipes.Kind, userID uint, assignedOnly bool) ([]models.Attribute, error) {
	t, ok := attrTables[kind]
	if !ok {
		return nil, recipes.ErrInvalidInput
	}

	q := r.db.WithContext(ctx).Table(t.table).Where("user_id = ?", userID)
	if assignedOnly {
		q = q.Where("id IN (?)", r.db.Table(t.join).Select(t.column))
	}

	out := []models.Attribute{}
	if err := q.Order("name DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", t.table, err)
	}
	return out, nil
}

func (r *RecipeRepo) GetAttribute(ctx context.Context, kind recipes.Kind, userID, id uint) (*models.Attribute, error) {
	t, ok := attrTables[kind]
	if !ok {
		return nil, recipes.ErrInvalidInput
	}
	return getAttribute(r.db.WithContext(ctx), t, userID, id)
}

func (r *RecipeRepo) RenameAttribute(ctx context.Context, kind recipes.Kind, userID, id uint, name string) (*models.Attribute, error) {
	t, ok := attrTables[kind]
	if !ok {
		return nil, recipes.ErrInvalidInput
	}

	var a *models.Attribute
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if a, err = getAttribute(tx, t, userID, id); err != nil {
			return err
		}
		now := time.Now()
		err = tx.Table(t.table).Where("id = ?", a.ID).
			Updates(map[string]any{"name": name, "updated_at": now}).Error
		if err != nil {
			return fmt.Errorf("rename %s: %w", t.table, err)
		}
		a.Name, a.UpdatedAt = name, now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *RecipeRepo) DeleteAttribute(ctx context.Context, kind recipes.Kind, userID, id uint) error {
	t, ok := attrTables[kind]
	if !ok {
		return recipes.ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := getAttribute(tx, t, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM "+t.join+" WHERE "+t.column+" = ?", a.ID).Error; err != nil {
			return fmt.Errorf("unlink %s: %w", t.table, err)
		}
		if err := tx.Exec("DELETE FROM "+t.table+" WHERE id = ?", a.ID).Error; err != nil {
			return fmt.Errorf("delete %s: %w", t.table, err)
		}
		return nil
	})
}

func getAttribute(db *gorm.DB, t attrTable, userID, id uint) (*models.Attribute, error) {
	var a models.Attribute
	err := db.Table(t.table).Where("user_id = ? AND id = ?", userID, id).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, recipes.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.table, err)
	}
	return &a, nil
}

// lockRecipe loads the caller's recipe row and holds it for the rest of tx.
func lockRecipe(tx *gorm.DB, userID, id uint) (*models.Recipe, error) {
	var rec models.Recipe
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, recipes.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &rec, nil
}

// reconcile brings one relation of the recipe in line with names. A nil
// names slice leaves the relation untouched.
func reconcile(tx *gorm.DB, kind recipes.Kind, userID, recipeID uint, names []string) error {
	if names == nil {
		return nil
	}
	t := attrTables[kind]

	var owned []models.Attribute
	if len(names) > 0 {
		err := tx.Table(t.table).Where("user_id = ? AND name IN ?", userID, names).Find(&owned).Error
		if err != nil {
			return fmt.Errorf("load %s: %w", t.table, err)
		}
	}
	var attached []models.Attribute
	err := tx.Table(t.table).
		Where("id IN (?)", tx.Table(t.join).Select(t.column).Where("recipe_id = ?", recipeID)).
		Find(&attached).Error
	if err != nil {
		return fmt.Errorf("load attached %s: %w", t.table, err)
	}

	plan := recipes.Reconcile(owned, attached, names)
	if plan.Empty() {
		return nil
	}

	if len(plan.Detach) > 0 {
		ids := make([]uint, 0, len(plan.Detach))
		for _, a := range plan.Detach {
			ids = append(ids, a.ID)
		}
		err := tx.Exec("DELETE FROM "+t.join+" WHERE recipe_id = ? AND "+t.column+" IN ?", recipeID, ids).Error
		if err != nil {
			return fmt.Errorf("detach %s: %w", t.table, err)
		}
	}

	attach := make([]uint, 0, len(plan.Attach)+len(plan.Create))
	for _, a := range plan.Attach {
		attach = append(attach, a.ID)
	}
	for _, name := range plan.Create {
		a := models.Attribute{Name: name, UserID: userID}
		if err := tx.Table(t.table).Omit(clause.Associations).Create(&a).Error; err != nil {
			return fmt.Errorf("create %s: %w", t.table, err)
		}
		attach = append(attach, a.ID)
	}
	if len(attach) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(attach))
	for _, id := range attach {
		rows = append(rows, map[string]any{"recipe_id": recipeID, t.column: id})
	}
	err = tx.Table(t.join).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("attach %s: %w", t.table, err)
	}
	return nil
}

func applyScalars(rec *models.Recipe, in recipes.RecipeInput) {
	if in.Title != nil {
		rec.Title = *in.Title
	}
	if in.TimeMinutes != nil {
		rec.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		rec.Price = *in.Price
	}
	if in.Link != nil {
		rec.Link = *in.Link
	}
	if in.Description != nil {
		rec.Description = *in.Description
	}
}

func scalarUpdates(in recipes.RecipeInput) map[string]any {
	u := map[string]any{}
	if in.Title != nil {
		u["title"] = *in.Title
	}
	if in.TimeMinutes != nil {
		u["time_minutes"] = *in.TimeMinutes
	}
	if in.Price != nil {
		u["price"] = *in.Price
	}
	if in.Link != nil {
		u["link"] = *in.Link
	}
	if in.Description != nil {
		u["description"] = *in.Description
	}
	return u
}

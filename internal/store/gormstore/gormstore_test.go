package gormstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/petermazzocco/recipe-api/internal/auth"
	"github.com/petermazzocco/recipe-api/internal/recipes"
	"github.com/petermazzocco/recipe-api/internal/users"
	"github.com/petermazzocco/recipe-api/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestUserRepoGetMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewUserRepo(db).Get(context.Background(), 7)

	assert.ErrorIs(t, err, users.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("cook@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "is_active"}).
			AddRow(3, "cook@example.com", "Cook", true))

	u, err := NewUserRepo(db).GetByEmail(context.Background(), "cook@example.com")

	require.NoError(t, err)
	assert.Equal(t, uint(3), u.ID)
	assert.Equal(t, "Cook", u.Name)
	assert.True(t, u.IsActive)
}

func TestUserRepoCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	err := NewUserRepo(db).Create(context.Background(), &models.User{Email: "cook@example.com"})

	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestTokenStoreLookup(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "auth_tokens" WHERE key = \$1`).
		WithArgs("abc", 1).
		WillReturnRows(sqlmock.NewRows([]string{"key", "user_id"}).AddRow("abc", 5))
	mock.ExpectQuery(`SELECT \* FROM "auth_tokens" WHERE key = \$1`).
		WithArgs("nope", 1).
		WillReturnRows(sqlmock.NewRows([]string{"key", "user_id"}))

	store := NewTokenStore(db)

	id, err := store.Lookup(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, uint(5), id)

	_, err = store.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = store.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenStoreIssueReturnsExisting(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "auth_tokens" WHERE user_id = \$1`).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"key", "user_id"}).AddRow("existing", 5))

	key, err := NewTokenStore(db).Issue(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, "existing", key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepoGetScopedToOwner(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE user_id = \$1 AND "recipes"."id" = \$2`).
		WithArgs(2, 9, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewRecipeRepo(db).GetRecipe(context.Background(), 2, 9)

	assert.ErrorIs(t, err, recipes.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepoListAttributesAssignedOnly(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE user_id = \$1 AND id IN \(SELECT tag_id FROM "recipe_tags"\) ORDER BY name DESC,id DESC`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}).
			AddRow(2, "Lunch", 1).
			AddRow(1, "Breakfast", 1))

	tags, err := NewRecipeRepo(db).ListAttributes(context.Background(), recipes.KindTag, 1, true)

	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Lunch", tags[0].Name)
	assert.Equal(t, "Breakfast", tags[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepoDeleteForeignIngredient(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "ingredients" WHERE user_id = \$1 AND id = \$2`).
		WithArgs(1, 4, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := NewRecipeRepo(db).DeleteAttribute(context.Background(), recipes.KindIngredient, 1, 4)

	assert.ErrorIs(t, err, recipes.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepoDeleteAttributeUnlinks(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE user_id = \$1 AND id = \$2`).
		WithArgs(1, 4, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}).AddRow(4, "Dinner", 1))
	mock.ExpectExec(`DELETE FROM recipe_tags WHERE tag_id = \$1`).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM tags WHERE id = \$1`).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewRecipeRepo(db).DeleteAttribute(context.Background(), recipes.KindTag, 1, 4)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func soup(tags []string) recipes.RecipeInput {
	title, minutes, price := "Soup", 10, decimal.RequireFromString("5.50")
	return recipes.RecipeInput{Title: &title, TimeMinutes: &minutes, Price: &price, Tags: tags}
}

// expectGetRecipe queues the reload done after every recipe write. Preloads
// run in name order, and a preload with no join rows stops after the join
// table query.
func expectGetRecipe(mock sqlmock.Sqlmock, tags *sqlmock.Rows, tagRows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE user_id = \$1 AND "recipes"."id" = \$2`).
		WithArgs(1, 9, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "time_minutes", "price"}).
			AddRow(9, 1, "Soup", 10, "5.50"))
	mock.ExpectQuery(`SELECT \* FROM "recipe_ingredients"`).
		WillReturnRows(sqlmock.NewRows([]string{"recipe_id", "ingredient_id"}))
	mock.ExpectQuery(`SELECT \* FROM "recipe_tags"`).WillReturnRows(tags)
	if tagRows != nil {
		mock.ExpectQuery(`SELECT \* FROM "tags" WHERE "tags"."id" IN`).WillReturnRows(tagRows)
	}
}

func TestRecipeRepoCreateReusesAndCreatesTags(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "recipes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE user_id = \$1 AND name IN \(\$2,\$3\)`).
		WithArgs(1, "Dinner", "Vegan").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}).AddRow(4, "Dinner", 1))
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE id IN \(SELECT tag_id FROM "recipe_tags" WHERE recipe_id = \$1\)`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}))
	mock.ExpectQuery(`INSERT INTO "tags"`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Vegan", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(`INSERT INTO "recipe_tags" \("recipe_id","tag_id"\) VALUES \(\$1,\$2\),\(\$3,\$4\) ON CONFLICT DO NOTHING`).
		WithArgs(9, 4, 9, 5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	expectGetRecipe(mock,
		sqlmock.NewRows([]string{"recipe_id", "tag_id"}).AddRow(9, 4).AddRow(9, 5),
		sqlmock.NewRows([]string{"id", "name", "user_id"}).AddRow(4, "Dinner", 1).AddRow(5, "Vegan", 1))

	rec, err := NewRecipeRepo(db).CreateRecipe(context.Background(), 1, soup([]string{"Dinner", "Vegan"}))

	require.NoError(t, err)
	assert.Equal(t, uint(9), rec.ID)
	require.Len(t, rec.Tags, 2)
	assert.Equal(t, "Dinner", rec.Tags[0].Name)
	assert.Equal(t, "Vegan", rec.Tags[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepoUpdateClearsTags(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE user_id = \$1 AND "recipes"."id" = \$2 .* FOR UPDATE`).
		WithArgs(1, 9, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}).AddRow(9, 1, "Soup"))
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE id IN \(SELECT tag_id FROM "recipe_tags" WHERE recipe_id = \$1\)`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}).AddRow(4, "Dinner", 1))
	mock.ExpectExec(`DELETE FROM recipe_tags WHERE recipe_id = \$1 AND tag_id IN \(\$2\)`).
		WithArgs(9, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "recipes" SET "updated_at"=\$1 WHERE "recipes"."id" = \$2`).
		WithArgs(sqlmock.AnyArg(), 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectGetRecipe(mock, sqlmock.NewRows([]string{"recipe_id", "tag_id"}), nil)

	rec, err := NewRecipeRepo(db).UpdateRecipe(context.Background(), 1, 9, recipes.RecipeInput{Tags: []string{}})

	require.NoError(t, err)
	assert.Empty(t, rec.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepoCreateRollsBackOnAttachError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "recipes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE user_id = \$1 AND name IN \(\$2\)`).
		WithArgs(1, "Vegan").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}))
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE id IN`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}))
	mock.ExpectQuery(`INSERT INTO "tags"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(`INSERT INTO "recipe_tags"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	rec, err := NewRecipeRepo(db).CreateRecipe(context.Background(), 1, soup([]string{"Vegan"}))

	assert.Nil(t, rec)
	assert.ErrorContains(t, err, "attach tags")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepoListMatchesTagOrIngredient(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE user_id = \$1 AND ` +
		`\(id IN \(SELECT recipe_id FROM "recipe_tags" WHERE tag_id IN \(\$2\)\) ` +
		`OR id IN \(SELECT recipe_id FROM "recipe_ingredients" WHERE ingredient_id IN \(\$3\)\)\) ` +
		`ORDER BY id DESC`).
		WithArgs(1, 4, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}).
			AddRow(3, 1, "Salad").
			AddRow(2, 1, "Toast"))
	mock.ExpectQuery(`SELECT \* FROM "recipe_ingredients"`).
		WillReturnRows(sqlmock.NewRows([]string{"recipe_id", "ingredient_id"}))
	mock.ExpectQuery(`SELECT \* FROM "recipe_tags"`).
		WillReturnRows(sqlmock.NewRows([]string{"recipe_id", "tag_id"}))

	list, err := NewRecipeRepo(db).ListRecipes(context.Background(), 1,
		recipes.RecipeFilter{TagIDs: []uint{4}, IngredientIDs: []uint{7}})

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Salad", list[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

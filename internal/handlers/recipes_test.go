package handlers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petermazzocco/recipe-api/models"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = parseIDs("3, 1,2")
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1, 2}, ids)

	for _, raw := range []string{"1,,2", "a", "-1", "1;2"} {
		_, err := parseIDs(raw)
		assert.ErrorIs(t, err, errInvalidIDList, raw)
	}
}

func TestRecipePayloadCheck(t *testing.T) {
	title, minutes := "Soup", 10
	price := decimal.RequireFromString("12.5")

	full := recipePayload{Title: &title, TimeMinutes: &minutes, Price: &price}
	assert.Empty(t, full.check(true))

	partial := recipePayload{Title: &title}
	assert.Empty(t, partial.check(false))
	d := partial.check(true)
	assert.Contains(t, d, "time_minutes")
	assert.Contains(t, d, "price")

	tags := []namePayload{{Name: "ok"}, {Name: ""}}
	withTags := recipePayload{Tags: &tags}
	assert.Contains(t, withTags.check(false), "tags[1].name")
}

func TestRecipePayloadInputKeepsNilRelations(t *testing.T) {
	empty := []namePayload{}
	in := recipePayload{Ingredients: &empty}.input()

	assert.Nil(t, in.Tags)
	assert.NotNil(t, in.Ingredients)
	assert.Empty(t, in.Ingredients)
}

type prefixURLs string

func (p prefixURLs) URL(key string) string { return string(p) + key }

func TestRecipeDetailResponse(t *testing.T) {
	rec := &models.Recipe{
		ID:          4,
		Title:       "Cake",
		TimeMinutes: 30,
		Price:       decimal.RequireFromString("5"),
		Tags:        []models.Tag{{Attribute: models.Attribute{ID: 1, Name: "Dessert"}}},
	}

	out := newRecipeDetailResponse(rec, prefixURLs("/media/"))
	assert.Equal(t, "5.00", out.Price)
	assert.Nil(t, out.Image)
	assert.Equal(t, []attributeResponse{{ID: 1, Name: "Dessert"}}, out.Tags)
	assert.Empty(t, out.Ingredients)
	assert.NotNil(t, out.Ingredients)

	rec.Image = "uploads/recipe/a.png"
	out = newRecipeDetailResponse(rec, prefixURLs("/media/"))
	require.NotNil(t, out.Image)
	assert.Equal(t, "/media/uploads/recipe/a.png", *out.Image)
}

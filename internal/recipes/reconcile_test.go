package recipes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/petermazzocco/recipe-api/models"
)

func attr(id uint, name string) models.Attribute {
	return models.Attribute{ID: id, Name: name, UserID: 1}
}

func TestReconcileCreatesMissing(t *testing.T) {
	plan := Reconcile(nil, nil, []string{"Thai", "Dinner"})

	assert.Equal(t, []string{"Thai", "Dinner"}, plan.Create)
	assert.Empty(t, plan.Attach)
	assert.Empty(t, plan.Detach)
}

func TestReconcileReusesOwned(t *testing.T) {
	owned := []models.Attribute{attr(7, "Indian")}

	plan := Reconcile(owned, nil, []string{"Indian", "Breakfast"})

	assert.Equal(t, []string{"Breakfast"}, plan.Create)
	assert.Equal(t, []models.Attribute{attr(7, "Indian")}, plan.Attach)
	assert.Empty(t, plan.Detach)
}

func TestReconcileCollapsesDuplicates(t *testing.T) {
	owned := []models.Attribute{attr(3, "Salt")}

	plan := Reconcile(owned, nil, []string{"Salt", "Pepper", "Salt", "Pepper"})

	assert.Equal(t, []string{"Pepper"}, plan.Create)
	assert.Equal(t, []models.Attribute{attr(3, "Salt")}, plan.Attach)
}

func TestReconcileReplacesAssociation(t *testing.T) {
	owned := []models.Attribute{attr(1, "Breakfast"), attr(2, "Lunch")}
	attached := []models.Attribute{attr(1, "Breakfast")}

	plan := Reconcile(owned, attached, []string{"Lunch"})

	assert.Empty(t, plan.Create)
	assert.Equal(t, []models.Attribute{attr(2, "Lunch")}, plan.Attach)
	assert.Equal(t, []models.Attribute{attr(1, "Breakfast")}, plan.Detach)
}

func TestReconcileEmptyClearsEverything(t *testing.T) {
	attached := []models.Attribute{attr(1, "Breakfast"), attr(2, "Lunch")}

	plan := Reconcile(attached, attached, []string{})

	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Attach)
	assert.Equal(t, attached, plan.Detach)
}

func TestReconcileNoChange(t *testing.T) {
	attached := []models.Attribute{attr(1, "Breakfast")}

	plan := Reconcile(attached, attached, []string{"Breakfast"})

	assert.True(t, plan.Empty())
}

func TestReconcilePrefersLowestID(t *testing.T) {
	owned := []models.Attribute{attr(9, "Cheap"), attr(4, "Cheap")}

	plan := Reconcile(owned, nil, []string{"Cheap"})

	assert.Equal(t, []models.Attribute{attr(4, "Cheap")}, plan.Attach)
}

func TestReconcileIsCaseSensitive(t *testing.T) {
	owned := []models.Attribute{attr(1, "thai")}

	plan := Reconcile(owned, nil, []string{"Thai"})

	assert.Equal(t, []string{"Thai"}, plan.Create)
	assert.Empty(t, plan.Attach)
}

package recipes

import "github.com/petermazzocco/recipe-api/models"

// Plan is the set of changes that turns a recipe's current association into
// the requested one. Names in Create become new rows owned by the caller and
// are attached as well.
type Plan struct {
	Create []string
	Attach []models.Attribute
	Detach []models.Attribute
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Attach) == 0 && len(p.Detach) == 0
}

// Reconcile computes the plan for one relation.
//
// owned holds the caller's existing rows (at least those whose names appear
// in desired), attached the rows currently linked to the recipe, and desired
// the requested names. Duplicate names collapse and order does not matter.
// When the caller owns several rows with the same name the lowest id wins.
func Reconcile(owned, attached []models.Attribute, desired []string) Plan {
	byName := make(map[string]models.Attribute, len(owned))
	for _, a := range owned {
		if prev, ok := byName[a.Name]; !ok || a.ID < prev.ID {
			byName[a.Name] = a
		}
	}

	isAttached := make(map[uint]bool, len(attached))
	for _, a := range attached {
		isAttached[a.ID] = true
	}

	var plan Plan
	keep := make(map[uint]bool, len(desired))
	seen := make(map[string]bool, len(desired))
	for _, name := range desired {
		if seen[name] {
			continue
		}
		seen[name] = true

		row, ok := byName[name]
		if !ok {
			plan.Create = append(plan.Create, name)
			continue
		}
		keep[row.ID] = true
		if !isAttached[row.ID] {
			plan.Attach = append(plan.Attach, row)
		}
	}

	for _, a := range attached {
		if !keep[a.ID] {
			plan.Detach = append(plan.Detach, a)
		}
	}
	return plan
}

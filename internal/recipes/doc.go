// Package recipes implements recipe, tag and ingredient management.
//
// Every operation takes the caller's user id and only ever sees rows owned by
// that user; a row owned by someone else is reported as ErrNotFound. Tags and
// ingredients share one shape (models.Attribute) and are addressed by Kind.
//
// Nested tag and ingredient names on recipe writes are resolved with
// Reconcile, which both store implementations apply inside a single
// transaction.
package recipes

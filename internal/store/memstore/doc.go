// Package memstore keeps users, recipes, tags, ingredients and tokens in
// process memory. It backs the "memory" database driver for local runs and
// the service and handler tests. Each repository guards its state with one
// mutex, so every recipe write is atomic.
package memstore

// Package users implements registration, authentication and profile updates.
//
// The service holds the rules (email normalization, password length,
// duplicate detection). Storage sits behind the Repository interface; the
// gorm and in-memory implementations live under internal/store.
package users

package users

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailRequired      = errors.New("users must have an email address")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrPasswordTooShort   = errors.New("password must be at least 5 characters")
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
)

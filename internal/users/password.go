package users

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies at registration and on profile updates.
const MinPasswordLength = 5

// unusablePassword marks accounts that can only sign in through OAuth. It is
// not a valid bcrypt hash, so CheckPassword always fails against it.
const unusablePassword = "!"

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" || hash == unusablePassword {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

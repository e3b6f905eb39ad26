package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is an account that can sign in with its phone, email or username.
type User struct {
	ID           string
	Username     string
	Email        *string
	Phone        *string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DuplicateFieldError reports which unique account field collided on write.
// It matches ErrUserExists with errors.Is.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	if e.Field == "" {
		return ErrUserExists.Error()
	}
	return ErrUserExists.Error() + ": duplicate " + e.Field
}

func (e *DuplicateFieldError) Is(target error) bool {
	return target == ErrUserExists
}

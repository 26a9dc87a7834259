// internal/domain/user.go
package domain

import (
	"fmt"
	"net/mail"
	"strings"

	"ledger-bank/internal/util"
)

// MinPasswordLength is the shortest password accepted on registration or update.
const MinPasswordLength = 8

// User represents a bank customer.
type User struct {
	ID           int64   `db:"user_id" json:"user_id"`
	Name         string  `db:"name" json:"name"`
	Email        string  `db:"email" json:"email"`
	Phone        *string `db:"phone" json:"phone"`
	Address      *string `db:"address" json:"address"`
	PasswordHash string  `db:"password_hash" json:"-"` // bcrypt hash, never serialized
}

// NewUser carries the fields needed to register a user.
type NewUser struct {
	Name     string
	Email    string
	Phone    *string
	Address  *string
	Password string
}

// Validate checks the registration request.
func (n NewUser) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: name is required", util.ErrInvalidInput)
	}
	if err := validateEmail(n.Email); err != nil {
		return err
	}
	if len(n.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", util.ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// UserUpdate holds the user fields that may change. A nil field is left untouched.
type UserUpdate struct {
	Name     *string
	Email    *string
	Phone    *string
	Address  *string
	Password *string
}

// Validate checks the supplied fields.
func (u UserUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", util.ErrInvalidInput)
	}
	if u.Email != nil {
		if err := validateEmail(*u.Email); err != nil {
			return err
		}
	}
	if u.Password != nil && len(*u.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", util.ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", util.ErrInvalidInput)
	}
	return nil
}

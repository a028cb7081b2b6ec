// Package auth handles credentials, session tokens and federated login.
package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
)

const specialCharacters = `!@#$%^&*(),.?":{}|<>`

// PasswordPolicy describes what a new password must contain.
type PasswordPolicy struct {
	MinLength int
}

// Validate returns a validation error naming the first unmet rule.
func (p PasswordPolicy) Validate(password string) error {
	if len([]rune(password)) < p.MinLength {
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters long", p.MinLength))
	}

	var digit, upper, lower, special bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case strings.ContainsRune(specialCharacters, r):
			special = true
		}
	}

	switch {
	case !digit:
		return apperr.Validation("Password must contain at least one digit")
	case !upper:
		return apperr.Validation("Password must contain at least one uppercase letter")
	case !lower:
		return apperr.Validation("Password must contain at least one lowercase letter")
	case !special:
		return apperr.Validation("Password must contain at least one special character")
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Accounts created
// through federated login have no hash and never match.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

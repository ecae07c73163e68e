package account

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/karstgames/savepoint/internal/model"
)

// Case insensitive alphanumeric plus '-' and '_', 3-15 chars
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,15}$`)

// Payment field formats. Structural checks only; nothing here talks to a
// payment processor.
var (
	nameRe     = regexp.MustCompile(`^[a-zA-Z]{1,50}$`)
	addressRe  = regexp.MustCompile(`^[a-zA-Z0-9,.\s]{1,125}$`)
	cardRe     = regexp.MustCompile(`^[0-9]{13,16}$`)
	cvcRe      = regexp.MustCompile(`^[0-9]{3,4}$`)
	expMonthRe = regexp.MustCompile(`^(1[0-2]|0?[1-9])$`)
	expYearRe  = regexp.MustCompile(`^[0-9]{2}$`)
)

// ValidateUsername checks the username format
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return model.ErrCredentialFormat
	}
	return nil
}

// ValidatePassword requires 10-30 chars with at least one uppercase letter,
// one lowercase letter, one digit, and one special character
func ValidatePassword(pass string) error {
	if len(pass) < 10 || len(pass) > 30 {
		return model.ErrCredentialFormat
	}
	var upper, lower, digit, special bool
	for _, r := range pass {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return model.ErrCredentialFormat
	}
	return nil
}

// Payment holds the structural payment form fields. Card number, cvc, and
// expiry are validated but never persisted.
type Payment struct {
	FirstName  string
	LastName   string
	Address    string
	CardNumber string
	CVC        string
	ExpMonth   string
	ExpYear    string
}

// Validate checks all payment fields structurally
func (p Payment) Validate() error {
	ok := nameRe.MatchString(p.FirstName) &&
		nameRe.MatchString(p.LastName) &&
		addressRe.MatchString(p.Address) &&
		cardRe.MatchString(p.CardNumber) &&
		cvcRe.MatchString(p.CVC) &&
		expMonthRe.MatchString(p.ExpMonth) &&
		expYearRe.MatchString(p.ExpYear)
	if !ok {
		return model.ErrPaymentFormat
	}
	return nil
}

// Identifier selects an account by id or by username, for admin operations
// that accept either
type Identifier struct {
	id       *model.AccountID
	username string
}

// ByID returns an Identifier for an account id
func ByID(id model.AccountID) Identifier {
	return Identifier{id: &id}
}

// ByUsername returns an Identifier for a username
func ByUsername(username string) Identifier {
	return Identifier{username: username}
}

// ParseIdentifier interprets a raw string as a UUID if it parses as one,
// otherwise as a username (which must be well-formed)
func ParseIdentifier(raw string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return ByID(id), nil
	}
	if err := ValidateUsername(raw); err != nil {
		return Identifier{}, err
	}
	return ByUsername(raw), nil
}

package application

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/projectfocus/focus-api/pkg/helpers"
)

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = helpers.MaxPasswordBytes

// PasswordPolicy is configured at startup; no rule is hard-coded here.
type PasswordPolicy struct {
	MinLength        int
	RequireMixedCase bool
	RequireDigit     bool
	RequireSymbol    bool
}

// Check returns the rules password violates, or nil.
func (p PasswordPolicy) Check(password string) []string {
	var out []string
	if n := utf8.RuneCountInString(password); n < p.MinLength {
		out = append(out, fmt.Sprintf("must be at least %d characters long", p.MinLength))
	}
	if len(password) > MaxPasswordBytes {
		out = append(out, fmt.Sprintf("must be at most %d bytes long", MaxPasswordBytes))
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if p.RequireMixedCase && !(upper && lower) {
		out = append(out, "must contain upper and lower case letters")
	}
	if p.RequireDigit && !digit {
		out = append(out, "must contain a digit")
	}
	if p.RequireSymbol && !symbol {
		out = append(out, "must contain a symbol")
	}
	return out
}

package validation

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// Password policy bounds.
const (
	PasswordMinLength = 8
	PasswordMaxLength = 128
)

const (
	emailMinLength = 5
	emailMaxLength = 254
)

// PasswordSymbols is the set of characters that satisfy the symbol requirement.
const PasswordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"

var (
	syntaxOnce sync.Once
	syntax     *validator.Validate
)

func syntaxValidator() *validator.Validate {
	syntaxOnce.Do(func() {
		syntax = validator.New()
	})
	return syntax
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(value string) (string, string) {
	normalized := NormalizeEmail(value)
	n := utf8.RuneCountInString(normalized)
	if n < emailMinLength || n > emailMaxLength {
		return normalized, "Please provide a valid email address"
	}
	if err := syntaxValidator().Var(normalized, "email"); err != nil {
		return normalized, "Please provide a valid email address"
	}
	return normalized, ""
}

func checkLength(rule Rule, value string) string {
	n := utf8.RuneCountInString(value)
	name := humanize(rule.Field)
	switch {
	case rule.Params.Min > 0 && rule.Params.Max > 0 && (n < rule.Params.Min || n > rule.Params.Max):
		return fmt.Sprintf("%s must be between %d and %d characters", name, rule.Params.Min, rule.Params.Max)
	case rule.Params.Min > 0 && n < rule.Params.Min:
		return fmt.Sprintf("%s must be at least %d characters", name, rule.Params.Min)
	case rule.Params.Max > 0 && n > rule.Params.Max:
		return fmt.Sprintf("%s must be at most %d characters", name, rule.Params.Max)
	}
	return ""
}

func checkAlphanumeric(rule Rule, value string) string {
	for _, r := range value {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return humanize(rule.Field) + " can only contain letters and numbers"
		}
	}
	return ""
}

func checkPassword(value string) []string {
	var msgs []string

	n := utf8.RuneCountInString(value)
	if n < PasswordMinLength || n > PasswordMaxLength {
		msgs = append(msgs, fmt.Sprintf("Password must be between %d and %d characters", PasswordMinLength, PasswordMaxLength))
	}

	var lower, upper, digit, symbol bool
	for _, r := range value {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	if !lower {
		msgs = append(msgs, "Password must contain at least one lowercase letter")
	}
	if !upper {
		msgs = append(msgs, "Password must contain at least one uppercase letter")
	}
	if !digit {
		msgs = append(msgs, "Password must contain at least one number")
	}
	if !symbol {
		msgs = append(msgs, "Password must contain at least one special character")
	}
	return msgs
}

func checkTimezone(value string) string {
	if value == "" || value == "Local" {
		return "Please provide a valid timezone"
	}
	if _, err := time.LoadLocation(value); err != nil {
		return "Please provide a valid timezone"
	}
	return ""
}

// checkStrength enforces a minimum zxcvbn score. Min <= 0 disables the rule.
func checkStrength(rule Rule, value string, input Input) string {
	minScore := rule.Params.Min
	if minScore <= 0 {
		return ""
	}
	if minScore > 4 {
		minScore = 4
	}

	related := make([]string, 0, len(rule.Params.Related))
	for _, field := range rule.Params.Related {
		if v := strings.TrimSpace(input[field]); v != "" {
			related = append(related, v)
		}
	}

	if zxcvbn.PasswordStrength(value, related).Score >= minScore {
		return ""
	}
	return "Password is too easy to guess"
}

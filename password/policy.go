package password

import (
	"fmt"
	"unicode"
)

// Policy defines the complexity rules applied to candidate passwords.
//
// Policy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Policy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPolicy returns the standard complexity rules: at least eight
// characters with one uppercase letter, one lowercase letter, one digit
// and one special character.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

// Validate checks candidate against the policy and returns one message
// per violated rule. An empty slice means the password is acceptable.
func (p Policy) Validate(candidate string) []string {
	var messages []string

	if len(candidate) < p.MinLength {
		messages = append(messages, fmt.Sprintf("Password must be at least %d characters long", p.MinLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if p.RequireUpper && !hasUpper {
		messages = append(messages, "Password must contain at least one uppercase letter")
	}
	if p.RequireLower && !hasLower {
		messages = append(messages, "Password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		messages = append(messages, "Password must contain at least one digit")
	}
	if p.RequireSpecial && !hasSpecial {
		messages = append(messages, "Password must contain at least one special character")
	}

	return messages
}

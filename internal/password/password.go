package password

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the minimum accepted password length.
const MinLength = 8

// Policy violation reasons reported to clients.
const (
	ReasonTooShort  = "must be at least 8 characters"
	ReasonLowercase = "must contain a lowercase letter"
	ReasonUppercase = "must contain an uppercase letter"
	ReasonDigit     = "must contain a digit"
	ReasonSymbol    = "must contain a symbol"
)

// Validate checks a candidate password against the strength policy and
// returns every violated rule, not just the first.
func Validate(candidate string) []string {
	var reasons []string

	if len(candidate) < MinLength {
		reasons = append(reasons, ReasonTooShort)
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range candidate {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasLower {
		reasons = append(reasons, ReasonLowercase)
	}
	if !hasUpper {
		reasons = append(reasons, ReasonUppercase)
	}
	if !hasDigit {
		reasons = append(reasons, ReasonDigit)
	}
	if !hasSymbol {
		reasons = append(reasons, ReasonSymbol)
	}

	return reasons
}

// Hash derives a one-way salted hash of the password. Two hashes of the
// same password differ because bcrypt embeds a fresh salt each time.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plain matches the stored hash.
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

package core

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 12

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeTaxID strips formatting, leaving only digits.
func NormalizeTaxID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateTaxID checks an 11-digit individual tax ID (CPF) and its two check digits.
// Formatting characters are ignored.
func ValidateTaxID(s string) error {
	d := NormalizeTaxID(s)
	if len(d) != 11 {
		return fmt.Errorf("%w: tax id must have 11 digits", ErrInvalidInput)
	}
	if strings.Count(d, d[:1]) == 11 {
		return fmt.Errorf("%w: tax id cannot repeat a single digit", ErrInvalidInput)
	}
	if int(d[9]-'0') != taxIDCheckDigit(d[:9]) || int(d[10]-'0') != taxIDCheckDigit(d[:10]) {
		return fmt.Errorf("%w: tax id check digits do not match", ErrInvalidInput)
	}
	return nil
}

func taxIDCheckDigit(partial string) int {
	sum := 0
	weight := len(partial) + 1
	for i := 0; i < len(partial); i++ {
		sum += int(partial[i]-'0') * (weight - i)
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

// ValidateEmail checks the address shape only.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: malformed email %q", ErrInvalidInput, email)
	}
	return nil
}

// ValidatePassword requires at least 8 characters with upper, lower, digit and special.
func ValidatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("%w: password must have at least 8 characters", ErrInvalidInput)
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	switch {
	case !upper:
		return fmt.Errorf("%w: password needs an uppercase letter", ErrInvalidInput)
	case !lower:
		return fmt.Errorf("%w: password needs a lowercase letter", ErrInvalidInput)
	case !digit:
		return fmt.Errorf("%w: password needs a digit", ErrInvalidInput)
	case !special:
		return fmt.Errorf("%w: password needs one of %s", ErrInvalidInput, passwordSpecials)
	}
	return nil
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Validate applies every account rule to in and normalizes its tax id and email.
func (in *NewUser) Validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.FirstName == "" || in.LastName == "" {
		return fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	if err := ValidateTaxID(in.TaxID); err != nil {
		return err
	}
	in.TaxID = NormalizeTaxID(in.TaxID)
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	return ValidatePassword(in.Password)
}

package spotball

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("phone must contain 7 to 15 digits")

// NormalizePhone returns the canonical +<digits> form used as the lookup key
// for participants.
func NormalizePhone(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}

	var b strings.Builder
	b.WriteByte('+')
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
		case r == ' ', r == '-', r == '.', r == '(', r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	if digits < 7 || digits > 15 {
		return "", ErrInvalidPhone
	}
	return b.String(), nil
}

// SameName compares participant names ignoring case and surrounding space.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

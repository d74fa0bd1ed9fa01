package services

import (
	"fmt"
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^(\+7|7|8)?[\s\-]?\(?[489][0-9]{2}\)?[\s\-]?[0-9]{3}[\s\-]?[0-9]{2}[\s\-]?[0-9]{2}$`)

func digitsOnly(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// ValidatePhone accepts Russian mobile numbers with an optional +7, 7 or 8
// prefix and free use of spaces, dashes and parentheses.
func ValidatePhone(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !phonePattern.MatchString(raw) {
		return false
	}
	digits := digitsOnly(raw)
	switch digits[0] {
	case '7', '8':
		return len(digits) == 11
	default:
		return len(digits) == 10
	}
}

// NormalizePhone formats a number as +7 (XXX) XXX-XX-XX. Input that does not
// look like a Russian number is returned unchanged.
func NormalizePhone(raw string) string {
	digits := digitsOnly(raw)
	var significant string
	switch {
	case len(digits) == 11 && (digits[0] == '7' || digits[0] == '8'):
		significant = digits[1:]
	case len(digits) == 10:
		significant = digits
	default:
		return raw
	}
	return fmt.Sprintf("+7 (%s) %s-%s-%s", significant[:3], significant[3:6], significant[6:8], significant[8:])
}

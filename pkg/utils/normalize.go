package utils

import "strings"

// NormalizeEmail lowercases and trims an email string. It normalizes only;
// format validation is left to the upstream provider.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SplitName splits a free-text name into first and last parts. Everything
// after the first whitespace-separated token becomes the last name, joined
// by single spaces.
func SplitName(name string) (string, string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// NormalizePhone coerces a submitted phone string into E.164 under a fixed
// US country-code assumption. An 11-digit number with a leading 1 or a plain
// 10-digit number becomes +1XXXXXXXXXX. Anything else that already starts
// with "+" and carries a plausible digit count passes through unchanged.
// Unparseable input returns "" so a bad phone never fails the request.
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	digits := stripNonDigits(trimmed)
	switch {
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	case len(digits) == 10:
		return "+1" + digits
	}

	if strings.HasPrefix(trimmed, "+") && len(digits) >= 8 && len(digits) <= 15 {
		return trimmed
	}

	return ""
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Package sanitize normalizes free-text input and validates structured
// fields before anything reaches persistence. Mutating helpers return a
// cleaned copy; the Valid* predicates only classify.
package sanitize

import (
	"regexp"
	"strings"
	"time"
)

var (
	// ASCII control characters plus the C1 extended control range.
	controlChars = regexp.MustCompile(`[\x{00}-\x{1f}\x{7f}-\x{9f}]`)
	whitespace   = regexp.MustCompile(`\s+`)

	// Phone: 8-15 characters drawn from digits, separators, and an
	// optional leading +. The count deliberately covers separators too,
	// not digits alone, to keep accepting every number already stored.
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]{8,15}$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// Ampersand is handled together with the rest: the replacer does a
	// single pass, so entities it emits are never re-escaped.
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#x27;",
	)
)

// Sanitize trims the value, strips control characters, collapses
// whitespace runs to a single space, and truncates to maxLen runes.
// The result contains no ASCII control characters and its length never
// exceeds maxLen.
func Sanitize(value string, maxLen int) string {
	s := strings.TrimSpace(value)
	s = controlChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	// Stripping can expose whitespace that was shielded by a control
	// character at either end, so trim again.
	s = strings.TrimSpace(s)

	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}
	return s
}

// EscapeHTML replaces the characters that carry meaning in HTML with
// their entity equivalents, preventing stored XSS when the value is
// later rendered.
func EscapeHTML(value string) string {
	return htmlEscaper.Replace(value)
}

// SanitizeHTML sanitizes and then HTML-escapes the value. Use it for
// any field whose content may later be rendered as HTML.
func SanitizeHTML(value string, maxLen int) string {
	return EscapeHTML(Sanitize(value, maxLen))
}

// ValidPhone reports whether the value looks like a phone number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidDate reports whether the value is a real calendar date in strict
// YYYY-MM-DD form. "2023-02-29" fails even though it matches the shape.
func ValidDate(date string) bool {
	if !datePattern.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// ValidEmail reports whether the value has the standard local@domain shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

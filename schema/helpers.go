package schema

import (
	"strings"
	"unicode"
)

// IsBot reports whether login is empty or carries one of the automation suffixes.
// With no suffixes given, BotSuffix is used.
func IsBot(login string, suffixes ...string) bool {
	if strings.TrimSpace(login) == "" {
		return true
	}
	if len(suffixes) == 0 {
		suffixes = []string{BotSuffix}
	}
	lower := strings.ToLower(login)
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// DisplayName shortens a git author name like "Samuel Huang" to "Samuel H" for tables.
// GitHub logins contain no spaces and are returned unchanged.
func DisplayName(identity string) string {
	trimmed := strings.TrimSpace(identity)
	parts := strings.Fields(strings.Trim(trimmed, "()\"'`"))
	if len(parts) < 2 {
		return trimmed
	}

	var cleaned []string
	for _, p := range parts {
		cp := strings.TrimFunc(p, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\''
		})
		if cp != "" {
			cleaned = append(cleaned, cp)
		}
	}
	if len(cleaned) < 2 {
		return strings.Join(cleaned, "")
	}
	last := []rune(cleaned[len(cleaned)-1])
	return cleaned[0] + " " + string(last[0])
}

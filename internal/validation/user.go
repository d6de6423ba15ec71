// Package validation provides input validation utilities
package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// emailPattern requires word/dot/hyphen characters on both sides of the @
// and at least one dot in the domain.
var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// allowedImageExts is the set of accepted profile picture extensions.
var allowedImageExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// ValidEmail reports whether s looks like local-part@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidName reports whether s is non-empty and consists only of letters.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ValidPassword reports whether s meets the minimum length requirement.
// There is deliberately no charset requirement.
func ValidPassword(s string) bool {
	return len(s) >= 8
}

// ImageExt returns the lowercased extension of filename and whether it is
// an accepted profile picture type.
func ImageExt(filename string) (string, bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", false
	}
	ext := strings.ToLower(filename[idx+1:])
	return ext, allowedImageExts[ext]
}

package validate

import "strings"

// Required reports whether every value has non-whitespace content.
func Required(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

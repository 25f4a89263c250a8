package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// fieldNameRegex matches dotted identifiers such as "gender" or
// "diagnoses.age_at_diagnosis".
var fieldNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidateFieldName validates a filter or aggregation field name.
// Field names end up inside generated GraphQL and SQL text, so anything
// beyond dotted identifiers is rejected.
func ValidateFieldName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidField, "field name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidField, "field name too long (max 256 characters)")
	}

	if !fieldNameRegex.MatchString(name) {
		return New(ErrCodeInvalidField, "invalid field name: %q", name)
	}

	return nil
}

// ValidateNodeID validates a dictionary node id.
// Node ids are written into DOT descriptions unquoted, so they are held to
// the same identifier rules as field names, minus the dots.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDictionary, "node id cannot be empty")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDictionary, "node id contains invalid control characters")
		}
	}

	if strings.Contains(id, ".") || !fieldNameRegex.MatchString(id) {
		return New(ErrCodeInvalidDictionary, "invalid node id: %q", id)
	}

	return nil
}

// ValidatePath validates a relative file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

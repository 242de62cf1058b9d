package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds project, layer and set names.
const maxNameLength = 128

// ValidateName validates a name that becomes a single path component, such as
// a layer directory, a project output directory or a set directory.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "%s name cannot be empty", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "%s name %q contains invalid control characters", kind, name)
		}
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidName, "%s name %q is not a valid directory name", kind, name)
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidName, "%s name %q cannot contain path separators", kind, name)
	}

	return nil
}

// ValidatePath validates a filesystem path taken from a config document.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateTraitName validates a trait name parsed from a file stem.
// The "#" delimiter separates the weight suffix and cannot appear in the name.
func ValidateTraitName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "trait name cannot be empty")
	}
	if strings.Contains(name, "#") {
		return New(ErrCodeInvalidName, "trait name %q cannot contain '#'", name)
	}
	return nil
}

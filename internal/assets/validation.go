package assets

import "fmt"

// maxAssetNameLen bounds style names to something a filename can hold.
const maxAssetNameLen = 64

// ValidateAssetName checks that a style name is safe to use as a filename
// stem. Only ASCII letters, digits, hyphen and underscore are accepted, which
// rules out separators, dots, and traversal sequences.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > maxAssetNameLen {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidAssetName, maxAssetNameLen)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	return nil
}

package assets

// DefaultStyle is the stylesheet injected when none is configured.
const DefaultStyle = "capture"

// StyleLoader loads print stylesheets by name (without .css extension).
type StyleLoader interface {
	// LoadStyle returns ErrStyleNotFound if the style doesn't exist and
	// ErrInvalidAssetName if the name contains invalid characters.
	LoadStyle(name string) (string, error)

	// Styles lists the available style names, sorted.
	Styles() []string
}

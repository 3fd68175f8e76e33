package assets

import (
	"errors"
	"sort"
)

// AssetResolver combines custom and embedded loaders: custom first, then
// embedded when the style is not found in the custom location.
type AssetResolver struct {
	custom   StyleLoader // nil if no custom path configured
	embedded StyleLoader
}

// NewAssetResolver creates an AssetResolver. An empty customBasePath uses
// embedded styles only. Returns an error if customBasePath is set but invalid.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	resolver := &AssetResolver{
		embedded: NewEmbeddedLoader(),
	}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}

	return resolver, nil
}

// LoadStyle loads a CSS style, trying the custom loader first if available.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadStyle(name)
	}

	content, err := r.custom.LoadStyle(name)
	if err == nil {
		return content, nil
	}

	// Validation and I/O errors are not masked by the fallback.
	if !errors.Is(err, ErrStyleNotFound) {
		return "", err
	}

	return r.embedded.LoadStyle(name)
}

// Styles lists the union of custom and embedded style names.
func (r *AssetResolver) Styles() []string {
	seen := make(map[string]bool)
	var names []string
	loaders := []StyleLoader{r.embedded}
	if r.custom != nil {
		loaders = append(loaders, r.custom)
	}
	for _, l := range loaders {
		for _, name := range l.Styles() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// HasCustomLoader returns true if a custom style directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

// Compile-time interface check.
var _ StyleLoader = (*AssetResolver)(nil)

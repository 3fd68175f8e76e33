package brochure

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/alnah/go-brochure/internal/fileutil"
	"github.com/alnah/go-brochure/internal/yamlutil"
)

// ArtifactExt is the extension of every artifact, local and remote.
const ArtifactExt = ".pdf"

// Entry is one identifier of the input list.
type Entry struct {
	Address string // site path with a leading slash, or an absolute URL
	Key     string // filesystem-safe artifact key
}

// Filename returns the artifact file name, which is also the remote object key.
func (e Entry) Filename() string {
	return e.Key + ArtifactExt
}

// ArtifactKey flattens an address into a filesystem-safe key.
// Surrounding whitespace and slashes are trimmed and the remaining slashes
// become hyphens, so "/kyoto/osaka-5day/" and "kyoto/osaka-5day" both map
// to "kyoto-osaka-5day". The function is pure.
func ArtifactKey(address string) string {
	s := strings.Trim(strings.TrimSpace(address), "/")
	return strings.ReplaceAll(s, "/", "-")
}

// NewEntry normalizes address and derives its key. Absolute http(s) URLs keep
// their full form and key off their path. Returns ErrInvalidAddress when no
// key can be derived.
func NewEntry(address string) (Entry, error) {
	address = strings.TrimSpace(address)

	keySource := address
	if fileutil.IsURL(address) {
		u, err := url.Parse(address)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, address, err)
		}
		keySource = u.Path
	} else if address != "" && !strings.HasPrefix(address, "/") {
		address = "/" + address
	}

	key := ArtifactKey(keySource)
	if key == "" {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return Entry{Address: address, Key: key}, nil
}

// ParseEntries extracts entries from a decoded input document.
//
// The document is either a list or a mapping with an "itineraries" list.
// Each item is a bare address string or a mapping with a "slug" (preferred)
// or "url" field. Items without a resolvable address are skipped, as are
// later items whose key repeats an earlier one. Order is preserved.
func ParseEntries(doc any) ([]Entry, error) {
	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["itineraries"]
		if !ok {
			return nil, fmt.Errorf("%w: mapping without an \"itineraries\" list", ErrInputList)
		}
		if list == nil {
			return nil, nil
		}
		items, ok = list.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: \"itineraries\" is %T, want a list", ErrInputList, list)
		}
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: top level is %T, want a list", ErrInputList, doc)
	}

	entries := make([]Entry, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		address, ok := itemAddress(item)
		if !ok {
			continue
		}
		entry, err := NewEntry(address)
		if err != nil || seen[entry.Key] {
			continue
		}
		seen[entry.Key] = true
		entries = append(entries, entry)
	}
	return entries, nil
}

func itemAddress(item any) (string, bool) {
	switch v := item.(type) {
	case string:
		return v, true
	case map[string]any:
		for _, field := range []string{"slug", "url"} {
			if s, ok := v[field].(string); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}
	return "", false
}

// LoadEntries reads a JSON or YAML input list from path.
// Any read or decode failure wraps ErrInputList.
func LoadEntries(path string) ([]Entry, error) {
	doc, err := yamlutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputList, path, err)
	}
	return ParseEntries(doc)
}

// Package yamlutil wraps YAML parsing to isolate the external dependency.
// JSON documents are valid YAML, so the same entry points read both formats.
package yamlutil

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

func checkSize(data []byte) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	return nil
}

func decode(data []byte, v any, opts ...yaml.DecodeOption) error {
	if err := checkSize(data); err != nil {
		return err
	}
	if v == nil {
		return ErrNilDestination
	}
	if err := yaml.UnmarshalWithOptions(data, v, opts...); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// Unmarshal decodes YAML or JSON into v, ignoring unknown fields.
func Unmarshal(data []byte, v any) error {
	return decode(data, v)
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	return decode(data, v, yaml.Strict())
}

// Document decodes untyped data. Sequences become []any and mappings
// become map[string]any.
func Document(data []byte) (any, error) {
	var doc any
	if err := decode(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadFile reads path and decodes its untyped content.
func ReadFile(path string) (any, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- caller-provided path
	if err != nil {
		return nil, err
	}
	return Document(data)
}

func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

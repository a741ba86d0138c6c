// Package scene loads maze scenes from SVG drawings and YAML/JSON scene
// documents.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Shape ids recognized in SVG drawings
const (
	BackgroundID = "bg"
	StartID      = "start"
	EndID        = "end"
)

var (
	// ErrMissingShape is returned when the background, start or end is absent
	ErrMissingShape = errors.New("missing required shape")
	// ErrInvalidAttribute is returned for absent or unparsable geometry
	ErrInvalidAttribute = errors.New("invalid attribute")
	// ErrUnsupportedFormat is returned for unknown file extensions
	ErrUnsupportedFormat = errors.New("unsupported scene format")
)

// Format identifies a scene encoding
type Format string

const (
	FormatSVG  Format = "svg"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Extensions lists the file extensions LoadFile understands, in lookup order
var Extensions = []string{".svg", ".yaml", ".yml", ".json"}

// FormatForPath picks the format from a file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return FormatSVG, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Parse decodes data in the given format. SVG input yields a Document with
// no metadata.
func Parse(data []byte, format Format) (*Document, error) {
	switch format {
	case FormatSVG:
		s, err := ParseSVG(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return NewDocument("", "", s), nil
	case FormatYAML, FormatJSON:
		return ParseDocument(data, format)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// LoadFile reads a scene file, choosing the parser by extension
func LoadFile(path string) (*Document, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
)

// Document is the YAML/JSON form of a scene, with catalog metadata.
//
//	name: corridor
//	description: Two offset walls
//	background: {x: 0, y: 0, width: 20, height: 12}
//	start: {x: 1, y: 1}
//	end: {x: 18, y: 10}
//	obstacles:
//	  - {x: 5, y: 0, width: 1.5, height: 9}
type Document struct {
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Background  *engine.Rect  `json:"background" yaml:"background"`
	Start       *engine.Point `json:"start" yaml:"start"`
	End         *engine.Point `json:"end" yaml:"end"`
	Obstacles   []engine.Rect `json:"obstacles" yaml:"obstacles"`
}

// NewDocument wraps a scene with metadata
func NewDocument(name, description string, s engine.Scene) *Document {
	start, end := s.Start, s.End
	obstacles := make([]engine.Rect, len(s.Obstacles))
	copy(obstacles, s.Obstacles)

	return &Document{
		Name:        name,
		Description: description,
		Background:  &engine.Rect{X: s.Origin.X, Y: s.Origin.Y, Width: s.Size.W, Height: s.Size.H},
		Start:       &start,
		End:         &end,
		Obstacles:   obstacles,
	}
}

// Validate reports the first missing shape
func (d *Document) Validate() error {
	switch {
	case d.Background == nil:
		return fmt.Errorf("%w: background", ErrMissingShape)
	case d.Start == nil:
		return fmt.Errorf("%w: start", ErrMissingShape)
	case d.End == nil:
		return fmt.Errorf("%w: end", ErrMissingShape)
	}
	return nil
}

// Scene converts the document to the engine's scene type. Call Validate
// first; missing shapes come back as zero values.
func (d *Document) Scene() engine.Scene {
	var s engine.Scene
	if d.Background != nil {
		s.Origin = engine.Point{X: d.Background.X, Y: d.Background.Y}
		s.Size = engine.Size{W: d.Background.Width, H: d.Background.Height}
	}
	if d.Start != nil {
		s.Start = *d.Start
	}
	if d.End != nil {
		s.End = *d.End
	}
	s.Obstacles = make([]engine.Rect, len(d.Obstacles))
	copy(s.Obstacles, d.Obstacles)
	return s
}

// ParseDocument decodes a YAML or JSON scene document. Unknown keys are
// rejected so typos in hand-written scenes surface at load time.
func ParseDocument(data []byte, format Format) (*Document, error) {
	var doc Document

	switch format {
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: empty document", ErrMissingShape)
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidAttribute, err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: empty document", ErrMissingShape)
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidAttribute, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode serializes the document as YAML or JSON
func (d *Document) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(d); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

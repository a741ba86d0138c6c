package scene

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
)

// ParseSVG reads <rect> and <circle> elements anywhere in an SVG document.
//
// The rect with id "bg" sets the origin and size. Every other rect, with or
// without an id, is an obstacle in document order. Circles "start" and "end"
// set the endpoints; other circles are ignored. When an id repeats, the last
// one wins.
func ParseSVG(r io.Reader) (engine.Scene, error) {
	var s engine.Scene
	var haveBackground, haveStart, haveEnd bool

	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return engine.Scene{}, fmt.Errorf("failed to decode svg: %w", err)
		}

		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch el.Name.Local {
		case "rect":
			id := attr(el, "id")
			rect, err := parseRect(el)
			if err != nil {
				return engine.Scene{}, fmt.Errorf("rect %q: %w", id, err)
			}
			if id == BackgroundID {
				s.Origin = engine.Point{X: rect.X, Y: rect.Y}
				s.Size = engine.Size{W: rect.Width, H: rect.Height}
				haveBackground = true
			} else {
				s.Obstacles = append(s.Obstacles, rect)
			}
		case "circle":
			id := attr(el, "id")
			if id != StartID && id != EndID {
				continue
			}
			center, err := parseCenter(el)
			if err != nil {
				return engine.Scene{}, fmt.Errorf("circle %q: %w", id, err)
			}
			if id == StartID {
				s.Start = center
				haveStart = true
			} else {
				s.End = center
				haveEnd = true
			}
		}
	}

	switch {
	case !haveBackground:
		return engine.Scene{}, fmt.Errorf("%w: rect id=%q", ErrMissingShape, BackgroundID)
	case !haveStart:
		return engine.Scene{}, fmt.Errorf("%w: circle id=%q", ErrMissingShape, StartID)
	case !haveEnd:
		return engine.Scene{}, fmt.Errorf("%w: circle id=%q", ErrMissingShape, EndID)
	}
	return s, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func number(el xml.StartElement, name string) (float64, error) {
	raw := attr(el, name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is missing", ErrInvalidAttribute, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidAttribute, name, raw)
	}
	return v, nil
}

func parseRect(el xml.StartElement) (engine.Rect, error) {
	var r engine.Rect
	fields := []struct {
		name string
		dst  *float64
	}{
		{"x", &r.X}, {"y", &r.Y}, {"width", &r.Width}, {"height", &r.Height},
	}
	for _, f := range fields {
		v, err := number(el, f.name)
		if err != nil {
			return engine.Rect{}, err
		}
		*f.dst = v
	}
	return r, nil
}

func parseCenter(el xml.StartElement) (engine.Point, error) {
	cx, err := number(el, "cx")
	if err != nil {
		return engine.Point{}, err
	}
	cy, err := number(el, "cy")
	if err != nil {
		return engine.Point{}, err
	}
	return engine.Point{X: cx, Y: cy}, nil
}

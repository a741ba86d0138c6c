// Package render draws a solved maze grid as SVG or PNG.
//
// Both writers paint the same layers in the same order: background, blocked
// cell outlines, path cells, translucent obstacle overlays, then start and
// end markers. Coordinates are grid units relative to the scene origin.
package render

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
)

// Format is an output image encoding
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" or "png" in any case
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unknown render format %q (want svg or png)", name)
	}
}

// ContentType returns the MIME type served for f
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Style holds colors and sizes for both writers
type Style struct {
	// PNG pixels per grid unit. SVG output is unitless and ignores it.
	CellPixels float64

	Background   color.Color
	CellStroke   color.Color
	PathFill     color.Color
	ObstacleFill color.Color
	Marker       color.Color

	CellStrokeWidth   float64
	MarkerStrokeWidth float64
	MarkerRadius      float64
}

// DefaultStyle returns the stock palette: light grey field, half-transparent
// black cell outlines, red path, faint blue obstacles and green markers.
func DefaultStyle() Style {
	return Style{
		CellPixels:        16,
		Background:        colornames.Gainsboro,
		CellStroke:        withAlpha(colornames.Black, 0.5),
		PathFill:          withAlpha(colornames.Red, 0.5),
		ObstacleFill:      withAlpha(colornames.Blue, 0.2),
		Marker:            colornames.Green,
		CellStrokeWidth:   0.1,
		MarkerStrokeWidth: 0.5,
		MarkerRadius:      2,
	}
}

func withAlpha(c color.RGBA, alpha float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(alpha*255 + 0.5)}
}

// cssColor formats c as rgba(r, g, b, a) with straight alpha
func cssColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	alpha := float64(n.A) / 255
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", n.R, n.G, n.B, formatNumber(round2(alpha)))
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

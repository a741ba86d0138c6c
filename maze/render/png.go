package render

import (
	"fmt"
	"io"
	"math"

	"github.com/gogpu/gg"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
)

// MaxImagePixels bounds either side of a PNG
const MaxImagePixels = 8192

// WritePNG rasterizes the same layers as WriteSVG at style.CellPixels
// pixels per grid unit.
func WritePNG(w io.Writer, scene engine.Scene, grid *engine.Grid, path []engine.Cell, style Style) error {
	px := style.CellPixels
	if px <= 0 {
		px = DefaultStyle().CellPixels
	}

	width := int(math.Ceil(scene.Size.W * px))
	height := int(math.Ceil(scene.Size.H * px))
	if width > MaxImagePixels || height > MaxImagePixels {
		return fmt.Errorf("image %dx%d exceeds %d pixels per side; lower the cell scale", width, height, MaxImagePixels)
	}
	width, height = max(width, 1), max(height, 1)

	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.ClearWithColor(gg.FromColor(style.Background))

	dc.SetColor(style.CellStroke)
	dc.SetLineWidth(style.CellStrokeWidth * px)
	for _, c := range grid.BlockedCells() {
		dc.DrawRectangle(float64(c.X)*px, float64(c.Y)*px, px, px)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("failed to draw cell %s: %w", c, err)
		}
	}

	dc.SetColor(style.PathFill)
	for _, c := range path {
		dc.DrawRectangle(float64(c.X)*px, float64(c.Y)*px, px, px)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("failed to draw path cell %s: %w", c, err)
		}
	}

	dc.SetColor(style.ObstacleFill)
	for i, o := range scene.Obstacles {
		r := o.Translate(scene.Origin)
		dc.DrawRectangle(r.X*px, r.Y*px, r.Width*px, r.Height*px)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("failed to draw obstacle %d: %w", i, err)
		}
	}

	dc.SetColor(style.Marker)
	dc.SetLineWidth(style.MarkerStrokeWidth * px)
	for _, p := range []engine.Point{scene.Start.Sub(scene.Origin), scene.End.Sub(scene.Origin)} {
		dc.DrawCircle(p.X*px, p.Y*px, style.MarkerRadius*px)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("failed to draw marker: %w", err)
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// Write dispatches to WriteSVG or WritePNG
func Write(w io.Writer, format Format, solved *engine.SolvedGrid, style Style) error {
	solved.Regrid()
	switch format {
	case FormatSVG:
		return WriteSVG(w, solved.Scene, solved.Grid, solved.Result.Path, style)
	case FormatPNG:
		return WritePNG(w, solved.Scene, solved.Grid, solved.Result.Path, style)
	default:
		return fmt.Errorf("unknown render format %q", format)
	}
}

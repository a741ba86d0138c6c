package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
)

// WriteSVG writes the solved grid as an SVG document whose viewBox is the
// scene size. Blocked cells are emitted in row-major order.
func WriteSVG(w io.Writer, scene engine.Scene, grid *engine.Grid, path []engine.Cell, style Style) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s">`+"\n",
		formatNumber(scene.Size.W), formatNumber(scene.Size.H))

	fmt.Fprintf(bw, `<rect fill="%s" stroke="none" x="0" y="0" width="%s" height="%s"/>`+"\n",
		cssColor(style.Background), formatNumber(scene.Size.W), formatNumber(scene.Size.H))

	for _, c := range grid.BlockedCells() {
		fmt.Fprintf(bw, `<rect fill="none" stroke="%s" stroke-width="%s" x="%d" y="%d" width="1" height="1"/>`+"\n",
			cssColor(style.CellStroke), formatNumber(style.CellStrokeWidth), c.X, c.Y)
	}

	for _, c := range path {
		fmt.Fprintf(bw, `<rect fill="%s" stroke="%s" stroke-width="%s" x="%d" y="%d" width="1" height="1"/>`+"\n",
			cssColor(style.PathFill), cssColor(style.PathFill), formatNumber(style.CellStrokeWidth), c.X, c.Y)
	}

	for _, o := range scene.Obstacles {
		r := o.Translate(scene.Origin)
		fmt.Fprintf(bw, `<rect fill="%s" stroke="none" x="%s" y="%s" width="%s" height="%s"/>`+"\n",
			cssColor(style.ObstacleFill), formatNumber(r.X), formatNumber(r.Y), formatNumber(r.Width), formatNumber(r.Height))
	}

	writeMarker(bw, "start", scene.Start.Sub(scene.Origin), style)
	writeMarker(bw, "end", scene.End.Sub(scene.Origin), style)

	fmt.Fprintln(bw, `</svg>`)
	return bw.Flush()
}

func writeMarker(w io.Writer, id string, p engine.Point, style Style) {
	fmt.Fprintf(w, `<circle id="%s" fill="none" stroke="%s" stroke-width="%s" cx="%s" cy="%s" r="%s"/>`+"\n",
		id, cssColor(style.Marker), formatNumber(style.MarkerStrokeWidth),
		formatNumber(p.X), formatNumber(p.Y), formatNumber(style.MarkerRadius))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

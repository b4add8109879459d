package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/artgrow/internal/scene"
	"github.com/san-kum/artgrow/internal/viz"
)

const background = "#0a0a0a"

// SceneToSVG projects every segment through cam onto a width x height image.
// Stroke colour comes from the segment brush and stroke width from the mean
// sample pressure.
func SceneToSVG(segs []scene.Segment, cam *viz.Camera, width, height int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="none" stroke-linecap="round" stroke-linejoin="round">
`, width, height, width, height, background)

	for _, seg := range segs {
		var pts []string
		for _, smp := range seg.Samples {
			x, y, _, ok := cam.Project(smp.Position, width, height)
			if !ok {
				continue
			}
			pts = append(pts, fmt.Sprintf("%d,%d", x, y))
		}
		if len(pts) == 0 {
			continue
		}
		if len(pts) == 1 {
			pts = append(pts, pts[0])
		}
		fmt.Fprintf(&sb, `<polyline id="segment-%d" stroke="%s" stroke-width="%.2f" points="%s"/>
`, seg.ID, seg.Brush.Color.Hex(), strokeWidth(seg), strings.Join(pts, " "))
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// strokeWidth scales the brush thickness, in tenths of a world unit, to
// pixels.
func strokeWidth(seg scene.Segment) float64 {
	if len(seg.Samples) == 0 {
		return 1
	}
	p := 0.0
	for _, smp := range seg.Samples {
		p += smp.Pressure
	}
	w := seg.Brush.Width(p/float64(len(seg.Samples))) * 10
	return max(0.5, w)
}

func WriteSVG(w io.Writer, segs []scene.Segment, cam *viz.Camera, width, height int) error {
	_, err := io.WriteString(w, SceneToSVG(segs, cam, width, height))
	return err
}

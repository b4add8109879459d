package viz

import (
	"math"

	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/scene"
)

// Camera orbits Target at Distance and projects with a simple perspective
// divide. Scale maps world units into the unit view volume and is normally
// set by Fit.
type Camera struct {
	Target     geom.Vec3
	Distance   float64
	Near       float64
	RotX, RotY float64
	Zoom       float64
	Scale      float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 4, Near: 0.1, RotX: -0.3, Zoom: 1, Scale: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Fit centres the camera on the box [lo, hi] and scales it to unit radius.
func (c *Camera) Fit(lo, hi geom.Vec3) {
	c.Target = lo.Add(hi).Scale(0.5)
	r := hi.Sub(lo).Length() / 2
	if r < 1e-9 {
		r = 1
	}
	c.Scale = 1 / r
}

// view moves p into camera space: centred, scaled, then rotated about Y and X.
func (c *Camera) view(p geom.Vec3) geom.Vec3 {
	p = p.Sub(c.Target).Scale(c.Scale * c.Zoom)
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project maps p onto a w x h raster. ok is false when p is behind the near
// plane; points off-raster are still returned so lines can be clipped by the
// canvas.
func (c *Camera) Project(p geom.Vec3, w, h int) (x, y int, depth float64, ok bool) {
	v := c.view(p)
	if v.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	s := c.Distance / (c.Distance - v.Z)
	half := float64(min(w, h)) / 2 * 0.9
	x = int(math.Round(v.X*s*half)) + w/2
	y = int(math.Round(-v.Y*s*half)) + h/2
	return x, y, v.Z, true
}

// RenderScene draws every segment as a projected polyline.
func RenderScene(c *Canvas, segs []scene.Segment, cam *Camera) {
	if c == nil || cam == nil {
		return
	}
	w, h := c.Dots()
	for _, seg := range segs {
		px, py, prev := 0, 0, false
		for _, smp := range seg.Samples {
			x, y, _, ok := cam.Project(smp.Position, w, h)
			switch {
			case !ok:
				prev = false
				continue
			case prev:
				c.Line(px, py, x, y)
			default:
				c.Set(x, y)
			}
			px, py, prev = x, y, true
		}
	}
}

// RenderMarkers draws a small cross at each point, e.g. growing tips.
func RenderMarkers(c *Canvas, pts []geom.Vec3, cam *Camera) {
	w, h := c.Dots()
	for _, p := range pts {
		x, y, _, ok := cam.Project(p, w, h)
		if !ok {
			continue
		}
		c.Line(x-1, y, x+1, y)
		c.Line(x, y-1, x, y+1)
	}
}

// RenderAxes draws the world axes through the origin, length l.
func RenderAxes(c *Canvas, l float64, cam *Camera) {
	w, h := c.Dots()
	ox, oy, _, ok := cam.Project(geom.Vec3{}, w, h)
	if !ok {
		return
	}
	for _, axis := range []geom.Vec3{geom.V3(l, 0, 0), geom.V3(0, l, 0), geom.V3(0, 0, l)} {
		if x, y, _, ok := cam.Project(axis, w, h); ok {
			c.Line(ox, oy, x, y)
		}
	}
}

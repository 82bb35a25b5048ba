package viz

import (
	"math"
	"sort"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Camera manages 3D projection to a 2D plane.
type Camera struct {
	Distance         float64
	Near             float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 50, Near: 0.1, Zoom: 1.0, RotX: -0.5, RotY: 0.6}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint rotates a point around the camera's axes.
func (c *Camera) RotatePoint(p Vec3) Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project converts world coordinates to screen coordinates on an sw x sh
// plane. It returns x, y, depth and visibility.
func (c *Camera) Project(p Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.RotatePoint(p).Scale(c.Zoom)
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	pScale := float64(min(sw, sh)) / 3.0
	sx := int(rot.X*scale*pScale) + sw/2
	sy := int(-rot.Y*scale*pScale) + sh/2
	return sx, sy, rot.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End Vec3
}

// Wireframe is a set of segments. A point is a zero-length edge.
type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe           { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e Vec3)   { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p Vec3)     { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Append(o *Wireframe) { w.Edges = append(w.Edges, o.Edges...) }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe on the canvas dots, far edges first. Points
// are drawn as particle marks.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	sw, sh := c.Width*2, c.Height*4
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, sw, sh)
		x2, y2, d2, v2 := cam.Project(e.End, sw, sh)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Mark(e.x1, e.y1)
		} else {
			c.Line(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// BoxWireframe outlines the axis-aligned box [lo, hi].
func BoxWireframe(lo, hi Vec3) *Wireframe {
	w := NewWireframe()
	v := []Vec3{
		{lo.X, lo.Y, lo.Z}, {hi.X, lo.Y, lo.Z}, {hi.X, hi.Y, lo.Z}, {lo.X, hi.Y, lo.Z},
		{lo.X, lo.Y, hi.Z}, {hi.X, lo.Y, hi.Z}, {hi.X, hi.Y, hi.Z}, {lo.X, hi.Y, hi.Z},
	}
	ei := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	for _, e := range ei {
		w.AddEdge(v[e[0]], v[e[1]])
	}
	return w
}

// ParticleWireframe places one point per particle, shifted by -center.
func ParticleWireframe(positions []float64, center Vec3) *Wireframe {
	w := &Wireframe{Edges: make([]Edge, 0, len(positions)/3)}
	for i := 0; i+2 < len(positions); i += 3 {
		w.AddPoint(Vec3{positions[i], positions[i+1], positions[i+2]}.Sub(center))
	}
	return w
}

// fitBox centers the box [lo, hi] and returns a camera zoomed to fit it.
func fitBox(lo, hi Vec3) (Vec3, *Camera, *Wireframe) {
	center := Vec3{(lo.X + hi.X) / 2, (lo.Y + hi.Y) / 2, (lo.Z + hi.Z) / 2}
	extent := max(hi.X-lo.X, hi.Y-lo.Y, hi.Z-lo.Z, 1e-9)
	cam := NewCamera()
	cam.Zoom = 1.4 / extent
	return center, cam, BoxWireframe(lo.Sub(center), hi.Sub(center))
}

// Snapshot renders particles inside the box [lo, hi] onto a new w x h canvas
// seen from the default camera.
func Snapshot(positions []float64, lo, hi Vec3, w, h int) *Canvas {
	center, cam, scene := fitBox(lo, hi)
	scene.Append(ParticleWireframe(positions, center))
	c := NewCanvas(w, h)
	Render3D(c, scene, cam)
	return c
}

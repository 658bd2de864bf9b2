// Package geometry models a 2D cross-section of a multi-stage collimator and
// traces geometric rays through it. All lengths are centimetres, all angles
// radians; a ray angle is measured from the vertical axis, 0 pointing straight
// at the detector, positive toward +x.
package geometry

import "math"

type CollimatorType string

const (
	Fan    CollimatorType = "fan"
	Slit   CollimatorType = "slit"
	Pencil CollimatorType = "pencil"
)

// Ray is an immutable value: origin, direction and energy.
type Ray struct {
	X, Y   float64 // [cm]
	Angle  float64 // [rad] from vertical, positive toward +x
	Energy float64 // [keV]
}

// XAt returns the ray's lateral position at height y. The ray travels toward
// decreasing y.
func (r Ray) XAt(y float64) float64 {
	return math.FMA(math.Tan(r.Angle), r.Y-y, r.X)
}

// Stage is one solid collimator body with a cut aperture.
type Stage struct {
	Width    float64 // outer width [cm]
	Height   float64 // outer height [cm], > 0
	YTop     float64 // top edge position [cm]
	XOffset  float64 // lateral center offset [cm]
	Material string
	Aperture Aperture
}

// StageLayout is the derived, read-only projection of a stage used by the
// tracer. Recomputed by Geometry.Layout whenever geometry changes.
type StageLayout struct {
	YTop      float64
	YBottom   float64
	HalfWidth float64
	XCenter   float64
	Stage     *Stage
}

type Geometry struct {
	Type          CollimatorType
	Stages        []Stage
	SourceY       float64 // [cm], above all stages
	DetectorY     float64 // [cm], below all stages
	DetectorWidth float64 // active width [cm]
	FocalSpot     float64 // source spot width [cm], 0 = point source
	ConeAngle     float64 // full beam cone [rad], 0 = derive from extent
}

// Layout projects every stage into layout rectangles, in stage order.
func (g *Geometry) Layout() []StageLayout {
	layouts := make([]StageLayout, len(g.Stages))
	for i := range g.Stages {
		s := &g.Stages[i]
		layouts[i] = StageLayout{
			YTop:      s.YTop,
			YBottom:   s.YTop - s.Height,
			HalfWidth: s.Width / 2.,
			XCenter:   s.XOffset,
			Stage:     s,
		}
	}
	return layouts
}

// SourceDistance is the distance from the source plane to height y.
func (g *Geometry) SourceDistance(y float64) float64 {
	return g.SourceY - y
}

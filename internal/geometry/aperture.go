package geometry

import "math"

type ApertureShape int

const (
	ApertureSlit ApertureShape = iota
	AperturePencil
	ApertureFan
)

// Aperture is a tagged variant: exactly one parameter set applies per shape.
type Aperture struct {
	Shape    ApertureShape
	Width    float64 // slit opening [cm]
	Diameter float64 // pencil bore [cm]
	FanAngle float64 // full fan opening [rad]
}

// HalfWidthAt evaluates the aperture half-width at local depth yLocal in
// [0, stageHeight] measured down from the stage top. sourceDist is the
// distance from the source to the stage top; the fan shape diverges with it.
// The result is clamped to [0, outerHalf].
func (a Aperture) HalfWidthAt(yLocal, stageHeight, sourceDist, outerHalf float64) float64 {
	var w float64
	switch a.Shape {
	case ApertureSlit:
		w = a.Width / 2.
	case AperturePencil:
		w = a.Diameter / 2.
	case ApertureFan:
		w = math.Tan(a.FanAngle/2.) * (sourceDist + yLocal)
	}
	if w < 0 {
		return 0
	}
	return math.Min(w, outerHalf)
}

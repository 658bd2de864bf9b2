package geometry

import "math"

// traceSteps is the fixed number of depth samples per stage when a ray
// straddles the aperture boundary.
const traceSteps = 100

type LayerIntersection struct {
	Material   string
	PathLength float64 // [cm], >= 0
}

// StageIntersection is the result of tracing one ray through one stage.
// A blocked stage with zero accumulated path keeps an empty Layers list;
// PassesAperture stays false, preserving the passes/blocked distinction.
type StageIntersection struct {
	PassesAperture bool
	Layers         []LayerIntersection
}

// TraceRay traces a ray through every stage at or below its origin, one
// intersection per stage in order. A stage straddling the origin is traced
// over its sub-rectangle below the origin, so a scattered ray still sees the
// material beneath its interaction point. A position exactly on the aperture
// boundary counts as material (strict inequality against the half-width);
// the same tie-break applies in the full-pass endpoint test below.
func TraceRay(ray Ray, g *Geometry) []StageIntersection {
	layouts := g.Layout()
	result := make([]StageIntersection, 0, len(layouts))
	for i := range layouts {
		l := &layouts[i]
		if l.YBottom >= ray.Y {
			// stage entirely above the ray origin
			result = append(result, StageIntersection{PassesAperture: true})
			continue
		}
		result = append(result, traceStage(ray, l, g))
	}
	return result
}

func traceStage(ray Ray, l *StageLayout, g *Geometry) StageIntersection {
	// clip to the part of the stage below the ray origin
	yTop := math.Min(l.YTop, ray.Y)
	topLocal := l.YTop - yTop

	xTop := ray.XAt(yTop) - l.XCenter
	xBottom := ray.XAt(l.YBottom) - l.XCenter
	if math.Abs(xTop) > l.HalfWidth && math.Abs(xBottom) > l.HalfWidth {
		// misses the body entirely
		return StageIntersection{PassesAperture: true}
	}

	stage := l.Stage
	sourceDist := g.SourceDistance(l.YTop)
	apTop := stage.Aperture.HalfWidthAt(topLocal, stage.Height, sourceDist, l.HalfWidth)
	apBottom := stage.Aperture.HalfWidthAt(stage.Height, stage.Height, sourceDist, l.HalfWidth)
	if math.Abs(xTop) < apTop && math.Abs(xBottom) < apBottom {
		// inside the aperture at both endpoints: exact for a linear ray
		// against the linearly-varying boundaries of all three shapes
		return StageIntersection{PassesAperture: true}
	}

	yStep := (yTop - l.YBottom) / traceSteps
	stepPath := yStep / math.Cos(ray.Angle)
	var path float64
	for i := 0; i < traceSteps; i++ {
		yLocal := topLocal + (float64(i)+0.5)*yStep
		x := ray.XAt(l.YTop-yLocal) - l.XCenter
		if math.Abs(x) > l.HalfWidth {
			continue // outside the body at this depth
		}
		ap := stage.Aperture.HalfWidthAt(yLocal, stage.Height, sourceDist, l.HalfWidth)
		if math.Abs(x) < ap {
			continue // inside the aperture
		}
		path += stepPath
	}

	sect := StageIntersection{}
	if path > 0 {
		sect.Layers = []LayerIntersection{{Material: stage.Material, PathLength: path}}
	}
	return sect
}

// PassesThroughAperture reports whether every stage intersection passes.
func PassesThroughAperture(ray Ray, g *Geometry) bool {
	for _, sect := range TraceRay(ray, g) {
		if !sect.PassesAperture {
			return false
		}
	}
	return true
}

// DetectorPosition is the ray's lateral position at the detector plane.
func DetectorPosition(ray Ray, g *Geometry) float64 {
	return ray.XAt(g.DetectorY)
}

// RayAngles returns count evenly spaced angles spanning the configured full
// beam cone, or, if unset, the cone needed to cover the widest stage and the
// detector from the source.
func RayAngles(count int, g *Geometry) []float64 {
	if count <= 0 {
		return nil
	}
	full := g.ConeAngle
	if full <= 0 {
		extent := g.DetectorWidth / 2.
		for i := range g.Stages {
			e := g.Stages[i].Width/2. + math.Abs(g.Stages[i].XOffset)
			extent = math.Max(extent, e)
		}
		dist := g.SourceY - g.DetectorY
		if dist <= 0 {
			return make([]float64, count) // coincident planes: straight-down fan
		}
		full = 2. * math.Atan(extent/dist)
	}
	if count == 1 {
		return []float64{0}
	}
	angles := make([]float64, count)
	step := full / float64(count-1)
	for i := range angles {
		angles[i] = math.FMA(float64(i), step, -full/2.)
	}
	return angles
}

// RayFan builds the primary fan: one ray per angle, origins spread evenly
// across the focal spot (a point source when FocalSpot is zero).
func RayFan(count int, energy float64, g *Geometry) []Ray {
	angles := RayAngles(count, g)
	rays := make([]Ray, len(angles))
	for i, angle := range angles {
		x := 0.
		if g.FocalSpot > 0 && count > 1 {
			x = math.FMA(g.FocalSpot/float64(count-1), float64(i), -g.FocalSpot/2.)
		}
		rays[i] = Ray{X: x, Y: g.SourceY, Angle: angle, Energy: energy}
	}
	return rays
}

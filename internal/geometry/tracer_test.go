package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slitGeometry(apertureWidth float64) *Geometry {
	return &Geometry{
		Type:          Slit,
		SourceY:       60,
		DetectorY:     0,
		DetectorWidth: 40,
		Stages: []Stage{
			{
				Width: 20, Height: 10, YTop: 35, Material: "lead",
				Aperture: Aperture{Shape: ApertureSlit, Width: apertureWidth},
			},
		},
	}
}

func TestWideOpenAperturePasses(t *testing.T) {
	g := slitGeometry(20) // aperture as wide as the stage
	ray := Ray{Y: 60, Angle: 0.05, Energy: 1000}
	sections := TraceRay(ray, g)
	require.Len(t, sections, 1)
	assert.True(t, sections[0].PassesAperture)
	assert.Empty(t, sections[0].Layers)
	assert.True(t, PassesThroughAperture(ray, g))
}

func TestClosedApertureAccumulatesFullPath(t *testing.T) {
	g := slitGeometry(0)
	ray := Ray{Y: 60, Angle: 0, Energy: 1000}
	sections := TraceRay(ray, g)
	require.Len(t, sections, 1)
	assert.False(t, sections[0].PassesAperture)
	require.Len(t, sections[0].Layers, 1)
	// every depth sample lands in material: the path is the stage height
	assert.InDelta(t, 10., sections[0].Layers[0].PathLength, 1e-9)
	assert.Equal(t, "lead", sections[0].Layers[0].Material)
}

func TestObliquePathLength(t *testing.T) {
	g := slitGeometry(0)
	angle := 0.2
	ray := Ray{Y: 60, Angle: angle, Energy: 1000}
	sections := TraceRay(ray, g)
	require.Len(t, sections[0].Layers, 1)
	assert.InDelta(t, 10./math.Cos(angle), sections[0].Layers[0].PathLength, 0.15)
}

func TestRayMissesBodyEntirely(t *testing.T) {
	g := slitGeometry(2)
	ray := Ray{X: 30, Y: 60, Angle: 0, Energy: 1000}
	sections := TraceRay(ray, g)
	assert.True(t, sections[0].PassesAperture)
	assert.Empty(t, sections[0].Layers)
}

func TestBoundaryCountsAsMaterial(t *testing.T) {
	g := slitGeometry(2)
	// exactly on the aperture boundary: strict inequality makes it material
	ray := Ray{X: 1, Y: 60, Angle: 0, Energy: 1000}
	sections := TraceRay(ray, g)
	assert.False(t, sections[0].PassesAperture)
	require.Len(t, sections[0].Layers, 1)
	assert.Greater(t, sections[0].Layers[0].PathLength, 0.)
}

func TestFanApertureDiverges(t *testing.T) {
	a := Aperture{Shape: ApertureFan, FanAngle: 0.1}
	top := a.HalfWidthAt(0, 10, 25, 100)
	bottom := a.HalfWidthAt(10, 10, 25, 100)
	assert.Greater(t, bottom, top)
	assert.InDelta(t, math.Tan(0.05)*25., top, 1e-12)
}

func TestApertureClampedToBody(t *testing.T) {
	a := Aperture{Shape: ApertureSlit, Width: 50}
	assert.Equal(t, 10., a.HalfWidthAt(0, 10, 25, 10))
	neg := Aperture{Shape: ApertureSlit, Width: -4}
	assert.Equal(t, 0., neg.HalfWidthAt(0, 10, 25, 10))
}

func TestRayAnglesEvenlySpaced(t *testing.T) {
	g := slitGeometry(2)
	g.ConeAngle = 0.6
	angles := RayAngles(7, g)
	require.Len(t, angles, 7)
	assert.InDelta(t, -0.3, angles[0], 1e-12)
	assert.InDelta(t, 0.3, angles[6], 1e-12)
	step := angles[1] - angles[0]
	for i := 1; i < len(angles); i++ {
		assert.InDelta(t, step, angles[i]-angles[i-1], 1e-12)
	}
}

func TestRayAnglesAutoCone(t *testing.T) {
	g := slitGeometry(2)
	angles := RayAngles(101, g)
	// extent must cover the detector half-width (20) over 60 of drop
	expected := math.Atan(20. / 60.)
	assert.InDelta(t, -expected, angles[0], 1e-9)
	assert.InDelta(t, expected, angles[100], 1e-9)
	assert.Equal(t, []float64{0}, RayAngles(1, g))
	assert.Nil(t, RayAngles(0, g))
}

func TestDetectorPosition(t *testing.T) {
	g := slitGeometry(2)
	assert.InDelta(t, 0., DetectorPosition(Ray{Y: 60}, g), 1e-12)
	ray := Ray{Y: 60, Angle: 0.1}
	assert.InDelta(t, math.Tan(0.1)*60., DetectorPosition(ray, g), 1e-12)
}

func TestRayFanFocalSpot(t *testing.T) {
	g := slitGeometry(2)
	g.FocalSpot = 0.2
	rays := RayFan(5, 1000, g)
	require.Len(t, rays, 5)
	assert.InDelta(t, -0.1, rays[0].X, 1e-12)
	assert.InDelta(t, 0.1, rays[4].X, 1e-12)
	for _, r := range rays {
		assert.Equal(t, 60., r.Y)
		assert.Equal(t, 1000., r.Energy)
	}

	g.FocalSpot = 0
	for _, r := range RayFan(5, 1000, g) {
		assert.Equal(t, 0., r.X)
	}
}

func TestScatteredRaySkipsStagesAboveOrigin(t *testing.T) {
	g := slitGeometry(0)
	g.Stages = append(g.Stages, Stage{
		Width: 20, Height: 5, YTop: 15, Material: "iron",
		Aperture: Aperture{Shape: ApertureSlit, Width: 0},
	})
	// origin between the two stages: only the lower one can block
	ray := Ray{X: 0, Y: 20, Angle: 0, Energy: 500}
	sections := TraceRay(ray, g)
	require.Len(t, sections, 2)
	assert.True(t, sections[0].PassesAperture)
	assert.False(t, sections[1].PassesAperture)
}

func TestOriginInsideStageSeesMaterialBelow(t *testing.T) {
	g := slitGeometry(0)
	// origin halfway into the stage: the remaining 5 cm still attenuate
	ray := Ray{X: 0, Y: 30, Angle: 0, Energy: 500}
	sections := TraceRay(ray, g)
	require.Len(t, sections, 1)
	assert.False(t, sections[0].PassesAperture)
	require.Len(t, sections[0].Layers, 1)
	assert.InDelta(t, 5., sections[0].Layers[0].PathLength, 1e-9)

	// origin exactly at the stage bottom sees nothing
	atBottom := TraceRay(Ray{X: 0, Y: 25, Angle: 0, Energy: 500}, g)
	assert.True(t, atBottom[0].PassesAperture)
}

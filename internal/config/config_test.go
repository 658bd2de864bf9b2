package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildstyl3r/collim/internal/buildup"
	"github.com/wildstyl3r/collim/internal/geometry"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "design.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const minimalSlit = `
[Collimator]
Type = "slit"
SourceY = 600
DetectorWidth = 400

[[Collimator.Stages]]
Width = 200
Height = 100
YTop = 350
Material = "lead"
ApertureWidth = 4
`

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalSlit))
	require.NoError(t, err)

	assert.Equal(t, "mm", c.Units)
	assert.Equal(t, 500, c.Simulation.RayCount)
	assert.Equal(t, 1000., c.Simulation.EnergyKeV)
	assert.Equal(t, buildup.MethodLastMaterial, c.Simulation.BuildupMethod)
	assert.Equal(t, 1, c.Scatter.MaxOrder)
	assert.Equal(t, 20., c.Scatter.MinEnergyKeV)
	assert.Equal(t, 64, c.Scatter.Bins)
	assert.Equal(t, int64(1), c.Scatter.Seed)
	assert.Nil(t, c.Thresholds)
}

func TestLoadConvertsMillimetres(t *testing.T) {
	c, err := Load(writeConfig(t, minimalSlit))
	require.NoError(t, err)

	assert.Equal(t, 60., c.Collimator.SourceY)
	assert.Equal(t, 40., c.Collimator.DetectorWidth)
	s := c.Collimator.Stages[0]
	assert.Equal(t, 20., s.Width)
	assert.Equal(t, 10., s.Height)
	assert.Equal(t, 35., s.YTop)
	assert.Equal(t, 0.4, s.ApertureWidth)
	// default 1 mm scatter step becomes 0.1 cm
	assert.InDelta(t, 0.1, c.Scatter.StepSize, 1e-12)
}

func TestLoadCentimetresPassThrough(t *testing.T) {
	c, err := Load(writeConfig(t, `
Units = "cm"

[Collimator]
Type = "pencil"
SourceY = 60

[[Collimator.Stages]]
Width = 20
Height = 10
YTop = 35
Material = "tungsten"
ApertureDiameter = 0.2
`))
	require.NoError(t, err)
	assert.Equal(t, 60., c.Collimator.SourceY)
	assert.Equal(t, 0.2, c.Collimator.Stages[0].ApertureDiameter)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown unit": `
Units = "furlong"
[Collimator]
Type = "slit"
[[Collimator.Stages]]
Width = 200
Height = 100
Material = "lead"
`,
		"unknown collimator type": `
[Collimator]
Type = "cone"
[[Collimator.Stages]]
Width = 200
Height = 100
Material = "lead"
`,
		"unknown buildup method": `
[Simulation]
BuildupMethod = "average"
[Collimator]
Type = "slit"
[[Collimator.Stages]]
Width = 200
Height = 100
Material = "lead"
`,
		"no stages": `
[Collimator]
Type = "slit"
`,
		"zero stage height": `
[Collimator]
Type = "slit"
[[Collimator.Stages]]
Width = 200
Height = 0
Material = "lead"
`,
		"negative stage width": `
[Collimator]
Type = "slit"
[[Collimator.Stages]]
Width = -5
Height = 100
Material = "lead"
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestGeometryMaterialization(t *testing.T) {
	c, err := Load(writeConfig(t, `
[Collimator]
Type = "fan"
SourceY = 600
DetectorWidth = 400
ConeAngleDeg = 30

[[Collimator.Stages]]
Width = 200
Height = 100
YTop = 350
Material = "tungsten"
FanAngleDeg = 10

[[Collimator.Stages]]
Width = 200
Height = 50
YTop = 200
XOffset = 10
Material = "lead"
FanAngleDeg = 10
`))
	require.NoError(t, err)

	g := c.Geometry()
	assert.Equal(t, geometry.Fan, g.Type)
	assert.InDelta(t, 30*math.Pi/180, g.ConeAngle, 1e-12)
	require.Len(t, g.Stages, 2)
	assert.Equal(t, geometry.ApertureFan, g.Stages[0].Aperture.Shape)
	assert.InDelta(t, 10*math.Pi/180, g.Stages[0].Aperture.FanAngle, 1e-12)
	assert.Equal(t, "tungsten", g.Stages[0].Material)
	assert.Equal(t, 1., g.Stages[1].XOffset)
}

func TestThresholdOverrides(t *testing.T) {
	c, err := Load(writeConfig(t, minimalSlit+`
[Thresholds]
PenumbraExcellent = 1
PenumbraAcceptable = 3
FlatnessExcellent = 2
FlatnessAcceptable = 4
LeakageExcellent = 0.2
LeakageAcceptable = 2
RatioExcellent = 800
RatioAcceptable = 80
`))
	require.NoError(t, err)

	th := c.BeamThresholds()
	require.NotNil(t, th)
	// penumbra limits are lengths and follow the unit conversion
	assert.InDelta(t, 0.1, th.PenumbraExcellent, 1e-12)
	assert.InDelta(t, 0.3, th.PenumbraAcceptable, 1e-12)
	assert.Equal(t, 2., th.FlatnessExcellent)
	assert.Equal(t, 800., th.RatioExcellent)
}

func TestMultipleScatterOrderRejected(t *testing.T) {
	_, err := Load(writeConfig(t, minimalSlit+`
[Scatter]
MaxOrder = 2
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scatter order")

	c, err := Load(writeConfig(t, minimalSlit+`
[Scatter]
MaxOrder = 1
`))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Scatter.MaxOrder)
}

func TestScatterTracerConfig(t *testing.T) {
	c, err := Load(writeConfig(t, minimalSlit+`
[Scatter]
Enabled = true
StepSize = 2
MinEnergyKeV = 30
Bins = 128
Seed = 7
`))
	require.NoError(t, err)
	assert.True(t, c.Scatter.Enabled)
	assert.Equal(t, int64(7), c.Scatter.Seed)

	sc := c.ScatterTracerConfig()
	assert.InDelta(t, 0.2, sc.StepSize, 1e-12)
	assert.Equal(t, 30., sc.MinEnergyKeV)
	assert.Equal(t, 128, sc.Bins)
}

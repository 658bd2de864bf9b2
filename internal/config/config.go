// Package config loads collimator and simulation parameters from TOML.
// Input lengths may be given in mm, cm or m and are converted to the
// internal canonical centimetres at load; angles are given in degrees and
// converted to radians. The core never sees display units.
package config

import (
	"fmt"
	"math"

	"github.com/BurntSushi/toml"
	"github.com/wildstyl3r/collim/internal/beam"
	"github.com/wildstyl3r/collim/internal/buildup"
	"github.com/wildstyl3r/collim/internal/geometry"
	"github.com/wildstyl3r/collim/internal/scatter"
)

var unitToCm = map[string]float64{
	"mm": 0.1,
	"cm": 1,
	"m":  100,
}

type StageConfig struct {
	Width    float64
	Height   float64
	YTop     float64
	XOffset  float64
	Material string

	ApertureWidth    float64 // slit opening
	ApertureDiameter float64 // pencil bore
	FanAngleDeg      float64 // full fan opening
}

type CollimatorConfig struct {
	Type          string
	SourceY       float64
	DetectorY     float64
	DetectorWidth float64
	FocalSpot     float64
	ConeAngleDeg  float64
	Stages        []StageConfig
}

type SimulationConfig struct {
	EnergyKeV     float64
	Energies      []float64
	RayCount      int
	ApplyBuildup  bool
	BuildupMethod string
}

type ScatterConfig struct {
	Enabled      bool
	MaxOrder     int // only single scatter is modeled
	StepSize     float64
	MinEnergyKeV float64
	Bins         int
	Seed         int64
}

type ThresholdsConfig struct {
	PenumbraExcellent  float64
	PenumbraAcceptable float64
	FlatnessExcellent  float64
	FlatnessAcceptable float64
	LeakageExcellent   float64
	LeakageAcceptable  float64
	RatioExcellent     float64
	RatioAcceptable    float64
}

type Config struct {
	OutputDir  string
	Units      string
	Collimator CollimatorConfig
	Simulation SimulationConfig
	Scatter    ScatterConfig
	Thresholds *ThresholdsConfig
}

// Load decodes, defaults and validates a config file. Unknown collimator
// types, unknown build-up methods and degenerate stage dimensions are
// configuration errors, never silently defaulted.
func Load(path string) (*Config, error) {
	var c Config
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if !meta.IsDefined("Units") {
		c.Units = "mm"
	}
	scale, some := unitToCm[c.Units]
	if !some {
		return nil, fmt.Errorf("config: unknown length unit %q", c.Units)
	}

	if !meta.IsDefined("Simulation", "RayCount") {
		c.Simulation.RayCount = 500
	}
	if !meta.IsDefined("Simulation", "EnergyKeV") && len(c.Simulation.Energies) == 0 {
		c.Simulation.EnergyKeV = 1000
	}
	if !meta.IsDefined("Simulation", "BuildupMethod") {
		c.Simulation.BuildupMethod = buildup.MethodLastMaterial
	}
	switch c.Simulation.BuildupMethod {
	case buildup.MethodLastMaterial, buildup.MethodKalos:
	default:
		return nil, fmt.Errorf("config: %w: %q", buildup.ErrUnknownMethod, c.Simulation.BuildupMethod)
	}

	if !meta.IsDefined("Scatter", "MaxOrder") {
		c.Scatter.MaxOrder = 1
	}
	if c.Scatter.MaxOrder != 1 {
		return nil, fmt.Errorf("config: unsupported scatter order %d: only single scatter is modeled", c.Scatter.MaxOrder)
	}
	if !meta.IsDefined("Scatter", "StepSize") {
		c.Scatter.StepSize = 1 // in input units
	}
	if !meta.IsDefined("Scatter", "MinEnergyKeV") {
		c.Scatter.MinEnergyKeV = 20
	}
	if !meta.IsDefined("Scatter", "Bins") {
		c.Scatter.Bins = 64
	}
	if !meta.IsDefined("Scatter", "Seed") {
		c.Scatter.Seed = 1
	}

	switch geometry.CollimatorType(c.Collimator.Type) {
	case geometry.Fan, geometry.Slit, geometry.Pencil:
	default:
		return nil, fmt.Errorf("config: unknown collimator type %q", c.Collimator.Type)
	}
	if len(c.Collimator.Stages) == 0 {
		return nil, fmt.Errorf("config: no stages defined")
	}
	for i := range c.Collimator.Stages {
		if c.Collimator.Stages[i].Height <= 0 {
			return nil, fmt.Errorf("config: stage %d: height must be > 0", i)
		}
		if c.Collimator.Stages[i].Width <= 0 {
			return nil, fmt.Errorf("config: stage %d: width must be > 0", i)
		}
	}

	c.toInternalUnits(scale)
	return &c, nil
}

func (c *Config) toInternalUnits(scale float64) {
	col := &c.Collimator
	col.SourceY *= scale
	col.DetectorY *= scale
	col.DetectorWidth *= scale
	col.FocalSpot *= scale
	for i := range col.Stages {
		s := &col.Stages[i]
		s.Width *= scale
		s.Height *= scale
		s.YTop *= scale
		s.XOffset *= scale
		s.ApertureWidth *= scale
		s.ApertureDiameter *= scale
	}
	c.Scatter.StepSize *= scale
	if c.Thresholds != nil {
		c.Thresholds.PenumbraExcellent *= scale
		c.Thresholds.PenumbraAcceptable *= scale
	}
}

// Geometry materializes the validated config into the core geometry model.
func (c *Config) Geometry() *geometry.Geometry {
	ctype := geometry.CollimatorType(c.Collimator.Type)
	g := &geometry.Geometry{
		Type:          ctype,
		SourceY:       c.Collimator.SourceY,
		DetectorY:     c.Collimator.DetectorY,
		DetectorWidth: c.Collimator.DetectorWidth,
		FocalSpot:     c.Collimator.FocalSpot,
		ConeAngle:     c.Collimator.ConeAngleDeg * math.Pi / 180.,
	}
	for _, sc := range c.Collimator.Stages {
		stage := geometry.Stage{
			Width:    sc.Width,
			Height:   sc.Height,
			YTop:     sc.YTop,
			XOffset:  sc.XOffset,
			Material: sc.Material,
		}
		switch ctype {
		case geometry.Pencil:
			stage.Aperture = geometry.Aperture{Shape: geometry.AperturePencil, Diameter: sc.ApertureDiameter}
		case geometry.Fan:
			stage.Aperture = geometry.Aperture{Shape: geometry.ApertureFan, FanAngle: sc.FanAngleDeg * math.Pi / 180.}
		default:
			stage.Aperture = geometry.Aperture{Shape: geometry.ApertureSlit, Width: sc.ApertureWidth}
		}
		g.Stages = append(g.Stages, stage)
	}
	return g
}

// BeamThresholds returns the caller-supplied overrides, or nil to use the
// built-in thresholds for the collimator type.
func (c *Config) BeamThresholds() *beam.Thresholds {
	if c.Thresholds == nil {
		return nil
	}
	t := c.Thresholds
	return &beam.Thresholds{
		PenumbraExcellent:  t.PenumbraExcellent,
		PenumbraAcceptable: t.PenumbraAcceptable,
		FlatnessExcellent:  t.FlatnessExcellent,
		FlatnessAcceptable: t.FlatnessAcceptable,
		LeakageExcellent:   t.LeakageExcellent,
		LeakageAcceptable:  t.LeakageAcceptable,
		RatioExcellent:     t.RatioExcellent,
		RatioAcceptable:    t.RatioAcceptable,
	}
}

// ScatterTracerConfig maps the scatter section onto the tracer's own config.
func (c *Config) ScatterTracerConfig() scatter.Config {
	return scatter.Config{
		StepSize:     c.Scatter.StepSize,
		MinEnergyKeV: c.Scatter.MinEnergyKeV,
		Bins:         c.Scatter.Bins,
	}
}

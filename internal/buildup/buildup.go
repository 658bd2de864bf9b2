// Package buildup corrects Beer-Lambert transmission for photon build-up:
// scattered photons that still reach the detector. Factors come from
// Geometric-Progression and Taylor fits with coefficients tabulated per
// material on a keV grid, interpolated between grid points and clamped at the
// edges. The coefficient tables are loaded once at construction and never
// mutated, so a Service is safe for concurrent reads.
package buildup

import (
	_ "embed"
	"errors"
	"fmt"
	"math"

	"github.com/BurntSushi/toml"
	"github.com/wildstyl3r/collim/internal/utils"
)

//go:embed coefficients.toml
var coefficientTables string

var ErrNoData = errors.New("buildup data unavailable")
var ErrUnknownMethod = errors.New("unknown buildup method")

const (
	// MethodLastMaterial applies the last traversed material's build-up at
	// the total accumulated depth. A conservative modeling choice, not a
	// law of physics; kept swappable.
	MethodLastMaterial = "last_material"
	// MethodKalos multiplies each layer's own build-up at its own depth.
	MethodKalos = "kalos"
)

// fallbacks maps alloys without dedicated coefficients to a parent element.
// Fixed substitution table; an unmapped material is a data error, never a
// guess.
var fallbacks = map[string]string{
	"steel":           "iron",
	"stainless_steel": "iron",
	"brass":           "copper",
	"bronze":          "copper",
	"duralumin":       "aluminum",
	"tungsten_alloy":  "tungsten",
	"lead_antimony":   "lead",
}

type gpTable struct {
	Energies []float64 `toml:"energies"` // [keV]
	B        []float64 `toml:"b"`
	C        []float64 `toml:"c"`
	A        []float64 `toml:"a"`
	Xk       []float64 `toml:"xk"`
	D        []float64 `toml:"d"`
}

type taylorTable struct {
	Energies []float64 `toml:"energies"` // [keV]
	A1       []float64 `toml:"a1"`
	Alpha1   []float64 `toml:"alpha1"`
	Alpha2   []float64 `toml:"alpha2"`
}

type Layer struct {
	Material string
	DepthMFP float64 // optical depth [mean free paths]
}

type Service struct {
	gp     map[string]gpTable
	taylor map[string]taylorTable
}

func NewService() (*Service, error) {
	var tables struct {
		GP     map[string]gpTable     `toml:"gp"`
		Taylor map[string]taylorTable `toml:"taylor"`
	}
	if _, err := toml.Decode(coefficientTables, &tables); err != nil {
		return nil, fmt.Errorf("buildup coefficients: %w", err)
	}
	for name, t := range tables.GP {
		n := len(t.Energies)
		if n == 0 || len(t.B) != n || len(t.C) != n || len(t.A) != n || len(t.Xk) != n || len(t.D) != n {
			return nil, fmt.Errorf("buildup coefficients: malformed GP table for %q", name)
		}
	}
	for name, t := range tables.Taylor {
		n := len(t.Energies)
		if n == 0 || len(t.A1) != n || len(t.Alpha1) != n || len(t.Alpha2) != n {
			return nil, fmt.Errorf("buildup coefficients: malformed Taylor table for %q", name)
		}
	}
	return &Service{gp: tables.GP, taylor: tables.Taylor}, nil
}

func resolve(material string) string {
	if parent, some := fallbacks[material]; some {
		return parent
	}
	return material
}

func (s *Service) HasGPData(material string) bool {
	_, some := s.gp[resolve(material)]
	return some
}

func (s *Service) HasTaylorData(material string) bool {
	_, some := s.taylor[resolve(material)]
	return some
}

// interpParam interpolates a fit parameter across the energy grid: log-log
// when every tabulated value is positive, linear otherwise (Taylor alphas may
// be negative).
func interpParam(energies, vals []float64, e float64) float64 {
	for i := range vals {
		if vals[i] <= 0 {
			return utils.LinInterp(energies, vals, e)
		}
	}
	return utils.LogLogInterp(energies, vals, e)
}

// GP evaluates the Geometric-Progression build-up factor at depthMFP mean
// free paths. B(0) = 1 exactly; the result is floored at 1.
func (s *Service) GP(energyKeV, depthMFP float64, material string) (float64, error) {
	t, some := s.gp[resolve(material)]
	if !some {
		return 0, fmt.Errorf("%w: no GP coefficients for %q", ErrNoData, material)
	}
	if depthMFP <= 0 || energyKeV <= 0 {
		return 1, nil
	}
	b := interpParam(t.Energies, t.B, energyKeV)
	c := interpParam(t.Energies, t.C, energyKeV)
	a := interpParam(t.Energies, t.A, energyKeV)
	xk := interpParam(t.Energies, t.Xk, energyKeV)
	d := interpParam(t.Energies, t.D, energyKeV)

	x := depthMFP
	tanhm2 := math.Tanh(-2.)
	k := c*math.Pow(x, a) + d*(math.Tanh(x/xk-2.)-tanhm2)/(1.-tanhm2)

	var factor float64
	if math.Abs(k-1.) < 1e-6 {
		factor = 1. + (b-1.)*x
	} else {
		factor = 1. + (b-1.)*(math.Pow(k, x)-1.)/(k-1.)
	}
	return math.Max(1., factor), nil
}

// Taylor evaluates the two-term exponential build-up fit. Materials without
// Taylor coefficients are a data error.
func (s *Service) Taylor(energyKeV, depthMFP float64, material string) (float64, error) {
	t, some := s.taylor[resolve(material)]
	if !some {
		return 0, fmt.Errorf("%w: no Taylor coefficients for %q", ErrNoData, material)
	}
	if depthMFP <= 0 || energyKeV <= 0 {
		return 1, nil
	}
	a1 := interpParam(t.Energies, t.A1, energyKeV)
	alpha1 := interpParam(t.Energies, t.Alpha1, energyKeV)
	alpha2 := interpParam(t.Energies, t.Alpha2, energyKeV)
	x := depthMFP
	factor := a1*math.Exp(-alpha1*x) + (1.-a1)*math.Exp(-alpha2*x)
	return math.Max(1., factor), nil
}

// Multilayer aggregates build-up over an ordered layer stack by the named
// policy. An unknown method string is a hard configuration error.
func (s *Service) Multilayer(layers []Layer, energyKeV float64, method string) (float64, error) {
	switch method {
	case MethodLastMaterial:
		var total float64
		last := ""
		for _, l := range layers {
			if l.DepthMFP <= 0 {
				continue
			}
			total += l.DepthMFP
			last = l.Material
		}
		if last == "" {
			return 1, nil
		}
		return s.GP(energyKeV, total, last)
	case MethodKalos:
		product := 1.
		for _, l := range layers {
			if l.DepthMFP <= 0 {
				continue
			}
			factor, err := s.GP(energyKeV, l.DepthMFP, l.Material)
			if err != nil {
				return 0, err
			}
			product *= factor
		}
		return product, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// Package materials serves tabulated photon attenuation data: mass
// attenuation coefficients on a per-material energy grid, interpolated
// log-log and clamped at the grid edges. The incoherent (Compton) component
// is derived from the Klein-Nishina total cross section and the material's
// electron density.
package materials

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/wildstyl3r/collim/internal/compton"
	"github.com/wildstyl3r/collim/internal/constants"
	"github.com/wildstyl3r/collim/internal/utils"
)

//go:embed attenuation.toml
var attenuationTables string

var ErrUnknownMaterial = errors.New("unknown material")

type Material struct {
	Density  float64   `toml:"density"`  // [g/cm^3]
	ZOverA   float64   `toml:"z_over_a"` // electrons per atomic mass unit
	Energies []float64 `toml:"energies"` // [keV], strictly increasing
	MuRho    []float64 `toml:"mu_rho"`   // total mass attenuation [cm^2/g]
}

type Service struct {
	materials map[string]Material
}

func NewService() (*Service, error) {
	var tables struct {
		Materials map[string]Material `toml:"materials"`
	}
	if _, err := toml.Decode(attenuationTables, &tables); err != nil {
		return nil, fmt.Errorf("attenuation tables: %w", err)
	}
	for name, m := range tables.Materials {
		if len(m.Energies) != len(m.MuRho) || len(m.Energies) == 0 {
			return nil, fmt.Errorf("attenuation tables: malformed grid for %q", name)
		}
	}
	return &Service{materials: tables.Materials}, nil
}

func (s *Service) Has(material string) bool {
	_, some := s.materials[material]
	return some
}

func (s *Service) Names() []string {
	names := make([]string, 0, len(s.materials))
	for name := range s.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) Density(material string) (float64, error) {
	m, some := s.materials[material]
	if !some {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, material)
	}
	return m.Density, nil
}

// MassAttenuation returns μ/ρ [cm^2/g] at energyKeV.
func (s *Service) MassAttenuation(material string, energyKeV float64) (float64, error) {
	m, some := s.materials[material]
	if !some {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, material)
	}
	if energyKeV <= 0 {
		return 0, nil
	}
	return utils.LogLogInterp(m.Energies, m.MuRho, energyKeV), nil
}

// LinearAttenuation returns μ [cm^-1] at energyKeV.
func (s *Service) LinearAttenuation(material string, energyKeV float64) (float64, error) {
	muRho, err := s.MassAttenuation(material, energyKeV)
	if err != nil {
		return 0, err
	}
	return muRho * s.materials[material].Density, nil
}

// ComptonLinearAttenuation returns the incoherent-scattering part of μ
// [cm^-1]: σ_KN per electron times the electron density.
func (s *Service) ComptonLinearAttenuation(material string, energyKeV float64) (float64, error) {
	m, some := s.materials[material]
	if !some {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, material)
	}
	if energyKeV <= 0 {
		return 0, nil
	}
	electronDensity := constants.Avogadro * m.ZOverA * m.Density // [cm^-3]
	return compton.TotalCrossSection(energyKeV) * electronDensity, nil
}

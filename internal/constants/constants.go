package constants

const ElectronRestEnergyKeV float64 = 510.99895          // [keV]
const ClassicalElectronRadius float64 = 2.8179403262e-13 // [cm]
const ThomsonCrossSection float64 = 6.6524587321e-25     // [cm^2]
const ComptonWavelength float64 = 0.024263               // [Angstrom]
const Avogadro float64 = 6.02214076e23                   // [mol^-1]
const Quantile95 = 1.96

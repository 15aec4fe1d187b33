// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package spectral

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXSAMS = `<?xml version="1.0" encoding="UTF-8"?>
<XSAMSData>
  <Species>
    <Molecules>
      <Molecule speciesID="XSAMS-CO">
        <MolecularChemicalSpecies>
          <OrdinaryStructuralFormula><Value>CO</Value></OrdinaryStructuralFormula>
          <StoichiometricFormula>CO</StoichiometricFormula>
          <ChemicalName><Value>Carbon monoxide</Value></ChemicalName>
          <InChI>InChI=1S/CO/c1-2</InChI>
          <InChIKey>UGFAIRIUMAVXCW-UHFFFAOYSA-N</InChIKey>
        </MolecularChemicalSpecies>
        <MolecularState stateID="S-CO-0" description="v=0 J=0">
          <MolecularStateCharacterisation>
            <StateEnergy energyOrigin="ZPE"><Value units="1/cm">0.0</Value></StateEnergy>
            <TotalStatisticalWeight>1</TotalStatisticalWeight>
            <NuclearStatisticalWeight>1</NuclearStatisticalWeight>
          </MolecularStateCharacterisation>
        </MolecularState>
        <MolecularState stateID="S-CO-1" description="v=0 J=1">
          <MolecularStateCharacterisation>
            <StateEnergy energyOrigin="ZPE"><Value units="1/cm">3.845</Value></StateEnergy>
            <TotalStatisticalWeight>3</TotalStatisticalWeight>
            <NuclearStatisticalWeight>1</NuclearStatisticalWeight>
          </MolecularStateCharacterisation>
        </MolecularState>
      </Molecule>
    </Molecules>
    <Atoms>
      <Atom>
        <ChemicalElement>
          <NuclearCharge>26</NuclearCharge>
          <ElementSymbol>Fe</ElementSymbol>
        </ChemicalElement>
        <Isotope>
          <Ion speciesID="XSAMS-FeI">
            <IonCharge>0</IonCharge>
            <InChI>InChI=1S/Fe</InChI>
            <InChIKey>XEEYBQQBJWHFJM-UHFFFAOYSA-N</InChIKey>
            <AtomicState stateID="S-Fe-0" description="a5D4">
              <AtomicNumericalData>
                <StateEnergy><Value units="1/cm">0.0</Value></StateEnergy>
                <StatisticalWeight>9</StatisticalWeight>
              </AtomicNumericalData>
            </AtomicState>
            <AtomicState stateID="S-Fe-1" description="z5D4">
              <AtomicNumericalData>
                <StateEnergy><Value units="1/cm">25899.989</Value></StateEnergy>
                <StatisticalWeight>9</StatisticalWeight>
              </AtomicNumericalData>
            </AtomicState>
          </Ion>
        </Isotope>
      </Atom>
    </Atoms>
  </Species>
  <Processes>
    <Radiative>
      <RadiativeTransition>
        <SpeciesRef>XSAMS-CO</SpeciesRef>
        <EnergyWavelength>
          <Wavelength><Value units="A">26005900.0</Value></Wavelength>
          <Frequency><Value units="MHz">115271.2</Value></Frequency>
        </EnergyWavelength>
        <UpperStateRef>S-CO-1</UpperStateRef>
        <LowerStateRef>S-CO-0</LowerStateRef>
        <Probability>
          <TransitionProbabilityA><Value units="1/s">7.2e-8</Value></TransitionProbabilityA>
        </Probability>
      </RadiativeTransition>
      <RadiativeTransition>
        <EnergyWavelength>
          <Wavelength><Value units="A">3859.9114</Value></Wavelength>
        </EnergyWavelength>
        <UpperStateRef>S-Fe-1</UpperStateRef>
        <LowerStateRef>S-Fe-0</LowerStateRef>
        <Probability>
          <TransitionProbabilityA><Value units="1/s">9.69e5</Value></TransitionProbabilityA>
        </Probability>
      </RadiativeTransition>
    </Radiative>
  </Processes>
</XSAMSData>`

func TestReadXSAMSLines(t *testing.T) {
	lines, err := readXSAMSLines(strings.NewReader(sampleXSAMS))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	co := lines[0]
	assert.Equal(t, "UGFAIRIUMAVXCW-UHFFFAOYSA-N", co.InChIKey)
	assert.Equal(t, "Carbon monoxide", co.ChemicalName)
	assert.Equal(t, "CO", co.StoichiometricForm)
	assert.Equal(t, "CO", co.StructuralFormula)
	assert.InDelta(t, 26005900.0, co.Wavelength, 1e-6)
	assert.InDelta(t, 115271.2, co.Frequency, 1e-6)
	assert.InDelta(t, 7.2e-8, co.EinsteinA, 1e-12)
	assert.InDelta(t, 0.0, co.LowerEnergy, 1e-9)
	assert.InDelta(t, 3.845, co.UpperEnergy, 1e-9)
	assert.Equal(t, 1, co.LowerTotalWeight)
	assert.Equal(t, 3, co.UpperTotalWeight)
	assert.Equal(t, "v=0 J=0", co.LowerQNs)
	assert.Equal(t, "v=0 J=1", co.UpperQNs)
}

func TestReadXSAMSLinesAtomicSpeciesResolvedViaUpperState(t *testing.T) {
	// The second transition carries no SpeciesRef; species identity
	// comes from the upper state's owner.
	lines, err := readXSAMSLines(strings.NewReader(sampleXSAMS))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	fe := lines[1]
	assert.Equal(t, "XEEYBQQBJWHFJM-UHFFFAOYSA-N", fe.InChIKey)
	assert.Equal(t, "Fe", fe.ChemicalName)
	assert.InDelta(t, 3859.9114, fe.Wavelength, 1e-6)
	assert.InDelta(t, 25899.989, fe.UpperEnergy, 1e-6)
	assert.Equal(t, 9, fe.UpperTotalWeight)
	assert.Equal(t, "a5D4", fe.LowerQNs)
}

func TestReadXSAMSLinesEmptyDocument(t *testing.T) {
	lines, err := readXSAMSLines(strings.NewReader(`<XSAMSData></XSAMSData>`))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestReadXSAMSLinesMalformedXML(t *testing.T) {
	_, err := readXSAMSLines(strings.NewReader(`<XSAMSData><Molecule`))
	assert.Error(t, err)
}

func TestXSAMSValueFloat(t *testing.T) {
	assert.InDelta(t, 1.5, xsamsValue{Raw: " 1.5 "}.Float(), 1e-9)
	assert.InDelta(t, 9.69e5, xsamsValue{Raw: "9.69e5"}.Float(), 1e-3)
	assert.Zero(t, xsamsValue{Raw: "not a number"}.Float())
	assert.Zero(t, xsamsValue{}.Float())
}

// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package spectral

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// readXSAMSLines extracts radiative transitions from an XSAMS document.
// XSAMS is a large schema; this reader covers the subset the line
// queries need: species identity, state energies and weights, and the
// radiative transitions linking them. Unknown elements are skipped.
func readXSAMSLines(r io.Reader) ([]Line, error) {
	dec := xml.NewDecoder(r)

	speciesByID := map[string]xsamsSpecies{}
	stateToSpecies := map[string]string{}
	states := map[string]xsamsState{}
	var transitions []xsamsTransition

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xsams parse: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "Molecule":
			var m xsamsMolecule
			if err := dec.DecodeElement(&m, &start); err != nil {
				return nil, fmt.Errorf("xsams molecule: %w", err)
			}
			sp := xsamsSpecies{
				InChI:                 m.ChemicalSpecies.InChI,
				InChIKey:              m.ChemicalSpecies.InChIKey,
				Name:                  m.ChemicalSpecies.ChemicalName.Value,
				StoichiometricFormula: m.ChemicalSpecies.StoichiometricFormula,
				StructuralFormula:     m.ChemicalSpecies.StructuralFormula.Value,
			}
			speciesByID[m.SpeciesID] = sp
			for _, st := range m.States {
				stateToSpecies[st.StateID] = m.SpeciesID
				states[st.StateID] = st.toState()
			}
		case "Atom":
			var a xsamsAtom
			if err := dec.DecodeElement(&a, &start); err != nil {
				return nil, fmt.Errorf("xsams atom: %w", err)
			}
			for _, iso := range a.Isotopes {
				for _, ion := range iso.Ions {
					sp := xsamsSpecies{
						InChI:                 ion.InChI,
						InChIKey:              ion.InChIKey,
						Name:                  a.ChemicalElement.ElementSymbol,
						StoichiometricFormula: a.ChemicalElement.ElementSymbol,
					}
					speciesByID[ion.SpeciesID] = sp
					for _, st := range ion.States {
						stateToSpecies[st.StateID] = ion.SpeciesID
						states[st.StateID] = st.toState()
					}
				}
			}
		case "RadiativeTransition":
			var t xsamsTransition
			if err := dec.DecodeElement(&t, &start); err != nil {
				return nil, fmt.Errorf("xsams transition: %w", err)
			}
			transitions = append(transitions, t)
		}
	}

	lines := make([]Line, 0, len(transitions))
	for _, t := range transitions {
		line := Line{
			Wavelength: t.EnergyWavelength.Wavelength.Value.Float(),
			Frequency:  t.EnergyWavelength.Frequency.Value.Float(),
			EinsteinA:  t.Probability.TransitionProbabilityA.Value.Float(),
		}
		if lo, ok := states[t.LowerStateRef]; ok {
			line.LowerEnergy = lo.Energy
			line.LowerTotalWeight = lo.TotalWeight
			line.LowerNuclearWeight = lo.NuclearWeight
			line.LowerQNs = lo.QNs
		}
		if up, ok := states[t.UpperStateRef]; ok {
			line.UpperEnergy = up.Energy
			line.UpperTotalWeight = up.TotalWeight
			line.UpperNuclearWeight = up.NuclearWeight
			line.UpperQNs = up.QNs
		}
		speciesID := t.SpeciesRef
		if speciesID == "" {
			speciesID = stateToSpecies[t.UpperStateRef]
		}
		if sp, ok := speciesByID[speciesID]; ok {
			line.InChI = sp.InChI
			line.InChIKey = sp.InChIKey
			line.ChemicalName = sp.Name
			line.StoichiometricForm = sp.StoichiometricFormula
			line.StructuralFormula = sp.StructuralFormula
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// --- decoded element shapes ---

type xsamsSpecies struct {
	InChI                 string
	InChIKey              string
	Name                  string
	StoichiometricFormula string
	StructuralFormula     string
}

type xsamsState struct {
	Energy        float64
	TotalWeight   int
	NuclearWeight int
	QNs           string
}

// xsamsValue is a <Value units="..."> element. The chardata must stay a
// string for the decoder; Float parses it lazily.
type xsamsValue struct {
	Units string `xml:"units,attr"`
	Raw   string `xml:",chardata"`
}

func (v xsamsValue) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Raw), 64)
	if err != nil {
		return 0
	}
	return f
}

type xsamsMolecule struct {
	SpeciesID       string `xml:"speciesID,attr"`
	ChemicalSpecies struct {
		StoichiometricFormula string `xml:"StoichiometricFormula"`
		StructuralFormula     struct {
			Value string `xml:"Value"`
		} `xml:"OrdinaryStructuralFormula"`
		ChemicalName struct {
			Value string `xml:"Value"`
		} `xml:"ChemicalName"`
		InChI    string `xml:"InChI"`
		InChIKey string `xml:"InChIKey"`
	} `xml:"MolecularChemicalSpecies"`
	States []xsamsMolecularState `xml:"MolecularState"`
}

type xsamsMolecularState struct {
	StateID  string `xml:"stateID,attr"`
	Numerics struct {
		StateEnergy struct {
			Value xsamsValue `xml:"Value"`
		} `xml:"StateEnergy"`
		TotalStatisticalWeight   int `xml:"TotalStatisticalWeight"`
		NuclearStatisticalWeight int `xml:"NuclearStatisticalWeight"`
	} `xml:"MolecularStateCharacterisation"`
	Description string `xml:"description,attr"`
}

func (s xsamsMolecularState) toState() xsamsState {
	return xsamsState{
		Energy:        s.Numerics.StateEnergy.Value.Float(),
		TotalWeight:   s.Numerics.TotalStatisticalWeight,
		NuclearWeight: s.Numerics.NuclearStatisticalWeight,
		QNs:           strings.TrimSpace(s.Description),
	}
}

type xsamsAtom struct {
	ChemicalElement struct {
		ElementSymbol string `xml:"ElementSymbol"`
	} `xml:"ChemicalElement"`
	Isotopes []struct {
		Ions []xsamsIon `xml:"Ion"`
	} `xml:"Isotope"`
}

type xsamsIon struct {
	SpeciesID string             `xml:"speciesID,attr"`
	InChI     string             `xml:"InChI"`
	InChIKey  string             `xml:"InChIKey"`
	States    []xsamsAtomicState `xml:"AtomicState"`
}

type xsamsAtomicState struct {
	StateID  string `xml:"stateID,attr"`
	Numerics struct {
		StateEnergy struct {
			Value xsamsValue `xml:"Value"`
		} `xml:"StateEnergy"`
		StatisticalWeight int `xml:"StatisticalWeight"`
	} `xml:"AtomicNumericalData"`
	Description string `xml:"description,attr"`
}

func (s xsamsAtomicState) toState() xsamsState {
	return xsamsState{
		Energy:      s.Numerics.StateEnergy.Value.Float(),
		TotalWeight: s.Numerics.StatisticalWeight,
		QNs:         strings.TrimSpace(s.Description),
	}
}

type xsamsTransition struct {
	SpeciesRef       string `xml:"SpeciesRef"`
	UpperStateRef    string `xml:"UpperStateRef"`
	LowerStateRef    string `xml:"LowerStateRef"`
	EnergyWavelength struct {
		Wavelength struct {
			Value xsamsValue `xml:"Value"`
		} `xml:"Wavelength"`
		Frequency struct {
			Value xsamsValue `xml:"Value"`
		} `xml:"Frequency"`
	} `xml:"EnergyWavelength"`
	Probability struct {
		TransitionProbabilityA struct {
			Value xsamsValue `xml:"Value"`
		} `xml:"TransitionProbabilityA"`
	} `xml:"Probability"`
}

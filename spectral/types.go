// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

// Package spectral provides access to the VAMDC infrastructure: the
// species database for node and species metadata, and per-node TAP
// endpoints for spectral line queries.
package spectral

// Node describes one VAMDC database node as listed by the species
// database.
type Node struct {
	ShortName     string   `json:"shortName"`
	Description   string   `json:"description,omitempty"`
	ContactEmail  string   `json:"contactEmail,omitempty"`
	IvoIdentifier string   `json:"ivoIdentifier"`
	TapEndpoint   string   `json:"tapEndpoint"`
	ReferenceURL  string   `json:"referenceUrl,omitempty"`
	LastUpdate    string   `json:"lastUpdate,omitempty"`
	LastSeen      string   `json:"lastSeen,omitempty"`
	Topics        []string `json:"topics,omitempty"`
}

// Species describes one chemical species known to the species database.
// A species appearing in several nodes yields one record per node.
type Species struct {
	ShortName             string  `json:"shortName"`
	IvoIdentifier         string  `json:"ivoIdentifier"`
	InChI                 string  `json:"inchi"`
	InChIKey              string  `json:"inchiKey"`
	StoichiometricFormula string  `json:"stoichiometricFormula"`
	MassNumber            int     `json:"massNumber"`
	Charge                int     `json:"charge"`
	SpeciesType           string  `json:"speciesType"`
	StructuralFormula     string  `json:"structuralFormula"`
	Name                  string  `json:"name"`
	DID                   string  `json:"did,omitempty"`
	TapEndpoint           string  `json:"tapEndpoint"`
	UniqueAtoms           int     `json:"uniqueAtoms,omitempty"`
	TotalAtoms            int     `json:"totalAtoms,omitempty"`
	ComputedCharge        int     `json:"computedCharge,omitempty"`
	ComputedMassNumber    float64 `json:"computedMassNumber,omitempty"`
}

// Line is one radiative transition returned by a TAP node. Wavelengths
// are in Angstrom, energies in wavenumbers.
type Line struct {
	InChIKey           string  `json:"inchiKey"`
	InChI              string  `json:"inchi,omitempty"`
	ChemicalName       string  `json:"chemicalName"`
	StoichiometricForm string  `json:"stoichiometricFormula"`
	StructuralFormula  string  `json:"structuralFormula,omitempty"`
	Wavelength         float64 `json:"wavelength"`
	Frequency          float64 `json:"frequency,omitempty"`
	EinsteinA          float64 `json:"einsteinA,omitempty"`
	LowerEnergy        float64 `json:"lowerEnergy,omitempty"`
	LowerTotalWeight   int     `json:"lowerTotalStatisticalWeight,omitempty"`
	LowerNuclearWeight int     `json:"lowerNuclearStatisticalWeight,omitempty"`
	LowerQNs           string  `json:"lowerQNs,omitempty"`
	UpperEnergy        float64 `json:"upperEnergy,omitempty"`
	UpperTotalWeight   int     `json:"upperTotalStatisticalWeight,omitempty"`
	UpperNuclearWeight int     `json:"upperNuclearStatisticalWeight,omitempty"`
	UpperQNs           string  `json:"upperQNs,omitempty"`
	QueryToken         string  `json:"queryToken"`
	SourceDatabase     string  `json:"sourceDatabase"`
}

// LineQuery selects radiative transitions by wavelength window, with
// optional node and species restrictions.
type LineQuery struct {
	// LambdaMin and LambdaMax bound the wavelength window in Angstrom.
	LambdaMin float64
	LambdaMax float64
	// Nodes restricts the query to nodes whose TAP endpoint contains
	// one of these strings. Empty means all nodes.
	Nodes []string
	// Species restricts the query to these InChIKeys. Empty means all
	// species.
	Species []string
}

// ServerInfo is the static capability description reported by
// get_server_info and the REST surface.
type ServerInfo struct {
	ServerName     string            `json:"serverName"`
	Version        string            `json:"version"`
	AvailableTools []string          `json:"availableTools"`
	Description    string            `json:"description"`
	Endpoints      map[string]string `json:"endpoints"`
}

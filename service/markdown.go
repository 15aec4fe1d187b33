// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"fmt"
	"strings"

	"github.com/VAMDC/vamdc-mcp/spectral"
)

// nodesTable renders the node list as a markdown table.
func nodesTable(nodes []spectral.Node) string {
	var b strings.Builder
	b.WriteString("| Short Name | TAP Endpoint | Topics |\n")
	b.WriteString("|------------|--------------|--------|\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "| %s | %s | %s |\n",
			escapeCell(n.ShortName),
			escapeCell(n.TapEndpoint),
			escapeCell(strings.Join(n.Topics, ", ")))
	}
	return strings.TrimRight(b.String(), "\n")
}

// speciesColumns is the column set and order of the species tables.
var speciesColumns = []string{
	"name",
	"stoichiometricFormula",
	"InChIKey",
	"speciesType",
	"charge",
	"massNumber",
	"structuralFormula",
	"shortName",
	"# unique atoms",
	"# total atoms",
	"computed charge",
	"computed mol_weight",
}

// speciesTable renders a species list as a markdown table with the
// canonical twelve columns.
func speciesTable(species []spectral.Species) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(speciesColumns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(speciesColumns)) + "\n")
	for _, s := range species {
		cells := []string{
			s.Name,
			s.StoichiometricFormula,
			s.InChIKey,
			s.SpeciesType,
			fmt.Sprintf("%d", s.Charge),
			fmt.Sprintf("%d", s.MassNumber),
			s.StructuralFormula,
			s.ShortName,
			fmt.Sprintf("%d", s.UniqueAtoms),
			fmt.Sprintf("%d", s.TotalAtoms),
			fmt.Sprintf("%d", s.ComputedCharge),
			fmt.Sprintf("%g", s.ComputedMassNumber),
		}
		for i, c := range cells {
			cells[i] = escapeCell(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// escapeCell escapes pipe characters so cell content cannot break the
// table structure.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

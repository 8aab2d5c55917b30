// Package sram exposes the bundled SRAM macro catalog. The catalog is a
// static data asset; verification hooks use the macro names verbatim to
// blackbox the memories during DRC and LVS.
package sram

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed sram-cache.json
var cacheJSON []byte

// Macro is one cataloged SRAM macro.
type Macro struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Depth  string `json:"depth"`
	Width  int    `json:"width"`
	Family string `json:"family"`
	Mask   bool   `json:"mask"`
	VT     string `json:"vt"`
	Mux    int    `json:"mux"`
}

// Macros returns the bundled catalog.
func Macros() ([]Macro, error) {
	var macros []Macro
	if err := json.Unmarshal(cacheJSON, &macros); err != nil {
		return nil, fmt.Errorf("failed to parse bundled sram-cache.json: %w", err)
	}
	return macros, nil
}

// Names returns the macro names of the bundled catalog, in catalog order.
func Names() ([]string, error) {
	macros, err := Macros()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(macros))
	for i, m := range macros {
		names[i] = m.Name
	}
	return names, nil
}

// OpenRAMNames returns the cell names of the OpenRAM-generated SRAMs used by
// downstream macro compilers.
func OpenRAMNames() []string {
	return []string{
		"sky130_sram_1kbyte_1rw1r_32x256_8",
		"sky130_sram_1kbyte_1rw1r_8x1024_8",
		"sky130_sram_2kbyte_1rw1r_32x512_8",
	}
}

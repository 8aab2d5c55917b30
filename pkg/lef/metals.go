// Package lef extracts the interconnect stackup from a technology LEF file.
// It is not a general LEF parser: it locates LAYER sections, parses their
// statements with a small grammar, and converts the routing layers into
// ordered metal descriptors for the technology config.
package lef

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// Direction is the preferred routing direction of a metal layer.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// WidthSpacing is one row of a layer's spacing table: wires at least Width
// wide must keep at least Spacing to their neighbors.
type WidthSpacing struct {
	WidthAtLeast float64 `json:"width_at_least"`
	MinSpacing   float64 `json:"min_spacing"`
}

// Metal describes one routing layer of the interconnect stackup.
type Metal struct {
	Name      string    `json:"name"`
	Index     int       `json:"index"`
	Direction Direction `json:"direction"`
	MinWidth  float64   `json:"min_width"`
	Pitch     float64   `json:"pitch"`
	Offset    float64   `json:"offset"`
	// PowerStrapWidthsAndSpacings is derived from SPACING/SPACINGTABLE
	// statements; at minimum it carries the layer's default spacing.
	PowerStrapWidthsAndSpacings []WidthSpacing `json:"power_strap_widths_and_spacings"`
	// GridUnit is the manufacturing grid shared by the whole stackup.
	GridUnit float64 `json:"grid_unit"`
}

// GridUnit is the fine-grained manufacturing grid, one thousandth of the
// LEF distance unit.
const GridUnit = 0.001

var layerParser = participle.MustBuild[layerSection](
	participle.Lexer(layerLexer),
	participle.Elide("Comment", "Whitespace"),
)

// GetMetalsFromFile reads a technology LEF file and extracts its routing
// layers in stackup order.
func GetMetalsFromFile(path string) ([]Metal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tech LEF: %w", err)
	}
	metals, err := GetMetals(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse tech LEF %s: %w", path, err)
	}
	return metals, nil
}

// GetMetals extracts the routing layers from technology LEF text, ordered
// bottom-up as they appear in the file and indexed from 1.
func GetMetals(text string) ([]Metal, error) {
	var metals []Metal
	index := 0
	for _, block := range layerBlocks(text) {
		section, err := layerParser.ParseString("", block)
		if err != nil {
			return nil, fmt.Errorf("failed to parse LAYER section: %w", err)
		}
		if layerType(section) != "ROUTING" {
			continue
		}
		index++
		metal, err := metalFromSection(section, index)
		if err != nil {
			return nil, err
		}
		metals = append(metals, metal)
	}
	return metals, nil
}

// layerBlocks splits the LEF text into LAYER ... END <name> sections,
// skipping everything else (UNITS, VIA, VIARULE, SITE...). A LAYER block
// opens with an unterminated "LAYER <name>" line; the terminated
// "LAYER <name> ;" lines inside VIA sections are references, not sections.
func layerBlocks(text string) []string {
	var blocks []string
	var current []string
	currentName := ""
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if currentName == "" {
			if len(fields) == 2 && fields[0] == "LAYER" {
				currentName = fields[1]
				current = []string{line}
			}
			continue
		}
		current = append(current, line)
		if len(fields) == 2 && fields[0] == "END" && fields[1] == currentName {
			blocks = append(blocks, strings.Join(current, "\n"))
			currentName = ""
			current = nil
		}
	}
	return blocks
}

func layerType(section *layerSection) string {
	for _, stmt := range section.Stmts {
		if stmt.Keyword() == "TYPE" && len(stmt.Values()) > 0 {
			return stmt.Values()[0]
		}
	}
	return ""
}

func metalFromSection(section *layerSection, index int) (Metal, error) {
	metal := Metal{
		Name:     section.Name,
		Index:    index,
		GridUnit: GridUnit,
	}
	defaultSpacing := 0.0
	for _, stmt := range section.Stmts {
		values := stmt.Values()
		switch stmt.Keyword() {
		case "DIRECTION":
			if len(values) == 0 {
				return Metal{}, fmt.Errorf("layer %s: DIRECTION without value", section.Name)
			}
			switch values[0] {
			case "HORIZONTAL":
				metal.Direction = Horizontal
			case "VERTICAL":
				metal.Direction = Vertical
			default:
				return Metal{}, fmt.Errorf("layer %s: unknown routing direction %q", section.Name, values[0])
			}
		case "PITCH":
			v, err := firstNumber(section.Name, "PITCH", values)
			if err != nil {
				return Metal{}, err
			}
			metal.Pitch = v
		case "OFFSET":
			v, err := firstNumber(section.Name, "OFFSET", values)
			if err != nil {
				return Metal{}, err
			}
			metal.Offset = v
		case "WIDTH":
			v, err := firstNumber(section.Name, "WIDTH", values)
			if err != nil {
				return Metal{}, err
			}
			metal.MinWidth = v
		case "SPACING":
			v, err := firstNumber(section.Name, "SPACING", values)
			if err != nil {
				return Metal{}, err
			}
			defaultSpacing = v
		case "SPACINGTABLE":
			rows, err := spacingTableRows(section.Name, values)
			if err != nil {
				return Metal{}, err
			}
			metal.PowerStrapWidthsAndSpacings = append(metal.PowerStrapWidthsAndSpacings, rows...)
		}
	}
	if len(metal.PowerStrapWidthsAndSpacings) == 0 {
		metal.PowerStrapWidthsAndSpacings = []WidthSpacing{{WidthAtLeast: 0, MinSpacing: defaultSpacing}}
	}
	return metal, nil
}

// spacingTableRows converts the WIDTH <w> <s> rows of a SPACINGTABLE
// statement. Other table forms (PARALLELRUNLENGTH header values, influence
// tables) are skipped.
func spacingTableRows(layer string, tokens []string) ([]WidthSpacing, error) {
	var rows []WidthSpacing
	for i := 0; i < len(tokens); i++ {
		if tokens[i] != "WIDTH" {
			continue
		}
		if i+2 >= len(tokens) {
			return nil, fmt.Errorf("layer %s: truncated SPACINGTABLE row", layer)
		}
		w, err := strconv.ParseFloat(tokens[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("layer %s: bad SPACINGTABLE width %q: %w", layer, tokens[i+1], err)
		}
		s, err := strconv.ParseFloat(tokens[i+2], 64)
		if err != nil {
			return nil, fmt.Errorf("layer %s: bad SPACINGTABLE spacing %q: %w", layer, tokens[i+2], err)
		}
		rows = append(rows, WidthSpacing{WidthAtLeast: w, MinSpacing: s})
		i += 2
	}
	return rows, nil
}

func firstNumber(layer, keyword string, values []string) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("layer %s: %s without value", layer, keyword)
	}
	v, err := strconv.ParseFloat(values[0], 64)
	if err != nil {
		return 0, fmt.Errorf("layer %s: bad %s value %q: %w", layer, keyword, values[0], err)
	}
	return v, nil
}

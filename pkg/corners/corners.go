// Package corners parses vendor characterization filenames into structured
// process/voltage/temperature corner records. No file content is read; the
// vendors encode the corner entirely in the filename, in two different
// dialects (one for the IO library, one for the standard-cell libraries).
package corners

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Speed is the process speed grade of a corner.
type Speed int

const (
	SpeedFast Speed = iota
	SpeedTypical
	SpeedSlow
)

// String returns the canonical lower-case name used in technology configs.
func (s Speed) String() string {
	switch s {
	case SpeedFast:
		return "fast"
	case SpeedTypical:
		return "typical"
	case SpeedSlow:
		return "slow"
	}
	return fmt.Sprintf("Speed(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler so corners serialize as
// "fast"/"typical"/"slow" in generated configs.
func (s Speed) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Named error kinds for fatal parse failures. A filename that should carry a
// corner but doesn't match any recognized pattern is a defect in the vendor
// data and must surface, never be silently skipped.
var (
	// ErrUnrecognizedCorner reports a 2-letter process code that is not
	// ff, tt, or ss, or a filename with no process code at all.
	ErrUnrecognizedCorner = errors.New("unrecognized process corner code")
	// ErrMalformedToken reports a temperature or voltage token that does
	// not match the expected pattern.
	ErrMalformedToken = errors.New("malformed corner token")
)

// ParseSpeed maps a canonical 2-letter process code to a Speed.
// Any other code is rejected.
func ParseSpeed(code string) (Speed, error) {
	switch code {
	case "ff":
		return SpeedFast, nil
	case "tt":
		return SpeedTypical, nil
	case "ss":
		return SpeedSlow, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnrecognizedCorner, code)
}

// Corner is one characterization corner of one cell or library.
type Corner struct {
	// Cell is the cell or library identity the filename belongs to.
	Cell string
	// Speed applies to both device types; this parser only accepts
	// filenames where nmos and pmos corners agree, so a single grade
	// describes the whole record.
	Speed Speed
	// Temperature is a signed decimal with unit, e.g. "-40 C".
	Temperature string
	// Voltage is a decimal with unit, e.g. "1.95 V".
	Voltage string
}

// SkipReason explains why a filename was filtered out of the corner set.
// A skip is an expected outcome, distinct from a fatal parse error.
type SkipReason int

const (
	// SkipNone means the filename was accepted.
	SkipNone SkipReason = iota
	// SkipNoInternalPower marks files characterized without internal
	// power data; a canonical file with power data always exists.
	SkipNoInternalPower
	// SkipCrossCorner marks files whose nmos and pmos device corners
	// differ (e.g. ff_ss); they are not representable as one Corner.
	SkipCrossCorner
	// SkipLowVoltage marks IO/analog variants characterized at a
	// low secondary voltage; only the high-voltage variants are modeled.
	SkipLowVoltage
	// SkipForeignFile marks files that do not belong to the library
	// being scanned.
	SkipForeignFile
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "accepted"
	case SkipNoInternalPower:
		return "no internal power data"
	case SkipCrossCorner:
		return "mismatched device corners"
	case SkipLowVoltage:
		return "low-voltage variant"
	case SkipForeignFile:
		return "foreign file"
	}
	return fmt.Sprintf("SkipReason(%d)", int(r))
}

var (
	// cornerToken splits IO-dialect filenames at _ff/_ss/_tt process tokens.
	cornerToken = regexp.MustCompile(`_(ff|ss|tt)`)
	tempToken   = regexp.MustCompile(`^(n?)(\d+)C$`)
	voltToken   = regexp.MustCompile(`^(\d+)v(\d+)$`)
)

// ParseTemperature converts a temperature token to its signed form with
// unit: "n40C" -> "-40 C", "100C" -> "100 C".
func ParseTemperature(token string) (string, error) {
	m := tempToken.FindStringSubmatch(token)
	if m == nil {
		return "", fmt.Errorf("%w: temperature %q", ErrMalformedToken, token)
	}
	sign := ""
	if m[1] == "n" {
		sign = "-"
	}
	return sign + m[2] + " C", nil
}

// ParseVoltage converts a voltage token to its decimal form with unit:
// "1v95" -> "1.95 V".
func ParseVoltage(token string) (string, error) {
	m := voltToken.FindStringSubmatch(token)
	if m == nil {
		return "", fmt.Errorf("%w: voltage %q", ErrMalformedToken, token)
	}
	return m[1] + "." + m[2] + " V", nil
}

// ParseIOLibFilename parses the IO-library naming dialect, where the process
// token appears as a delimiter-separated segment that may be duplicated for
// the two device types, followed by temperature and voltage tokens:
//
//	sky130_fd_io__top_gpiov2_ff_ff_n40C_1v95_5v50.lib
//
// It returns the parsed corner, a skip reason for filtered files, or a fatal
// error for filenames that should carry a corner but don't parse.
func ParseIOLibFilename(filename string) (*Corner, SkipReason, error) {
	// Versions with no internal power are duplicates of canonical files.
	if strings.Contains(filename, "nointpwr") {
		return nil, SkipNoInternalPower, nil
	}

	name := strings.TrimSuffix(filename, ".lib")
	locs := cornerToken.FindAllStringSubmatchIndex(name, -1)
	if len(locs) == 0 {
		return nil, SkipNone, fmt.Errorf("%w: no process token in %q", ErrUnrecognizedCorner, filename)
	}

	cell := name[:locs[0][0]]
	codes := make([]string, len(locs))
	for i, loc := range locs {
		codes[i] = name[loc[2]:loc[3]]
	}

	// Cross-corner variants (ff_ss etc.) encode two independent device
	// corners; keep the file only when every occurrence names the same
	// corner.
	for _, code := range codes[1:] {
		if code != codes[0] {
			return nil, SkipCrossCorner, nil
		}
	}

	speed, err := ParseSpeed(codes[0])
	if err != nil {
		return nil, SkipNone, fmt.Errorf("%w in %q", err, filename)
	}

	rest := name[locs[len(locs)-1][1]:]
	tempVolt := strings.Split(rest, "_")[1:]
	if len(tempVolt) < 3 {
		return nil, SkipNone, fmt.Errorf("%w: expected temp/voltage tokens after corner in %q", ErrMalformedToken, filename)
	}

	temp, err := ParseTemperature(tempVolt[0])
	if err != nil {
		return nil, SkipNone, fmt.Errorf("%w in %q", err, filename)
	}
	vdd, err := ParseVoltage(tempVolt[1])
	if err != nil {
		return nil, SkipNone, fmt.Errorf("%w in %q", err, filename)
	}

	// Secondary voltage-class tokens starting with '1' are the low-voltage
	// IO/analog variants; only high-voltage variants are modeled.
	if strings.HasPrefix(tempVolt[2], "1") {
		return nil, SkipLowVoltage, nil
	}
	if len(tempVolt) == 4 && strings.HasPrefix(tempVolt[3], "1") {
		return nil, SkipLowVoltage, nil
	}

	return &Corner{
		Cell:        cell,
		Speed:       speed,
		Temperature: temp,
		Voltage:     vdd,
	}, SkipNone, nil
}

// ParseStdcellFilename parses the standard-cell naming dialect, where corner,
// temperature, and voltage are underscore-joined behind a double-underscore
// separator from the library name:
//
//	sky130_fd_sc_hd__ss_100C_1v60.lib
func ParseStdcellFilename(filename string) (*Corner, error) {
	name := strings.TrimSuffix(filename, ".lib")
	cell, cornerName, found := strings.Cut(name, "__")
	if !found {
		return nil, fmt.Errorf("%w: no corner separator in %q", ErrMalformedToken, filename)
	}
	parts := strings.Split(cornerName, "_")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: expected corner_temp_voltage in %q", ErrMalformedToken, filename)
	}

	speed, err := ParseSpeed(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w in %q", err, filename)
	}
	temp, err := ParseTemperature(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w in %q", err, filename)
	}
	vdd, err := ParseVoltage(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w in %q", err, filename)
	}

	return &Corner{
		Cell:        cell,
		Speed:       speed,
		Temperature: temp,
		Voltage:     vdd,
	}, nil
}

// LibFile pairs the filename whose corner tokens are parsed with the
// filename to actually reference in the generated config. They differ when a
// noise-model twin of the plain file exists.
type LibFile struct {
	// Base is the duplicate-free filename the corner is parsed from.
	Base string
	// Use is the filename to reference; the ccsnoise twin when present.
	Use string
}

// SelectStdcellLibFiles filters a standard-cell lib directory listing down
// to one canonical file per corner. Files not carrying the vendor prefix are
// dropped (some tool vendors ship their own corner libs alongside), ccsnoise
// duplicates are folded into their plain twin, and that twin is preferred as
// the referenced file when it exists. Input order does not matter; output is
// in sorted order of the base filename.
func SelectStdcellLibFiles(names []string) []LibFile {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var out []LibFile
	for _, name := range sorted {
		if !strings.Contains(name, "sky130") {
			continue
		}
		if strings.Contains(name, "ccsnoise") {
			continue
		}
		use := name
		base := strings.TrimSuffix(name, ".lib")
		if present[base+"_ccsnoise.lib"] {
			use = base + "_ccsnoise.lib"
		}
		out = append(out, LibFile{Base: name, Use: use})
	}
	return out
}

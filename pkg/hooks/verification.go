package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/siliconsmith/skytech/pkg/settings"
	"github.com/siliconsmith/skytech/pkg/sram"
	"github.com/siliconsmith/skytech/pkg/tech"
)

// appendToRunFile appends text to the session's generated run/control file.
func appendToRunFile(s Session, text string) error {
	runFile := s.RunFile()
	if runFile == "" {
		return fmt.Errorf("session has no run file to modify")
	}
	f, err := os.OpenFile(runFile, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open run file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("failed to append to run file %s: %w", runFile, err)
	}
	return nil
}

// CalibreDRCBlackboxSRAMs excludes the cataloged SRAM macros from Calibre
// DRC.
func CalibreDRCBlackboxSRAMs(s Session) error {
	names, err := sram.Names()
	if err != nil {
		return err
	}
	var text strings.Builder
	for _, name := range names {
		text.WriteString("\nEXCLUDE CELL " + name)
	}
	return appendToRunFile(s, text.String())
}

// PegasusDRCBlackboxSRAMs excludes the cataloged SRAM macros from Pegasus
// DRC.
func PegasusDRCBlackboxSRAMs(s Session) error {
	names, err := sram.Names()
	if err != nil {
		return err
	}
	var text strings.Builder
	for _, name := range names {
		text.WriteString("\nexclude_cell " + name)
	}
	return appendToRunFile(s, text.String())
}

// CalibreLVSBlackboxSRAMs boxes and open-filters the cataloged SRAM macros
// in the Calibre LVS run file.
func CalibreLVSBlackboxSRAMs(s Session) error {
	names, err := sram.Names()
	if err != nil {
		return err
	}
	var text strings.Builder
	for _, name := range names {
		text.WriteString("\nLVS BOX " + name)
		text.WriteString("\nLVS FILTER " + name + " OPEN ")
	}
	return appendToRunFile(s, text.String())
}

// PegasusLVSBlackboxSRAMs removes the SRAM SPICE includes from the Pegasus
// LVS control file and declares the macros as gray boxes.
func PegasusLVSBlackboxSRAMs(s Session) error {
	names, err := sram.Names()
	if err != nil {
		return err
	}
	runFile := s.RunFile()
	if runFile == "" {
		return fmt.Errorf("session has no control file to modify")
	}
	contents, err := os.ReadFile(runFile)
	if err != nil {
		return fmt.Errorf("failed to read control file: %w", err)
	}

	matcher, err := regexp.Compile(fmt.Sprintf(`schematic_path.*(%s).*spice;\n`, strings.Join(names, "|")))
	if err != nil {
		return fmt.Errorf("failed to build sram include matcher: %w", err)
	}
	var boxes strings.Builder
	for _, name := range names {
		boxes.WriteString("\nlvs_black_box " + name + " -gray")
	}
	fixed := matcher.ReplaceAllString(string(contents), "") + boxes.String()
	if err := os.WriteFile(runFile, []byte(fixed), 0o644); err != nil {
		return fmt.Errorf("failed to write control file %s: %w", runFile, err)
	}
	return nil
}

// SRAM22RecognizeGates widens Calibre's gate recognition from NONE to ALL,
// which the sram22-generated macros need to pass LVS.
func SRAM22RecognizeGates(s Session) error {
	return appendToRunFile(s, "LVS RECOGNIZE GATES ALL")
}

// lvsDeckScrubPatterns are specification statements in the vendor LVS decks
// that conflict with the generated run configuration.
var lvsDeckScrubPatterns = []string{
	"VIRTUAL CONNECT REPORT",
	"SOURCE PRIMARY",
	"SOURCE SYSTEM SPICE",
	"SOURCE PATH",
	"ERC",
	"LVS REPORT",
}

const lvsDeckInsertLines = `
LVS FILTER D  OPEN  SOURCE
LVS FILTER D  OPEN  LAYOUT
`

// SetupCalibreLVSDeck regenerates each Calibre LVS deck from its configured
// source: conflicting directive lines are scrubbed and the replacement
// filter directives appended. Deck sources come from the settings store,
// positionally matched to the descriptor's LVS deck references.
func SetupCalibreLVSDeck(desc *tech.Descriptor, log *zap.Logger) Action {
	if log == nil {
		log = zap.NewNop()
	}
	matcher := regexp.MustCompile(fmt.Sprintf(`.*(%s).*\n`, strings.Join(lvsDeckScrubPatterns, "|")))
	return func(s Session) error {
		sources, err := settings.GetStringList(s.Settings(), tech.KeyLVSDeckSources)
		if err != nil {
			return err
		}
		for i, deck := range desc.LVSDecks {
			if deck.ToolName != "calibre" {
				continue
			}
			if i >= len(sources) {
				log.Error("no corresponding source for LVS deck", zap.String("deck", deck.DeckName))
				continue
			}
			sourcePath := sources[i]
			data, err := os.ReadFile(sourcePath)
			if err != nil {
				return fmt.Errorf("LVS deck not found: %s: %w", sourcePath, err)
			}
			// Deck references carry symbolic install prefixes.
			destPath, err := desc.ResolvePath(s.Settings(), deck.Path)
			if err != nil {
				return fmt.Errorf("cannot resolve LVS deck path %s: %w", deck.Path, err)
			}
			if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
				return fmt.Errorf("failed to create LVS deck dir: %w", err)
			}
			log.Info("modifying LVS deck",
				zap.String("source", sourcePath), zap.String("dest", destPath))
			fixed := matcher.ReplaceAllString(string(data), "") + lvsDeckInsertLines
			if err := os.WriteFile(destPath, []byte(fixed), 0o644); err != nil {
				return fmt.Errorf("failed to write LVS deck %s: %w", destPath, err)
			}
		}
		return nil
	}
}

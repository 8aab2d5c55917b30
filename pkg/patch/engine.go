// Package patch regenerates corrected cache copies of vendor netlist,
// simulation-model, and LEF artifacts. Every job reads its pristine source
// in full, applies narrow pattern-targeted corrections, and writes a fresh
// destination file, so re-running a job is idempotent as long as the source
// is untouched. A missing mandatory source is fatal and reported with the
// attempted path; a missing optional corrective target (the vendor fixed the
// defect) is a normal no-op.
package patch

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/siliconsmith/skytech/pkg/settings"
	"github.com/siliconsmith/skytech/pkg/tech"
)

// Engine owns the cache directory the corrected artifacts are written to.
type Engine struct {
	settings settings.Store
	log      *zap.Logger

	// CacheDir is where corrected artifacts land. Each job owns its
	// destination path exclusively for the duration of the call.
	CacheDir string
	// LibraryName is the stdcell library whose netlist and simulation
	// models are repaired.
	LibraryName string
}

// NewEngine creates an Engine writing into cacheDir. A nil logger disables
// logging.
func NewEngine(st settings.Store, cacheDir string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		settings:    st,
		log:         log,
		CacheDir:    cacheDir,
		LibraryName: tech.SkyHDLibraryName,
	}
}

// PostInstall runs every patch job applicable to the configured stdcell
// family. The open-source library needs netlist, simulation-model, and
// tech-LEF repair; the IO LEF repair applies to both families.
func (e *Engine) PostInstall() error {
	slib, err := settings.GetString(e.settings, tech.KeyStdcellLibrary)
	if err != nil {
		return err
	}
	family, err := tech.ParseFamily(slib)
	if err != nil {
		return err
	}
	if family == tech.FamilySkyHD {
		if err := e.SetupCDL(); err != nil {
			return err
		}
		if err := e.SetupVerilog(); err != nil {
			return err
		}
		if err := e.SetupPrimitives(); err != nil {
			return err
		}
		if err := e.SetupTechLEF(); err != nil {
			return err
		}
	}
	if err := e.SetupIOLEFs(); err != nil {
		return err
	}
	e.log.Info("technology artifacts patched", zap.String("cache", e.CacheDir))
	return nil
}

// sourceFile resolves a path below the open-source PDK root and verifies it
// exists. Missing mandatory sources are fatal, never silently skipped.
func (e *Engine) sourceFile(kind string, elem ...string) (string, error) {
	root, err := settings.GetString(e.settings, tech.KeySky130A)
	if err != nil {
		return "", err
	}
	p := filepath.Join(append([]string{root}, elem...)...)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%s not found: %s: %w", kind, p, err)
	}
	return p, nil
}

// destFile ensures the cache directory exists and returns the destination
// path for name.
func (e *Engine) destFile(name string) (string, error) {
	if err := os.MkdirAll(e.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}
	return filepath.Join(e.CacheDir, name), nil
}

// regenerate reads src in full, transforms it, and writes dst. transform
// receives the whole source text and returns the corrected text.
func (e *Engine) regenerate(kind, src, dst string, transform func(string) (string, error)) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", kind, err)
	}
	e.log.Info("modifying "+kind, zap.String("source", src), zap.String("dest", dst))
	out, err := transform(string(data))
	if err != nil {
		return fmt.Errorf("failed to patch %s %s: %w", kind, src, err)
	}
	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", kind, err)
	}
	return nil
}

package scenario

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultName is the scenario every named scenario is merged onto.
const DefaultName = "default"

// ErrInvalidName is returned for scenario names that are not a plain file
// name inside the scenario directory.
var ErrInvalidName = errors.New("invalid scenario name")

func checkName(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) ||
		filepath.Base(name) != name || !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Paths helper for scenario files.
type Paths struct {
	BaseDir string // e.g. ./scenarios
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, DefaultName+".yaml")
}
func (p Paths) ScenarioPath(name string) string {
	return filepath.Join(p.BaseDir, name+".yaml")
}

// Loader reads scenario YAML and merges default → named.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawScenario // key: scenario name
}

// NewLoader creates a scenario loader for the given directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawScenario),
	}
}

// Pattern is the glob matching every scenario file in the directory.
func (l *Loader) Pattern() string {
	return filepath.Join(l.paths.BaseDir, "*.yaml")
}

// LoadMerged loads default.yaml (optional) and <name>.yaml (required unless
// name is empty or "default"), merges and validates them.
func (l *Loader) LoadMerged(name string) (RawScenario, error) {
	if name == "" {
		name = DefaultName
	}
	if err := checkName(name); err != nil {
		return RawScenario{}, err
	}
	l.mu.RLock()
	if cfg, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawScenario{}, fmt.Errorf("read default scenario: %w", err)
	}
	merged := defCfg
	if name != DefaultName {
		path := l.paths.ScenarioPath(name)
		if _, err := os.Stat(path); err != nil {
			return RawScenario{}, fmt.Errorf("scenario %q: %w", name, err)
		}
		named, err := readYAML(path)
		if err != nil {
			return RawScenario{}, fmt.Errorf("read scenario %q: %w", name, err)
		}
		merged = mergeRaw(defCfg, named)
	}
	if err := ValidateRaw(merged); err != nil {
		return RawScenario{}, fmt.Errorf("scenario %q: %w", name, err)
	}

	l.mu.Lock()
	l.cache[name] = merged
	l.mu.Unlock()

	return merged, nil
}

// Invalidate clears loader's cache. Call after the watcher detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawScenario)
}

// readYAML loads a YAML file into RawScenario. Missing files return zero cfg, no error.
func readYAML(path string) (RawScenario, error) {
	var cfg RawScenario
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawScenario{}, nil
		}
		return RawScenario{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawScenario{}, err
	}
	return cfg, nil
}

// mergeRaw overlays 'b' onto 'a': set scalars in b win, map entries in b
// replace the same tier in a.
func mergeRaw(a, b RawScenario) RawScenario {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// simulate
	if b.Simulate.Cases != nil {
		out.Simulate.Cases = b.Simulate.Cases
	}
	if b.Simulate.Rolls != nil {
		out.Simulate.Rolls = b.Simulate.Rolls
	}
	if b.Simulate.Autorelease != nil {
		out.Simulate.Autorelease = b.Simulate.Autorelease
	}
	if b.Simulate.Seed != nil {
		out.Simulate.Seed = b.Simulate.Seed
	}

	// per-tier maps
	out.Probabilities = mergeMap(a.Probabilities, b.Probabilities)
	out.Scale = mergeMap(a.Scale, b.Scale)

	return out
}

func mergeMap(a, b map[string]float64) map[string]float64 {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]float64, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}

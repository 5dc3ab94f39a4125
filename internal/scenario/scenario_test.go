package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadMergedOverlaysNamedOnDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", `
version: "1"
simulate:
  cases: 10
  rolls: 100
probabilities:
  common: 0.5
`)
	writeFile(t, dir, "event.yaml", `
version: "2"
simulate:
  rolls: 500
  autorelease: true
scale:
  legendary: 2
`)

	l := NewLoader(dir)
	raw, err := l.LoadMerged("event")
	require.NoError(t, err)

	assert.Equal(t, "2", raw.Version)
	require.NotNil(t, raw.Simulate.Cases)
	assert.Equal(t, 10, *raw.Simulate.Cases)
	assert.Equal(t, 500, *raw.Simulate.Rolls)
	assert.True(t, *raw.Simulate.Autorelease)
	assert.Equal(t, map[string]float64{"common": 0.5}, raw.Probabilities)
	assert.Equal(t, map[string]float64{"legendary": 2}, raw.Scale)
	files, err := filepath.Glob(l.Pattern())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "default.yaml"), filepath.Join(dir, "event.yaml")}, files)
}

func TestLoadMergedMissingNamedScenario(t *testing.T) {
	l := NewLoader(t.TempDir())
	_, err := l.LoadMerged("nope")
	require.ErrorIs(t, err, os.ErrNotExist)

	// default may be absent entirely
	raw, err := l.LoadMerged("")
	require.NoError(t, err)
	assert.Equal(t, RawScenario{}, raw)
}

func TestLoadMergedRejectsNamesOutsideDir(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "scenarios")
	require.NoError(t, os.Mkdir(base, 0o755))
	writeFile(t, dir, "outside.yaml", "simulate:\n  rolls: 3\n")

	l := NewLoader(base)
	for _, name := range []string{"../outside", "..", ".", "sub/event", `sub\event`, "/etc/passwd"} {
		_, err := l.LoadMerged(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLoadMergedCachesUntilInvalidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", "simulate:\n  cases: 1\n")
	l := NewLoader(dir)

	raw, err := l.LoadMerged(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, 1, *raw.Simulate.Cases)

	writeFile(t, dir, "default.yaml", "simulate:\n  cases: 2\n")
	raw, err = l.LoadMerged(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, 1, *raw.Simulate.Cases, "served from cache")

	l.Invalidate()
	raw, err = l.LoadMerged(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, 2, *raw.Simulate.Cases)
}

func TestValidateRaw(t *testing.T) {
	neg := -1
	cfg := RawScenario{
		Simulate:      SimulateCfg{Cases: &neg, Rolls: &neg},
		Probabilities: map[string]float64{"mythic": 0.1, "rare": 1.5, "legendary": 0.1},
		Scale:         map[string]float64{"legendary": 2, "common": -1},
	}
	err := ValidateRaw(cfg)
	require.Error(t, err)
	for _, want := range []string{
		"simulate.cases must be >= 0",
		"simulate.rolls must be >= 0",
		"probabilities.mythic is not a tier",
		"probabilities.rare must be in [0,1]",
		"scale.common must be >= 0",
		"tier legendary has both a probability and a scale",
	} {
		assert.Contains(t, err.Error(), want)
	}

	require.NoError(t, ValidateRaw(RawScenario{}))
}

func TestResolvePrecedence(t *testing.T) {
	cases, rolls := 7, 70
	var seed uint64 = 9
	raw := RawScenario{
		Version:  "3",
		Simulate: SimulateCfg{Cases: &cases, Rolls: &rolls, Seed: &seed},
	}
	defaults := Resolved{Cases: 1, Rolls: 10, Seed: 42}
	overRolls := 5
	autorelease := true

	got := Resolve("event", raw, defaults, Overrides{Rolls: &overRolls, Autorelease: &autorelease})
	assert.Equal(t, Resolved{
		Name: "event", Version: "3",
		Cases: 7, Rolls: 5, Autorelease: true, Seed: 9,
	}, got)
	assert.Equal(t, gacha.SimParams{Cases: 7, RollsPerCase: 5, Autorelease: true}, got.Params())
}

func TestApplyProbabilities(t *testing.T) {
	base := gacha.ProbabilitySet{0.5, 0.2, 0.1, 0.05, 0.01, 0.001}
	raw := RawScenario{
		Probabilities: map[string]float64{"common": 0.9},
		Scale:         map[string]float64{"legendary": 3},
	}
	got, err := ApplyProbabilities(raw, base)
	require.NoError(t, err)
	assert.Equal(t, 0.9, got[gacha.Common])
	assert.InDelta(t, 0.03, got[gacha.Legendary], 1e-12)
	assert.Equal(t, base[gacha.Rare], got[gacha.Rare])

	_, err = ApplyProbabilities(RawScenario{Scale: map[string]float64{"common": 3}}, base)
	require.ErrorIs(t, err, gacha.ErrInvalidProb)
}

func TestFileWatcherReportsChange(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "probabilities.json", "{}")

	changed := make(chan string, 4)
	w := NewFileWatcher([]string{p}, 10*time.Millisecond, func(path string) { changed <- path })
	w.Start()
	defer w.Stop()

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(p, future, future))

	select {
	case got := <-changed:
		assert.Equal(t, p, got)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report change")
	}
	w.Stop()
}

func TestFileWatcherSeesFilesCreatedLater(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", "simulate:\n  cases: 1\n")

	changed := make(chan string, 8)
	w := NewFileWatcher(nil, 10*time.Millisecond, func(path string) { changed <- path }).
		Glob(filepath.Join(dir, "*.yaml"))
	w.Start()
	defer w.Stop()

	created := writeFile(t, dir, "event.yaml", "simulate:\n  rolls: 3\n")
	select {
	case got := <-changed:
		assert.Equal(t, created, got)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report new file")
	}

	require.NoError(t, os.Remove(created))
	select {
	case got := <-changed:
		assert.Equal(t, created, got)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report removed file")
	}
}

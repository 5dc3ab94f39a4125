package gacha

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProbabilitySet holds the independent per-tier win probabilities.
type ProbabilitySet [NumTiers]float64

// probabilityFile mirrors the persisted record; pointers detect missing fields.
type probabilityFile struct {
	Common     *float64 `json:"common_probability" yaml:"common_probability"`
	Uncommon   *float64 `json:"uncommon_probability" yaml:"uncommon_probability"`
	Rare       *float64 `json:"rare_probability" yaml:"rare_probability"`
	VeryRare   *float64 `json:"very_rare_probability" yaml:"very_rare_probability"`
	Legendary  *float64 `json:"legendary_probability" yaml:"legendary_probability"`
	UltraBeast *float64 `json:"ultra_beast_probability" yaml:"ultra_beast_probability"`
}

func (f *probabilityFile) fields() [NumTiers]**float64 {
	return [NumTiers]**float64{&f.Common, &f.Uncommon, &f.Rare, &f.VeryRare, &f.Legendary, &f.UltraBeast}
}

func (f *probabilityFile) toSet(source string) (ProbabilitySet, error) {
	var ps ProbabilitySet
	var missing []string
	for i, p := range f.fields() {
		if *p == nil {
			missing = append(missing, Tier(i).Key()+"_probability")
			continue
		}
		ps[i] = **p
	}
	if len(missing) > 0 {
		return ProbabilitySet{}, &ParseError{Source: source, Reason: "missing field", Value: strings.Join(missing, ",")}
	}
	if err := ps.Validate(); err != nil {
		return ProbabilitySet{}, fmt.Errorf("%s: %w", source, err)
	}
	return ps, nil
}

func fromSet(ps ProbabilitySet) probabilityFile {
	var f probabilityFile
	for i, p := range f.fields() {
		v := ps[i]
		*p = &v
	}
	return f
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// UnmarshalProbabilities decodes a persisted set. All six fields are required.
func UnmarshalProbabilities(b []byte, asYAML bool, source string) (ProbabilitySet, error) {
	var f probabilityFile
	if asYAML {
		if err := yaml.Unmarshal(b, &f); err != nil {
			return ProbabilitySet{}, fmt.Errorf("decode %s: %w", source, err)
		}
	} else {
		if err := json.Unmarshal(b, &f); err != nil {
			return ProbabilitySet{}, fmt.Errorf("decode %s: %w", source, err)
		}
	}
	return f.toSet(source)
}

// MarshalProbabilities encodes ps as JSON (or YAML).
func MarshalProbabilities(ps ProbabilitySet, asYAML bool) ([]byte, error) {
	f := fromSet(ps)
	if asYAML {
		return yaml.Marshal(&f)
	}
	return json.MarshalIndent(&f, "", "  ")
}

// LoadProbabilities reads a persisted set; format follows the file extension.
func LoadProbabilities(path string) (ProbabilitySet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ProbabilitySet{}, fmt.Errorf("read probabilities: %w", err)
	}
	return UnmarshalProbabilities(b, isYAML(path), path)
}

// SaveProbabilities writes ps to path, JSON unless the extension is .yaml/.yml.
func SaveProbabilities(path string, ps ProbabilitySet) error {
	b, err := MarshalProbabilities(ps, isYAML(path))
	if err != nil {
		return fmt.Errorf("encode probabilities: %w", err)
	}
	if !isYAML(path) {
		b = append(b, '\n')
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write probabilities: %w", err)
	}
	return nil
}

// types.go
package scenario

// Raw scenario loaded from YAML.
//
//	version: "2"
//	simulate:
//	  cases: 200
//	  rolls: 1000
//	  autorelease: true
//	probabilities:      # replace a tier's rate
//	  ultra_beast: 0.001
//	scale:              # multiply a tier's rate
//	  legendary: 2
type RawScenario struct {
	Version       string             `yaml:"version"`
	Simulate      SimulateCfg        `yaml:"simulate"`
	Probabilities map[string]float64 `yaml:"probabilities,omitempty"`
	Scale         map[string]float64 `yaml:"scale,omitempty"`
	Notes         string             `yaml:"notes,omitempty"`
}

type SimulateCfg struct {
	Cases       *int    `yaml:"cases,omitempty"`
	Rolls       *int    `yaml:"rolls,omitempty"`
	Autorelease *bool   `yaml:"autorelease,omitempty"`
	Seed        *uint64 `yaml:"seed,omitempty"`
}

// Resolved is what a simulation run actually uses.
type Resolved struct {
	Name        string
	Version     string // effective scenario version for tracing
	Cases       int
	Rolls       int
	Autorelease bool
	Seed        uint64
}

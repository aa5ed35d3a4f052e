package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ParamsOverlay is a YAML document whose Apply replaces the pool parameters
// and pause switches of a Global, letting parameter updates be expressed
// without rewriting the whole config file. cmd/stakingd does not load an
// overlay; a caller applies one explicitly.
type ParamsOverlay struct {
	Pool   *PoolParams `yaml:"pool"`
	Pauses *Pauses     `yaml:"pauses"`
}

// LoadParamsOverlay reads and parses a YAML overlay file; the merged result
// is validated by Apply. A missing file is not an error: it means no overlay
// is configured.
func LoadParamsOverlay(path string) (*ParamsOverlay, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	overlay := &ParamsOverlay{}
	if err := yaml.Unmarshal(data, overlay); err != nil {
		return nil, err
	}
	return overlay, nil
}

// Apply merges a loaded overlay onto a Global, replacing each section (pool,
// pauses) the overlay sets, and validates the result.
func (o *ParamsOverlay) Apply(g Global) (Global, error) {
	if o == nil {
		return g, nil
	}
	if o.Pool != nil {
		g.Pool = *o.Pool
	}
	if o.Pauses != nil {
		g.Pauses = *o.Pauses
	}
	if err := ValidateConfig(g); err != nil {
		return g, err
	}
	return g, nil
}

// pkg/config/profile.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a YAML pipeline profile. Absent fields leave the environment
// configuration untouched.
type Profile struct {
	GenericEnrichers []string        `yaml:"generic_enrichers"`
	ArgoEnrichers    []string        `yaml:"argo_enrichers"`
	OutputDir        string          `yaml:"output_dir"`
	Detector         *DetectorConfig `yaml:"detector"`
}

// LoadProfile reads a YAML profile from disk
func LoadProfile(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: profile %s: %v", ErrInvalidConfig, path, err)
	}
	return &p, nil
}

// ApplyProfile overlays a profile and re-validates the result
func (c *Config) ApplyProfile(p *Profile) error {
	if p == nil {
		return nil
	}
	if len(p.GenericEnrichers) > 0 {
		c.GenericEnrichers = p.GenericEnrichers
	}
	if len(p.ArgoEnrichers) > 0 {
		c.ArgoEnrichers = p.ArgoEnrichers
	}
	if p.OutputDir != "" {
		c.OutputDir = p.OutputDir
	}
	if p.Detector != nil {
		d := *p.Detector
		if d.ModelPath == "" {
			d.ModelPath = c.Detector.ModelPath
		}
		if d.Contamination == 0 {
			d.Contamination = c.Detector.Contamination
		}
		if d.Trees == 0 {
			d.Trees = c.Detector.Trees
		}
		if d.SampleSize == 0 {
			d.SampleSize = c.Detector.SampleSize
		}
		if d.RandomState == 0 {
			d.RandomState = c.Detector.RandomState
		}
		c.Detector = d
	}
	return c.Validate()
}

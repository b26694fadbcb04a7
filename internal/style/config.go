package style

import (
	"fmt"
	"os"

	"github.com/paulmach/osm"
	"gopkg.in/yaml.v3"
)

// Config selects which converted features are kept, per output kind
type Config struct {
	// Markers filters tagged nodes
	Markers *FilterConfig `yaml:"markers,omitempty"`
	// Paths filters open shapes
	Paths *FilterConfig `yaml:"paths,omitempty"`
	// Areas filters closed shapes, very small ones included
	Areas *FilterConfig `yaml:"areas,omitempty"`

	// DropMetadataOnly removes features whose only tags are editing
	// metadata such as created_by or source
	DropMetadataOnly bool `yaml:"drop_metadata_only,omitempty"`
	// StripKeys are removed from every kept feature
	StripKeys []string `yaml:"strip_keys,omitempty"`
}

// FilterConfig defines filtering rules for one output kind
type FilterConfig struct {
	// Include specifies which tag keys/values to include.
	// If empty, everything is included.
	Include map[string][]string `yaml:"include,omitempty"`
	// Exclude specifies which tag keys/values to exclude.
	// Applied after include rules.
	Exclude map[string][]string `yaml:"exclude,omitempty"`
	// RequireAny specifies that at least one of these keys must be present
	RequireAny []string `yaml:"require_any,omitempty"`
}

// LoadConfig loads a style configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML style document
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse style YAML: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns a configuration that keeps everything
func DefaultConfig() *Config {
	return &Config{}
}

// Filter checks if tags match a FilterConfig
type Filter struct {
	cfg *FilterConfig
}

// NewFilter creates a filter from configuration
func NewFilter(cfg *FilterConfig) *Filter {
	if cfg == nil {
		return &Filter{cfg: &FilterConfig{}}
	}
	return &Filter{cfg: cfg}
}

// Match reports whether a feature with the given tags should be kept
func (f *Filter) Match(tags map[string]string) bool {
	if f.cfg == nil {
		return true
	}

	if len(f.cfg.RequireAny) > 0 {
		found := false
		for _, key := range f.cfg.RequireAny {
			if _, ok := tags[key]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.cfg.Include) > 0 {
		matched := false
		for key, values := range f.cfg.Include {
			if tagValue, ok := tags[key]; ok && valueMatches(values, tagValue) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for key, values := range f.cfg.Exclude {
		if tagValue, ok := tags[key]; ok && valueMatches(values, tagValue) {
			return false
		}
	}

	return true
}

// MatchTags is Match for osm.Tags
func (f *Filter) MatchTags(tags osm.Tags) bool {
	if !f.HasFilter() {
		return true
	}
	return f.Match(tags.Map())
}

// HasFilter returns true if filtering is enabled
func (f *Filter) HasFilter() bool {
	if f.cfg == nil {
		return false
	}
	return len(f.cfg.Include) > 0 || len(f.cfg.Exclude) > 0 || len(f.cfg.RequireAny) > 0
}

// valueMatches treats an empty list or "*" as any value
func valueMatches(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, allowed := range values {
		if allowed == v || allowed == "*" {
			return true
		}
	}
	return false
}

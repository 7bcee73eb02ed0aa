// Package projectconfig provides the ProjectConfig struct and loader for
// .trxlogger.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the project configuration file.
const FileName = ".trxlogger.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultOutputDir     = "TestResults/"
	DefaultIgnoreSkipped = true
)

// OutputConfig controls where reports are written.
type OutputConfig struct {
	Dir      string `yaml:"dir,omitempty"`
	FileName string `yaml:"file_name,omitempty"`
	Archive  *bool  `yaml:"archive,omitempty"`
}

// ResultsConfig controls which results make it into the report.
type ResultsConfig struct {
	IgnoreSkipped *bool `yaml:"ignore_skipped,omitempty"`
}

// MetadataConfig controls where test manifests are looked up.
type MetadataConfig struct {
	Dir string `yaml:"dir,omitempty"`
	// Suffix restricts manifests to one file suffix. Empty means both
	// ".testmeta.yaml" and ".testmeta.json" are tried.
	Suffix string `yaml:"suffix,omitempty"`
}

// Suffixes returns the manifest suffixes to try; nil selects the defaults.
func (m MetadataConfig) Suffixes() []string {
	if m.Suffix == "" {
		return nil
	}
	return []string{m.Suffix}
}

// PublishConfig holds the blob storage destination for reports.
type PublishConfig struct {
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
}

// Enabled reports whether a destination is configured.
func (p PublishConfig) Enabled() bool {
	return p.AccountURL != "" && p.Container != ""
}

// ProjectConfig is the top-level configuration loaded from .trxlogger.yaml.
type ProjectConfig struct {
	Output   OutputConfig   `yaml:"output,omitempty"`
	Results  ResultsConfig  `yaml:"results,omitempty"`
	Metadata MetadataConfig `yaml:"metadata,omitempty"`
	Publish  PublishConfig  `yaml:"publish,omitempty"`
	// Packages maps package import paths to the test binaries built for
	// them, so test metadata can be found next to the binary.
	Packages map[string]string `yaml:"packages,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Output: OutputConfig{
			Dir:     DefaultOutputDir,
			Archive: boolPtr(false),
		},
		Results: ResultsConfig{
			IgnoreSkipped: boolPtr(DefaultIgnoreSkipped),
		},
	}
}

// Load finds .trxlogger.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .trxlogger.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Output
	if src.Output.Dir != "" {
		dst.Output.Dir = src.Output.Dir
	}
	if src.Output.FileName != "" {
		dst.Output.FileName = src.Output.FileName
	}
	if src.Output.Archive != nil {
		dst.Output.Archive = src.Output.Archive
	}

	// Results
	if src.Results.IgnoreSkipped != nil {
		dst.Results.IgnoreSkipped = src.Results.IgnoreSkipped
	}

	// Metadata
	if src.Metadata.Dir != "" {
		dst.Metadata.Dir = src.Metadata.Dir
	}
	if src.Metadata.Suffix != "" {
		dst.Metadata.Suffix = src.Metadata.Suffix
	}

	// Publish
	if src.Publish.AccountURL != "" {
		dst.Publish.AccountURL = src.Publish.AccountURL
	}
	if src.Publish.Container != "" {
		dst.Publish.Container = src.Publish.Container
	}
	if src.Publish.Prefix != "" {
		dst.Publish.Prefix = src.Publish.Prefix
	}

	if len(src.Packages) > 0 {
		dst.Packages = src.Packages
	}
}

func boolPtr(b bool) *bool {
	return &b
}

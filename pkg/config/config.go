package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the qosdecide process configuration
type Config struct {
	Framework FrameworkConfig `yaml:"framework"`
	Downgrade DowngradeConfig `yaml:"downgrade"`
	Reporting ReportingConfig `yaml:"reporting"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// FrameworkConfig contains general process settings
type FrameworkConfig struct {
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DowngradeConfig selects and tunes the downgrade selector used to split
// children between HIPRI and LOPRI.
type DowngradeConfig struct {
	// SelectorType is one of "hashing", "largest-first", "heyp-sigcomm-20",
	// "knapsack".
	SelectorType string `yaml:"selector_type"`

	// VolumeSource is "predicted_demand" or "usage"; ignored by the
	// hashing selector, which doesn't read demand at all.
	VolumeSource string `yaml:"volume_source"`

	// DowngradeJobs rolls children up by (src_dc, dst_dc, job) before
	// selection and fans the per-job decision back out to every host in
	// that job, rather than deciding host by host.
	DowngradeJobs bool `yaml:"downgrade_jobs"`

	// KnapsackTimeLimit bounds the knapsack selector's branch-and-bound
	// search. Zero means no limit. Ignored by other selector types.
	KnapsackTimeLimit time.Duration `yaml:"knapsack_time_limit"`

	// FairnessSolveMethod is "full_sort" or "partial_sort", used by the
	// max-min fair waterlevel allocator.
	FairnessSolveMethod string `yaml:"fairness_solve_method"`

	// EnableTinyFlowOpt sets aside every demand no larger than an even
	// split of capacity before searching for the waterlevel, since such a
	// demand is always fully satisfiable.
	EnableTinyFlowOpt bool `yaml:"enable_tiny_flow_opt"`
}

// ReportingConfig contains logging output settings
type ReportingConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// MetricsConfig contains metrics-exporter settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Version:   "v1",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Downgrade: DowngradeConfig{
			SelectorType:        "heyp-sigcomm-20",
			VolumeSource:        "predicted_demand",
			DowngradeJobs:       false,
			KnapsackTimeLimit:   0,
			FairnessSolveMethod: "partial_sort",
			EnableTinyFlowOpt:   true,
		},
		Reporting: ReportingConfig{
			OutputDir: "./reports",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9100",
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// If no path provided, look for config.yaml in current directory
	if path == "" {
		path = "config.yaml"
	}

	// Return default config if file doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Downgrade.SelectorType {
	case "hashing", "largest-first", "heyp-sigcomm-20", "knapsack":
	default:
		return fmt.Errorf("downgrade.selector_type %q is not one of hashing, largest-first, heyp-sigcomm-20, knapsack", c.Downgrade.SelectorType)
	}

	switch c.Downgrade.VolumeSource {
	case "predicted_demand", "usage":
	default:
		return fmt.Errorf("downgrade.volume_source %q is not one of predicted_demand, usage", c.Downgrade.VolumeSource)
	}

	switch c.Downgrade.FairnessSolveMethod {
	case "full_sort", "partial_sort":
	default:
		return fmt.Errorf("downgrade.fairness_solve_method %q is not one of full_sort, partial_sort", c.Downgrade.FairnessSolveMethod)
	}

	if c.Downgrade.KnapsackTimeLimit < 0 {
		return fmt.Errorf("downgrade.knapsack_time_limit must not be negative")
	}

	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}

	return nil
}

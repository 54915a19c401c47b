package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "PACKREPAIR_CONFIG"

//go:embed default.json
var defaultConfig []byte

type (
	// Substitution rewrites a legacy root prefix found at the start of a reference.
	Substitution struct {
		Prefix      string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
		Replacement string `mapstructure:"replacement" json:"replacement" yaml:"replacement"`
	}
	ResolverConfig struct {
		MaxPathParts      int            `mapstructure:"max_path_parts" json:"max_path_parts" yaml:"max_path_parts"`
		MaxBackStep       int            `mapstructure:"max_back_step" json:"max_back_step" yaml:"max_back_step"`
		MaxForwardStep    int            `mapstructure:"max_forward_step" json:"max_forward_step" yaml:"max_forward_step"`
		RootSubstitutions []Substitution `mapstructure:"root_substitutions" json:"root_substitutions" yaml:"root_substitutions"`
	}
	// ExtensionRule maps a key pattern to the extensions its values may omit.
	// An empty Extensions list means "no extension expected".
	ExtensionRule struct {
		Key        string   `mapstructure:"key" json:"key" yaml:"key"`
		Extensions []string `mapstructure:"extensions" json:"extensions" yaml:"extensions"`
	}
	// NonPathRule decides whether a key may hold a path. Pattern is an exact
	// key unless Regex is set.
	NonPathRule struct {
		Pattern string `mapstructure:"pattern" json:"pattern" yaml:"pattern"`
		Regex   bool   `mapstructure:"regex" json:"regex" yaml:"regex"`
		Exclude bool   `mapstructure:"exclude" json:"exclude" yaml:"exclude"`
	}
	PropertiesConfig struct {
		ExpectedExtensions []ExtensionRule `mapstructure:"expected_extensions" json:"expected_extensions" yaml:"expected_extensions"`
		ExcludedPaths      []string        `mapstructure:"excluded_paths" json:"excluded_paths" yaml:"excluded_paths"`
		NonPathRules       []NonPathRule   `mapstructure:"non_path_rules" json:"non_path_rules" yaml:"non_path_rules"`
	}
	// Config is the validated, typed configuration of one packrepair process.
	// It is built once at startup and not mutated afterwards.
	Config struct {
		OutputPath string           `mapstructure:"output_path" json:"output_path" yaml:"output_path"`
		WorkDir    string           `mapstructure:"work_dir" json:"work_dir" yaml:"work_dir"`
		Workers    int              `mapstructure:"workers" json:"workers" yaml:"workers"`
		LogFile    string           `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
		Resolver   ResolverConfig   `mapstructure:"resolver" json:"resolver" yaml:"resolver"`
		Properties PropertiesConfig `mapstructure:"properties" json:"properties" yaml:"properties"`

		file string
	}
)

// Default returns the built-in configuration.
func Default() (*Config, error) {
	v, err := defaults()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Load reads the configuration. An explicit file (or $PACKREPAIR_CONFIG) must
// exist; otherwise packrepair.{json,yaml,toml} is looked up in ".", "./config"
// and "$HOME/.packrepair". Values not set by the file keep their defaults, and
// PACKREPAIR_* environment variables override scalar settings.
func Load(file string) (*Config, error) {
	v, err := defaults()
	if err != nil {
		return nil, err
	}
	v.SetEnvPrefix("PACKREPAIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		file = os.Getenv(EnvConfig)
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("packrepair")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.AddConfigPath("$HOME/.packrepair")
	}

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config: %w", ErrInvalidConfig, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.file = v.ConfigFileUsed()
	return cfg, nil
}

// File returns the config file that was merged over the defaults, if any.
func (c *Config) File() string {
	return c.file
}

func defaults() (*viper.Viper, error) {
	dv := viper.New()
	dv.SetConfigType("json")
	if err := dv.ReadConfig(bytes.NewReader(defaultConfig)); err != nil {
		return nil, fmt.Errorf("reading built-in config: %w", err)
	}
	v := viper.New()
	for key, value := range dv.AllSettings() {
		v.SetDefault(key, value)
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks bounds and rule shapes. Regex syntax is checked by Compile.
func (c *Config) Validate() error {
	var problems []string
	if c.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be positive, got %d", c.Workers))
	}
	if c.Resolver.MaxPathParts < 1 {
		problems = append(problems, "resolver.max_path_parts must be positive")
	}
	if c.Resolver.MaxBackStep < 0 || c.Resolver.MaxForwardStep < 0 {
		problems = append(problems, "resolver step bounds must not be negative")
	}
	for i, s := range c.Resolver.RootSubstitutions {
		if s.Prefix == "" {
			problems = append(problems, fmt.Sprintf("resolver.root_substitutions[%d] has an empty prefix", i))
		}
	}
	for i, r := range c.Properties.ExpectedExtensions {
		if r.Key == "" {
			problems = append(problems, fmt.Sprintf("properties.expected_extensions[%d] has an empty key", i))
		}
		for _, ext := range r.Extensions {
			if !strings.HasPrefix(ext, ".") {
				problems = append(problems, fmt.Sprintf("extension %q for key %q must start with a dot", ext, r.Key))
			}
		}
	}
	for i, r := range c.Properties.NonPathRules {
		if r.Pattern == "" {
			problems = append(problems, fmt.Sprintf("properties.non_path_rules[%d] has an empty pattern", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

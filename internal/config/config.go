// SPDX-License-Identifier: MPL-2.0

// Package config holds the bundler configuration. Everything needed for a
// run is compiled in; a TOML file or NIMBUS_BUNDLER_* environment variables
// can override individual values.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"nimbus-bundler/internal/fetch"
	"nimbus-bundler/internal/runner"
)

// Runtime selects how command lines are executed.
const (
	RuntimeNative  = "native"  // host shell
	RuntimeVirtual = "virtual" // embedded shell interpreter (mvdan/sh)
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "NIMBUS_BUNDLER"

// configFileName is the optional override file looked up in the working
// directory when --config is not given (bundler.toml).
const configFileName = "bundler"

// Config is the full configuration of a bundle run.
type Config struct {
	// Product names the final artifacts (<product>-bundle.zip).
	Product string `mapstructure:"product" toml:"product"`
	// ProjectRoot is the target project's source tree.
	ProjectRoot string `mapstructure:"project_root" toml:"project_root"`
	// ProjectName prefixes the project's own archive filename.
	ProjectName string `mapstructure:"project_name" toml:"project_name"`
	// Python is the interpreter used for virtualenv creation and sdist builds.
	Python string `mapstructure:"python" toml:"python"`
	// Pip is the dependency-fetch executable.
	Pip string `mapstructure:"pip" toml:"pip"`
	// Virtualenv is the isolated-environment executable.
	Virtualenv string `mapstructure:"virtualenv" toml:"virtualenv"`
	// OutputDir is where the scratch workspace and final bundle are created.
	OutputDir string `mapstructure:"output_dir" toml:"output_dir"`
	// InstallerScript overrides the installer path. Empty resolves the
	// script shipped next to the bundler executable.
	InstallerScript string `mapstructure:"installer_script" toml:"installer_script"`
	// Runtime is RuntimeNative or RuntimeVirtual.
	Runtime string `mapstructure:"runtime" toml:"runtime"`
	// StrictVersions switches the precondition gate to a true semantic
	// version comparison instead of the historical loose rule.
	StrictVersions bool `mapstructure:"strict_versions" toml:"strict_versions"`
	// BootstrapPackages are downloaded into packages/.
	BootstrapPackages []string `mapstructure:"bootstrap_packages" toml:"bootstrap_packages"`
	// SetupPackages are downloaded into packages/setup/.
	SetupPackages []string `mapstructure:"setup_packages" toml:"setup_packages"`
	// PinnedVersions maps every bootstrap package name to its pinned version.
	PinnedVersions fetch.Registry `mapstructure:"pinned_versions" toml:"pinned_versions"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Product:           "nimbus",
		ProjectRoot:       ".",
		ProjectName:       "nimbus",
		Python:            "python3",
		Pip:               "pip",
		Virtualenv:        "virtualenv",
		OutputDir:         ".",
		Runtime:           RuntimeNative,
		BootstrapPackages: []string{"pip", "virtualenv", "setuptools", "wheel"},
		SetupPackages:     []string{"setuptools-scm"},
		PinnedVersions:    fetch.DefaultRegistry(),
	}
}

// Load returns the compiled-in defaults overlaid with values from an
// optional TOML file and NIMBUS_BUNDLER_* environment variables. An explicit
// path must exist; the implicit bundler.toml in the working directory is
// optional.
func Load(path string) (Config, error) {
	defaults := Default()

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// Register defaults so environment-only overrides are visible to Unmarshal.
	v.SetDefault("product", defaults.Product)
	v.SetDefault("project_root", defaults.ProjectRoot)
	v.SetDefault("project_name", defaults.ProjectName)
	v.SetDefault("python", defaults.Python)
	v.SetDefault("pip", defaults.Pip)
	v.SetDefault("virtualenv", defaults.Virtualenv)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("installer_script", defaults.InstallerScript)
	v.SetDefault("runtime", defaults.Runtime)
	v.SetDefault("strict_versions", defaults.StrictVersions)
	v.SetDefault("bootstrap_packages", defaults.BootstrapPackages)
	v.SetDefault("setup_packages", defaults.SetupPackages)
	v.SetDefault("pinned_versions", map[string]string(defaults.PinnedVersions))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return defaults, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return defaults, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return defaults, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Runtime {
	case RuntimeNative, RuntimeVirtual:
	default:
		return fmt.Errorf("invalid runtime %q: must be %q or %q", c.Runtime, RuntimeNative, RuntimeVirtual)
	}
	for _, name := range append(append([]string{}, c.BootstrapPackages...), c.SetupPackages...) {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("empty package name in bootstrap configuration")
		}
	}
	return nil
}

// NewRunner constructs the command runner selected by Runtime.
func (c Config) NewRunner(logger *log.Logger) runner.Runner {
	if c.Runtime == RuntimeVirtual {
		return runner.NewVirtualRunner(logger)
	}
	return runner.NewShellRunner(logger)
}

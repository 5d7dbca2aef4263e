package migration

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"github.com/weiplanet/docmigrate"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
	"go.uber.org/zap"
)

// EnvPrefix is the prefix of the environment variables overriding the config.
const EnvPrefix = "DOCMIGRATE"

// Config configures the runner of migration jobs.
type Config struct {
	PageSize      int    `toml:"page-size" mapstructure:"page-size"`
	Concurrency   int    `toml:"concurrency" mapstructure:"concurrency"`
	TargetVersion string `toml:"target-version" mapstructure:"target-version"`
	Schema        string `toml:"schema" mapstructure:"schema"`

	// Collections are the configurable collections added to the system
	// collections of the manifest.
	Collections []docmigrate.Collection `toml:"collections" mapstructure:"collections"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		PageSize: DefaultPageSize,
		Schema:   DefaultSchema,
	}
}

// LoadConfig reads c from v. Keys not set in v keep their default and can be
// overridden by DOCMIGRATE_ environment variables, e.g. DOCMIGRATE_PAGE_SIZE.
func LoadConfig(v *viper.Viper) (Config, error) {
	c := NewConfig()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("page-size", c.PageSize)
	v.SetDefault("concurrency", c.Concurrency)
	v.SetDefault("target-version", c.TargetVersion)
	v.SetDefault("schema", c.Schema)

	if err := v.Unmarshal(&c); err != nil {
		return c, &ierrors.Error{
			Code: ierrors.EInvalid,
			Msg:  "unable to decode migration config",
			Err:  err,
		}
	}
	return c, c.Validate()
}

// ParseConfig decodes a TOML document over the defaults.
func ParseConfig(s string) (Config, error) {
	c := NewConfig()
	if _, err := toml.Decode(s, &c); err != nil {
		return c, &ierrors.Error{
			Code: ierrors.EInvalid,
			Msg:  "unable to decode migration config",
			Err:  err,
		}
	}
	return c, c.Validate()
}

// Validate returns an error if the config is invalid.
func (c Config) Validate() error {
	if c.PageSize < 1 {
		return &ierrors.Error{Code: ierrors.EInvalid, Msg: "page-size must be positive"}
	}
	if c.Concurrency < 0 {
		return &ierrors.Error{Code: ierrors.EInvalid, Msg: "concurrency must not be negative"}
	}
	return nil
}

// Manifest returns the manifest of the system collections and the configured collections.
func (c Config) Manifest() (*Manifest, error) {
	return DefaultManifest(c.Collections...)
}

// NewRunner returns a runner configured by c.
func (c Config) NewRunner(log *zap.Logger, opts ...RunnerOption) (*Runner, error) {
	m, err := c.Manifest()
	if err != nil {
		return nil, err
	}
	opts = append([]RunnerOption{
		WithPageSize(c.PageSize),
		WithConcurrency(c.Concurrency),
		WithSchema(c.Schema),
	}, opts...)
	return NewRunner(log, m, opts...), nil
}

// NewUpgrader returns an upgrader of registry driving a runner configured
// by c, stopping at TargetVersion when it is set.
func (c Config) NewUpgrader(log *zap.Logger, registry *Registry, tenant docmigrate.DocumentStore, control docmigrate.ControlStore, opts ...RunnerOption) (*Upgrader, error) {
	runner, err := c.NewRunner(log, opts...)
	if err != nil {
		return nil, err
	}
	return NewUpgrader(log, registry, runner, tenant, control).WithTarget(c.TargetVersion), nil
}

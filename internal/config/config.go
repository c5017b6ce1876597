// Package config loads cellflowd's configuration from flags,
// environment variables, a config file, and defaults, in that order
// of precedence — the same layering and CELLFLOW_<SECTION>_<KEY>
// environment convention as marmos91-dittofs/pkg/config, scaled down
// to this server's much smaller configuration surface.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is cellflowd's full runtime configuration.
type Config struct {
	// Listen is the address the websocket server binds to, e.g. ":8080".
	Listen string `mapstructure:"listen"`

	Logging LoggingConfig `mapstructure:"logging"`

	// DemoSeed, when true, pre-populates a handful of cells on startup
	// so a freshly connected client has something to look at.
	DemoSeed bool `mapstructure:"demo_seed"`
}

// LoggingConfig controls log output, mirroring internal/logging.Config.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

const envPrefix = "CELLFLOW"

// Load builds a *Config from, in increasing priority: built-in
// defaults, an optional config file at path (skipped if path is
// empty and no default-named file is found), and CELLFLOW_* / bound
// flag values via v. Pass a *viper.Viper with flags already bound
// (cmd/cellflowd/commands binds them with BindPFlag) so cobra flag
// values take precedence over the file
// and environment, or nil to use a fresh instance with no flags.
func Load(path string, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("listen", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("demo_seed", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %q: %w", path, err)
		}
	} else {
		v.SetConfigName("cellflow")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/cellflow")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("config: reading default config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

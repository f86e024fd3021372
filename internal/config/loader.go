package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/DeusData/joi-to-zod/internal/discover"
)

// configName is the config file name without extension.
const configName = ".joizod"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for joi-to-zod settings.
const envPrefix = "JOIZOD"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("include", []string{"**/*"})
	v.SetDefault("exclude", append([]string(nil), discover.DefaultExclude...))
	v.SetDefault("dry_run", false)
	v.SetDefault("parallel", DefaultParallel)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("inline_constants", false)
	v.SetDefault("file_timeout", "0s")
	v.SetDefault("journal", "")
	v.SetDefault("mapping_file", DefaultMappingFile)
	v.SetDefault("target_alias", DefaultTargetAlias)
}

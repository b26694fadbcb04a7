package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides: OSMSHAPES_DB_HOST sets db_host
const EnvPrefix = "OSMSHAPES"

// Load overlays a config file and environment variables on base.
// With an empty path, "osmshapes.yaml" is looked up in . and ./configs and
// may be missing; an explicit path must exist.
func Load(path string, base *Config) (*Config, error) {
	if base == nil {
		base = DefaultConfig()
	}

	v := viper.New()

	// Defaults come from base so flags keep their values
	v.SetDefault("input_files", base.InputFiles)
	v.SetDefault("input_format", base.InputFormat)
	v.SetDefault("output_dir", base.OutputDir)
	v.SetDefault("output_format", base.OutputFormat)
	v.SetDefault("style_file", base.StyleFile)
	v.SetDefault("lua_script", base.LuaScript)
	v.SetDefault("small_extent", base.SmallExtent)
	v.SetDefault("view_width", base.ViewWidth)
	v.SetDefault("view_height", base.ViewHeight)
	v.SetDefault("overpass_url", base.OverpassURL)
	v.SetDefault("overpass_timeout", base.OverpassTimeout)
	v.SetDefault("overpass_retries", base.OverpassRetries)
	v.SetDefault("user_agent", base.UserAgent)
	v.SetDefault("db_host", base.DBHost)
	v.SetDefault("db_port", base.DBPort)
	v.SetDefault("db_name", base.DBName)
	v.SetDefault("db_user", base.DBUser)
	v.SetDefault("db_password", base.DBPassword)
	v.SetDefault("db_schema", base.DBSchema)
	v.SetDefault("table_prefix", base.TablePrefix)
	v.SetDefault("workers", base.Workers)
	v.SetDefault("batch_size", base.BatchSize)
	v.SetDefault("listen_addr", base.ListenAddr)
	v.SetDefault("body_limit", base.BodyLimit)
	v.SetDefault("read_timeout", base.ReadTimeout)
	v.SetDefault("write_timeout", base.WriteTimeout)
	v.SetDefault("verbose", base.Verbose)
	v.SetDefault("log_file", base.LogFile)
	v.SetDefault("metrics_interval", base.MetricsInterval)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("osmshapes")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := *base
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.BBox = base.BBox

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

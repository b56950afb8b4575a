// Package config loads the trellis server configuration from defaults, an
// optional config file, TRELLIS_* environment variables and command-line
// flags.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "TRELLIS"

type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct.
type Config struct {
	Env    string       `mapstructure:"env" validate:"required,oneof=dev development prod production test"`
	Server ServerConfig `mapstructure:"server"`
	Static StaticConfig `mapstructure:"static"`
	Log    LogConfig    `mapstructure:"log"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Auth   AuthConfig   `mapstructure:"auth"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address" validate:"required,hostname_port"`
	Engine          string        `mapstructure:"engine" validate:"required,oneof=gin echo fiber chi"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// StaticConfig holds the static file mount. An empty Dir disables it.
type StaticConfig struct {
	Path string `mapstructure:"path" validate:"required,startswith=/"`
	Dir  string `mapstructure:"dir"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Diagnostics string `mapstructure:"diagnostics" validate:"required,oneof=silent error warn info verbose"`
}

// CORSConfig holds cross-origin settings applied by the serve command.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

// AuthConfig holds the signing settings of the demo user tokens. An empty
// Secret makes the server generate one per process.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
}

// Enabled reports whether any origin is allowed.
func (c CORSConfig) Enabled() bool {
	return len(c.AllowedOrigins) > 0
}

// IsProduction reports whether the config targets production.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"addr":             "server.address",
	"engine":           "server.engine",
	"shutdown-timeout": "server.shutdown_timeout",
	"static-path":      "static.path",
	"static-dir":       "static.dir",
	"log-level":        "log.level",
	"diagnostics":      "log.diagnostics",
	"cors-origins":     "cors.allowed_origins",
	"token-ttl":        "auth.token_ttl",
}

// bindFlags binds explicitly set flags to their viper keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToViperKey[f.Name]
		if !ok {
			key = f.Name
		}
		if f.Changed {
			_ = v.BindPFlag(key, f)
		}
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.engine", "gin")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("static.path", "/")
	v.SetDefault("static.dir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.diagnostics", "info")

	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
}

// Load reads configuration and returns a validated Config.
// Order of precedence (highest to lowest): flags > env > config file > defaults
//
// configFile may be empty, in which case ./trellis.yaml is read if present.
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("trellis")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Package config loads the loginform settings from .env files, an optional
// YAML file, LOGINFORM_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goliatone/go-loginform/pkg/controller"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

// EnvPrefix prefixes every environment variable, e.g. LOGINFORM_AUTH_ENDPOINT.
const EnvPrefix = "LOGINFORM"

// Auth modes.
const (
	AuthModeHTTP  = "http"
	AuthModeLocal = "local"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the full settings tree.
type Config struct {
	Auth   AuthConfig   `mapstructure:"auth"`
	Screen ScreenConfig `mapstructure:"screen"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// AuthConfig selects the authenticator behind the screen.
type AuthConfig struct {
	Mode      string        `mapstructure:"mode"`
	Endpoint  string        `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UsersFile string        `mapstructure:"users_file"`
}

// ScreenConfig tunes the login screen.
type ScreenConfig struct {
	LoadingWindow time.Duration `mapstructure:"loading_window"`
	LoadingPolicy string        `mapstructure:"loading_policy"`
	CellHeight    int           `mapstructure:"cell_height"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
}

// ServerConfig configures the development login API.
type ServerConfig struct {
	Addr      string        `mapstructure:"addr"`
	Secret    string        `mapstructure:"secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	UsersFile string        `mapstructure:"users_file"`
	Latency   time.Duration `mapstructure:"latency"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit YAML path. When empty, loginform.yaml is
	// searched in the working directory and $HOME/.loginform.
	ConfigFile string
	// EnvFiles are loaded with godotenv; missing files are skipped. Defaults
	// to ".env".
	EnvFiles []string
	// Flags, when set, override file and environment values for every flag
	// named in FlagKeys that was set explicitly.
	Flags *pflag.FlagSet
}

// FlagKeys maps CLI flag names to configuration keys.
var FlagKeys = map[string]string{
	"auth-mode":      "auth.mode",
	"endpoint":       "auth.endpoint",
	"timeout":        "auth.timeout",
	"users":          "auth.users_file",
	"loading-window": "screen.loading_window",
	"loading-policy": "screen.loading_policy",
	"cell-height":    "screen.cell_height",
	"max-attempts":   "screen.max_attempts",
	"addr":           "server.addr",
	"secret":         "server.secret",
	"token-ttl":      "server.token_ttl",
	"server-users":   "server.users_file",
	"latency":        "server.latency",
	"log-level":      "log.level",
	"dev":            "log.development",
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Auth: AuthConfig{
			Mode:     AuthModeHTTP,
			Endpoint: "http://127.0.0.1:8080/login",
			Timeout:  10 * time.Second,
		},
		Screen: ScreenConfig{
			LoadingWindow: controller.DefaultLoadingWindow,
			LoadingPolicy: string(controller.LoadingFixedWindow),
			CellHeight:    viewport.DefaultCellHeight,
		},
		Server: ServerConfig{
			Addr:      "127.0.0.1:8080",
			TokenTTL:  time.Hour,
			UsersFile: "users.yaml",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("auth.mode", d.Auth.Mode)
	v.SetDefault("auth.endpoint", d.Auth.Endpoint)
	v.SetDefault("auth.timeout", d.Auth.Timeout)
	v.SetDefault("auth.users_file", d.Auth.UsersFile)
	v.SetDefault("screen.loading_window", d.Screen.LoadingWindow)
	v.SetDefault("screen.loading_policy", d.Screen.LoadingPolicy)
	v.SetDefault("screen.cell_height", d.Screen.CellHeight)
	v.SetDefault("screen.max_attempts", d.Screen.MaxAttempts)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.secret", d.Server.Secret)
	v.SetDefault("server.token_ttl", d.Server.TokenTTL)
	v.SetDefault("server.users_file", d.Server.UsersFile)
	v.SetDefault("server.latency", d.Server.Latency)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

// Load resolves the configuration. It does not validate; callers validate
// the sections their command uses.
func Load(opts Options) (Config, error) {
	envFiles := opts.EnvFiles
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("loginform")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".loginform"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("config: bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings used by the login screen.
func (c AuthConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case AuthModeHTTP:
		if strings.TrimSpace(c.Endpoint) == "" {
			return fmt.Errorf("%w: auth.endpoint is required in http mode", ErrInvalidConfig)
		}
	case AuthModeLocal:
		if strings.TrimSpace(c.UsersFile) == "" {
			return fmt.Errorf("%w: auth.users_file is required in local mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown auth.mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: auth.timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the screen settings.
func (c ScreenConfig) Validate() error {
	if _, err := controller.ParseLoadingPolicy(c.LoadingPolicy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.LoadingWindow <= 0 {
		return fmt.Errorf("%w: screen.loading_window must be positive", ErrInvalidConfig)
	}
	if c.CellHeight <= 0 {
		return fmt.Errorf("%w: screen.cell_height must be positive", ErrInvalidConfig)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("%w: screen.max_attempts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the development server settings.
func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("%w: server.secret is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.UsersFile) == "" {
		return fmt.Errorf("%w: server.users_file is required", ErrInvalidConfig)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: server.token_ttl must be positive", ErrInvalidConfig)
	}
	return nil
}

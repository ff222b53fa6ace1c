// Package config provides configuration management for the ephemvid client.
// Values are layered: defaults, an optional YAML file, a .env file, EPHEMVID_*
// environment variables and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultLogLevel      = "info"
	DefaultDataDir       = ".ephemvid"
	DefaultPort          = 8797
	DefaultMaxBatchFiles = 10
	DefaultMaxFileMiB    = 200
	DefaultIdentityTTL   = 24 * time.Hour
	DefaultPollInterval  = 30 * time.Second

	// EnvPrefix is prepended to every key when read from the environment,
	// e.g. EPHEMVID_BASE_URL.
	EnvPrefix = "EPHEMVID"

	// EnvConfigFile names an optional YAML config file.
	EnvConfigFile = "EPHEMVID_CONFIG"

	// Database filename
	DBFilename = "ephemvid.db"

	bytesPerMiB = 1024 * 1024
)

// Keys understood by the loader.
const (
	KeyBaseURL       = "base_url"
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
	KeyDataDir       = "data_dir"
	KeyMaxBatchFiles = "max_batch_files"
	KeyMaxFileMiB    = "max_file_mib"
	KeyAllowedTypes  = "allowed_types"
	KeyIdentityTTL   = "identity_ttl"
	KeyPort          = "port"
	KeyDropDir       = "drop_dir"
	KeyPollInterval  = "poll_interval"
	KeyHeadless      = "headless"
)

// DefaultAllowedTypes is the upload allow-list: MP4, QuickTime and WebM containers.
var DefaultAllowedTypes = []string{"video/mp4", "video/quicktime", "video/webm"}

// Config defines the application configuration interface
type Config interface {
	BaseURL() string
	LogLevel() string
	LogFile() string
	DataDir() string
	DBPath() string
	MaxBatchFiles() int
	MaxFileBytes() int64
	AllowedTypes() []string
	IdentityTTL() time.Duration
	Port() int
	DropDir() string
	PollInterval() time.Duration
	Headless() bool
}

type settings struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	LogLevel      string        `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFile       string        `mapstructure:"log_file"`
	DataDir       string        `mapstructure:"data_dir" validate:"required"`
	MaxBatchFiles int           `mapstructure:"max_batch_files" validate:"gte=1"`
	MaxFileMiB    int64         `mapstructure:"max_file_mib" validate:"gte=1"`
	AllowedTypes  []string      `mapstructure:"allowed_types" validate:"min=1,dive,required"`
	IdentityTTL   time.Duration `mapstructure:"identity_ttl" validate:"gt=0"`
	Port          int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	DropDir       string        `mapstructure:"drop_dir"`
	PollInterval  time.Duration `mapstructure:"poll_interval" validate:"gte=0"`
	Headless      bool          `mapstructure:"headless"`
}

// ViperConfig is the Config implementation backed by viper.
type ViperConfig struct {
	s settings
}

// RegisterFlags adds the global flags to fs. Flags that are left unset do
// not override lower layers.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String(flagName(KeyBaseURL), "", "backend base URL")
	fs.String(flagName(KeyLogLevel), "", "log level (debug, info, warn, error)")
	fs.String(flagName(KeyDataDir), "", "directory holding the local state database")
}

// RegisterAgentFlags adds the flags only the agent command understands.
func RegisterAgentFlags(fs *pflag.FlagSet) {
	fs.String(flagName(KeyLogFile), "", "also write logs to this rotating file")
	fs.Int(flagName(KeyPort), DefaultPort, "local control API port")
	fs.String(flagName(KeyDropDir), "", "watch this folder and upload files dropped into it")
	fs.Duration(flagName(KeyPollInterval), DefaultPollInterval, "roster refresh interval (0 disables)")
	fs.Bool(flagName(KeyHeadless), false, "run without the system tray")
}

// flagName maps a config key to its command-line spelling.
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// New loads configuration. flags may be nil.
func New(flags *pflag.FlagSet) (*ViperConfig, error) {
	// A missing .env is normal; anything else is worth surfacing.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyDataDir, defaultDataDir())
	v.SetDefault(KeyMaxBatchFiles, DefaultMaxBatchFiles)
	v.SetDefault(KeyMaxFileMiB, DefaultMaxFileMiB)
	v.SetDefault(KeyAllowedTypes, DefaultAllowedTypes)
	v.SetDefault(KeyIdentityTTL, DefaultIdentityTTL)
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyDropDir, "")
	v.SetDefault(KeyPollInterval, DefaultPollInterval)
	v.SetDefault(KeyHeadless, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	configFile := os.Getenv(EnvConfigFile)
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for _, key := range []string{KeyBaseURL, KeyLogLevel, KeyDataDir, KeyLogFile, KeyPort, KeyDropDir, KeyHeadless, KeyPollInterval} {
			if f := flags.Lookup(flagName(key)); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", key, err)
				}
			}
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")

	if err := validator.New().Struct(s); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &ViperConfig{s: s}, nil
}

// BaseURL returns the backend base URL without a trailing slash
func (c *ViperConfig) BaseURL() string {
	return c.s.BaseURL
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *ViperConfig) LogLevel() string {
	return c.s.LogLevel
}

// LogFile returns the optional rotating log file path
func (c *ViperConfig) LogFile() string {
	return c.s.LogFile
}

// DataDir returns the data directory path
func (c *ViperConfig) DataDir() string {
	return c.s.DataDir
}

// DBPath returns the full path to the SQLite database file
func (c *ViperConfig) DBPath() string {
	return filepath.Join(c.s.DataDir, DBFilename)
}

// MaxBatchFiles returns the largest batch accepted in one submission
func (c *ViperConfig) MaxBatchFiles() int {
	return c.s.MaxBatchFiles
}

// MaxFileBytes returns the per-file upload limit in bytes (binary megabytes)
func (c *ViperConfig) MaxFileBytes() int64 {
	return c.s.MaxFileMiB * bytesPerMiB
}

func (c *ViperConfig) AllowedTypes() []string {
	out := make([]string, len(c.s.AllowedTypes))
	copy(out, c.s.AllowedTypes)
	return out
}

// IdentityTTL returns how long a fingerprint cookie stays valid
func (c *ViperConfig) IdentityTTL() time.Duration {
	return c.s.IdentityTTL
}

// Port returns the local control API port (agent mode)
func (c *ViperConfig) Port() int {
	return c.s.Port
}

// DropDir returns the watched drop folder; empty disables watching
func (c *ViperConfig) DropDir() string {
	return c.s.DropDir
}

// PollInterval returns the roster refresh interval in agent mode; zero disables polling
func (c *ViperConfig) PollInterval() time.Duration {
	return c.s.PollInterval
}

func (c *ViperConfig) Headless() bool {
	return c.s.Headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

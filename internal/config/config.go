// Package config resolves safelist settings from defaults, an optional
// safelist.yaml file and SAFELIST_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Setting keys
const (
	KeyPath       = "path"
	KeyBackend    = "backend"
	KeyBcryptCost = "bcrypt_cost"
	KeyLogLevel   = "log_level"
	KeyKeyring    = "keyring"
)

const (
	EnvPrefix      = "SAFELIST"
	DefaultPath    = "data.json"
	configFileName = "safelist"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the resolved settings
type Config struct {
	// Path is the vault file location.
	Path string
	// Backend is auto, json or bolt.
	Backend string
	// BcryptCost is the cost for new password and secret hashes.
	BcryptCost int
	// LogLevel is a zap level name, or off.
	LogLevel string
	// Keyring enables reading and offering to store the password in the OS keyring.
	Keyring bool
	// File is the config file that was read, if any.
	File string
}

// Load reads settings. Config files are searched in dirs, or in the
// working directory and the user config directory when dirs is empty.
// SAFELIST_CONFIG names an explicit file.
func Load(dirs ...string) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyPath, DefaultPath)
	v.SetDefault(KeyBackend, "auto")
	v.SetDefault(KeyBcryptCost, bcrypt.DefaultCost)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyKeyring, true)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if file := os.Getenv(EnvPrefix + "_CONFIG"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		if len(dirs) == 0 {
			dirs = defaultDirs()
		}
		for _, dir := range dirs {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	cfg := &Config{
		Path:       v.GetString(KeyPath),
		Backend:    v.GetString(KeyBackend),
		BcryptCost: v.GetInt(KeyBcryptCost),
		LogLevel:   v.GetString(KeyLogLevel),
		Keyring:    v.GetBool(KeyKeyring),
		File:       v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDirs() []string {
	dirs := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "safelist"))
	}
	return dirs
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, KeyPath)
	}
	switch c.Backend {
	case "auto", "json", "bolt":
	default:
		return fmt.Errorf("%w: %s must be auto, json or bolt, got %q", ErrInvalidConfig, KeyBackend, c.Backend)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: %s must be in %d..%d, got %d", ErrInvalidConfig, KeyBcryptCost, bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return nil
}

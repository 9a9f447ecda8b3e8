// Package config loads trackmate server configuration from defaults, an
// optional yaml file, .env files and TM_* environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

// Config holds all configuration for the server.
type Config struct {
	DevMode  bool   `mapstructure:"devMode"`
	LogLevel string `mapstructure:"logLevel"`
	Server   struct {
		Port        int `mapstructure:"port"`
		MaxPageSize int `mapstructure:"maxPageSize"`
	} `mapstructure:"server"`
	Store struct {
		Driver string `mapstructure:"driver"` // sqlite or firestore
	} `mapstructure:"store"`
	Database struct {
		Path string `mapstructure:"path"` // empty = db.DefaultPath()
	} `mapstructure:"database"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
}

// FirestoreConfig holds Firestore project and credential settings.
type FirestoreConfig struct {
	ProjectID   string `mapstructure:"projectID"`
	CredsFile   string `mapstructure:"credsFile"`
	CredsBase64 string `mapstructure:"credsBase64"`
}

// Load reads configuration. dir, when non-empty, is searched first for
// trackmate.yaml.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("devMode", false)
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.maxPageSize", 200)
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("database.path", "")

	v.SetConfigName("trackmate")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/tm")
	v.AddConfigPath("/etc/trackmate")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("TM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, Config{})
	_ = v.BindEnv("logLevel", "TM_LOG_LEVEL", "TM_LOGLEVEL")
	_ = v.BindEnv("devMode", "TM_DEV_MODE", "TM_DEVMODE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected store has what it needs.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverFirestore:
		if c.Firestore.ProjectID == "" {
			return errors.New("firestore.projectID is required for the firestore store")
		}
		if c.Firestore.CredsFile == "" && c.Firestore.CredsBase64 == "" {
			return errors.New("provide firestore.credsFile or firestore.credsBase64 for the firestore store")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}
	return nil
}

// CredentialsJSON returns the service account JSON and which source it came from.
func (c FirestoreConfig) CredentialsJSON() ([]byte, string, error) {
	if c.CredsBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(c.CredsBase64)
		if err != nil {
			return nil, "base64", fmt.Errorf("decoding firestore credentials: %w", err)
		}
		return decoded, "base64", nil
	}
	if c.CredsFile != "" {
		data, err := os.ReadFile(c.CredsFile)
		if err != nil {
			return nil, "file", fmt.Errorf("reading firestore credentials: %w", err)
		}
		return data, "file", nil
	}
	return nil, "", errors.New("no firestore credentials configured")
}

// LoadDotEnv loads the given .env files into the environment, skipping files
// that do not exist. Variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// bindEnvs recursively binds every mapstructure key so Unmarshal sees env values.
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(append([]string{}, parts...), tag)
		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(strings.Join(path, "."))
	}
}

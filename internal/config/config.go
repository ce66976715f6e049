package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// EnvPrefix prefixes every environment override, e.g. RATEBOOK_DATABASE_DSN.
const EnvPrefix = "RATEBOOK"

// ---- Root ----

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Export    ExportConfig    `mapstructure:"export"`
	Import    ImportConfig    `mapstructure:"import"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Storage back ends.
const (
	BackendSQL  = "sql"
	BackendFile = "file"
)

type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	DataDir       string `mapstructure:"data_dir"`
	ConstantsFile string `mapstructure:"constants_file"`
}

// ConstantsPath resolves the constants file against the data directory unless it is absolute.
func (s StorageConfig) ConstantsPath() string {
	if filepath.IsAbs(s.ConstantsFile) || filepath.Dir(s.ConstantsFile) != "." {
		return s.ConstantsFile
	}
	return filepath.Join(s.DataDir, s.ConstantsFile)
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type ImportConfig struct {
	NumericPolicy string `mapstructure:"numeric_policy"`
	UnknownValues string `mapstructure:"unknown_values"`
	Transaction   string `mapstructure:"transaction"`
}

type HTTPConfig struct {
	Addr   string `mapstructure:"addr"`
	APIKey string `mapstructure:"api_key"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load reads .env, embedded defaults, merges user YAML (if provided), and applies env overrides (RATEBOOK_*).
func Load(path string) (Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, fmt.Errorf("read defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// env override (RATEBOOK_*)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can act on.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQL, BackendFile:
	default:
		return fmt.Errorf("storage.backend: unknown back end %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendFile && c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required for the file back end")
	}
	if c.Storage.Backend == BackendSQL && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for the sql back end")
	}
	return nil
}

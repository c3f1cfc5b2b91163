package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/evn/versiongate/internal/appversion"
	"github.com/evn/versiongate/internal/semver"
)

// Config holds all service settings. It is loaded once at start-up and not
// modified afterwards.
type Config struct {
	ServerPort      string        `yaml:"server_port" validate:"required,numeric"`
	JwtSecret       string        `yaml:"-"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string        `yaml:"log_format" validate:"oneof=json text"`
	UpstreamURL     string        `yaml:"upstream_url" validate:"omitempty,url"`
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"gte=0"`

	Redis      RedisConfig      `yaml:"redis"`
	Store      StoreConfig      `yaml:"store"`
	AppVersion AppVersionConfig `yaml:"app_version"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// StoreConfig selects where the latest-version snapshot lives.
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=redis memory sqlite3 postgres"`
	DSN    string `yaml:"dsn" validate:"required_if=Driver sqlite3,required_if=Driver postgres"`
}

// AppVersionConfig describes the version gate.
type AppVersionConfig struct {
	// MinVersions is keyed by platform. A platform without an entry has no floor.
	MinVersions      map[string]string `yaml:"min_versions"`
	IOSAppID         string            `yaml:"ios_app_id"`
	AndroidPackageID string            `yaml:"android_package_id"`
	CacheKey         string            `yaml:"cache_key" validate:"required"`
	StoreURLs        map[string]string `yaml:"store_urls"`
	ITunesLookupURL  string            `yaml:"itunes_lookup_url" validate:"required,url"`
	ITunesCountry    string            `yaml:"itunes_country" validate:"required,len=2"`
	CatalogTimeout   time.Duration     `yaml:"catalog_timeout" validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ServerPort: "6066",
		LogLevel:   "info",
		LogFormat:  "json",
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Store: StoreConfig{
			Driver: "redis",
		},
		AppVersion: AppVersionConfig{
			MinVersions: map[string]string{
				"ios":     "0.0.1",
				"android": "0.0.1",
			},
			CacheKey: "tn_lib_app_store_versions",
			StoreURLs: map[string]string{
				"ios":     "https://apps.apple.com/app/id",
				"android": "https://play.google.com/store/apps/details?id=",
			},
			ITunesLookupURL: "https://itunes.apple.com/lookup",
			ITunesCountry:   "jp",
			CatalogTimeout:  5 * time.Second,
		},
	}
}

// LoadConfig reads .env (if present), then the YAML file named by
// CONFIG_FILE (if set), then environment variables, and validates the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.JwtSecret = getEnv("JWT_SECRET", c.JwtSecret)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.UpstreamURL = getEnv("UPSTREAM_URL", c.UpstreamURL)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.DSN = getEnv("DATABASE_DSN", c.Store.DSN)

	av := &c.AppVersion
	if av.MinVersions == nil {
		av.MinVersions = map[string]string{}
	}
	if av.StoreURLs == nil {
		av.StoreURLs = map[string]string{}
	}
	// an empty MIN_VERSION_* removes the floor for that platform
	for platform, key := range map[string]string{"ios": "MIN_VERSION_IOS", "android": "MIN_VERSION_ANDROID"} {
		if v, ok := os.LookupEnv(key); ok {
			if v == "" {
				delete(av.MinVersions, platform)
			} else {
				av.MinVersions[platform] = v
			}
		}
	}
	av.StoreURLs["ios"] = getEnv("STORE_URL_IOS", av.StoreURLs["ios"])
	av.StoreURLs["android"] = getEnv("STORE_URL_ANDROID", av.StoreURLs["android"])
	av.IOSAppID = getEnv("IOS_APP_ID", av.IOSAppID)
	av.AndroidPackageID = getEnv("ANDROID_PACKAGE_ID", av.AndroidPackageID)
	av.CacheKey = getEnv("APP_VERSION_CACHE_KEY", av.CacheKey)
	av.ITunesLookupURL = getEnv("ITUNES_LOOKUP_URL", av.ITunesLookupURL)
	av.ITunesCountry = getEnv("ITUNES_COUNTRY", av.ITunesCountry)

	var err error
	if av.CatalogTimeout, err = getEnvDuration("CATALOG_TIMEOUT", av.CatalogTimeout); err != nil {
		return err
	}
	if c.RefreshInterval, err = getEnvDuration("REFRESH_INTERVAL", c.RefreshInterval); err != nil {
		return err
	}
	return nil
}

// Validate checks struct constraints and that every floor parses.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.AppVersion.MinimumTable(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// MinimumTable parses the configured floors.
func (a AppVersionConfig) MinimumTable() (appversion.MinimumTable, error) {
	table := make(appversion.MinimumTable, len(a.MinVersions))
	for platform, raw := range a.MinVersions {
		v, err := semver.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("min version for %s: %w", platform, err)
		}
		table[appversion.ParsePlatform(platform)] = v
	}
	return table, nil
}

// UpdateURLs builds the store page of each platform from its base URL and
// catalog identifier. Platforms without an identifier get no URL.
func (a AppVersionConfig) UpdateURLs() map[appversion.Platform]string {
	urls := map[appversion.Platform]string{}
	if base := a.StoreURLs["ios"]; base != "" && a.IOSAppID != "" {
		urls[appversion.PlatformIOS] = base + a.IOSAppID
	}
	if base := a.StoreURLs["android"]; base != "" && a.AndroidPackageID != "" {
		urls[appversion.PlatformAndroid] = base + a.AndroidPackageID
	}
	return urls
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") and bare seconds ("90").
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

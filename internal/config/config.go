package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL      = "http://127.0.0.1:7480"
	DefaultDBFileName  = ".printvault.db"
	DefaultLogLevel    = "debug"
	DefaultBlobBackend = "local"
	DefaultDedupGuard  = "none"
	DefaultRedisAddr   = "127.0.0.1:6379"
	DefaultLockTTL     = 30 * time.Second

	configFileName  = ".printvault.toml"
	configDirEnvKey = "PRINTVAULT_CONFIG_DIR"
)

// BlobConfig selects and addresses the payload backend.
type BlobConfig struct {
	Backend  string `toml:"backend"`
	Root     string `toml:"root"`
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

// DedupConfig selects the guard serializing dedup checks.
type DedupConfig struct {
	Guard     string `toml:"guard"`
	RedisAddr string `toml:"redis_addr"`
	LockTTL   string `toml:"lock_ttl"`
}

// Config defines runtime configuration for printvault.
type Config struct {
	APIURL       string      `toml:"api_url"`
	DBPath       string      `toml:"db_path"`
	LogLevel     string      `toml:"log_level"`
	APITokenHash string      `toml:"api_token_hash"`
	Blobs        BlobConfig  `toml:"blobs"`
	Dedup        DedupConfig `toml:"dedup"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Blobs:    BlobConfig{Backend: DefaultBlobBackend},
		Dedup: DedupConfig{
			Guard:     DefaultDedupGuard,
			RedisAddr: DefaultRedisAddr,
			LockTTL:   DefaultLockTTL.String(),
		},
	}
}

// LockTTL parses dedup.lock_ttl, falling back to the default.
func (c *Config) LockTTL() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Dedup.LockTTL))
	if err != nil || d <= 0 {
		return DefaultLockTTL
	}
	return d
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"log_level",
	"api_token_hash",
	"blobs.backend",
	"blobs.root",
	"blobs.bucket",
	"blobs.prefix",
	"blobs.region",
	"blobs.endpoint",
	"dedup.guard",
	"dedup.redis_addr",
	"dedup.lock_ttl",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "api_token_hash":
		return c.APITokenHash, nil
	case "blobs.backend":
		return c.Blobs.Backend, nil
	case "blobs.root":
		return c.Blobs.Root, nil
	case "blobs.bucket":
		return c.Blobs.Bucket, nil
	case "blobs.prefix":
		return c.Blobs.Prefix, nil
	case "blobs.region":
		return c.Blobs.Region, nil
	case "blobs.endpoint":
		return c.Blobs.Endpoint, nil
	case "dedup.guard":
		return c.Dedup.Guard, nil
	case "dedup.redis_addr":
		return c.Dedup.RedisAddr, nil
	case "dedup.lock_ttl":
		return c.Dedup.LockTTL, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Path returns the config file location: $PRINTVAULT_CONFIG_DIR when set,
// otherwise the home directory.
func Path() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads the config file and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, err := loadFileIfExists(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}
	cfg.normalize()

	return &cfg, nil
}

var envOverrides = []struct {
	key    string
	target func(*Config) *string
}{
	{"PRINTVAULT_API_URL", func(c *Config) *string { return &c.APIURL }},
	{"PRINTVAULT_DB", func(c *Config) *string { return &c.DBPath }},
	{"PRINTVAULT_LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
	{"PRINTVAULT_API_TOKEN_HASH", func(c *Config) *string { return &c.APITokenHash }},
	{"PRINTVAULT_BLOB_BACKEND", func(c *Config) *string { return &c.Blobs.Backend }},
	{"PRINTVAULT_BLOB_ROOT", func(c *Config) *string { return &c.Blobs.Root }},
	{"PRINTVAULT_BLOB_BUCKET", func(c *Config) *string { return &c.Blobs.Bucket }},
	{"PRINTVAULT_BLOB_PREFIX", func(c *Config) *string { return &c.Blobs.Prefix }},
	{"PRINTVAULT_BLOB_REGION", func(c *Config) *string { return &c.Blobs.Region }},
	{"PRINTVAULT_BLOB_ENDPOINT", func(c *Config) *string { return &c.Blobs.Endpoint }},
	{"PRINTVAULT_DEDUP_GUARD", func(c *Config) *string { return &c.Dedup.Guard }},
	{"PRINTVAULT_REDIS_ADDR", func(c *Config) *string { return &c.Dedup.RedisAddr }},
}

func applyEnv(cfg *Config) {
	for _, override := range envOverrides {
		if value := strings.TrimSpace(os.Getenv(override.key)); value != "" {
			*override.target(cfg) = value
		}
	}
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Blobs.Backend = strings.ToLower(strings.TrimSpace(c.Blobs.Backend))
	if c.Blobs.Backend == "" {
		c.Blobs.Backend = DefaultBlobBackend
	}
	if c.Blobs.Root == "" && c.DBPath != "" {
		c.Blobs.Root = filepath.Join(filepath.Dir(c.DBPath), ".printvault", "blobs")
	}
	c.Dedup.Guard = strings.ToLower(strings.TrimSpace(c.Dedup.Guard))
	if c.Dedup.Guard == "" {
		c.Dedup.Guard = DefaultDedupGuard
	}
	if c.Dedup.RedisAddr == "" {
		c.Dedup.RedisAddr = DefaultRedisAddr
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "dedup.lock_ttl":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration", key)
		}
		return value, nil
	case "blobs.backend":
		switch strings.ToLower(value) {
		case "local", "s3", "gcs":
			return strings.ToLower(value), nil
		}
		return nil, fmt.Errorf("%s must be one of local, s3, gcs", key)
	case "dedup.guard":
		switch strings.ToLower(value) {
		case "none", "local", "redis":
			return strings.ToLower(value), nil
		}
		return nil, fmt.Errorf("%s must be one of none, local, redis", key)
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
			return strings.ToLower(value), nil
		}
		return nil, fmt.Errorf("%s must be one of debug, info, warn, error", key)
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

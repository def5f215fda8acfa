// Package config loads the ambient settings for the Nix ecosystem MCP
// core: Elasticsearch endpoint/credentials, cache TTLs and sizes, HTTP
// retry/backoff, and the filesystem cache directory.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Channel identifiers, per spec.md §3 "Channel descriptor".
const (
	DefaultElasticsearchURL  = "https://search.nixos.org/backend"
	DefaultElasticsearchUser = "aWVSALXpZv"
	DefaultElasticsearchPass = "X8gPHnzL52wFEekuxsfQ9cSh"
)

// EnvElasticsearchURL etc. name the environment variables honoured per spec.md §6.
const (
	EnvElasticsearchURL  = "ELASTICSEARCH_URL"
	EnvElasticsearchUser = "ELASTICSEARCH_USER"
	EnvElasticsearchPass = "ELASTICSEARCH_PASSWORD"
	EnvCacheDir          = "MCP_NIXOS_CACHE_DIR"
)

// RetryConfig carries the HTTP fabric's retry/backoff/timeout defaults (spec.md §4.1, §6).
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay" json:"retry_delay"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout"`
}

// CacheConfig carries the memory/filesystem cache defaults (spec.md §6).
type CacheConfig struct {
	MemoryTTL     time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	MemoryMaxSize int           `yaml:"memory_max_size" json:"memory_max_size"`
	FilesystemTTL time.Duration `yaml:"filesystem_ttl" json:"filesystem_ttl"`
	Dir           string        `yaml:"dir" json:"dir"`
}

// ElasticsearchConfig carries the NixOS search backend's endpoint and credentials.
type ElasticsearchConfig struct {
	BaseURL  string `yaml:"base_url" json:"base_url"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
}

// ServerConfig is the top-level ambient configuration for the core.
type ServerConfig struct {
	LogLevel      string              `yaml:"log_level" json:"log_level"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch" json:"elasticsearch"`
	Cache         CacheConfig         `yaml:"cache" json:"cache"`
	NixOSRetry    RetryConfig         `yaml:"nixos_retry" json:"nixos_retry"`
	HMRetry       RetryConfig         `yaml:"hm_retry" json:"hm_retry"`
}

// Default returns the spec.md §6 "Configuration defaults" baseline.
func Default() *ServerConfig {
	return &ServerConfig{
		LogLevel: "info",
		Elasticsearch: ElasticsearchConfig{
			BaseURL:  DefaultElasticsearchURL,
			User:     DefaultElasticsearchUser,
			Password: DefaultElasticsearchPass,
		},
		Cache: CacheConfig{
			MemoryTTL:     600 * time.Second,
			MemoryMaxSize: 500,
			FilesystemTTL: 86400 * time.Second,
			Dir:           defaultCacheDir(),
		},
		NixOSRetry: RetryConfig{
			MaxRetries:     3,
			RetryDelay:     1 * time.Second,
			ConnectTimeout: 3 * time.Second,
			ReadTimeout:    10 * time.Second,
		},
		HMRetry: RetryConfig{
			MaxRetries:     3,
			RetryDelay:     1 * time.Second,
			ConnectTimeout: 5 * time.Second,
			ReadTimeout:    15 * time.Second,
		},
	}
}

// LoadFromEnv applies the spec.md §6 environment-variable overrides on top of cfg.
func (c *ServerConfig) LoadFromEnv() {
	if v := os.Getenv(EnvElasticsearchURL); v != "" {
		c.Elasticsearch.BaseURL = v
	}
	if v := os.Getenv(EnvElasticsearchUser); v != "" {
		c.Elasticsearch.User = v
	}
	if v := os.Getenv(EnvElasticsearchPass); v != "" {
		c.Elasticsearch.Password = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
}

// defaultCacheDir implements spec.md §4.3 "Path derivation": environment
// override is handled separately by LoadFromEnv; this picks the
// OS-appropriate user cache dir, falling back to a repo-local directory.
func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "mcp-nixos-core")
	}
	return filepath.Join(".", ".cache", "mcp-nixos-core")
}

// LoadYAML reads a YAML-encoded ServerConfig from path, applying defaults
// for anything left zero-valued, then environment overrides.
func LoadYAML(path string) (*ServerConfig, error) {
	cfg := Default()

	// #nosec G304 -- path is operator-supplied configuration, not untrusted input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.LoadFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	var onDisk ServerConfig
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return nil, err
	}
	mergeNonZero(cfg, &onDisk)
	cfg.LoadFromEnv()
	return cfg, nil
}

// mergeNonZero overlays any non-zero-valued fields of src onto dst.
func mergeNonZero(dst, src *ServerConfig) {
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.Elasticsearch.BaseURL != "" {
		dst.Elasticsearch.BaseURL = src.Elasticsearch.BaseURL
	}
	if src.Elasticsearch.User != "" {
		dst.Elasticsearch.User = src.Elasticsearch.User
	}
	if src.Elasticsearch.Password != "" {
		dst.Elasticsearch.Password = src.Elasticsearch.Password
	}
	if src.Cache.MemoryTTL != 0 {
		dst.Cache.MemoryTTL = src.Cache.MemoryTTL
	}
	if src.Cache.MemoryMaxSize != 0 {
		dst.Cache.MemoryMaxSize = src.Cache.MemoryMaxSize
	}
	if src.Cache.FilesystemTTL != 0 {
		dst.Cache.FilesystemTTL = src.Cache.FilesystemTTL
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.NixOSRetry.MaxRetries != 0 {
		dst.NixOSRetry = src.NixOSRetry
	}
	if src.HMRetry.MaxRetries != 0 {
		dst.HMRetry = src.HMRetry
	}
}

// EnvOrInt reads an integer environment variable, falling back to def.
func EnvOrInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

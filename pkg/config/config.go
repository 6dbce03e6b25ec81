package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider sources understood by the checker
const (
	ProviderMock      = "mock"
	ProviderInstagram = "instagram"
)

// Cache backends understood by the checker
const (
	CacheNone      = "none"
	CacheMemory    = "memory"
	CacheRedis     = "redis"
	CacheMemcached = "memcached"
)

// Config holds all configuration options for igaudit
type Config struct {
	// Instagram credentials for the live provider
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Where profile records come from
	Provider ProviderConfig `yaml:"provider" json:"provider"`

	// Heuristic thresholds
	Classifier ClassifierConfig `yaml:"classifier" json:"classifier"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	SessionID string        `yaml:"session_id" json:"session_id"`
	CSRFToken string        `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// ProviderConfig selects and tunes the profile data provider
type ProviderConfig struct {
	Source       string `yaml:"source" json:"source"`
	FixturesFile string `yaml:"fixtures_file" json:"fixtures_file"`
	// RecentPosts caps how many timeline posts feed the engagement estimate
	RecentPosts int `yaml:"recent_posts" json:"recent_posts"`
}

// ClassifierConfig holds the heuristic thresholds and bio denylist
type ClassifierConfig struct {
	MinFollowers         int               `yaml:"min_followers" json:"min_followers"`
	MaxFollowRatio       float64           `yaml:"max_follow_ratio" json:"max_follow_ratio"`
	FakeEngagement       float64           `yaml:"fake_engagement" json:"fake_engagement"`
	SuspiciousEngagement float64           `yaml:"suspicious_engagement" json:"suspicious_engagement"`
	MinPostsWithWeakBio  int               `yaml:"min_posts_with_weak_bio" json:"min_posts_with_weak_bio"`
	BioDenylist          []string          `yaml:"bio_denylist" json:"bio_denylist"`
	WatchRules           []WatchRuleConfig `yaml:"watch_rules,omitempty" json:"watch_rules,omitempty"`
}

// WatchRuleConfig is an advisory CEL expression evaluated against each record
type WatchRuleConfig struct {
	Name       string `yaml:"name" json:"name"`
	Expression string `yaml:"expression" json:"expression"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerMinute bounds outbound calls to Instagram
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
	// ClientRequestsPerMinute bounds inbound API calls per client IP
	ClientRequestsPerMinute int `yaml:"client_requests_per_minute" json:"client_requests_per_minute"`
}

// RetryConfig holds retry configuration for the live provider
type RetryConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts   int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay     time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
	JitterPercent uint64        `yaml:"jitter_percent" json:"jitter_percent"`
}

// CacheConfig selects the profile record cache backend
type CacheConfig struct {
	Backend          string        `yaml:"backend" json:"backend"`
	TTL              time.Duration `yaml:"ttl" json:"ttl"`
	RedisAddress     string        `yaml:"redis_address" json:"redis_address"`
	RedisPassword    string        `yaml:"redis_password" json:"redis_password"`
	RedisDB          int           `yaml:"redis_db" json:"redis_db"`
	MemcachedServers []string      `yaml:"memcached_servers,omitempty" json:"memcached_servers,omitempty"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Address         string        `yaml:"address" json:"address"`
	Mode            string        `yaml:"mode" json:"mode"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	// JSON switches console output from the pretty writer to raw JSON lines
	JSON bool `yaml:"json" json:"json"`
}

// DefaultBioDenylist holds the spam patterns matched against bios
var DefaultBioDenylist = []string{
	`follow\s*(4|for)\s*follow`,
	`\bf4f\b`,
	`\bl4l\b`,
	`free\s+followers`,
	`dm\s+(for|4)\s+(promo|collab|shoutout)`,
	`click\s+(the\s+)?link`,
	`earn\s+\$?\d+`,
	`crypto\s+giveaway`,
	`cash\s*app`,
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:   30 * time.Second,
		},
		Provider: ProviderConfig{
			Source:      ProviderMock,
			RecentPosts: 12,
		},
		Classifier: ClassifierConfig{
			MinFollowers:         50,
			MaxFollowRatio:       5,
			FakeEngagement:       0.01,
			SuspiciousEngagement: 0.02,
			MinPostsWithWeakBio:  5,
			BioDenylist:          append([]string(nil), DefaultBioDenylist...),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:       60,
			BurstSize:               10,
			ClientRequestsPerMinute: 30,
		},
		Retry: RetryConfig{
			Enabled:       true,
			MaxAttempts:   3,
			BaseDelay:     1 * time.Second,
			MaxDelay:      30 * time.Second,
			JitterPercent: 10,
		},
		Cache: CacheConfig{
			Backend:      CacheMemory,
			TTL:          10 * time.Minute,
			RedisAddress: "localhost:6379",
		},
		Server: ServerConfig{
			Address:         ":8080",
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Instagram credentials
	if sessionID := os.Getenv("IGAUDIT_SESSION_ID"); sessionID != "" {
		c.Instagram.SessionID = sessionID
	}
	if csrfToken := os.Getenv("IGAUDIT_CSRF_TOKEN"); csrfToken != "" {
		c.Instagram.CSRFToken = csrfToken
	}
	if userAgent := os.Getenv("IGAUDIT_USER_AGENT"); userAgent != "" {
		c.Instagram.UserAgent = userAgent
	}

	// Provider
	if source := os.Getenv("IGAUDIT_PROVIDER"); source != "" {
		c.Provider.Source = strings.ToLower(source)
	}
	if fixtures := os.Getenv("IGAUDIT_FIXTURES"); fixtures != "" {
		c.Provider.FixturesFile = fixtures
	}

	// Rate limiting
	if rpm := os.Getenv("IGAUDIT_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		if _, err := fmt.Sscanf(rpm, "%d", &val); err != nil {
			return fmt.Errorf("invalid IGAUDIT_REQUESTS_PER_MINUTE %q: %w", rpm, err)
		}
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	// Cache
	if backend := os.Getenv("IGAUDIT_CACHE_BACKEND"); backend != "" {
		c.Cache.Backend = strings.ToLower(backend)
	}
	if addr := os.Getenv("IGAUDIT_REDIS_ADDR"); addr != "" {
		c.Cache.RedisAddress = addr
	}
	if password := os.Getenv("IGAUDIT_REDIS_PASSWORD"); password != "" {
		c.Cache.RedisPassword = password
	}
	if servers := os.Getenv("IGAUDIT_MEMCACHED_SERVERS"); servers != "" {
		c.Cache.MemcachedServers = splitList(servers)
	}

	// Server
	if addr := os.Getenv("IGAUDIT_SERVER_ADDR"); addr != "" {
		c.Server.Address = addr
	}

	// Logging level
	if logLevel := os.Getenv("IGAUDIT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igaudit.yaml",
		".igaudit.yml",
		filepath.Join(home, ".config", "igaudit", "config.yaml"),
		filepath.Join(home, ".config", "igaudit", "config.yml"),
		filepath.Join(home, ".igaudit.yaml"),
		filepath.Join(home, ".igaudit.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Provider
	switch c.Provider.Source {
	case ProviderMock, ProviderInstagram:
	default:
		errs = append(errs, fmt.Errorf("unknown provider source %q", c.Provider.Source))
	}
	if c.Provider.RecentPosts <= 0 {
		errs = append(errs, errors.New("recent posts must be positive"))
	}
	if c.Instagram.Timeout <= 0 {
		errs = append(errs, errors.New("instagram timeout must be positive"))
	}

	// Classifier thresholds
	if c.Classifier.MinFollowers < 0 {
		errs = append(errs, errors.New("min followers cannot be negative"))
	}
	if c.Classifier.MaxFollowRatio <= 0 {
		errs = append(errs, errors.New("max follow ratio must be positive"))
	}
	if c.Classifier.FakeEngagement < 0 || c.Classifier.FakeEngagement > 1 {
		errs = append(errs, errors.New("fake engagement must be within [0,1]"))
	}
	if c.Classifier.SuspiciousEngagement < 0 || c.Classifier.SuspiciousEngagement > 1 {
		errs = append(errs, errors.New("suspicious engagement must be within [0,1]"))
	}
	if c.Classifier.MinPostsWithWeakBio < 0 {
		errs = append(errs, errors.New("min posts with weak bio cannot be negative"))
	}
	for i, rule := range c.Classifier.WatchRules {
		if rule.Name == "" || rule.Expression == "" {
			errs = append(errs, fmt.Errorf("watch rule %d needs a name and an expression", i))
		}
	}

	// Rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}
	if c.RateLimit.ClientRequestsPerMinute < 0 {
		errs = append(errs, errors.New("client requests per minute cannot be negative"))
	}

	// Retry
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}
	if c.Retry.Enabled && c.Retry.BaseDelay <= 0 {
		errs = append(errs, errors.New("retry base delay must be positive"))
	}
	if c.Retry.JitterPercent > 100 {
		errs = append(errs, errors.New("retry jitter percent cannot exceed 100"))
	}

	// Cache
	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddress == "" {
			errs = append(errs, errors.New("redis address is required for the redis cache"))
		}
	case CacheMemcached:
		if len(c.Cache.MemcachedServers) == 0 {
			errs = append(errs, errors.New("memcached servers are required for the memcached cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if c.Cache.Backend != CacheNone && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache ttl must be positive"))
	}

	// Server
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		errs = append(errs, fmt.Errorf("invalid server mode %q", c.Server.Mode))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if sessionID, ok := flags["session-id"].(string); ok && sessionID != "" {
		c.Instagram.SessionID = sessionID
	}
	if csrfToken, ok := flags["csrf-token"].(string); ok && csrfToken != "" {
		c.Instagram.CSRFToken = csrfToken
	}
	if source, ok := flags["provider"].(string); ok && source != "" {
		c.Provider.Source = strings.ToLower(source)
	}
	if fixtures, ok := flags["fixtures"].(string); ok && fixtures != "" {
		c.Provider.FixturesFile = fixtures
	}
	if backend, ok := flags["cache-backend"].(string); ok && backend != "" {
		c.Cache.Backend = strings.ToLower(backend)
	}
	if addr, ok := flags["listen"].(string); ok && addr != "" {
		c.Server.Address = addr
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts >= 0 {
		c.Retry.MaxAttempts = attempts
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igaudit.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// splitList splits a comma separated list, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

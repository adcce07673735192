package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage and cache backend names.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline enforced by the router

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Collection storage
	StorageBackend string        // "badger" | "redis" | "memory"
	StorageSlot    string        // key the collection is stored under
	BadgerDir      string        // badger data directory
	GCInterval     time.Duration // interval between badger value log collections
	MaxImportBytes int64         // upper bound on an uploaded import file

	// Asset cache
	CacheBackend      string        // "memory" | "redis"
	CacheName         string        // current cache generation
	AssetOrigin       string        // optional remote origin for the app shell, empty = embedded assets
	AssetManifest     []string      // paths pre-cached on install
	AssetFetchTimeout time.Duration // timeout for remote asset fetches

	// Title rules
	TitleRulesFile string        // optional YAML file extending the title table
	ReloadInterval time.Duration // interval to reload the title rules file

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)

	// Access restrictions
	AllowedHosts         []string // optional, restrict ops endpoints to specific Host headers
	AllowedCIDRS         []string // optional, restrict ops endpoints to specific IPs or ranges
	TrustProxy           bool     // true => trust X-Forwarded-For headers
	CrossOriginIsolation bool     // send COEP/COOP headers
	RateLimitBurst       int      // mutating requests allowed in a burst per client
	RateLimitPerMin      int      // sustained mutating requests per minute per client
}

// Load reads the configuration from the environment. It panics on
// combinations the server cannot start with.
func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("COLLECTIONS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("COLLECTIONS_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("COLLECTIONS_REQUEST_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:  getenv("COLLECTIONS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("COLLECTIONS_PRETTY_LOG", true),

		// Storage
		StorageBackend: strings.ToLower(getenv("COLLECTIONS_STORAGE_BACKEND", BackendBadger)),
		StorageSlot:    getenv("COLLECTIONS_STORAGE_SLOT", "myCollections"),
		BadgerDir:      getenv("COLLECTIONS_BADGER_DIR", "./data"),
		GCInterval:     mustDuration("COLLECTIONS_GC_INTERVAL", time.Hour),
		MaxImportBytes: int64(getenvInt("COLLECTIONS_MAX_IMPORT_BYTES", 5<<20)),

		// Asset cache
		CacheBackend:      strings.ToLower(getenv("COLLECTIONS_CACHE_BACKEND", BackendMemory)),
		CacheName:         getenv("COLLECTIONS_CACHE_NAME", "my-collections-v1"),
		AssetOrigin:       getenv("COLLECTIONS_ASSET_ORIGIN", ""),
		AssetManifest:     splitAndTrim(getenv("COLLECTIONS_ASSET_MANIFEST", "")),
		AssetFetchTimeout: mustDuration("COLLECTIONS_ASSET_FETCH_TIMEOUT", 10*time.Second),

		// Title rules
		TitleRulesFile: getenv("COLLECTIONS_TITLE_RULES_FILE", ""),
		ReloadInterval: mustDuration("COLLECTIONS_RELOAD_INTERVAL", 24*time.Hour),

		// Redis settings
		RedisAddr:           getenv("COLLECTIONS_REDIS_ADDR", ""),
		RedisUser:           getenv("COLLECTIONS_REDIS_USERNAME", ""),
		RedisPassword:       getenv("COLLECTIONS_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("COLLECTIONS_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),

		// Access restrictions
		AllowedHosts:         splitAndTrim(getenv("COLLECTIONS_ALLOWED_HOSTS", "")),
		AllowedCIDRS:         parseAllowedIPs(getenv("COLLECTIONS_ALLOWED_CIDRS", "")),
		TrustProxy:           mustBool("COLLECTIONS_TRUST_PROXY", false),
		CrossOriginIsolation: mustBool("COLLECTIONS_CROSS_ORIGIN_ISOLATION", true),
		RateLimitBurst:       getenvInt("COLLECTIONS_RATE_LIMIT_BURST", 20),
		RateLimitPerMin:      getenvInt("COLLECTIONS_RATE_LIMIT_PER_MIN", 60),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// Validate reports combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendBadger, BackendRedis:
	default:
		return fmt.Errorf("COLLECTIONS_STORAGE_BACKEND must be memory, badger or redis, got %q", c.StorageBackend)
	}

	switch c.CacheBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("COLLECTIONS_CACHE_BACKEND must be memory or redis, got %q", c.CacheBackend)
	}

	if c.NeedsRedis() && c.RedisAddr == "" {
		return fmt.Errorf("COLLECTIONS_REDIS_ADDR is required when a redis backend is selected")
	}
	if c.StorageBackend == BackendBadger && c.BadgerDir == "" {
		return fmt.Errorf("COLLECTIONS_BADGER_DIR must not be empty with the badger backend")
	}
	if c.StorageBackend == BackendBadger && c.GCInterval <= 0 {
		return fmt.Errorf("COLLECTIONS_GC_INTERVAL must be > 0, got %v", c.GCInterval)
	}
	if c.StorageSlot == "" {
		return fmt.Errorf("COLLECTIONS_STORAGE_SLOT must not be empty")
	}
	if c.CacheName == "" {
		return fmt.Errorf("COLLECTIONS_CACHE_NAME must not be empty")
	}
	if c.MaxImportBytes <= 0 {
		return fmt.Errorf("COLLECTIONS_MAX_IMPORT_BYTES must be > 0, got %d", c.MaxImportBytes)
	}
	return nil
}

// NeedsRedis reports whether any backend requires a redis connection.
func (c *Config) NeedsRedis() bool {
	return c.StorageBackend == BackendRedis || c.CacheBackend == BackendRedis
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

package deps

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tellsiddh/collections/internal/assetcache"
	"github.com/tellsiddh/collections/internal/collection"
	"github.com/tellsiddh/collections/internal/domain"
	"github.com/tellsiddh/collections/internal/logger"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Store          *collection.Store       // saved items
	Classifier     *domain.TitleClassifier // title suggestions
	Worker         *assetcache.Worker      // offline asset cache
	Notifier       *assetcache.Notifier    // push and notification clicks
	Messenger      *assetcache.Messenger   // posted messages
	ShellPaths     []string                // static paths answered through Worker
	StorageBackend string                  // name of the collection backend, for /infra
	CacheBackend   string                  // name of the asset cache backend, for /infra
	RedisClient    *redis.Client           // nil unless a redis backend is in use
	MaxImportBytes int64                   // upper bound on an uploaded import file
	TitleRulesFile string                  // empty when only built-in rules are used
	ReloadTrigger  chan struct{}           // manual title rules reload, nil when disabled

	// RateLimit guards mutating routes; one limiter is shared by all of them.
	RateLimit func(http.Handler) http.Handler

	AllowedHosts []string // Host headers allowed to access ops endpoints
	AllowedCIDRS []string // IPs allowed to access ops endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/tellsiddh/collections/internal/httpserver/deps"
)

const lastReloadLayout = "2006-01-02 15:04:05"

type componentStatus struct {
	OK         bool   `json:"ok"`
	Backend    string `json:"backend,omitempty"`
	Items      *int   `json:"items,omitempty"`
	Rules      *int   `json:"rules,omitempty"`
	Source     string `json:"source,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Current    string `json:"current,omitempty"`
	Entries    *int   `json:"entries,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every component the server depends on.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		components := map[string]componentStatus{
			"storage":     checkStorage(ctx, d),
			"asset_cache": checkAssetCache(ctx, d),
			"title_rules": checkTitleRules(d),
		}
		if d.RedisClient != nil {
			components["redis"] = checkRedis(ctx, d)
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode is "critical" when the collection cannot be read,
// "degraded" when only offline support is affected, "optimal" otherwise.
func determineMode(components map[string]componentStatus) string {
	if !components["storage"].OK {
		return "critical"
	}
	for name, c := range components {
		if name != "storage" && !c.OK {
			return "degraded"
		}
	}
	return "optimal"
}

func checkStorage(ctx context.Context, d deps.Deps) componentStatus {
	st := componentStatus{Backend: d.StorageBackend}
	if err := d.Store.Ping(ctx); err != nil {
		st.Error = err.Error()
		return st
	}
	items, err := d.Store.Load(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	n := len(items)
	st.OK, st.Items = true, &n
	return st
}

func checkAssetCache(ctx context.Context, d deps.Deps) componentStatus {
	st := componentStatus{Backend: d.CacheBackend, Current: d.Worker.CacheName()}
	status, err := d.Worker.Status(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	n := len(status.Entries)
	st.Entries = &n
	// An empty current generation means install failed and nothing works offline.
	st.OK = n > 0
	if !st.OK {
		st.Error = "current generation is empty"
	}
	return st
}

func checkTitleRules(d deps.Deps) componentStatus {
	n := d.Classifier.Count()
	st := componentStatus{OK: n > 0, Rules: &n, Source: "built-in", LastReload: "never"}
	if d.TitleRulesFile != "" {
		st.Source = d.TitleRulesFile
	}
	if last := d.Classifier.GetLastReload(); !last.IsZero() {
		st.LastReload = last.Format(lastReloadLayout)
	}
	return st
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(pingCtx).Err(); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true}
}

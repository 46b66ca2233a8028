package controllers

import (
	"context"
	"net/http"

	"github.com/averyross/bookhaven-backend/api/responses"
	"github.com/averyross/bookhaven-backend/pkg/config"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthDeps lists the dependencies the readiness probe checks. Nil entries
// are skipped so partial wiring (tests, workers) still reports ready.
type HealthDeps struct {
	DB        pinger
	Redis     pinger
	Firestore pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BookHaven-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, deps HealthDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BookHaven-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true
		for name, p := range map[string]pinger{
			"db":        deps.DB,
			"redis":     deps.Redis,
			"firestore": deps.Firestore,
		} {
			if p == nil {
				continue
			}
			if err := p.Ping(r.Context()); err != nil {
				checks[name] = "unavailable"
				healthy = false
				continue
			}
			checks[name] = "ok"
		}

		status := http.StatusOK
		payload := map[string]any{"status": "ready", "checks": checks}
		if !healthy {
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/stockroom/api/responses"
	"github.com/angelmondragon/stockroom/pkg/config"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is any dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stockroom-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, Redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP Pinger, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stockroom-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{}
		var failed error
		if dbP == nil {
			failed = pkgerrors.New(pkgerrors.CodeDependency, "database not configured")
			checks["database"] = "missing"
		} else if err := dbP.Ping(ctx); err != nil {
			failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable")
			checks["database"] = "down"
		} else {
			checks["database"] = "ok"
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				if failed == nil {
					failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable")
				}
				checks["redis"] = "down"
			} else {
				checks["redis"] = "ok"
			}
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "not ready").WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

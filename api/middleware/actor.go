package middleware

import (
	"net/http"

	"github.com/angelmondragon/stockroom/api/validators"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

const actorHeader = "X-Actor"

const maxActorLen = 120

// Actor records who is operating the warehouse for audit entries and movement
// rows. The header is informational; there is no authentication.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := validators.SanitizeString(r.Header.Get(actorHeader), maxActorLen)
			if actor == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/stockroom/api/responses"
	"github.com/angelmondragon/stockroom/api/validators"
	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

func ListAuditEntries(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("audit"))
			return
		}
		pg, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := audit.ListParams{
			EntityType: strings.TrimSpace(r.URL.Query().Get("entity_type")),
			Limit:      pg.limit,
			Cursor:     pg.cursor,
		}
		entityID, err := validators.ParseQueryUUID(r, "entity_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if entityID != nil {
			params.EntityID = *entityID
		}
		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

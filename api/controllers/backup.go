package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/stockroom/api/responses"
	"github.com/angelmondragon/stockroom/api/validators"
	"github.com/angelmondragon/stockroom/internal/backup"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
}

func datedName(prefix, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, time.Now().UTC().Format("2006-01-02"), ext)
}

// ExportBackup returns the full JSON dump. The document is bare, not wrapped in
// the data envelope, so it can be fed back to ImportBackup unchanged.
func ExportBackup(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("backup"))
			return
		}
		doc, err := svc.Export(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, datedName("stockroom-backup", "json")))
		responses.WriteJSON(w, http.StatusOK, doc)
	}
}

func ImportBackup(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("backup"))
			return
		}
		raw, err := validators.ReadBody(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Import(r.Context(), raw, actorOf(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func ListExportEntities(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("backup"))
			return
		}
		responses.WriteSuccess(w, svc.Entities())
	}
}

// ExportCSV renders one entity table. Output is buffered so a failure still
// produces a JSON error instead of a truncated file.
func ExportCSV(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("backup"))
			return
		}
		entity := routeParam(r, "entity")
		var buf bytes.Buffer
		if err := svc.ExportCSV(r.Context(), entity, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attachment(w, contentTypeCSV, datedName(entity, "csv"))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

func ExportXLSX(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("backup"))
			return
		}
		var buf bytes.Buffer
		if err := svc.ExportXLSX(r.Context(), &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attachment(w, contentTypeXLSX, datedName("products", "xlsx"))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

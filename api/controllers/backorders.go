package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/stockroom/api/responses"
	"github.com/angelmondragon/stockroom/api/validators"
	"github.com/angelmondragon/stockroom/internal/backorders"
	"github.com/angelmondragon/stockroom/pkg/enums"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

type backorderUpdateRequest struct {
	Status       string     `json:"status" validate:"required"`
	ExpectedDate *time.Time `json:"expected_date"`
	Priority     *string    `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Notes        *string    `json:"notes" validate:"omitempty,max=1000"`
}

func ListBackorders(svc backorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("backorders"))
			return
		}
		pg, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := backorders.ListParams{Limit: pg.limit, Cursor: pg.cursor}
		if params.Status, err = enumQuery(r, "status", enums.ParseBackorderStatus); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.ProductID, err = validators.ParseQueryUUID(r, "product_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.OrderID, err = validators.ParseQueryUUID(r, "order_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetBackorder(svc backorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("backorders"))
			return
		}
		id, err := validators.ParseURLUUID(r, "backorderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func UpdateBackorder(svc backorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("backorders"))
			return
		}
		id, err := validators.ParseURLUUID(r, "backorderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req backorderUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseBackorderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validationErr(err, "status"))
			return
		}
		input := backorders.UpdateStatusInput{
			ID:           id,
			Status:       status,
			ExpectedDate: req.ExpectedDate,
			Notes:        req.Notes,
		}
		if req.Priority != nil {
			priority := enums.BackorderPriority(*req.Priority)
			input.Priority = &priority
		}
		item, err := svc.UpdateStatus(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom/api/responses"
	"github.com/angelmondragon/stockroom/api/validators"
	"github.com/angelmondragon/stockroom/internal/purchasing"
	"github.com/angelmondragon/stockroom/pkg/enums"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

type supplierRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"omitempty,email"`
	LeadTimeDays int    `json:"lead_time_days" validate:"gte=0,lte=365"`
}

type purchaseOrderLineRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
}

type purchaseOrderRequest struct {
	SupplierID   uuid.UUID                  `json:"supplier_id" validate:"required"`
	ExpectedDate *time.Time                 `json:"expected_date"`
	Notes        string                     `json:"notes" validate:"max=1000"`
	Lines        []purchaseOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func ListSuppliers(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchasing"))
			return
		}
		suppliers, err := svc.ListSuppliers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suppliers)
	}
}

func GetSupplier(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchasing"))
			return
		}
		id, err := validators.ParseURLUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplier, err := svc.GetSupplier(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

func CreateSupplier(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchasing"))
			return
		}
		var req supplierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplier, err := svc.CreateSupplier(r.Context(), purchasing.SupplierInput{
			Name:         validators.SanitizeString(req.Name, 200),
			Email:        req.Email,
			LeadTimeDays: req.LeadTimeDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

func ListPurchaseOrders(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchasing"))
			return
		}
		pg, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := purchasing.ListParams{Limit: pg.limit, Cursor: pg.cursor}
		if params.Status, err = enumQuery(r, "status", enums.ParsePurchaseOrderStatus); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.SupplierID, err = validators.ParseQueryUUID(r, "supplier_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListPurchaseOrders(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetPurchaseOrder(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchasing"))
			return
		}
		id, err := validators.ParseURLUUID(r, "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		po, err := svc.GetPurchaseOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, po)
	}
}

func CreatePurchaseOrder(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchasing"))
			return
		}
		var req purchaseOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]purchasing.LineInput, 0, len(req.Lines))
		for _, line := range req.Lines {
			lines = append(lines, purchasing.LineInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitCost:  line.UnitCost,
			})
		}
		po, err := svc.CreatePurchaseOrder(r.Context(), purchasing.CreatePurchaseOrderInput{
			SupplierID:   req.SupplierID,
			ExpectedDate: req.ExpectedDate,
			Notes:        validators.SanitizeString(req.Notes, 1000),
			Lines:        lines,
			Actor:        actorOf(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, po)
	}
}

func UpdatePurchaseOrderStatus(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchasing"))
			return
		}
		id, err := validators.ParseURLUUID(r, "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req statusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParsePurchaseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validationErr(err, "status"))
			return
		}
		po, err := svc.UpdateStatus(r.Context(), id, status, actorOf(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, po)
	}
}

// ReceivePurchaseOrder books every line as an inbound movement.
func ReceivePurchaseOrder(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchasing"))
			return
		}
		id, err := validators.ParseURLUUID(r, "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		po, err := svc.ReceivePurchaseOrder(r.Context(), id, actorOf(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, po)
	}
}

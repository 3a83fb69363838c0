package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom/api/responses"
	"github.com/angelmondragon/stockroom/api/validators"
	"github.com/angelmondragon/stockroom/internal/inventory"
	"github.com/angelmondragon/stockroom/pkg/enums"
	"github.com/angelmondragon/stockroom/pkg/logger"
	"github.com/angelmondragon/stockroom/pkg/types"
)

type createProductRequest struct {
	SKU          string          `json:"sku" validate:"required,max=64"`
	Name         string          `json:"name" validate:"required,max=200"`
	Unit         string          `json:"unit" validate:"max=32"`
	SupplierID   *uuid.UUID      `json:"supplier_id"`
	Stock        int             `json:"stock" validate:"gte=0"`
	MinimumStock int             `json:"minimum_stock" validate:"gte=0"`
	MaximumStock int             `json:"maximum_stock" validate:"gte=0"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

type updateProductRequest struct {
	SKU          *string            `json:"sku" validate:"omitempty,max=64"`
	Name         *string            `json:"name" validate:"omitempty,max=200"`
	Unit         *string            `json:"unit" validate:"omitempty,max=32"`
	SupplierID   types.NullableUUID `json:"supplier_id"`
	MinimumStock *int               `json:"minimum_stock" validate:"omitempty,gte=0"`
	MaximumStock *int               `json:"maximum_stock" validate:"omitempty,gte=0"`
	CostPrice    *decimal.Decimal   `json:"cost_price"`
	SellingPrice *decimal.Decimal   `json:"selling_price"`
	Version      *int               `json:"version" validate:"omitempty,gte=0"`
}

type recordMovementRequest struct {
	Type      string `json:"type" validate:"required,oneof=in out adjustment"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason" validate:"max=500"`
	Reference string `json:"reference" validate:"max=200"`
}

// ListProducts supports ?low_stock=true, ?supplier_id and ?q.
func ListProducts(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		lowStock, err := validators.ParseQueryBool(r, "low_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.ListProducts(r.Context(), inventory.ProductFilter{
			LowStock:   lowStock,
			SupplierID: supplierID,
			Search:     validators.SanitizeString(r.URL.Query().Get("q"), 100),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func GetProduct(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CreateProduct(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), inventory.CreateProductInput{
			SKU:          strings.TrimSpace(req.SKU),
			Name:         validators.SanitizeString(req.Name, 200),
			Unit:         strings.TrimSpace(req.Unit),
			SupplierID:   req.SupplierID,
			Stock:        req.Stock,
			MinimumStock: req.MinimumStock,
			MaximumStock: req.MaximumStock,
			CostPrice:    req.CostPrice,
			SellingPrice: req.SellingPrice,
			Actor:        actorOf(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func UpdateProduct(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, inventory.UpdateProductInput{
			SKU:          req.SKU,
			Name:         req.Name,
			Unit:         req.Unit,
			SupplierID:   req.SupplierID,
			MinimumStock: req.MinimumStock,
			MaximumStock: req.MaximumStock,
			CostPrice:    req.CostPrice,
			SellingPrice: req.SellingPrice,
			Version:      req.Version,
			Actor:        actorOf(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id, actorOf(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RecordMovement books a manual in/out/adjustment against one product.
func RecordMovement(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req recordMovementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithProductID(r.Context(), id.String())
		result, err := svc.RecordMovement(ctx, inventory.RecordMovementInput{
			ProductID: id,
			Type:      enums.MovementType(req.Type),
			Quantity:  req.Quantity,
			Reason:    validators.SanitizeString(req.Reason, 500),
			Reference: strings.TrimSpace(req.Reference),
			Actor:     actorOf(r),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListMovements serves both /movements and /products/{productId}/movements.
func ListMovements(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		pg, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := inventory.ListMovementsParams{Limit: pg.limit, Cursor: pg.cursor}
		if raw := routeParam(r, "productId"); raw != "" {
			id, err := validators.ParseURLUUID(r, "productId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			params.ProductID = &id
		} else if params.ProductID, err = validators.ParseQueryUUID(r, "product_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.OrderID, err = validators.ParseQueryUUID(r, "order_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.Type, err = enumQuery(r, "type", enums.ParseMovementType); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListMovements(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

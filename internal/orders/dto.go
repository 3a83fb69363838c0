package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	"github.com/angelmondragon/stockroom/pkg/pagination"
	"github.com/angelmondragon/stockroom/pkg/types"
)

// ItemInput is one requested order line. UnitPrice overrides the customer price.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

type CreateOrderInput struct {
	CustomerID uuid.UUID
	Notes      string
	Items      []ItemInput
	Actor      string
}

// PrepareItemInput targets the ItemIndex-th line of the order, ordered by position.
type PrepareItemInput struct {
	OrderID    uuid.UUID
	ItemIndex  int
	Quantity   int
	PreparedBy string
	Priority   enums.BackorderPriority
}

// PrepareResult reports what a preparation call actually did.
type PrepareResult struct {
	Order          *models.Order         `json:"order"`
	Item           models.OrderItem      `json:"item"`
	ActualPrepared int                   `json:"actual_prepared"`
	Backorder      *models.BackorderItem `json:"backorder,omitempty"`
}

type CompleteInput struct {
	OrderID      uuid.UUID
	AllowPartial bool
	Actor        string
}

type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Actor   string
}

type ListParams struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
	Limit      int
	Cursor     string
}

type ListResult = types.Page[models.Order]

type listParams struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

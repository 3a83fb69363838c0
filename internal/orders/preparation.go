package orders

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/internal/backorders"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

// classify maps a line's prepared quantity onto its preparation status.
func classify(quantity, prepared int) enums.PreparationStatus {
	switch {
	case prepared == quantity:
		return enums.PreparationStatusComplete
	case prepared > 0:
		return enums.PreparationStatusPartial
	case quantity-prepared > 0:
		return enums.PreparationStatusBackorder
	default:
		return enums.PreparationStatusPending
	}
}

// progress is the share of complete lines as a percentage with two decimals.
func progress(items []models.OrderItem) float64 {
	if len(items) == 0 {
		return 0
	}
	complete := 0
	for _, item := range items {
		if item.PreparationStatus == enums.PreparationStatusComplete {
			complete++
		}
	}
	return math.Round(float64(complete)/float64(len(items))*100*100) / 100
}

func ensurePreparable(order *models.Order) error {
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is "+order.Status.String()).
			WithDetails(map[string]any{"order_id": order.ID, "status": order.Status})
	}
	return nil
}

// PrepareItem sets how many units of one line are prepared. The line's own
// unshipped reservation counts as available so a re-prepare only moves the delta.
func (s *service) PrepareItem(ctx context.Context, input PrepareItemInput) (*PrepareResult, error) {
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prepared quantity cannot be negative")
	}
	if input.ItemIndex < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item index cannot be negative")
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid backorder priority")
	}

	var result *PrepareResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := ensurePreparable(order); err != nil {
			return err
		}
		if input.ItemIndex >= len(order.Items) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found").
				WithDetails(map[string]any{"order_id": order.ID, "item_index": input.ItemIndex, "items": len(order.Items)})
		}
		item := &order.Items[input.ItemIndex]
		if input.Quantity < item.ShippedQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "prepared quantity cannot drop below what already shipped").
				WithDetails(map[string]any{"shipped_quantity": item.ShippedQuantity})
		}

		product, err := s.ledger.Product(ctx, tx, item.ProductID)
		if err != nil {
			return err
		}

		available := product.Stock - product.ReservedStock + item.OutstandingReservation()
		maxPreparable := min(item.Quantity, available+item.ShippedQuantity)
		if maxPreparable < 0 {
			maxPreparable = 0
		}
		actual := min(input.Quantity, maxPreparable)
		backorderQty := item.Quantity - actual

		ref := s.movementRef(order, "order preparation", input.PreparedBy)
		delta := actual - item.PreparedQuantity
		switch {
		case delta > 0:
			product, err = s.ledger.Reserve(ctx, tx, product.ID, delta, ref)
		case delta < 0:
			product, err = s.ledger.Release(ctx, tx, product.ID, -delta, ref)
		}
		if err != nil {
			return err
		}

		var backorder *models.BackorderItem
		if backorderQty > 0 {
			backorder, err = s.backorders.Upsert(ctx, tx, backorders.Shortfall{
				OrderID:     order.ID,
				OrderItemID: item.ID,
				CustomerID:  order.CustomerID,
				ProductID:   product.ID,
				Quantity:    backorderQty,
				UnitPrice:   item.UnitPrice,
				Unit:        product.Unit,
				Priority:    input.Priority,
			})
		} else {
			err = s.backorders.Resolve(ctx, tx, order.ID, product.ID)
		}
		if err != nil {
			return err
		}

		now := s.now().UTC()
		item.PreparedQuantity = actual
		item.BackorderQuantity = backorderQty
		item.AvailableStock = product.Stock - product.ReservedStock
		item.PreparationStatus = classify(item.Quantity, actual)
		item.PreparedBy = input.PreparedBy
		item.PreparedAt = &now
		if err := repo.UpdateItem(ctx, item.ID, map[string]any{
			"prepared_quantity":  item.PreparedQuantity,
			"backorder_quantity": item.BackorderQuantity,
			"available_stock":    item.AvailableStock,
			"preparation_status": item.PreparationStatus,
			"prepared_by":        item.PreparedBy,
			"prepared_at":        now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
		}

		order.PreparationProgress = progress(order.Items)
		order.Status = enums.OrderStatusPreparing
		if order.PreparationProgress == 100 {
			order.Status = enums.OrderStatusReady
		}
		if err := s.saveOrder(ctx, repo, order, map[string]any{
			"status":               order.Status,
			"preparation_progress": order.PreparationProgress,
		}); err != nil {
			return err
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			Action:     "order.item_prepared",
			EntityType: "order",
			EntityID:   order.ID,
			Actor:      input.PreparedBy,
			Details: map[string]any{
				"position":           item.Position,
				"product_id":         product.ID,
				"requested":          input.Quantity,
				"prepared_quantity":  actual,
				"backorder_quantity": backorderQty,
				"reservation_delta":  delta,
			},
		}); err != nil {
			return err
		}

		result = &PrepareResult{Order: order, Item: *item, ActualPrepared: actual, Backorder: backorder}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteOrderPreparation ships every prepared but unshipped unit and marks
// the order ready. Without AllowPartial every line must be complete.
func (s *service) CompleteOrderPreparation(ctx context.Context, input CompleteInput) (*models.Order, error) {
	var completed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := ensurePreparable(order); err != nil {
			return err
		}
		if !input.AllowPartial {
			var incomplete []int
			for _, item := range order.Items {
				if item.PreparationStatus != enums.PreparationStatusComplete {
					incomplete = append(incomplete, item.Position)
				}
			}
			if len(incomplete) > 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order has items that are not fully prepared").
					WithDetails(map[string]any{"incomplete_positions": incomplete})
			}
		}

		shipped, err := s.shipOutstanding(ctx, tx, order, input.Actor)
		if err != nil {
			return err
		}

		order.PreparationProgress = progress(order.Items)
		order.Status = enums.OrderStatusReady
		if err := s.saveOrder(ctx, repo, order, map[string]any{
			"status":               order.Status,
			"preparation_progress": order.PreparationProgress,
		}); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Action:     "order.preparation_completed",
			EntityType: "order",
			EntityID:   order.ID,
			Actor:      input.Actor,
			Details:    map[string]any{"shipped_units": shipped, "allow_partial": input.AllowPartial},
		}); err != nil {
			return err
		}
		completed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// shipOutstanding books an out movement for every line's unshipped reservation.
func (s *service) shipOutstanding(ctx context.Context, tx *gorm.DB, order *models.Order, actor string) (int, error) {
	repo := s.repo.WithTx(tx)
	ref := s.movementRef(order, "order shipped", actor)
	total := 0
	for i := range order.Items {
		item := &order.Items[i]
		outstanding := item.OutstandingReservation()
		if outstanding <= 0 {
			continue
		}
		if _, err := s.ledger.Ship(ctx, tx, item.ProductID, outstanding, ref); err != nil {
			return 0, err
		}
		item.ShippedQuantity = item.PreparedQuantity
		if err := repo.UpdateItem(ctx, item.ID, map[string]any{"shipped_quantity": item.ShippedQuantity}); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
		}
		total += outstanding
	}
	return total, nil
}

package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/notifications"
	"github.com/angelmondragon/stockroom/internal/purchasing"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/logger"
	"github.com/angelmondragon/stockroom/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pendingSource interface {
	PendingQuantities(ctx context.Context) (map[uuid.UUID]int, error)
}

// Alert is one stock condition detected on a product.
type Alert struct {
	Type      enums.RuleTrigger
	ProductID uuid.UUID
	SKU       string
	Message   string
}

// ScanReport summarizes one scan cycle.
type ScanReport struct {
	Products      int `json:"products"`
	Alerts        int `json:"alerts"`
	Notifications int `json:"notifications"`
	RulesFired    int `json:"rules_fired"`
	Reorders      int `json:"reorders"`
}

// Scanner runs the periodic stock alert scan.
type Scanner interface {
	Scan(ctx context.Context) (*ScanReport, error)
}

type ScannerParams struct {
	Repository Repository
	Tx         txRunner
	Backorders pendingSource
	Notifier   notifications.Publisher
	Reorderer  purchasing.Reorderer
	Metrics    *metrics.LedgerMetrics
	Logger     *logger.Logger
	Now        func() time.Time
}

type scanner struct {
	repo       Repository
	tx         txRunner
	backorders pendingSource
	notifier   notifications.Publisher
	reorderer  purchasing.Reorderer
	metrics    *metrics.LedgerMetrics
	logg       *logger.Logger
	now        func() time.Time
}

func NewScanner(params ScannerParams) (Scanner, error) {
	switch {
	case params.Repository == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "automation repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case params.Backorders == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backorder source required")
	case params.Notifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification publisher required")
	case params.Reorderer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reorderer required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &scanner{
		repo:       params.Repository,
		tx:         params.Tx,
		backorders: params.Backorders,
		notifier:   params.Notifier,
		reorderer:  params.Reorderer,
		metrics:    params.Metrics,
		logg:       logg,
		now:        now,
	}, nil
}

// DetectAlerts evaluates every product against its thresholds. out_of_stock and
// low_stock are exclusive; a product at zero only raises out_of_stock.
func DetectAlerts(products []models.Product, pending map[uuid.UUID]int) []Alert {
	var alerts []Alert
	for _, p := range products {
		switch {
		case p.Stock <= 0:
			alerts = append(alerts, Alert{
				Type: enums.RuleTriggerOutOfStock, ProductID: p.ID, SKU: p.SKU,
				Message: fmt.Sprintf("%s (%s) is out of stock", p.Name, p.SKU),
			})
		case p.Stock <= p.MinimumStock:
			alerts = append(alerts, Alert{
				Type: enums.RuleTriggerLowStock, ProductID: p.ID, SKU: p.SKU,
				Message: fmt.Sprintf("%s (%s) is low: %d left, minimum %d", p.Name, p.SKU, p.Stock, p.MinimumStock),
			})
		}
		if p.MaximumStock > 0 && p.Stock > p.MaximumStock {
			alerts = append(alerts, Alert{
				Type: enums.RuleTriggerOverstock, ProductID: p.ID, SKU: p.SKU,
				Message: fmt.Sprintf("%s (%s) is overstocked: %d on hand, maximum %d", p.Name, p.SKU, p.Stock, p.MaximumStock),
			})
		}
		if qty := pending[p.ID]; qty > 0 {
			alerts = append(alerts, Alert{
				Type: enums.RuleTriggerPendingBackorder, ProductID: p.ID, SKU: p.SKU,
				Message: fmt.Sprintf("%s (%s) has %d units on backorder", p.Name, p.SKU, qty),
			})
		}
	}
	return alerts
}

// ReorderQuantity is the amount needed to bring stock back to the maximum, or to
// twice the minimum when no maximum is set.
func ReorderQuantity(p models.Product) int {
	target := p.MaximumStock
	if target <= 0 {
		target = 2 * p.MinimumStock
	}
	return max(target-p.Stock, 0)
}

func (s *scanner) Scan(ctx context.Context) (*ScanReport, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	pending, err := s.backorders.PendingQuantities(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending backorders")
	}
	rules, err := s.repo.ListRules(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rules")
	}

	byProduct := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byProduct[p.ID] = p
	}
	grouped := make(map[uuid.UUID][]Alert)
	var order []uuid.UUID
	alerts := DetectAlerts(products, pending)
	for _, a := range alerts {
		if _, ok := grouped[a.ProductID]; !ok {
			order = append(order, a.ProductID)
		}
		grouped[a.ProductID] = append(grouped[a.ProductID], a)
	}

	report := &ScanReport{Products: len(products), Alerts: len(alerts)}
	var errs error
	for _, productID := range order {
		product := byProduct[productID]
		var outcome ScanReport
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			outcome = ScanReport{}
			return s.handleProduct(ctx, tx, product, grouped[productID], rules, &outcome)
		})
		if err != nil {
			pctx := s.logg.WithProductID(ctx, productID.String())
			s.logg.Error(pctx, "stock alert handling failed", err)
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", product.SKU, err))
			continue
		}
		report.Notifications += outcome.Notifications
		report.RulesFired += outcome.RulesFired
		report.Reorders += outcome.Reorders
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"products":      report.Products,
		"alerts":        report.Alerts,
		"notifications": report.Notifications,
		"rules_fired":   report.RulesFired,
		"reorders":      report.Reorders,
	}), "stock alert scan finished")

	if errs != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeInternal, errs, "stock alert scan incomplete")
	}
	return report, nil
}

func (s *scanner) handleProduct(ctx context.Context, tx *gorm.DB, product models.Product, alerts []Alert, rules []models.AutomationRule, out *ScanReport) error {
	productID := product.ID
	now := s.now().UTC()
	for _, alert := range alerts {
		written, err := s.notifier.Notify(ctx, tx, notifications.NotifyInput{
			Type:      enums.NotificationTypeForAlert(alert.Type),
			ProductID: &productID,
			Title:     alertTitle(alert.Type),
			Message:   alert.Message,
		})
		if err != nil {
			return err
		}
		if written {
			out.Notifications++
			s.metrics.IncAlert(string(alert.Type))
		}

		for _, rule := range rules {
			if rule.Trigger != alert.Type {
				continue
			}
			fired, err := s.fireRule(ctx, tx, rule, product, alert, out)
			if err != nil {
				return fmt.Errorf("rule %s: %w", rule.Name, err)
			}
			if !fired {
				continue
			}
			out.RulesFired++
			if err := s.repo.WithTx(tx).TouchRule(ctx, rule.ID, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *scanner) fireRule(ctx context.Context, tx *gorm.DB, rule models.AutomationRule, product models.Product, alert Alert, out *ScanReport) (bool, error) {
	switch rule.Action {
	case enums.RuleActionNotify:
		productID := product.ID
		ruleID := rule.ID
		written, err := s.notifier.Notify(ctx, tx, notifications.NotifyInput{
			Type:      enums.NotificationTypeRule,
			ProductID: &productID,
			RuleID:    &ruleID,
			Title:     rule.Name,
			Message:   alert.Message,
		})
		if err != nil {
			return false, err
		}
		if written {
			out.Notifications++
		}
		return written, nil
	case enums.RuleActionReorder:
		if product.SupplierID == nil {
			return false, nil
		}
		qty := ReorderQuantity(product)
		if qty <= 0 {
			return false, nil
		}
		open, err := s.reorderer.HasOpenLineForProduct(ctx, tx, product.ID)
		if err != nil {
			return false, err
		}
		if open {
			return false, nil
		}
		if _, err := s.reorderer.AddDraftLine(ctx, tx, *product.SupplierID, product.ID, qty, product.CostPrice); err != nil {
			return false, err
		}
		out.Reorders++
		return true, nil
	default:
		return false, nil
	}
}

func alertTitle(trigger enums.RuleTrigger) string {
	switch trigger {
	case enums.RuleTriggerOutOfStock:
		return "Out of stock"
	case enums.RuleTriggerLowStock:
		return "Low stock"
	case enums.RuleTriggerOverstock:
		return "Overstock"
	case enums.RuleTriggerPendingBackorder:
		return "Pending backorder"
	default:
		return string(trigger)
	}
}

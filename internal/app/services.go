// Package app assembles the domain services over one database client.
package app

import (
	"github.com/angelmondragon/stockroom/internal/analytics"
	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/internal/automation"
	"github.com/angelmondragon/stockroom/internal/backorders"
	"github.com/angelmondragon/stockroom/internal/backup"
	"github.com/angelmondragon/stockroom/internal/customers"
	"github.com/angelmondragon/stockroom/internal/inventory"
	"github.com/angelmondragon/stockroom/internal/notifications"
	"github.com/angelmondragon/stockroom/internal/orders"
	"github.com/angelmondragon/stockroom/internal/purchasing"
	"github.com/angelmondragon/stockroom/pkg/db"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/logger"
	"github.com/angelmondragon/stockroom/pkg/metrics"
)

// Services is every domain service the API and workers call into.
type Services struct {
	Inventory     inventory.Service
	Customers     customers.Service
	Purchasing    purchasing.Service
	Orders        orders.Service
	Backorders    backorders.Service
	Analytics     analytics.Service
	Notifications notifications.Service
	Rules         automation.RuleService
	Scanner       automation.Scanner
	Backup        backup.Service
	Audit         audit.Service
}

type Options struct {
	Logger        *logger.Logger
	Metrics       *metrics.LedgerMetrics
	ExportVersion string
}

// NewServices wires repositories and services in dependency order.
func NewServices(client *db.Client, opts Options) (*Services, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	conn := client.DB()

	auditSvc, err := audit.NewService(audit.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	inventoryRepo := inventory.NewRepository(conn)
	ledger, err := inventory.NewLedger(inventoryRepo, opts.Metrics)
	if err != nil {
		return nil, err
	}
	inventorySvc, err := inventory.NewService(inventoryRepo, client, ledger, auditSvc)
	if err != nil {
		return nil, err
	}
	customerSvc, err := customers.NewService(customers.NewRepository(conn), ledger)
	if err != nil {
		return nil, err
	}
	purchasingSvc, err := purchasing.NewService(purchasing.NewRepository(conn), client, ledger, auditSvc)
	if err != nil {
		return nil, err
	}
	backorderSvc, err := backorders.NewService(backorders.NewRepository(conn), client, opts.Metrics)
	if err != nil {
		return nil, err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(conn),
		Tx:         client,
		Ledger:     ledger,
		Backorders: backorderSvc,
		Customers:  customerSvc,
		Pricer:     customerSvc,
		Audit:      auditSvc,
	})
	if err != nil {
		return nil, err
	}
	analyticsSvc, err := analytics.NewService(analytics.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	automationRepo := automation.NewRepository(conn)
	ruleSvc, err := automation.NewRuleService(automationRepo)
	if err != nil {
		return nil, err
	}
	scanner, err := automation.NewScanner(automation.ScannerParams{
		Repository: automationRepo,
		Tx:         client,
		Backorders: backorderSvc,
		Notifier:   notificationSvc,
		Reorderer:  purchasingSvc,
		Metrics:    opts.Metrics,
		Logger:     logg,
	})
	if err != nil {
		return nil, err
	}
	backupSvc, err := backup.NewService(backup.ServiceParams{
		Repository: backup.NewRepository(conn),
		Tx:         client,
		Audit:      auditSvc,
		Logger:     logg,
		Version:    opts.ExportVersion,
	})
	if err != nil {
		return nil, err
	}

	return &Services{
		Inventory:     inventorySvc,
		Customers:     customerSvc,
		Purchasing:    purchasingSvc,
		Orders:        orderSvc,
		Backorders:    backorderSvc,
		Analytics:     analyticsSvc,
		Notifications: notificationSvc,
		Rules:         ruleSvc,
		Scanner:       scanner,
		Backup:        backupSvc,
		Audit:         auditSvc,
	}, nil
}

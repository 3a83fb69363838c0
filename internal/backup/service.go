package backup

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

// Dataset is every persisted entity, in the layout of the JSON backup file.
type Dataset struct {
	Products        []models.Product        `json:"products"`
	Customers       []models.Customer       `json:"customers"`
	Suppliers       []models.Supplier       `json:"suppliers"`
	Orders          []models.Order          `json:"orders"`
	CustomerPrices  []models.CustomerPrice  `json:"customer_prices"`
	StockMovements  []models.StockMovement  `json:"stock_movements"`
	Backorders      []models.BackorderItem  `json:"backorders"`
	PurchaseOrders  []models.PurchaseOrder  `json:"purchase_orders"`
	AutomationRules []models.AutomationRule `json:"automation_rules"`
	Notifications   []models.Notification   `json:"notifications"`
	AuditEntries    []models.AuditEntry     `json:"audit_entries"`
}

// Backup is the exported document.
type Backup struct {
	ExportDate time.Time `json:"export_date"`
	Version    string    `json:"version"`
	Dataset
}

// requiredKeys must be present in an import document; everything else may be absent.
var requiredKeys = []string{"products", "orders", "customers", "suppliers"}

// Service exports and restores the whole database.
type Service interface {
	Export(ctx context.Context) (*Backup, error)
	Import(ctx context.Context, raw []byte, actor string) (*ImportSummary, error)
	Entities() []string
	ExportCSV(ctx context.Context, entity string, w io.Writer) error
	ExportXLSX(ctx context.Context, w io.Writer) error
}

type ImportSummary struct {
	Products  int `json:"products"`
	Customers int `json:"customers"`
	Suppliers int `json:"suppliers"`
	Orders    int `json:"orders"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Audit      audit.Recorder
	Logger     *logger.Logger
	Version    string
}

type service struct {
	repo    Repository
	tx      txRunner
	audit   audit.Recorder
	logg    *logger.Logger
	version string
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repository == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backup repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case params.Audit == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit recorder required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	version := params.Version
	if version == "" {
		version = "1"
	}
	return &service{
		repo:    params.Repository,
		tx:      params.Tx,
		audit:   params.Audit,
		logg:    logg,
		version: version,
		now:     time.Now,
	}, nil
}

func (s *service) Export(ctx context.Context) (*Backup, error) {
	data, err := s.repo.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dataset")
	}
	data.normalize()
	return &Backup{ExportDate: s.now().UTC(), Version: s.version, Dataset: *data}, nil
}

// Import replaces every table with the document's contents. The document is
// only checked for the four required keys; there is no merge.
func (s *service) Import(ctx context.Context, raw []byte, actor string) (*ImportSummary, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "backup is not a JSON object")
	}
	var missing []string
	for _, key := range requiredKeys {
		if _, ok := keys[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid backup file").
			WithDetails(map[string]any{"missing_keys": missing})
	}

	var doc Backup
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode backup")
	}
	data := doc.Dataset

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Replace(ctx, tx, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace dataset")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			Action:     "backup.imported",
			EntityType: "backup",
			Actor:      actor,
			Details: map[string]any{
				"version":     doc.Version,
				"export_date": doc.ExportDate,
				"products":    len(data.Products),
				"orders":      len(data.Orders),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		Products:  len(data.Products),
		Customers: len(data.Customers),
		Suppliers: len(data.Suppliers),
		Orders:    len(data.Orders),
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"products":  summary.Products,
		"customers": summary.Customers,
		"suppliers": summary.Suppliers,
		"orders":    summary.Orders,
	}), "backup imported")
	return summary, nil
}

// normalize turns nil slices into empty ones so every key encodes as an array.
func (d *Dataset) normalize() {
	if d.Products == nil {
		d.Products = []models.Product{}
	}
	if d.Customers == nil {
		d.Customers = []models.Customer{}
	}
	if d.Suppliers == nil {
		d.Suppliers = []models.Supplier{}
	}
	if d.Orders == nil {
		d.Orders = []models.Order{}
	}
	for i := range d.Orders {
		if d.Orders[i].Items == nil {
			d.Orders[i].Items = []models.OrderItem{}
		}
	}
	if d.CustomerPrices == nil {
		d.CustomerPrices = []models.CustomerPrice{}
	}
	if d.StockMovements == nil {
		d.StockMovements = []models.StockMovement{}
	}
	if d.Backorders == nil {
		d.Backorders = []models.BackorderItem{}
	}
	if d.PurchaseOrders == nil {
		d.PurchaseOrders = []models.PurchaseOrder{}
	}
	for i := range d.PurchaseOrders {
		if d.PurchaseOrders[i].Lines == nil {
			d.PurchaseOrders[i].Lines = []models.PurchaseOrderLine{}
		}
	}
	if d.AutomationRules == nil {
		d.AutomationRules = []models.AutomationRule{}
	}
	if d.Notifications == nil {
		d.Notifications = []models.Notification{}
	}
	if d.AuditEntries == nil {
		d.AuditEntries = []models.AuditEntry{}
	}
}

// entityRows maps an entity name to its rows plus a zero row used for the CSV
// header when the table is empty.
func (d *Dataset) entityRows() map[string]func() (any, any) {
	return map[string]func() (any, any){
		"products":         func() (any, any) { return d.Products, models.Product{} },
		"customers":        func() (any, any) { return d.Customers, models.Customer{} },
		"suppliers":        func() (any, any) { return d.Suppliers, models.Supplier{} },
		"orders":           func() (any, any) { return d.Orders, models.Order{} },
		"customer_prices":  func() (any, any) { return d.CustomerPrices, models.CustomerPrice{} },
		"stock_movements":  func() (any, any) { return d.StockMovements, models.StockMovement{} },
		"backorders":       func() (any, any) { return d.Backorders, models.BackorderItem{} },
		"purchase_orders":  func() (any, any) { return d.PurchaseOrders, models.PurchaseOrder{} },
		"automation_rules": func() (any, any) { return d.AutomationRules, models.AutomationRule{} },
		"notifications":    func() (any, any) { return d.Notifications, models.Notification{} },
		"audit_entries":    func() (any, any) { return d.AuditEntries, models.AuditEntry{} },
	}
}

func (s *service) Entities() []string {
	names := make([]string, 0, 11)
	for name := range (&Dataset{}).entityRows() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *service) ExportCSV(ctx context.Context, entity string, w io.Writer) error {
	entity = strings.ToLower(strings.TrimSpace(entity))
	data, err := s.repo.Load(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dataset")
	}
	data.normalize()
	source, ok := data.entityRows()[entity]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "unknown entity").
			WithDetails(map[string]any{"entity": entity, "known": s.Entities()})
	}
	rows, zero := source()
	return writeCSV(w, rows, zero)
}

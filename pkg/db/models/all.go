package models

// All lists every persisted model in dependency order; used by test schemas and backups.
func All() []any {
	return []any{
		&Supplier{},
		&Customer{},
		&Product{},
		&CustomerPrice{},
		&Order{},
		&OrderItem{},
		&StockMovement{},
		&BackorderItem{},
		&PurchaseOrder{},
		&PurchaseOrderLine{},
		&AutomationRule{},
		&Notification{},
		&AuditEntry{},
	}
}

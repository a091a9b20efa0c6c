package models

import "github.com/google/uuid"

// assignID fills a zero primary key before insert so rows get ids on every
// dialect without relying on database defaults.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&StoreSetting{},
		&Customer{},
		&Product{},
		&ProductPrice{},
		&Discount{},
		&Cart{},
		&CartItem{},
		&Register{},
		&RegisterTransaction{},
		&LedgerCorrection{},
		&Sale{},
		&SaleItem{},
		&Refund{},
		&RefundItem{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}

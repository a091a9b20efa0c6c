package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateSale     OutboxAggregateType = "sale"
	AggregateRefund   OutboxAggregateType = "refund"
	AggregateRegister OutboxAggregateType = "register"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSale,
	AggregateRefund,
	AggregateRegister,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event published from the outbox.
type OutboxEventType string

const (
	EventSaleCompleted   OutboxEventType = "sale_completed"
	EventRefundCompleted OutboxEventType = "refund_completed"
	EventRegisterOpened  OutboxEventType = "register_opened"
	EventRegisterClosed  OutboxEventType = "register_closed"
	EventLedgerCorrected OutboxEventType = "ledger_corrected"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSaleCompleted,
	EventRefundCompleted,
	EventRegisterOpened,
	EventRegisterClosed,
	EventLedgerCorrected,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

package enums

import "fmt"

// RefundStatus tracks a refund from request to settlement. Only pending
// refunds move, and they move exactly once.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusRejected  RefundStatus = "rejected"
)

func (r RefundStatus) String() string {
	return string(r)
}

func (r RefundStatus) IsValid() bool {
	switch r {
	case RefundStatusPending, RefundStatusCompleted, RefundStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further decision can be taken.
func (r RefundStatus) IsTerminal() bool {
	return r == RefundStatusCompleted || r == RefundStatusRejected
}

// HoldsQuantity reports whether refund lines in this status count against
// the quantity still refundable on the sale. Rejection releases them.
func (r RefundStatus) HoldsQuantity() bool {
	return r == RefundStatusPending || r == RefundStatusCompleted
}

// QuantityHoldingRefundStatuses lists the statuses for which HoldsQuantity is true.
func QuantityHoldingRefundStatuses() []RefundStatus {
	return []RefundStatus{RefundStatusPending, RefundStatusCompleted}
}

func ParseRefundStatus(value string) (RefundStatus, error) {
	if s := RefundStatus(value); s.IsValid() {
		return s, nil
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}

// Package permissions answers whether a staff role may perform an action.
package permissions

import "github.com/angelmondragon/tillpoint-backend/pkg/enums"

// Action names one guarded operation.
type Action string

const (
	CartManage     Action = "cart:manage"
	CartCheckout   Action = "cart:checkout"
	RegisterView   Action = "register:view"
	RegisterCreate Action = "register:create"
	RegisterOpen   Action = "register:open"
	RegisterClose  Action = "register:close"
	RegisterRecord Action = "register:record"
	LedgerCorrect  Action = "ledger:correct"
	RefundRequest  Action = "refund:request"
	RefundApprove  Action = "refund:approve"
	DiscountView   Action = "discount:view"
	DiscountManage Action = "discount:manage"
	SettingsView   Action = "settings:view"
	SettingsManage Action = "settings:manage"
)

var cashierActions = []Action{
	CartManage,
	CartCheckout,
	RegisterView,
	RegisterOpen,
	RegisterClose,
	RegisterRecord,
	RefundRequest,
	DiscountView,
	SettingsView,
}

var managerActions = append(append([]Action{}, cashierActions...),
	LedgerCorrect,
	RefundApprove,
	DiscountManage,
)

var matrix = map[enums.StaffRole]map[Action]struct{}{
	enums.StaffRoleCashier: toSet(cashierActions),
	enums.StaffRoleManager: toSet(managerActions),
}

func toSet(actions []Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// HasPermission reports whether role may perform action. Admin may do
// everything; unknown roles nothing.
func HasPermission(role enums.StaffRole, action Action) bool {
	if role == enums.StaffRoleAdmin {
		return true
	}
	allowed, ok := matrix[role]
	if !ok {
		return false
	}
	_, ok = allowed[action]
	return ok
}

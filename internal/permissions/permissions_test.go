package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		role   enums.StaffRole
		action Action
		want   bool
	}{
		{enums.StaffRoleCashier, CartCheckout, true},
		{enums.StaffRoleCashier, RegisterClose, true},
		{enums.StaffRoleCashier, RefundRequest, true},
		{enums.StaffRoleCashier, RefundApprove, false},
		{enums.StaffRoleCashier, LedgerCorrect, false},
		{enums.StaffRoleCashier, DiscountManage, false},
		{enums.StaffRoleCashier, RegisterCreate, false},
		{enums.StaffRoleManager, LedgerCorrect, true},
		{enums.StaffRoleManager, RefundApprove, true},
		{enums.StaffRoleManager, SettingsManage, false},
		{enums.StaffRoleAdmin, SettingsManage, true},
		{enums.StaffRoleAdmin, RegisterCreate, true},
		{enums.StaffRole("owner"), CartManage, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HasPermission(tc.role, tc.action), "%s %s", tc.role, tc.action)
	}
}

func TestManagerInheritsCashierActions(t *testing.T) {
	for _, action := range cashierActions {
		assert.True(t, HasPermission(enums.StaffRoleManager, action), action)
	}
}

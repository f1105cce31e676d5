package model

import (
	"fmt"
	"strings"
)

// Hook is an extension point in the pool action lifecycle.
type Hook uint8

const (
	HookContinuous Hook = iota
	HookPreBuyShares
	HookPostBuyShares
	HookPreRedeemShares
	HookPostCallOnIntegration
	HookAddTrackedAssets
	HookRemoveTrackedAssets
	HookCreateExternalPosition
	HookCallOnExternalPosition
	HookRemoveExternalPosition
	HookPreTransferShares
	HookRedeemSharesForSpecificAssets
)

var hookNames = []string{
	"Continuous",
	"PreBuyShares",
	"PostBuyShares",
	"PreRedeemShares",
	"PostCallOnIntegration",
	"AddTrackedAssets",
	"RemoveTrackedAssets",
	"CreateExternalPosition",
	"CallOnExternalPosition",
	"RemoveExternalPosition",
	"PreTransferShares",
	"RedeemSharesForSpecificAssets",
}

func (h Hook) String() string {
	if int(h) < len(hookNames) {
		return hookNames[h]
	}
	return fmt.Sprintf("hook(%d)", h)
}

// ParseHook resolves a hook by its case-insensitive name.
func ParseHook(name string) (Hook, error) {
	for i, n := range hookNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Hook(i), nil
		}
	}
	return 0, fmt.Errorf("unknown hook: %s", name)
}

// SettlementType is how a fee's due amount is applied to shares.
type SettlementType uint8

const (
	SettlementNone SettlementType = iota
	SettlementDirect
	SettlementMint
	SettlementBurn
)

func (s SettlementType) String() string {
	switch s {
	case SettlementNone:
		return "none"
	case SettlementDirect:
		return "direct"
	case SettlementMint:
		return "mint"
	case SettlementBurn:
		return "burn"
	default:
		return fmt.Sprintf("settlement(%d)", s)
	}
}

// Action ids accepted by the extensions through the controller's extension dispatch.
const (
	FeeActionInvokeContinuousHook    uint64 = 0
	FeeActionPayoutSharesOutstanding uint64 = 1

	PolicyActionEnablePolicy         uint64 = 0
	PolicyActionDisablePolicy        uint64 = 1
	PolicyActionUpdatePolicySettings uint64 = 2

	IntegrationActionCallOnIntegration   uint64 = 0
	IntegrationActionAddTrackedAssets    uint64 = 1
	IntegrationActionRemoveTrackedAssets uint64 = 2

	PositionActionCreate     uint64 = 0
	PositionActionCall       uint64 = 1
	PositionActionRemove     uint64 = 2
	PositionActionReactivate uint64 = 3
)

package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// HookArgs carries the validation or settlement data of one hook invocation.
type HookArgs interface {
	Hook() Hook
}

// ContinuousArgs is passed to fees on the continuous hook.
type ContinuousArgs struct{}

// PreBuySharesArgs is passed before shares are priced and minted.
type PreBuySharesArgs struct {
	Buyer            common.Address
	InvestmentAmount *big.Int
}

// PostBuySharesArgs is passed after shares are minted to the buyer.
type PostBuySharesArgs struct {
	Buyer            common.Address
	InvestmentAmount *big.Int
	SharesIssued     *big.Int
	Gav              *big.Int
}

// PreRedeemSharesArgs is passed before shares are burned.
type PreRedeemSharesArgs struct {
	Redeemer          common.Address
	SharesToRedeem    *big.Int
	ForSpecificAssets bool
}

// PostCallOnIntegrationArgs describes an executed integration call.
type PostCallOnIntegrationArgs struct {
	Caller               common.Address
	Adapter              common.Address
	Selector             [4]byte
	IncomingAssets       []common.Address
	IncomingAssetAmounts []*big.Int
	SpendAssets          []common.Address
	SpendAssetAmounts    []*big.Int
}

// TrackedAssetsArgs is passed when assets are added to or removed from the tracked set.
type TrackedAssetsArgs struct {
	Caller  common.Address
	Assets  []common.Address
	Removed bool
}

// CreateExternalPositionArgs is passed after a position proxy is deployed.
type CreateExternalPositionArgs struct {
	Caller           common.Address
	TypeID           uint64
	ExternalPosition common.Address
	InitArgs         []byte
}

// CallOnExternalPositionArgs is passed after an action on a position.
type CallOnExternalPositionArgs struct {
	Caller            common.Address
	ExternalPosition  common.Address
	AssetsToTransfer  []common.Address
	AmountsToTransfer []*big.Int
	AssetsToReceive   []common.Address
	ActionID          uint64
	ActionArgs        []byte
}

// RemoveExternalPositionArgs is passed before a position is removed from the vault.
type RemoveExternalPositionArgs struct {
	Caller           common.Address
	ExternalPosition common.Address
}

// PreTransferSharesArgs is passed before a holder transfers shares.
type PreTransferSharesArgs struct {
	Sender    common.Address
	Recipient common.Address
	Amount    *big.Int
}

// RedeemSharesForSpecificAssetsArgs is passed after a specific-asset payout.
type RedeemSharesForSpecificAssetsArgs struct {
	Redeemer       common.Address
	Recipient      common.Address
	SharesToRedeem *big.Int
	Assets         []common.Address
	AssetAmounts   []*big.Int
	Gav            *big.Int
}

func (ContinuousArgs) Hook() Hook                    { return HookContinuous }
func (PreBuySharesArgs) Hook() Hook                  { return HookPreBuyShares }
func (PostBuySharesArgs) Hook() Hook                 { return HookPostBuyShares }
func (PreRedeemSharesArgs) Hook() Hook               { return HookPreRedeemShares }
func (PostCallOnIntegrationArgs) Hook() Hook         { return HookPostCallOnIntegration }
func (CreateExternalPositionArgs) Hook() Hook        { return HookCreateExternalPosition }
func (CallOnExternalPositionArgs) Hook() Hook        { return HookCallOnExternalPosition }
func (RemoveExternalPositionArgs) Hook() Hook        { return HookRemoveExternalPosition }
func (PreTransferSharesArgs) Hook() Hook             { return HookPreTransferShares }
func (RedeemSharesForSpecificAssetsArgs) Hook() Hook { return HookRedeemSharesForSpecificAssets }

func (a TrackedAssetsArgs) Hook() Hook {
	if a.Removed {
		return HookRemoveTrackedAssets
	}
	return HookAddTrackedAssets
}

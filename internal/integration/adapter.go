// Package integration runs vault assets through external-protocol adapters.
//
// An adapter never touches the vault directly. The manager moves the declared
// spend assets into the adapter's own wallet, lets the adapter act, and then
// checks the vault's balances against what the adapter declared up front.
package integration

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/token"
	"fundCore/internal/txn"
)

// Declaration is what an adapter says an action will spend and return.
type Declaration struct {
	SpendAssets             []common.Address
	MaxSpendAssetAmounts    []*big.Int
	IncomingAssets          []common.Address
	MinIncomingAssetAmounts []*big.Int
}

// Adapter wraps one external protocol.
type Adapter interface {
	Address() common.Address
	Identifier() string
	// ParseAssetsForAction declares the asset movement of an action without performing it.
	ParseAssetsForAction(vault common.Address, selector [4]byte, data []byte) (Declaration, error)
	// Execute performs the action. The wallet is bound to the adapter's address;
	// incoming assets must be sent to vault.
	Execute(tx *txn.Tx, wallet *token.Wallet, vault common.Address, selector [4]byte, data []byte) error
}

// Package extposition manages positions a vault holds outside its own custody,
// such as loans or locked stakes, through a typed registry of position kinds.
package extposition

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/token"
	"fundCore/internal/txn"
)

// Position is a deployed external position proxy.
type Position interface {
	Address() common.Address
	Init(tx *txn.Tx, initArgs []byte) error
	// ReceiveCallFromVault performs an action. The wallet is bound to the
	// position's own address.
	ReceiveCallFromVault(tx *txn.Tx, wallet *token.Wallet, vault common.Address, actionID uint64, args []byte) error
	ManagedAssets() ([]common.Address, []*big.Int, error)
	DebtAssets() ([]common.Address, []*big.Int, error)
}

// Movement declares the assets a position action moves.
type Movement struct {
	AssetsToTransfer  []common.Address
	AmountsToTransfer []*big.Int
	AssetsToReceive   []common.Address
}

// Parser validates position payloads before anything moves.
type Parser interface {
	ParseInitArgs(vault common.Address, initArgs []byte) error
	ParseAssetsForAction(position common.Address, actionID uint64, args []byte) (Movement, error)
}

// Factory builds the position living at address for vault.
type Factory func(address, vault common.Address) Position

// Package fund defines what a controller exposes to the extensions it invokes.
package fund

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/model"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/valueinterp"
	"fundCore/internal/vault"
)

// SharesUnit is one whole share (18 decimals).
var SharesUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// MaxBps is 100% in basis points.
const MaxBps = 10000

// Context is a pool as seen from an extension during a hook or action.
type Context interface {
	Address() common.Address
	Vault() *vault.Vault
	DenominationAsset() common.Address
	Tokens() *token.Ledger
	ValueInterpreter() valueinterp.Interpreter

	// CalcGav returns the gross asset value in the denomination asset and
	// whether every holding could be valued.
	CalcGav(ctx context.Context, bestEffort bool) (*big.Int, bool, error)

	// ValidatePolicies runs the pool's policies subscribed to args' hook.
	ValidatePolicies(tx *txn.Tx, args model.HookArgs) error

	VaultActions
}

// VaultActions are vault mutations an extension may request through the
// controller. caller is the requesting extension; the controller honors a
// request only while one of its own actions is in progress.
type VaultActions interface {
	MintShares(tx *txn.Tx, caller, to common.Address, amount *big.Int) error
	BurnShares(tx *txn.Tx, caller, from common.Address, amount *big.Int) error
	TransferShares(tx *txn.Tx, caller, from, to common.Address, amount *big.Int) error
	WithdrawAssetTo(tx *txn.Tx, caller, asset, to common.Address, amount *big.Int) error
	AddTrackedAsset(tx *txn.Tx, caller, asset common.Address) error
	RemoveTrackedAsset(tx *txn.Tx, caller, asset common.Address) error
	AddExternalPosition(tx *txn.Tx, caller, position common.Address) error
	RemoveExternalPosition(tx *txn.Tx, caller, position common.Address) error
}

// Extension is a manager reachable through the controller's extension dispatch.
type Extension interface {
	Address() common.Address
	ReceiveCallFromController(tx *txn.Tx, f Context, caller common.Address, actionID uint64, data []byte) error
}

// Lifecycle is implemented by extensions that keep per-pool configuration.
type Lifecycle interface {
	ActivateForFund(tx *txn.Tx, f Context) error
	DeactivateForFund(tx *txn.Tx, f Context) error
}

// MulDiv returns a*b/c rounded down.
func MulDiv(a, b, c *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, c)
}

// Bps returns amount*bps/MaxBps rounded down.
func Bps(amount, bps *big.Int) *big.Int {
	return MulDiv(amount, bps, big.NewInt(MaxBps))
}

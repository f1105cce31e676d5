// Package token keeps custody balances of every asset the engine touches.
package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/model"
	"fundCore/internal/txn"
)

type balanceKey struct {
	asset  common.Address
	holder common.Address
}

// Ledger holds ERC20-like balances per (asset, holder).
type Ledger struct {
	logger   *zap.Logger
	assets   *txn.Map[common.Address, model.TokenMeta]
	balances *txn.Map[balanceKey, *big.Int]
	supply   *txn.Map[common.Address, *big.Int]
}

func NewLedger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		logger:   logger,
		assets:   txn.NewMap[common.Address, model.TokenMeta](),
		balances: txn.NewMap[balanceKey, *big.Int](),
		supply:   txn.NewMap[common.Address, *big.Int](),
	}
}

// RegisterAsset makes asset known to the ledger.
func (l *Ledger) RegisterAsset(tx *txn.Tx, asset common.Address, symbol string, decimals uint8) error {
	if _, ok := l.assets.Get(asset); ok {
		return errs.E(errs.KindAlreadyInitialized, "register asset", "%s", asset.Hex())
	}
	if decimals > 36 {
		return errs.E(errs.KindInvalidConfiguration, "register asset", "decimals %d", decimals)
	}
	l.assets.Set(tx, asset, model.TokenMeta{
		Address:  asset.Hex(),
		Decimals: decimals,
		Symbol:   symbol,
		Name:     symbol,
	})
	l.logger.Debug("asset registered", zap.String("asset", asset.Hex()), zap.String("symbol", symbol))
	return nil
}

func (l *Ledger) IsRegistered(asset common.Address) bool {
	_, ok := l.assets.Get(asset)
	return ok
}

func (l *Ledger) Meta(asset common.Address) (model.TokenMeta, bool) {
	return l.assets.Get(asset)
}

// Unit returns 10^decimals of asset.
func (l *Ledger) Unit(asset common.Address) (*big.Int, error) {
	meta, ok := l.assets.Get(asset)
	if !ok {
		return nil, errs.E(errs.KindUnsupportedAsset, "asset unit", "%s", asset.Hex())
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(meta.Decimals)), nil), nil
}

func (l *Ledger) BalanceOf(asset, holder common.Address) *big.Int {
	if v, ok := l.balances.Get(balanceKey{asset: asset, holder: holder}); ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (l *Ledger) TotalSupply(asset common.Address) *big.Int {
	if v, ok := l.supply.Get(asset); ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Mint credits amount of a registered asset to holder.
func (l *Ledger) Mint(tx *txn.Tx, asset, to common.Address, amount *big.Int) error {
	if !l.IsRegistered(asset) {
		return errs.E(errs.KindUnsupportedAsset, "mint asset", "%s", asset.Hex())
	}
	if amount.Sign() < 0 {
		return errs.E(errs.KindInvalidConfiguration, "mint asset", "negative amount")
	}
	l.setBalance(tx, asset, to, new(big.Int).Add(l.BalanceOf(asset, to), amount))
	l.supply.Set(tx, asset, new(big.Int).Add(l.TotalSupply(asset), amount))
	tx.Emit(asset, events.Transfer, common.Address{}, to, new(big.Int).Set(amount))
	return nil
}

// Burn debits amount of asset from holder.
func (l *Ledger) Burn(tx *txn.Tx, asset, from common.Address, amount *big.Int) error {
	bal := l.BalanceOf(asset, from)
	if amount.Sign() < 0 || bal.Cmp(amount) < 0 {
		return errs.E(errs.KindInsufficientBalance, "burn asset", "%s has %s, needs %s", from.Hex(), bal, amount)
	}
	l.setBalance(tx, asset, from, bal.Sub(bal, amount))
	l.supply.Set(tx, asset, new(big.Int).Sub(l.TotalSupply(asset), amount))
	tx.Emit(asset, events.Transfer, from, common.Address{}, new(big.Int).Set(amount))
	return nil
}

// Transfer moves amount of asset between holders. Zero amounts are a no-op.
func (l *Ledger) Transfer(tx *txn.Tx, asset, from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal := l.BalanceOf(asset, from)
	if amount.Sign() < 0 || bal.Cmp(amount) < 0 {
		return errs.E(errs.KindInsufficientBalance, "transfer asset", "%s has %s of %s, needs %s", from.Hex(), bal, asset.Hex(), amount)
	}
	if from == to {
		return nil
	}
	l.setBalance(tx, asset, from, bal.Sub(bal, amount))
	l.setBalance(tx, asset, to, new(big.Int).Add(l.BalanceOf(asset, to), amount))
	tx.Emit(asset, events.Transfer, from, to, new(big.Int).Set(amount))
	return nil
}

func (l *Ledger) setBalance(tx *txn.Tx, asset, holder common.Address, v *big.Int) {
	key := balanceKey{asset: asset, holder: holder}
	if v.Sign() == 0 {
		l.balances.Delete(tx, key)
		return
	}
	l.balances.Set(tx, key, v)
}

// Wallet returns a capability that can only move holder's own balances.
func (l *Ledger) Wallet(holder common.Address) *Wallet {
	return &Wallet{ledger: l, holder: holder}
}

// Wallet is bound to a single holder.
type Wallet struct {
	ledger *Ledger
	holder common.Address
}

func (w *Wallet) Address() common.Address {
	return w.holder
}

func (w *Wallet) Balance(asset common.Address) *big.Int {
	return w.ledger.BalanceOf(asset, w.holder)
}

func (w *Wallet) Transfer(tx *txn.Tx, asset, to common.Address, amount *big.Int) error {
	return w.ledger.Transfer(tx, asset, w.holder, to, amount)
}

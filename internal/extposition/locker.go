package extposition

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/settings"
	"fundCore/internal/token"
	"fundCore/internal/txn"
)

// Locker actions. Both take (address[] assets, uint256[] amounts).
const (
	LockerActionLock   uint64 = 0
	LockerActionUnlock uint64 = 1
)

// Locker is a position that escrows vault assets and releases them back on
// request. It reports the escrowed balances as managed assets and has no debt.
type Locker struct {
	address common.Address
	tokens  *token.Ledger
	assets  txn.List[common.Address]
}

// LockerParser declares the movement of Locker actions.
type LockerParser struct{}

// NewLockerFactory returns a factory for lockers holding balances in tokens.
func NewLockerFactory(tokens *token.Ledger) Factory {
	return func(address, _ common.Address) Position {
		return &Locker{address: address, tokens: tokens}
	}
}

func (l *Locker) Address() common.Address { return l.address }

func (l *Locker) Init(*txn.Tx, []byte) error { return nil }

func (l *Locker) ReceiveCallFromVault(tx *txn.Tx, wallet *token.Wallet, vault common.Address, actionID uint64, args []byte) error {
	assets, amounts, err := settings.DecodeAssetAmounts(args)
	if err != nil {
		return fmt.Errorf("decode locker args: %w", err)
	}
	switch actionID {
	case LockerActionLock:
		for _, asset := range assets {
			l.assets.Add(tx, asset)
		}
		return nil
	case LockerActionUnlock:
		for i, asset := range assets {
			if err := wallet.Transfer(tx, asset, vault, amounts[i]); err != nil {
				return err
			}
			if l.tokens.BalanceOf(asset, l.address).Sign() == 0 {
				l.assets.Remove(tx, asset)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown locker action %d", actionID)
	}
}

func (l *Locker) ManagedAssets() ([]common.Address, []*big.Int, error) {
	assets := l.assets.Items()
	amounts := make([]*big.Int, len(assets))
	for i, asset := range assets {
		amounts[i] = l.tokens.BalanceOf(asset, l.address)
	}
	return assets, amounts, nil
}

func (l *Locker) DebtAssets() ([]common.Address, []*big.Int, error) {
	return nil, nil, nil
}

func (LockerParser) ParseInitArgs(common.Address, []byte) error { return nil }

func (LockerParser) ParseAssetsForAction(_ common.Address, actionID uint64, args []byte) (Movement, error) {
	assets, amounts, err := settings.DecodeAssetAmounts(args)
	if err != nil {
		return Movement{}, fmt.Errorf("decode locker args: %w", err)
	}
	switch actionID {
	case LockerActionLock:
		return Movement{AssetsToTransfer: assets, AmountsToTransfer: amounts}, nil
	case LockerActionUnlock:
		return Movement{AssetsToReceive: assets}, nil
	default:
		return Movement{}, fmt.Errorf("unknown locker action %d", actionID)
	}
}

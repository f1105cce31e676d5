package scenario

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/controller"
	"fundCore/internal/deployer"
	"fundCore/internal/extposition"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/txn"
)

const sharesDecimals = 18

type handler func(ctx context.Context, w *World, st Step) (*txn.Receipt, error)

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"create_fund":     createFund,
		"buy":             buy,
		"redeem":          redeem,
		"redeem_specific": redeemSpecific,
		"transfer_shares": transferShares,

		"mint":            mint,
		"set_rate":        setRate,
		"invalidate_rate": invalidateRate,
		"advance":         advance,

		"continuous":         continuous,
		"payout_outstanding": payoutOutstanding,
		"track_assets":       trackAssets(model.IntegrationActionAddTrackedAssets),
		"untrack_assets":     trackAssets(model.IntegrationActionRemoveTrackedAssets),

		"create_position":     createPosition,
		"lock":                positionCall(extposition.LockerActionLock),
		"unlock":              positionCall(extposition.LockerActionUnlock),
		"remove_position":     positionAction(model.PositionActionRemove),
		"reactivate_position": positionAction(model.PositionActionReactivate),

		"signal_migration":        signalMigration,
		"execute_migration":       executeMigration,
		"cancel_migration":        cancelMigration,
		"request_reconfiguration": requestReconfiguration,
		"execute_reconfiguration": reconfiguration(true),
		"cancel_reconfiguration":  reconfiguration(false),

		"set_release_status":     setReleaseStatus,
		"set_current_release":    setCurrentRelease,
		"set_migration_timelock": setMigrationTimelock,
	}
}

// unit runs fn as the step's account.
func (w *World) unit(ctx context.Context, st Step, fn func(tx *txn.Tx, caller common.Address) error) (*txn.Receipt, error) {
	caller, err := w.account(st.Account)
	if err != nil {
		return nil, err
	}
	label := st.Label
	if label == "" {
		label = st.Action
	}
	return w.Processor.Execute(ctx, caller, label, func(tx *txn.Tx) error {
		return fn(tx, caller)
	})
}

func (w *World) account(name string) (common.Address, error) {
	if strings.TrimSpace(name) == "" {
		return w.governor, nil
	}
	return w.Book.Lookup(name)
}

// holder resolves a holder name, where "vault" is vaultAddr.
func (w *World) holder(name string, vaultAddr common.Address) (common.Address, error) {
	if strings.EqualFold(strings.TrimSpace(name), "vault") {
		return vaultAddr, nil
	}
	return w.Book.Lookup(name)
}

func (w *World) recipient(st Step, fallback common.Address) (common.Address, error) {
	if st.Recipient == "" {
		return fallback, nil
	}
	return w.Book.Lookup(st.Recipient)
}

func (w *World) assetList(symbols []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(symbols))
	for _, sym := range symbols {
		addr, _, err := w.asset(sym)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func (w *World) assetAmounts(symbols, amounts []string) ([]common.Address, []*big.Int, error) {
	if len(symbols) != len(amounts) {
		return nil, nil, fmt.Errorf("%d assets for %d amounts", len(symbols), len(amounts))
	}
	assets := make([]common.Address, len(symbols))
	values := make([]*big.Int, len(symbols))
	for i, sym := range symbols {
		addr, decimals, err := w.asset(sym)
		if err != nil {
			return nil, nil, err
		}
		v, err := parseAmount(amounts[i], decimals)
		if err != nil {
			return nil, nil, err
		}
		assets[i], values[i] = addr, v
	}
	return assets, values, nil
}

func (w *World) controlParams(rel *deployer.Release, st Step, fallback *controller.Controller) (deployer.ControllerParams, error) {
	var p deployer.ControllerParams
	denom := st.Denomination
	switch {
	case denom != "":
		addr, _, err := w.asset(denom)
		if err != nil {
			return p, err
		}
		p.DenominationAsset = addr
	case fallback != nil:
		p.DenominationAsset = fallback.DenominationAsset()
	default:
		return p, fmt.Errorf("denomination asset is required")
	}
	p.SharesActionTimelock = st.SharesActionTimelock
	cfg, err := w.extensionConfig(rel, st.Fees, st.Policies, w.decimals(p.DenominationAsset))
	if err != nil {
		return p, err
	}
	p.Config = cfg
	return p, nil
}

func createFund(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	if st.Fund == "" {
		return nil, fmt.Errorf("create_fund needs a fund name")
	}
	if _, dup := w.funds[st.Fund]; dup {
		return nil, fmt.Errorf("fund %s already exists", st.Fund)
	}
	rel, err := w.release(st.Release)
	if err != nil {
		return nil, err
	}
	cp, err := w.controlParams(rel, st, nil)
	if err != nil {
		return nil, err
	}
	ownerRef := st.Owner
	if ownerRef == "" {
		ownerRef = st.Account
	}
	owner, err := w.account(ownerRef)
	if err != nil {
		return nil, err
	}
	name := st.Name
	if name == "" {
		name = st.Fund
	}
	var vaultAddr common.Address
	receipt, err := w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		c, err := rel.Deployer.CreateNewFund(tx, caller, deployer.FundParams{
			Owner:                owner,
			Name:                 name,
			Symbol:               st.Symbol,
			DenominationAsset:    cp.DenominationAsset,
			SharesActionTimelock: cp.SharesActionTimelock,
			Config:               cp.Config,
		})
		if err != nil {
			return err
		}
		vaultAddr = c.Vault().Address()
		return nil
	})
	if err != nil {
		return receipt, err
	}
	w.funds[st.Fund] = vaultAddr
	w.Book.Set(st.Fund, vaultAddr)
	return receipt, nil
}

func buy(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	_, c, err := w.Fund(st.Fund)
	if err != nil {
		return nil, err
	}
	decimals := w.decimals(c.DenominationAsset())
	investment, err := parseAmount(st.Amount, decimals)
	if err != nil {
		return nil, err
	}
	minShares, err := parseOptional(st.MinShares, sharesDecimals)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		buyer, err := w.recipient(st, caller)
		if err != nil {
			return err
		}
		_, err = c.BuyShares(tx, caller, buyer, investment, minShares)
		return err
	})
}

func redeem(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	_, c, err := w.Fund(st.Fund)
	if err != nil {
		return nil, err
	}
	shares, err := parseAmount(st.Shares, sharesDecimals)
	if err != nil {
		return nil, err
	}
	additional, err := w.assetList(st.Assets)
	if err != nil {
		return nil, err
	}
	skip, err := w.assetList(st.Skip)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		to, err := w.recipient(st, caller)
		if err != nil {
			return err
		}
		_, _, err = c.RedeemSharesInKind(tx, caller, to, shares, additional, skip)
		return err
	})
}

func redeemSpecific(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	_, c, err := w.Fund(st.Fund)
	if err != nil {
		return nil, err
	}
	shares, err := parseAmount(st.Shares, sharesDecimals)
	if err != nil {
		return nil, err
	}
	assets, err := w.assetList(st.Assets)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		to, err := w.recipient(st, caller)
		if err != nil {
			return err
		}
		_, err = c.RedeemSharesForSpecificAssets(tx, caller, to, shares, assets, st.Bps)
		return err
	})
}

func transferShares(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	_, c, err := w.Fund(st.Fund)
	if err != nil {
		return nil, err
	}
	shares, err := parseAmount(st.Shares, sharesDecimals)
	if err != nil {
		return nil, err
	}
	to, err := w.Book.Lookup(st.Recipient)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		return c.Vault().Transfer(tx, caller, to, shares)
	})
}

func mint(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	asset, decimals, err := w.asset(st.Asset)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(st.Amount, decimals)
	if err != nil {
		return nil, err
	}
	var to common.Address
	if st.Fund != "" {
		if to, _, err = w.Fund(st.Fund); err != nil {
			return nil, err
		}
	} else if to, err = w.Book.Lookup(st.Recipient); err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, _ common.Address) error {
		return w.Tokens.Mint(tx, asset, to, amount)
	})
}

func setRate(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	if w.static == nil {
		return nil, fmt.Errorf("set_rate needs static rates")
	}
	asset, _, err := w.asset(st.Asset)
	if err != nil {
		return nil, err
	}
	rate, err := parseAmount(st.Rate, 18)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, _ common.Address) error {
		return w.static.SetRate(tx, asset, rate)
	})
}

func invalidateRate(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	if w.static == nil {
		return nil, fmt.Errorf("invalidate_rate needs static rates")
	}
	asset, _, err := w.asset(st.Asset)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, _ common.Address) error {
		w.static.Invalidate(tx, asset)
		return nil
	})
}

func advance(_ context.Context, w *World, st Step) (*txn.Receipt, error) {
	w.Clock.Advance(st.Seconds)
	return nil, nil
}

func continuous(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	_, c, err := w.Fund(st.Fund)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		return c.CallOnExtension(tx, caller, c.Extensions().Fees.Address(), model.FeeActionInvokeContinuousHook, nil)
	})
}

func payoutOutstanding(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	_, c, err := w.Fund(st.Fund)
	if err != nil {
		return nil, err
	}
	fees := c.Extensions().Fees.EnabledFees(c.Address())
	data, err := settings.EncodeAddresses(fees)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		return c.CallOnExtension(tx, caller, c.Extensions().Fees.Address(), model.FeeActionPayoutSharesOutstanding, data)
	})
}

func trackAssets(actionID uint64) handler {
	return func(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
		_, c, err := w.Fund(st.Fund)
		if err != nil {
			return nil, err
		}
		assets, err := w.assetList(st.Assets)
		if err != nil {
			return nil, err
		}
		data, err := settings.EncodeAddresses(assets)
		if err != nil {
			return nil, err
		}
		return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
			return c.CallOnExtension(tx, caller, c.Extensions().Integrations.Address(), actionID, data)
		})
	}
}

func (w *World) lockerArgs(action uint64, st Step) ([]byte, error) {
	assets, amounts, err := w.assetAmounts(st.Assets, st.Amounts)
	if err != nil {
		return nil, err
	}
	encoded, err := settings.EncodeAssetAmounts(assets, amounts)
	if err != nil {
		return nil, err
	}
	return settings.EncodeUint256Bytes(new(big.Int).SetUint64(action), encoded)
}

func createPosition(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	if st.Position == "" {
		return nil, fmt.Errorf("create_position needs a position name")
	}
	_, c, err := w.Fund(st.Fund)
	if err != nil {
		return nil, err
	}
	rel, err := w.fundRelease(st.Fund)
	if err != nil {
		return nil, err
	}
	typeID, ok := rel.PositionTypes[strings.ToUpper(strings.TrimSpace(st.PositionType))]
	if !ok {
		return nil, fmt.Errorf("release %s has no position type %q", rel.Deployer.Version(), st.PositionType)
	}
	var callArgs []byte
	if len(st.Assets) > 0 {
		if callArgs, err = w.lockerArgs(extposition.LockerActionLock, st); err != nil {
			return nil, err
		}
	}
	data, err := settings.EncodePositionCreate(settings.PositionCreate{
		TypeID:   new(big.Int).SetUint64(typeID),
		InitArgs: []byte{},
		CallArgs: callArgs,
	})
	if err != nil {
		return nil, err
	}
	var created common.Address
	receipt, err := w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		v := c.Vault()
		before := make(map[common.Address]struct{})
		for _, p := range v.ActiveExternalPositions() {
			before[p] = struct{}{}
		}
		if err := c.CallOnExtension(tx, caller, c.Extensions().Positions.Address(), model.PositionActionCreate, data); err != nil {
			return err
		}
		for _, p := range v.ActiveExternalPositions() {
			if _, ok := before[p]; !ok {
				created = p
			}
		}
		return nil
	})
	if err != nil {
		return receipt, err
	}
	w.Book.Set(st.Position, created)
	return receipt, nil
}

func positionCall(action uint64) handler {
	return func(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
		_, c, err := w.Fund(st.Fund)
		if err != nil {
			return nil, err
		}
		pos, err := w.Book.Lookup(st.Position)
		if err != nil {
			return nil, err
		}
		args, err := w.lockerArgs(action, st)
		if err != nil {
			return nil, err
		}
		data, err := settings.EncodeAddressBytes(pos, args)
		if err != nil {
			return nil, err
		}
		return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
			return c.CallOnExtension(tx, caller, c.Extensions().Positions.Address(), model.PositionActionCall, data)
		})
	}
}

func positionAction(actionID uint64) handler {
	return func(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
		_, c, err := w.Fund(st.Fund)
		if err != nil {
			return nil, err
		}
		pos, err := w.Book.Lookup(st.Position)
		if err != nil {
			return nil, err
		}
		data, err := settings.EncodeAddress(pos)
		if err != nil {
			return nil, err
		}
		return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
			return c.CallOnExtension(tx, caller, c.Extensions().Positions.Address(), actionID, data)
		})
	}
}

func (w *World) fundRelease(fund string) (*deployer.Release, error) {
	vaultAddr, ok := w.funds[fund]
	if !ok {
		return nil, fmt.Errorf("unknown fund %q", fund)
	}
	addr, ok := w.Dispatcher.VaultRelease(vaultAddr)
	if !ok {
		return nil, fmt.Errorf("fund %s has no release", fund)
	}
	return w.releaseAt(addr)
}

func (w *World) releaseAt(addr common.Address) (*deployer.Release, error) {
	for _, rel := range w.releases {
		if rel.Deployer.Address() == addr {
			return rel, nil
		}
	}
	return nil, fmt.Errorf("no installed release at %s", addr.Hex())
}

func signalMigration(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	vaultAddr, c, err := w.Fund(st.Fund)
	if err != nil {
		return nil, err
	}
	rel, err := w.release(st.Release)
	if err != nil {
		return nil, err
	}
	p, err := w.controlParams(rel, st, c)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		_, err := rel.Deployer.SignalMigration(tx, caller, vaultAddr, p)
		return err
	})
}

// migrationTarget is the release a pending migration moves to, or the named
// release when no migration is pending.
func (w *World) migrationTarget(st Step, vaultAddr common.Address) (*deployer.Release, error) {
	if st.Release != "" {
		return w.release(st.Release)
	}
	req, ok := w.Dispatcher.MigrationRequest(vaultAddr)
	if !ok {
		return w.currentRelease()
	}
	return w.releaseAt(req.NextFundDeployer)
}

func executeMigration(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	vaultAddr, ok := w.funds[st.Fund]
	if !ok {
		return nil, fmt.Errorf("unknown fund %q", st.Fund)
	}
	rel, err := w.migrationTarget(st, vaultAddr)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		return rel.Deployer.ExecuteMigration(tx, caller, vaultAddr)
	})
}

func cancelMigration(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	vaultAddr, ok := w.funds[st.Fund]
	if !ok {
		return nil, fmt.Errorf("unknown fund %q", st.Fund)
	}
	rel, err := w.migrationTarget(st, vaultAddr)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		return rel.Deployer.CancelMigration(tx, caller, vaultAddr)
	})
}

func requestReconfiguration(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	vaultAddr, c, err := w.Fund(st.Fund)
	if err != nil {
		return nil, err
	}
	rel, err := w.fundRelease(st.Fund)
	if err != nil {
		return nil, err
	}
	p, err := w.controlParams(rel, st, c)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		_, err := rel.Deployer.CreateReconfigurationRequest(tx, caller, vaultAddr, p)
		return err
	})
}

func reconfiguration(execute bool) handler {
	return func(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
		rel, err := w.fundRelease(st.Fund)
		if err != nil {
			return nil, err
		}
		vaultAddr := w.funds[st.Fund]
		return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
			if execute {
				return rel.Deployer.ExecuteReconfiguration(tx, caller, vaultAddr)
			}
			return rel.Deployer.CancelReconfiguration(tx, caller, vaultAddr)
		})
	}
}

func setReleaseStatus(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	rel, err := w.release(st.Release)
	if err != nil {
		return nil, err
	}
	status, err := model.ParseReleaseStatus(st.Status)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		return rel.Deployer.SetReleaseStatus(tx, caller, status)
	})
}

func setCurrentRelease(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	if st.Release == "" {
		return nil, fmt.Errorf("set_current_release needs a release")
	}
	rel, err := w.release(st.Release)
	if err != nil {
		return nil, err
	}
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		return w.Dispatcher.SetCurrentFundDeployer(tx, caller, rel.Deployer)
	})
}

func setMigrationTimelock(ctx context.Context, w *World, st Step) (*txn.Receipt, error) {
	return w.unit(ctx, st, func(tx *txn.Tx, caller common.Address) error {
		return w.Dispatcher.SetMigrationTimelock(tx, caller, st.Seconds)
	})
}

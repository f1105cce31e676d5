package controller

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/fee"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/txn"
	"fundCore/internal/vault"
)

// BuyShares prices shares at the current gross share value, pulls the
// investment from caller and mints to buyer. It returns the shares the buyer
// holds net of entrance fees.
func (c *Controller) BuyShares(tx *txn.Tx, caller, buyer common.Address, investment, minShares *big.Int) (*big.Int, error) {
	const op = "buy shares"
	release, err := c.enter(op)
	if err != nil {
		return nil, err
	}
	defer release()
	v, err := c.requireActive(op)
	if err != nil {
		return nil, err
	}
	if investment == nil || investment.Sign() <= 0 {
		return nil, errs.E(errs.KindInvalidConfiguration, op, "investment must be positive")
	}
	if minShares == nil {
		minShares = new(big.Int)
	}

	gav, _, err := c.CalcGav(tx.Context(), false)
	if err != nil {
		return nil, err
	}
	if err := c.settleFees(tx, model.PreBuySharesArgs{Buyer: buyer, InvestmentAmount: investment}, fee.Mandatory); err != nil {
		return nil, err
	}

	unit, err := c.tokens.Unit(c.denomination)
	if err != nil {
		return nil, err
	}
	price := grossShareValue(gav, v.TotalSupply(), unit)
	shares := fund.MulDiv(investment, fund.SharesUnit, price)
	if shares.Sign() == 0 {
		return nil, errs.E(errs.KindInvalidConfiguration, op, "investment %s buys no shares at %s", investment, price)
	}

	if err := c.tokens.Transfer(tx, c.denomination, caller, v.Address(), investment); err != nil {
		return nil, err
	}
	before := v.BalanceOf(buyer)
	if err := v.MintShares(tx, c.address, buyer, shares); err != nil {
		return nil, err
	}

	post := model.PostBuySharesArgs{Buyer: buyer, InvestmentAmount: investment, SharesIssued: shares, Gav: gav}
	if err := c.settleFees(tx, post, fee.Mandatory); err != nil {
		return nil, err
	}
	if err := c.ValidatePolicies(tx, post); err != nil {
		return nil, err
	}

	received := new(big.Int).Sub(v.BalanceOf(buyer), before)
	if received.Cmp(minShares) < 0 {
		return nil, errs.E(errs.KindSlippageExceeded, op, "received %s shares, min %s", received, minShares)
	}
	if c.timelock > 0 {
		c.lastBuy.Set(tx, buyer, tx.Now())
	}
	tx.Emit(c.address, events.SharesBought, buyer, new(big.Int).Set(investment), shares, received)
	c.logger.Debug("shares bought",
		zap.String("buyer", buyer.Hex()),
		zap.String("investment", investment.String()),
		zap.String("shares", received.String()))
	return received, nil
}

// RedeemSharesInKind burns shares for a pro rata slice of every tracked
// asset plus additionalAssets, minus assetsToSkip. It never prices assets.
func (c *Controller) RedeemSharesInKind(tx *txn.Tx, redeemer, recipient common.Address, sharesQuantity *big.Int, additionalAssets, assetsToSkip []common.Address) ([]common.Address, []*big.Int, error) {
	const op = "redeem shares in kind"
	release, err := c.enter(op)
	if err != nil {
		return nil, nil, err
	}
	defer release()
	v, err := c.requireActive(op)
	if err != nil {
		return nil, nil, err
	}
	if err := uniqueAssets(op, additionalAssets); err != nil {
		return nil, nil, err
	}
	if err := uniqueAssets(op, assetsToSkip); err != nil {
		return nil, nil, err
	}

	shares, err := c.redeemSetup(tx, op, v, redeemer, sharesQuantity, false)
	if err != nil {
		return nil, nil, err
	}
	supply := v.TotalSupply()
	if err := v.BurnShares(tx, c.address, redeemer, shares); err != nil {
		return nil, nil, err
	}

	skip := make(map[common.Address]bool, len(assetsToSkip))
	for _, asset := range assetsToSkip {
		skip[asset] = true
	}
	var paidAssets []common.Address
	var paidAmounts []*big.Int
	seen := make(map[common.Address]bool)
	for _, asset := range append(v.TrackedAssets(), additionalAssets...) {
		if skip[asset] || seen[asset] {
			continue
		}
		seen[asset] = true
		amount := fund.MulDiv(v.AssetBalance(asset), shares, supply)
		if amount.Sign() == 0 {
			continue
		}
		if err := v.WithdrawAssetTo(tx, c.address, asset, recipient, amount); err != nil {
			return nil, nil, err
		}
		paidAssets = append(paidAssets, asset)
		paidAmounts = append(paidAmounts, amount)
	}
	if paidAssets == nil {
		paidAssets, paidAmounts = []common.Address{}, []*big.Int{}
	}

	tx.Emit(c.address, events.SharesRedeemed, redeemer, recipient, shares, paidAssets, paidAmounts)
	return paidAssets, paidAmounts, nil
}

// RedeemSharesForSpecificAssets burns shares for their value paid out in the
// given assets, split by basis points.
func (c *Controller) RedeemSharesForSpecificAssets(tx *txn.Tx, redeemer, recipient common.Address, sharesQuantity *big.Int, payoutAssets []common.Address, payoutBps []uint64) ([]*big.Int, error) {
	const op = "redeem shares for specific assets"
	release, err := c.enter(op)
	if err != nil {
		return nil, err
	}
	defer release()
	v, err := c.requireActive(op)
	if err != nil {
		return nil, err
	}
	if err := validatePayout(op, payoutAssets, payoutBps); err != nil {
		return nil, err
	}

	gav, _, err := c.CalcGav(tx.Context(), false)
	if err != nil {
		return nil, err
	}
	shares, err := c.redeemSetup(tx, op, v, redeemer, sharesQuantity, true)
	if err != nil {
		return nil, err
	}
	supply := v.TotalSupply()
	owed := fund.MulDiv(gav, shares, supply)
	if err := v.BurnShares(tx, c.address, redeemer, shares); err != nil {
		return nil, err
	}

	amounts := make([]*big.Int, len(payoutAssets))
	revalued := new(big.Int)
	for i, asset := range payoutAssets {
		portion := fund.Bps(owed, new(big.Int).SetUint64(payoutBps[i]))
		amount, err := c.values.CalcCanonicalAssetValue(tx.Context(), c.denomination, portion, asset)
		if err != nil {
			return nil, err
		}
		if amount.Sign() == 0 {
			return nil, errs.E(errs.KindInvalidPayoutSpecification, op, "payout of %s rounds to zero", asset.Hex())
		}
		back, err := c.values.CalcCanonicalAssetValue(tx.Context(), asset, amount, c.denomination)
		if err != nil {
			return nil, err
		}
		revalued.Add(revalued, back)
		if err := v.WithdrawAssetTo(tx, c.address, asset, recipient, amount); err != nil {
			return nil, err
		}
		amounts[i] = amount
	}

	diff := new(big.Int).Sub(owed, revalued)
	diff.Abs(diff)
	if diff.Mul(diff, big.NewInt(fund.MaxBps)).Cmp(new(big.Int).Mul(owed, new(big.Int).SetUint64(c.toleranceBps))) > 0 {
		return nil, errs.E(errs.KindInvalidPayoutSpecification, op, "payout worth %s, owed %s", revalued, owed)
	}

	if err := c.ValidatePolicies(tx, model.RedeemSharesForSpecificAssetsArgs{
		Redeemer:       redeemer,
		Recipient:      recipient,
		SharesToRedeem: shares,
		Assets:         payoutAssets,
		AssetAmounts:   amounts,
		Gav:            gav,
	}); err != nil {
		return nil, err
	}
	tx.Emit(c.address, events.SharesRedeemed, redeemer, recipient, shares, payoutAssets, amounts)
	return amounts, nil
}

// redeemSetup resolves the share quantity, runs the pre-redeem fee hook and
// shrinks the quantity by whatever fees took from the redeemer.
func (c *Controller) redeemSetup(tx *txn.Tx, op string, v *vault.Vault, redeemer common.Address, quantity *big.Int, forSpecificAssets bool) (*big.Int, error) {
	if err := c.checkSharesActionTimelock(tx, op, redeemer); err != nil {
		return nil, err
	}
	balance := v.BalanceOf(redeemer)
	if quantity == nil || quantity.Sign() <= 0 {
		return nil, errs.E(errs.KindInvalidConfiguration, op, "shares quantity must be positive")
	}
	shares := new(big.Int).Set(quantity)
	if shares.Cmp(math.MaxBig256) == 0 {
		shares.Set(balance)
	}
	if shares.Sign() == 0 || shares.Cmp(balance) > 0 {
		return nil, errs.E(errs.KindInsufficientBalance, op, "redeemer holds %s shares, asked %s", balance, shares)
	}

	args := model.PreRedeemSharesArgs{Redeemer: redeemer, SharesToRedeem: shares, ForSpecificAssets: forSpecificAssets}
	if forSpecificAssets {
		if err := c.settleFees(tx, args, fee.Mandatory); err != nil {
			return nil, err
		}
	} else if err := tx.Try(func() error { return c.settleFees(tx, args, fee.Mandatory) }); err != nil {
		c.logger.Warn("pre-redeem fee hook failed", zap.String("redeemer", redeemer.Hex()), zap.Error(err))
		tx.Emit(c.address, events.PreRedeemSharesHookFailed, redeemer, new(big.Int).Set(shares), err.Error())
	}

	after := v.BalanceOf(redeemer)
	switch {
	case shares.Cmp(balance) == 0:
		shares.Set(after)
	case after.Cmp(balance) < 0:
		shares.Sub(shares, new(big.Int).Sub(balance, after))
	}
	if shares.Sign() <= 0 {
		return nil, errs.E(errs.KindInsufficientBalance, op, "no shares left after fees")
	}
	return shares, nil
}

func (c *Controller) checkSharesActionTimelock(tx *txn.Tx, op string, holder common.Address) error {
	if c.timelock == 0 {
		return nil
	}
	last, ok := c.lastBuy.Get(holder)
	if ok && tx.Now() < last+c.timelock {
		return errs.E(errs.KindTimelockNotElapsed, op, "shares of %s locked until %d", holder.Hex(), last+c.timelock)
	}
	return nil
}

func (c *Controller) settleFees(tx *txn.Tx, args model.HookArgs, mode fee.Mode) error {
	if c.ext.Fees == nil {
		return nil
	}
	return c.ext.Fees.Settle(tx, c, args, mode)
}

func validatePayout(op string, assets []common.Address, bps []uint64) error {
	if len(assets) == 0 || len(assets) != len(bps) {
		return errs.E(errs.KindInvalidPayoutSpecification, op, "%d assets, %d percentages", len(assets), len(bps))
	}
	if err := uniqueAssets(op, assets); err != nil {
		return errs.E(errs.KindInvalidPayoutSpecification, op, "%v", err)
	}
	var total uint64
	for _, p := range bps {
		total += p
	}
	if total != fund.MaxBps {
		return errs.E(errs.KindInvalidPayoutSpecification, op, "percentages sum to %d bps", total)
	}
	return nil
}

func uniqueAssets(op string, assets []common.Address) error {
	seen := make(map[common.Address]bool, len(assets))
	for _, asset := range assets {
		if seen[asset] {
			return errs.E(errs.KindInvalidConfiguration, op, "duplicate asset %s", asset.Hex())
		}
		seen[asset] = true
	}
	return nil
}

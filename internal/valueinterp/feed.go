package valueinterp

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/chain"
	"fundCore/internal/errs"
)

// Feed prices assets from on-chain aggregators that quote a shared numeraire.
type Feed struct {
	caller chain.Caller
	units  UnitSource
	maxAge time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu    sync.RWMutex
	feeds map[common.Address]common.Address
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithMaxAge rejects answers older than d. Zero disables the check.
func WithMaxAge(d time.Duration) FeedOption {
	return func(f *Feed) { f.maxAge = d }
}

// WithNow overrides the wall clock used for staleness checks.
func WithNow(now func() time.Time) FeedOption {
	return func(f *Feed) { f.now = now }
}

func NewFeed(caller chain.Caller, units UnitSource, logger *zap.Logger, opts ...FeedOption) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Feed{
		caller: caller,
		units:  units,
		now:    time.Now,
		logger: logger,
		feeds:  make(map[common.Address]common.Address),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Register binds asset to the aggregator that prices it.
func (f *Feed) Register(asset, aggregator common.Address) {
	f.mu.Lock()
	f.feeds[asset] = aggregator
	f.mu.Unlock()
}

func (f *Feed) IsSupportedAsset(asset common.Address) bool {
	f.mu.RLock()
	_, ok := f.feeds[asset]
	f.mu.RUnlock()
	return ok
}

func (f *Feed) rate(ctx context.Context, asset common.Address) (*big.Int, error) {
	const op = "read price feed"
	f.mu.RLock()
	aggregator, ok := f.feeds[asset]
	f.mu.RUnlock()
	if !ok {
		return nil, errs.E(errs.KindUnsupportedAsset, op, "no feed for %s", asset.Hex())
	}

	round, err := chain.FetchLatestRound(ctx, f.caller, aggregator)
	if err != nil {
		f.logger.Warn("price feed read failed", zap.String("asset", asset.Hex()), zap.Error(err))
		return nil, errs.Wrap(errs.KindUnsupportedAsset, op, err)
	}
	if round.Answer.Sign() <= 0 {
		return nil, errs.E(errs.KindUnsupportedAsset, op, "non-positive answer for %s", asset.Hex())
	}
	if f.maxAge > 0 {
		age := f.now().Sub(time.Unix(int64(round.UpdatedAt), 0))
		if age > f.maxAge {
			return nil, errs.E(errs.KindUnsupportedAsset, op, "stale answer for %s (%s old)", asset.Hex(), age)
		}
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(round.Decimals)), nil)
	normalized := new(big.Int).Mul(round.Answer, RateUnit)
	return normalized.Quo(normalized, scale), nil
}

func (f *Feed) CalcCanonicalAssetValue(ctx context.Context, base common.Address, amount *big.Int, quote common.Address) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int), nil
	}
	if base == quote {
		return new(big.Int).Set(amount), nil
	}
	baseRate, err := f.rate(ctx, base)
	if err != nil {
		return nil, err
	}
	quoteRate, err := f.rate(ctx, quote)
	if err != nil {
		return nil, err
	}
	baseUnit, err := f.units.Unit(base)
	if err != nil {
		return nil, err
	}
	quoteUnit, err := f.units.Unit(quote)
	if err != nil {
		return nil, err
	}
	return convert(amount, baseRate, baseUnit, quoteRate, quoteUnit), nil
}

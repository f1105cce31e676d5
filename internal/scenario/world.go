package scenario

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"fundCore/internal/addressbook"
	"fundCore/internal/addresslist"
	"fundCore/internal/chain"
	"fundCore/internal/config"
	"fundCore/internal/controller"
	"fundCore/internal/deployer"
	"fundCore/internal/model"
	"fundCore/internal/storage"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/valueinterp"
)

// SnapshotObserver receives every snapshot taken, with one whole
// denomination unit of the pool.
type SnapshotObserver interface {
	RecordSnapshot(snap model.FundSnapshot, unit *big.Int)
}

// Options wires a World into its surroundings.
type Options struct {
	Logger   *zap.Logger
	Sinks    []txn.Sink
	Recorder txn.Recorder
	// Caller prices assets from their aggregators when set. Every asset must
	// then declare one.
	Caller     chain.Caller
	FeedMaxAge time.Duration

	Snapshots          storage.SnapshotStorage
	Observer           SnapshotObserver
	PayoutToleranceBps uint64
}

// World is an engine instance with named accounts, assets, releases and funds.
type World struct {
	Clock      *txn.ManualClock
	Processor  *txn.Processor
	Tokens     *token.Ledger
	Dispatcher *deployer.Dispatcher
	Lists      *addresslist.Registry
	Book       addressbook.Book

	values   valueinterp.Interpreter
	static   *valueinterp.Static
	governor common.Address
	releases map[string]*deployer.Release
	funds    map[string]common.Address
	assets   map[string]common.Address
	opts     Options
	logger   *zap.Logger
}

const (
	dispatcherSalt = "fundcore:dispatcher"
	listsSalt      = "fundcore:address-list-registry"
)

// AccountAddress derives the address of a named account.
func AccountAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("account:" + strings.ToLower(strings.TrimSpace(name)))))
}

func assetAddress(symbol string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("asset:" + strings.ToLower(strings.TrimSpace(symbol)))))
}

func componentAddress(salt string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(salt)))
}

// NewWorld builds the shared infrastructure, accounts and assets of sc and
// installs its releases.
func NewWorld(ctx context.Context, sc *Scenario, opts Options) (*World, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(sc.Governor) == "" {
		sc.Governor = "governor"
	}
	start, err := config.ParseTimestamp(sc.StartTime)
	if err != nil {
		return nil, fmt.Errorf("scenario start time: %w", err)
	}
	if start == 0 {
		start = uint64(time.Now().Unix())
	}

	w := &World{
		Clock:    txn.NewManualClock(start),
		Tokens:   token.NewLedger(logger),
		Book:     addressbook.Book{},
		governor: AccountAddress(sc.Governor),
		releases: make(map[string]*deployer.Release),
		funds:    make(map[string]common.Address),
		assets:   make(map[string]common.Address),
		opts:     opts,
		logger:   logger.With(zap.String("scenario", sc.Name)),
	}
	w.Processor = txn.NewProcessor(txn.Options{
		Clock:    w.Clock,
		Sinks:    opts.Sinks,
		Recorder: opts.Recorder,
		Logger:   logger,
	})
	w.Dispatcher = deployer.NewDispatcher(componentAddress(dispatcherSalt), w.governor, w.Tokens, logger)
	w.Lists = addresslist.NewRegistry(componentAddress(listsSalt), w.Dispatcher, logger)
	w.Book.Set("dispatcher", w.Dispatcher.Address())
	w.Book.Set("address_list_registry", w.Lists.Address())
	w.Book.Set(sc.Governor, w.governor)
	for _, name := range sc.Accounts {
		w.Book.Set(name, AccountAddress(name))
	}

	if err := w.setupAssets(ctx, sc.Assets); err != nil {
		return nil, err
	}

	releases := sc.Releases
	if sc.ReleaseFile != "" {
		reg, err := deployer.LoadRegistry(sc.ReleaseFile)
		if err != nil {
			return nil, err
		}
		releases = reg.Releases
	}
	for _, spec := range releases {
		if err := w.InstallRelease(ctx, spec); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *World) setupAssets(ctx context.Context, assets []Asset) error {
	if w.opts.Caller != nil {
		feed := valueinterp.NewFeed(w.opts.Caller, w.Tokens, w.logger, valueinterp.WithMaxAge(w.opts.FeedMaxAge))
		w.values = feed
		for i := range assets {
			a := &assets[i]
			if !common.IsHexAddress(a.Aggregator) {
				return fmt.Errorf("asset %s: aggregator address is required with an rpc feed", a.Symbol)
			}
			if a.Decimals == 0 && common.IsHexAddress(a.Address) {
				meta, err := chain.FetchTokenMeta(ctx, w.opts.Caller, common.HexToAddress(a.Address), w.logger)
				if err != nil {
					return fmt.Errorf("asset %s metadata: %w", a.Symbol, err)
				}
				a.Decimals = meta.Decimals
			}
			feed.Register(w.assetAddr(*a), common.HexToAddress(a.Aggregator))
		}
	} else {
		w.static = valueinterp.NewStatic(w.Tokens)
		w.values = w.static
	}

	_, err := w.Processor.Execute(ctx, w.governor, "setup assets", func(tx *txn.Tx) error {
		for _, a := range assets {
			addr := w.assetAddr(a)
			decimals := a.Decimals
			if decimals == 0 && (w.static != nil || a.Address == "") {
				decimals = 18
			}
			if err := w.Tokens.RegisterAsset(tx, addr, a.Symbol, decimals); err != nil {
				return err
			}
			w.assets[strings.ToLower(a.Symbol)] = addr
			w.Book.Set(a.Symbol, addr)
			if w.static != nil && a.Rate != "" {
				rate, err := parseAmount(a.Rate, 18)
				if err != nil {
					return fmt.Errorf("asset %s rate: %w", a.Symbol, err)
				}
				if err := w.static.SetRate(tx, addr, rate); err != nil {
					return err
				}
			}
			holders := make([]string, 0, len(a.Mint))
			for holder := range a.Mint {
				holders = append(holders, holder)
			}
			sort.Strings(holders)
			for _, holder := range holders {
				v, err := parseAmount(a.Mint[holder], decimals)
				if err != nil {
					return fmt.Errorf("asset %s mint to %s: %w", a.Symbol, holder, err)
				}
				to, err := w.Book.Lookup(holder)
				if err != nil {
					return err
				}
				if err := w.Tokens.Mint(tx, addr, to, v); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return err
}

func (w *World) assetAddr(a Asset) common.Address {
	if common.IsHexAddress(a.Address) {
		return common.HexToAddress(a.Address)
	}
	return assetAddress(a.Symbol)
}

// InstallRelease installs a release as the governor and records its
// components in the address book.
func (w *World) InstallRelease(ctx context.Context, spec deployer.ReleaseSpec) error {
	if _, dup := w.releases[spec.Version]; dup {
		return fmt.Errorf("release %s already installed", spec.Version)
	}
	var rel *deployer.Release
	_, err := w.Processor.Execute(ctx, w.governor, "install "+spec.Version, func(tx *txn.Tx) error {
		var err error
		rel, err = deployer.Install(tx, deployer.Environment{
			Dispatcher:         w.Dispatcher,
			Tokens:             w.Tokens,
			Values:             w.values,
			Lists:              w.Lists,
			Logger:             w.logger,
			PayoutToleranceBps: w.opts.PayoutToleranceBps,
		}, w.governor, spec)
		return err
	})
	if err != nil {
		return err
	}
	w.releases[spec.Version] = rel
	prefix := spec.Version + "."
	rec := rel.Deployer.Record()
	w.Book.Set(prefix+"fund_deployer", rec.FundDeployer)
	w.Book.Set(prefix+"fee_manager", rec.FeeManager)
	w.Book.Set(prefix+"policy_manager", rec.PolicyManager)
	w.Book.Set(prefix+"integration_manager", rec.IntegrationManager)
	w.Book.Set(prefix+"external_position_manager", rec.ExternalPositionManager)
	w.Book.Set(prefix+"vault_lib", rel.Deployer.VaultLib())
	for id, addr := range rel.Fees {
		w.Book.Set(prefix+id, addr)
	}
	for id, addr := range rel.Policies {
		w.Book.Set(prefix+id, addr)
	}
	return nil
}

// Release returns an installed release by version.
func (w *World) Release(version string) (*deployer.Release, bool) {
	rel, ok := w.releases[version]
	return rel, ok
}

// Releases returns the installed releases.
func (w *World) Releases() map[string]*deployer.Release {
	return w.releases
}

func (w *World) currentRelease() (*deployer.Release, error) {
	current := w.Dispatcher.CurrentFundDeployer()
	for _, rel := range w.releases {
		if rel.Deployer.Address() == current {
			return rel, nil
		}
	}
	return nil, fmt.Errorf("no current release")
}

func (w *World) release(version string) (*deployer.Release, error) {
	if version == "" {
		return w.currentRelease()
	}
	rel, ok := w.releases[version]
	if !ok {
		return nil, fmt.Errorf("unknown release %s", version)
	}
	return rel, nil
}

// Fund resolves a named fund's vault and current controller.
func (w *World) Fund(name string) (common.Address, *controller.Controller, error) {
	vaultAddr, ok := w.funds[name]
	if !ok {
		return common.Address{}, nil, fmt.Errorf("unknown fund %q", name)
	}
	releaseAddr, ok := w.Dispatcher.VaultRelease(vaultAddr)
	if !ok {
		return vaultAddr, nil, fmt.Errorf("fund %s has no release", name)
	}
	fd, ok := w.Dispatcher.Release(releaseAddr)
	if !ok {
		return vaultAddr, nil, fmt.Errorf("fund %s release %s is not registered", name, releaseAddr.Hex())
	}
	c, ok := fd.Controller(vaultAddr)
	if !ok {
		return vaultAddr, nil, fmt.Errorf("fund %s has no controller on %s", name, fd.Version())
	}
	return vaultAddr, c, nil
}

func (w *World) asset(symbol string) (common.Address, uint8, error) {
	addr, ok := w.assets[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		if !common.IsHexAddress(symbol) {
			return common.Address{}, 0, fmt.Errorf("unknown asset %q", symbol)
		}
		addr = common.HexToAddress(symbol)
	}
	meta, ok := w.Tokens.Meta(addr)
	if !ok {
		return common.Address{}, 0, fmt.Errorf("asset %s is not registered", symbol)
	}
	return addr, meta.Decimals, nil
}

func (w *World) decimals(asset common.Address) uint8 {
	meta, _ := w.Tokens.Meta(asset)
	return meta.Decimals
}

// Snapshots values every fund at the current state.
func (w *World) Snapshots(ctx context.Context) []model.FundSnapshot {
	var out []model.FundSnapshot
	w.Processor.View(func() {
		for _, name := range sortedKeys(w.funds) {
			vaultAddr, c, err := w.Fund(name)
			if err != nil || !c.IsActive() {
				continue
			}
			v := c.Vault()
			snap := model.FundSnapshot{
				Vault:             vaultAddr.Hex(),
				Controller:        c.Address().Hex(),
				BlockNumber:       w.Processor.BlockNumber(),
				Timestamp:         w.Clock.Now(),
				DenominationAsset: c.DenominationAsset().Hex(),
				TotalSupply:       v.TotalSupply().String(),
				Gav:               "0",
				GrossShareValue:   "0",
			}
			if release, ok := w.Dispatcher.VaultRelease(vaultAddr); ok {
				if fd, ok := w.Dispatcher.Release(release); ok {
					snap.Release = fd.Version()
				}
			}
			if gav, valid, err := c.CalcGav(ctx, true); err == nil {
				snap.Gav, snap.GavValid = gav.String(), valid
			}
			if price, err := c.CalcGrossShareValue(ctx); err == nil {
				snap.GrossShareValue = price.String()
			}
			out = append(out, snap)
		}
	})
	return out
}

func (w *World) publishSnapshots(ctx context.Context) ([]model.FundSnapshot, error) {
	snaps := w.Snapshots(ctx)
	if w.opts.Observer != nil {
		for _, snap := range snaps {
			unit, err := w.Tokens.Unit(common.HexToAddress(snap.DenominationAsset))
			if err != nil {
				return nil, err
			}
			w.opts.Observer.RecordSnapshot(snap, unit)
		}
	}
	if w.opts.Snapshots != nil {
		if err := w.opts.Snapshots.PutSnapshots(ctx, snaps); err != nil {
			return nil, fmt.Errorf("store snapshots: %w", err)
		}
	}
	return snaps, nil
}

func sortedKeys(m map[string]common.Address) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

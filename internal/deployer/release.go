package deployer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/addresslist"
	"fundCore/internal/controller"
	"fundCore/internal/extposition"
	"fundCore/internal/fee"
	"fundCore/internal/integration"
	"fundCore/internal/model"
	"fundCore/internal/policy"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/valueinterp"
)

var feeConstructors = map[string]func(common.Address) fee.Fee{
	"ENTRANCE_RATE_DIRECT": func(a common.Address) fee.Fee { return fee.NewEntranceRateDirect(a) },
	"ENTRANCE_RATE_BURN":   func(a common.Address) fee.Fee { return fee.NewEntranceRateBurn(a) },
	"EXIT_RATE_DIRECT":     func(a common.Address) fee.Fee { return fee.NewExitRateDirect(a) },
	"EXIT_RATE_BURN":       func(a common.Address) fee.Fee { return fee.NewExitRateBurn(a) },
	"MANAGEMENT":           func(a common.Address) fee.Fee { return fee.NewManagement(a) },
	"PERFORMANCE":          func(a common.Address) fee.Fee { return fee.NewPerformance(a) },
}

var policyConstructors = map[string]func(common.Address, *addresslist.Registry) policy.Policy{
	"MIN_MAX_INVESTMENT": func(a common.Address, _ *addresslist.Registry) policy.Policy {
		return policy.NewMinMaxInvestment(a)
	},
	"ALLOWED_EXTERNAL_POSITION_TYPES": func(a common.Address, _ *addresslist.Registry) policy.Policy {
		return policy.NewAllowedExternalPositionTypes(a)
	},
	"ALLOWED_DEPOSIT_RECIPIENTS": func(a common.Address, r *addresslist.Registry) policy.Policy {
		return policy.NewAllowedDepositRecipients(a, r)
	},
	"ALLOWED_ADAPTERS": func(a common.Address, r *addresslist.Registry) policy.Policy {
		return policy.NewAllowedAdapters(a, r)
	},
	"ALLOWED_ADAPTER_INCOMING_ASSETS": func(a common.Address, r *addresslist.Registry) policy.Policy {
		return policy.NewAllowedAdapterIncomingAssets(a, r)
	},
	"ALLOWED_ASSETS_FOR_REDEMPTION": func(a common.Address, r *addresslist.Registry) policy.Policy {
		return policy.NewAllowedAssetsForRedemption(a, r)
	},
	"ALLOWED_SHARES_TRANSFER_RECIPIENTS": func(a common.Address, r *addresslist.Registry) policy.Policy {
		return policy.NewAllowedSharesTransferRecipients(a, r)
	},
	"ALLOWED_TRACKED_ASSETS": func(a common.Address, r *addresslist.Registry) policy.Policy {
		return policy.NewAllowedTrackedAssets(a, r)
	},
}

type positionType struct {
	parser  extposition.Parser
	factory func(*token.Ledger) extposition.Factory
}

var positionTypes = map[string]positionType{
	"LOCKER": {parser: extposition.LockerParser{}, factory: extposition.NewLockerFactory},
}

// Environment is the infrastructure shared by every installed release.
type Environment struct {
	Dispatcher *Dispatcher
	Tokens     *token.Ledger
	Values     valueinterp.Interpreter
	Lists      *addresslist.Registry
	Logger     *zap.Logger
	// PayoutToleranceBps is handed to every controller the release deploys.
	PayoutToleranceBps uint64
}

// Release is an installed release with the addresses of its components by
// identifier.
type Release struct {
	Deployer      *FundDeployer
	Fees          map[string]common.Address
	Policies      map[string]common.Address
	PositionTypes map[string]uint64
}

// Install deploys a release's managers and extensions as owner and applies
// the status it declares. A live release becomes the dispatcher's current one
// and sets the migration timelock.
func Install(tx *txn.Tx, env Environment, owner common.Address, spec ReleaseSpec) (*Release, error) {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("release", spec.Version))
	status, err := model.ParseReleaseStatus(spec.Status)
	if err != nil {
		return nil, fmt.Errorf("install release %s: %w", spec.Version, err)
	}

	fdAddr := tx.CreateAddress(owner)
	next := func() common.Address { return tx.CreateAddress(fdAddr) }
	out := &Release{
		Fees:          make(map[string]common.Address, len(spec.Fees)),
		Policies:      make(map[string]common.Address, len(spec.Policies)),
		PositionTypes: make(map[string]uint64, len(spec.PositionTypes)),
	}

	fees := fee.NewManager(next(), owner, logger)
	for _, id := range spec.Fees {
		id = strings.ToUpper(strings.TrimSpace(id))
		build, ok := feeConstructors[id]
		if !ok {
			return nil, fmt.Errorf("install release %s: unknown fee %q", spec.Version, id)
		}
		f := build(next())
		if err := fees.RegisterFee(tx, owner, f); err != nil {
			return nil, err
		}
		out.Fees[id] = f.Address()
	}

	policies := policy.NewManager(next(), owner, logger)
	for _, id := range spec.Policies {
		id = strings.ToUpper(strings.TrimSpace(id))
		build, ok := policyConstructors[id]
		if !ok {
			return nil, fmt.Errorf("install release %s: unknown policy %q", spec.Version, id)
		}
		p := build(next(), env.Lists)
		if err := policies.RegisterPolicy(tx, owner, p); err != nil {
			return nil, err
		}
		out.Policies[id] = p.Address()
	}

	integrations := integration.NewManager(next(), owner, env.Tokens, logger)
	positions := extposition.NewManager(next(), owner, env.Tokens, logger)
	for _, label := range spec.PositionTypes {
		label = strings.ToUpper(strings.TrimSpace(label))
		pt, ok := positionTypes[label]
		if !ok {
			return nil, fmt.Errorf("install release %s: unknown external position type %q", spec.Version, label)
		}
		id, err := positions.AddType(tx, owner, label, pt.parser, pt.factory(env.Tokens))
		if err != nil {
			return nil, err
		}
		out.PositionTypes[label] = id
	}

	out.Deployer = NewFundDeployer(Params{
		Address:                 fdAddr,
		Owner:                   owner,
		Version:                 spec.Version,
		VaultLib:                next(),
		ReconfigurationTimelock: spec.ReconfigurationTimelock,
		PayoutToleranceBps:      env.PayoutToleranceBps,
	}, env.Dispatcher, env.Tokens, env.Values, controller.Extensions{
		Fees:         fees,
		Policies:     policies,
		Integrations: integrations,
		Positions:    positions,
	}, logger)

	if status == model.ReleasePreLaunch {
		return out, nil
	}
	if err := out.Deployer.SetReleaseStatus(tx, owner, status); err != nil {
		return nil, err
	}
	if status == model.ReleaseLive {
		if err := env.Dispatcher.SetCurrentFundDeployer(tx, owner, out.Deployer); err != nil {
			return nil, err
		}
		if err := env.Dispatcher.SetMigrationTimelock(tx, owner, spec.MigrationTimelock); err != nil {
			return nil, err
		}
	}
	logger.Info("release installed",
		zap.String("fund_deployer", fdAddr.Hex()),
		zap.Stringer("status", status),
		zap.Int("fees", len(out.Fees)),
		zap.Int("policies", len(out.Policies)))
	return out, nil
}

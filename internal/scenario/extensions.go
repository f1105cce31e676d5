package scenario

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/controller"
	"fundCore/internal/deployer"
	"fundCore/internal/settings"
)

// extensionConfig translates a step's fee and policy entries into controller
// settings for rel. Min and max investment amounts use denomDecimals.
func (w *World) extensionConfig(rel *deployer.Release, fees []FeeConfig, policies []PolicyConfig, denomDecimals uint8) (controller.Config, error) {
	var cfg controller.Config
	for _, fc := range fees {
		id := strings.ToUpper(strings.TrimSpace(fc.ID))
		addr, ok := rel.Fees[id]
		if !ok {
			return cfg, fmt.Errorf("release %s has no fee %s", rel.Deployer.Version(), id)
		}
		data, err := feeSettings(id, fc)
		if err != nil {
			return cfg, fmt.Errorf("fee %s: %w", id, err)
		}
		cfg.Fees = append(cfg.Fees, addr)
		cfg.FeeSettings = append(cfg.FeeSettings, data)
	}
	for _, pc := range policies {
		id := strings.ToUpper(strings.TrimSpace(pc.ID))
		addr, ok := rel.Policies[id]
		if !ok {
			return cfg, fmt.Errorf("release %s has no policy %s", rel.Deployer.Version(), id)
		}
		data, err := w.policySettings(rel, id, pc, denomDecimals)
		if err != nil {
			return cfg, fmt.Errorf("policy %s: %w", id, err)
		}
		cfg.Policies = append(cfg.Policies, addr)
		cfg.PolicySettings = append(cfg.PolicySettings, data)
	}
	return cfg, nil
}

func u256(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func feeSettings(id string, fc FeeConfig) ([]byte, error) {
	switch id {
	case "ENTRANCE_RATE_DIRECT", "ENTRANCE_RATE_BURN", "MANAGEMENT":
		return settings.EncodeUint256(u256(fc.RateBps))
	case "EXIT_RATE_DIRECT", "EXIT_RATE_BURN":
		return settings.EncodeUint256Pair(u256(fc.InKindBps), u256(fc.SpecificBps))
	case "PERFORMANCE":
		return settings.EncodeUint256Pair(u256(fc.RateBps), u256(fc.Period))
	}
	return nil, fmt.Errorf("no settings layout")
}

func (w *World) policySettings(rel *deployer.Release, id string, pc PolicyConfig, denomDecimals uint8) ([]byte, error) {
	switch id {
	case "MIN_MAX_INVESTMENT":
		lo, err := parseOptional(pc.Min, denomDecimals)
		if err != nil {
			return nil, err
		}
		hi, err := parseOptional(pc.Max, denomDecimals)
		if err != nil {
			return nil, err
		}
		return settings.EncodeUint256Pair(orZero(lo), orZero(hi))
	case "ALLOWED_EXTERNAL_POSITION_TYPES":
		ids := make([]*big.Int, 0, len(pc.PositionTypes))
		for _, label := range pc.PositionTypes {
			typeID, ok := rel.PositionTypes[strings.ToUpper(strings.TrimSpace(label))]
			if !ok {
				return nil, fmt.Errorf("release %s has no position type %s", rel.Deployer.Version(), label)
			}
			ids = append(ids, u256(typeID))
		}
		return settings.EncodeUint256Array(ids)
	}

	lp := settings.ListPolicy{}
	for _, listID := range pc.ListIDs {
		lp.ExistingListIDs = append(lp.ExistingListIDs, u256(listID))
	}
	if len(pc.Items) > 0 {
		items, err := w.addresses(pc.Items)
		if err != nil {
			return nil, err
		}
		lp.NewLists = append(lp.NewLists, settings.AddressListSpec{
			UpdateType: settings.UpdateNone,
			Items:      items,
		})
	}
	return settings.EncodeListPolicy(lp)
}

func (w *World) addresses(refs []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(refs))
	for _, ref := range refs {
		addr, err := w.Book.Lookup(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ReleaseStatus gates whether a release accepts new funds and migrations.
type ReleaseStatus uint8

const (
	ReleasePreLaunch ReleaseStatus = iota
	ReleaseLive
	ReleasePaused
)

func (s ReleaseStatus) String() string {
	switch s {
	case ReleasePreLaunch:
		return "prelaunch"
	case ReleaseLive:
		return "live"
	case ReleasePaused:
		return "paused"
	default:
		return fmt.Sprintf("release_status(%d)", s)
	}
}

// ParseReleaseStatus parses a release status name.
func ParseReleaseStatus(input string) (ReleaseStatus, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "prelaunch", "pre-launch":
		return ReleasePreLaunch, nil
	case "live":
		return ReleaseLive, nil
	case "paused":
		return ReleasePaused, nil
	default:
		return 0, fmt.Errorf("unknown release status: %s", input)
	}
}

// FundStatus is the lifecycle state of a pool as seen by the dispatcher.
type FundStatus uint8

const (
	FundCreated FundStatus = iota
	FundActive
	FundMigrationSignaled
	FundMigrationExecuted
)

func (s FundStatus) String() string {
	switch s {
	case FundCreated:
		return "created"
	case FundActive:
		return "active"
	case FundMigrationSignaled:
		return "migration_signaled"
	case FundMigrationExecuted:
		return "migration_executed"
	default:
		return fmt.Sprintf("fund_status(%d)", s)
	}
}

// ReleaseRecord describes a versioned bundle of engine extensions.
type ReleaseRecord struct {
	Version                 string         `json:"version"`
	FundDeployer            common.Address `json:"fund_deployer"`
	FeeManager              common.Address `json:"fee_manager"`
	PolicyManager           common.Address `json:"policy_manager"`
	IntegrationManager      common.Address `json:"integration_manager"`
	ExternalPositionManager common.Address `json:"external_position_manager"`
	Status                  ReleaseStatus  `json:"status"`
}

// MigrationRequest is a pending move of a vault to another release.
type MigrationRequest struct {
	Vault            common.Address `json:"vault"`
	NextFundDeployer common.Address `json:"next_fund_deployer"`
	NextAccessor     common.Address `json:"next_accessor"`
	SignaledAt       uint64         `json:"signaled_at"`
	ExecutableAt     uint64         `json:"executable_at"`
	Executed         bool           `json:"executed"`
}

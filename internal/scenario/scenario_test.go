package scenario

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"fundCore/internal/model"
)

const releasesYAML = `
releases:
  - version: v1
    status: live
    migration_timelock: 3600
    reconfiguration_timelock: 600
    fees: [ENTRANCE_RATE_DIRECT, MANAGEMENT, PERFORMANCE]
    policies: [MIN_MAX_INVESTMENT, ALLOWED_DEPOSIT_RECIPIENTS]
    position_types: [LOCKER]
`

func parse(t *testing.T, body string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return sc
}

func run(t *testing.T, sc *Scenario, opts Options) *Result {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	res, err := Run(context.Background(), sc, opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestInitialPriceAndProRataRedeem(t *testing.T) {
	sc := parse(t, `
name: pro-rata
start_time: "1700000000"
accounts: [manager, alice]
assets:
  - symbol: DEN
    decimals: 18
    rate: "1"
    mint: {alice: "100"}
  - symbol: ALT
    decimals: 6
    rate: "2"
`+releasesYAML+`
steps:
  - action: create_fund
    account: manager
    fund: alpha
    denomination: DEN
  - action: buy
    account: alice
    fund: alpha
    amount: "100"
    expect:
      shares: {alice: "100"}
      supply: "100"
  - action: mint
    fund: alpha
    asset: ALT
    amount: "25"
  - action: track_assets
    account: manager
    fund: alpha
    assets: [ALT]
    expect:
      gav: "150"
  - action: redeem
    account: alice
    fund: alpha
    shares: "50"
    expect:
      shares: {alice: "50"}
      balances:
        alice: {DEN: "50", ALT: "12.5"}
        vault: {DEN: "50", ALT: "12.5"}
`)
	res := run(t, sc, Options{})
	if len(res.Steps) != 5 {
		t.Fatalf("expected 5 step results, got %d", len(res.Steps))
	}
	if res.Steps[1].Events == 0 || res.Steps[1].TxHash == "" {
		t.Fatalf("buy should commit events: %+v", res.Steps[1])
	}
	if _, ok := res.Book.Get("alpha"); !ok {
		t.Fatalf("fund should be in the address book")
	}
}

func TestEntranceFee(t *testing.T) {
	sc := parse(t, `
name: entrance-fee
accounts: [manager, alice]
assets:
  - symbol: DEN
    rate: "1"
    mint: {alice: "10"}
`+releasesYAML+`
steps:
  - action: create_fund
    account: manager
    fund: alpha
    denomination: DEN
    fees:
      - id: ENTRANCE_RATE_DIRECT
        rate_bps: 1000
  - action: buy
    account: alice
    fund: alpha
    amount: "2"
    expect:
      shares: {alice: "1.8", manager: "0.2"}
      supply: "2"
  - action: buy
    account: alice
    fund: alpha
    amount: "1"
    min_shares: "1"
    expect_error: slippage_exceeded
`)
	res := run(t, sc, Options{})
	if got := res.Steps[2].Error; got != "slippage_exceeded" {
		t.Fatalf("expected slippage failure, got %q", got)
	}
}

func TestPolicyViolationRollsBack(t *testing.T) {
	sc := parse(t, `
name: min-max
accounts: [manager, alice]
assets:
  - symbol: DEN
    rate: "1"
    mint: {alice: "10"}
`+releasesYAML+`
steps:
  - action: create_fund
    account: manager
    fund: alpha
    denomination: DEN
    policies:
      - id: MIN_MAX_INVESTMENT
        min: "1"
        max: "5"
  - action: buy
    account: alice
    fund: alpha
    amount: "6"
    expect_error: policy_rule_violated
    expect:
      supply: "0"
      balances:
        alice: {DEN: "10"}
  - action: buy
    account: alice
    fund: alpha
    amount: "5"
    expect:
      supply: "5"
`)
	run(t, sc, Options{})
}

const migrationScenario = `
name: migration
start_time: "1700000000"
accounts: [manager, alice]
assets:
  - symbol: DEN
    rate: "1"
    mint: {alice: "10"}
release_file: releases.yaml
steps:
  - action: create_fund
    account: manager
    release: v1
    fund: alpha
    denomination: DEN
  - action: buy
    account: alice
    fund: alpha
    amount: "10"
  - action: set_release_status
    release: v2
    status: live
  - action: set_current_release
    release: v2
  - action: signal_migration
    account: manager
    fund: alpha
    release: v2
    expect:
      status: migration_signaled
  - action: execute_migration
    account: manager
    fund: alpha
    expect_error: timelock_not_elapsed
  - action: advance
    seconds: 3600
  - action: execute_migration
    account: manager
    fund: alpha
    expect:
      status: migration_executed
      shares: {alice: "10"}
      gav: "10"
`

const migrationReleases = `
releases:
  - version: v1
    status: live
    migration_timelock: 3600
    fees: [ENTRANCE_RATE_DIRECT]
  - version: v2
    status: paused
    fees: [ENTRANCE_RATE_DIRECT]
`

type snapshotStore struct {
	snaps []model.FundSnapshot
}

func (s *snapshotStore) PutSnapshots(_ context.Context, snaps []model.FundSnapshot) error {
	s.snaps = append(s.snaps, snaps...)
	return nil
}

type snapshotCounter struct {
	seen int
	unit *big.Int
}

func (c *snapshotCounter) RecordSnapshot(_ model.FundSnapshot, unit *big.Int) {
	c.seen++
	c.unit = unit
}

func TestMigrationFromReleaseFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "releases.yaml"), []byte(migrationReleases), 0o644); err != nil {
		t.Fatalf("write releases: %v", err)
	}
	scPath := filepath.Join(dir, "migration.yaml")
	if err := os.WriteFile(scPath, []byte(migrationScenario), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	sc, err := Load(scPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.ReleaseFile != filepath.Join(dir, "releases.yaml") {
		t.Fatalf("release file not resolved: %s", sc.ReleaseFile)
	}

	store := &snapshotStore{}
	counter := &snapshotCounter{}
	res := run(t, sc, Options{Snapshots: store, Observer: counter})

	vaultAddr, c, err := res.World.Fund("alpha")
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	v2, _ := res.World.Release("v2")
	if got, _ := res.World.Dispatcher.VaultRelease(vaultAddr); got != v2.Deployer.Address() {
		t.Fatalf("fund should live on v2")
	}
	if c.Deployer() != v2.Deployer.Address() {
		t.Fatalf("controller should come from v2")
	}

	if len(store.snaps) == 0 || counter.seen != len(store.snaps) {
		t.Fatalf("snapshots: stored %d, observed %d", len(store.snaps), counter.seen)
	}
	last := store.snaps[len(store.snaps)-1]
	if last.Release != "v2" || last.Gav != "10000000000000000000" || !last.GavValid {
		t.Fatalf("unexpected final snapshot %+v", last)
	}
	if counter.unit.String() != "1000000000000000000" {
		t.Fatalf("denomination unit: %s", counter.unit)
	}
}

func TestExpectationFailureStopsRun(t *testing.T) {
	sc := parse(t, `
name: failing
accounts: [manager, alice]
assets:
  - symbol: DEN
    rate: "1"
    mint: {alice: "10"}
`+releasesYAML+`
steps:
  - action: create_fund
    account: manager
    fund: alpha
    denomination: DEN
  - action: buy
    account: alice
    fund: alpha
    amount: "1"
    expect:
      shares: {alice: "2"}
  - action: buy
    account: alice
    fund: alpha
    amount: "1"
`)
	res, err := Run(context.Background(), sc, Options{Logger: zap.NewNop()})
	if err == nil || !strings.Contains(err.Error(), "shares of alice") {
		t.Fatalf("expected an expectation failure, got %v", err)
	}
	if len(res.Steps) != 2 {
		t.Fatalf("run should stop after the failing step, got %d results", len(res.Steps))
	}
}

func TestParseRejectsUnknownAction(t *testing.T) {
	_, err := Parse([]byte("name: bad\nsteps:\n  - action: teleport\n"))
	if err == nil || !strings.Contains(err.Error(), "teleport") {
		t.Fatalf("expected unknown action error, got %v", err)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"1.5", 6, "1500000"},
		{"0.000001", 6, "1"},
		{"1_000", 0, "1000"},
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.in, tc.decimals)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("parse %s: got %s, want %s", tc.in, got, tc.want)
		}
		if back := formatAmount(got, tc.decimals); !sameAmount(back, tc.in) {
			t.Fatalf("format %s: got %s", tc.in, back)
		}
	}
	if _, err := parseAmount("1.0000001", 6); err == nil {
		t.Fatalf("expected too many decimals error")
	}
}

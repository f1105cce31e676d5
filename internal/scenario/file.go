// Package scenario drives the engine from a scripted YAML file.
//
// A scenario names its accounts and assets, installs releases and then runs
// steps, each as one unit of work. Steps may assert the error kind they expect
// and the balances they leave behind.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"fundCore/internal/deployer"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name        string                 `yaml:"name"`
	StartTime   string                 `yaml:"start_time"`
	Governor    string                 `yaml:"governor"`
	Accounts    []string               `yaml:"accounts"`
	Assets      []Asset                `yaml:"assets"`
	Releases    []deployer.ReleaseSpec `yaml:"releases"`
	ReleaseFile string                 `yaml:"release_file"`
	Steps       []Step                 `yaml:"steps"`
}

// Asset declares a token. Amounts in Mint are whole units.
type Asset struct {
	Symbol     string            `yaml:"symbol"`
	Address    string            `yaml:"address"`
	Decimals   uint8             `yaml:"decimals"`
	Rate       string            `yaml:"rate"`
	Aggregator string            `yaml:"aggregator"`
	Mint       map[string]string `yaml:"mint"`
}

// Step is one unit of work.
type Step struct {
	Action  string `yaml:"action"`
	Label   string `yaml:"label"`
	Fund    string `yaml:"fund"`
	Account string `yaml:"account"`

	Recipient string   `yaml:"recipient"`
	Release   string   `yaml:"release"`
	Asset     string   `yaml:"asset"`
	Amount    string   `yaml:"amount"`
	MinShares string   `yaml:"min_shares"`
	Shares    string   `yaml:"shares"`
	Assets    []string `yaml:"assets"`
	Skip      []string `yaml:"skip"`
	Amounts   []string `yaml:"amounts"`
	Bps       []uint64 `yaml:"bps"`
	Seconds   uint64   `yaml:"seconds"`
	Status    string   `yaml:"status"`
	Rate      string   `yaml:"rate"`

	Name                 string         `yaml:"name"`
	Symbol               string         `yaml:"symbol"`
	Owner                string         `yaml:"owner"`
	Denomination         string         `yaml:"denomination"`
	SharesActionTimelock uint64         `yaml:"shares_action_timelock"`
	Fees                 []FeeConfig    `yaml:"fees"`
	Policies             []PolicyConfig `yaml:"policies"`

	Position     string `yaml:"position"`
	PositionType string `yaml:"position_type"`

	ExpectError string       `yaml:"expect_error"`
	Expect      *Expectation `yaml:"expect"`
}

// FeeConfig enables a fee by identifier.
type FeeConfig struct {
	ID          string `yaml:"id"`
	RateBps     uint64 `yaml:"rate_bps"`
	InKindBps   uint64 `yaml:"in_kind_bps"`
	SpecificBps uint64 `yaml:"specific_bps"`
	Period      uint64 `yaml:"period"`
}

// PolicyConfig enables a policy by identifier. Min and Max are whole
// denomination units. Items name accounts, assets or components.
type PolicyConfig struct {
	ID            string   `yaml:"id"`
	Min           string   `yaml:"min"`
	Max           string   `yaml:"max"`
	Items         []string `yaml:"items"`
	ListIDs       []uint64 `yaml:"list_ids"`
	PositionTypes []string `yaml:"position_types"`
}

// Expectation is checked after a step commits. Holder names may be "vault"
// for the step's fund vault.
type Expectation struct {
	Shares   map[string]string            `yaml:"shares"`
	Balances map[string]map[string]string `yaml:"balances"`
	Supply   string                       `yaml:"supply"`
	Gav      string                       `yaml:"gav"`
	Status   string                       `yaml:"status"`
}

// Load reads a scenario file. A relative release_file resolves against the
// scenario's directory.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if sc.ReleaseFile != "" && !filepath.IsAbs(sc.ReleaseFile) {
		sc.ReleaseFile = filepath.Join(filepath.Dir(path), sc.ReleaseFile)
	}
	return sc, nil
}

// Parse decodes scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if strings.TrimSpace(sc.Governor) == "" {
		sc.Governor = "governor"
	}
	if len(sc.Releases) > 0 && sc.ReleaseFile != "" {
		return fmt.Errorf("scenario %s: releases and release_file are exclusive", sc.Name)
	}
	seen := make(map[string]struct{}, len(sc.Assets))
	for i, a := range sc.Assets {
		sym := strings.TrimSpace(a.Symbol)
		if sym == "" {
			return fmt.Errorf("scenario %s: asset %d has no symbol", sc.Name, i)
		}
		if _, dup := seen[strings.ToLower(sym)]; dup {
			return fmt.Errorf("scenario %s: duplicate asset %s", sc.Name, sym)
		}
		seen[strings.ToLower(sym)] = struct{}{}
	}
	for i, st := range sc.Steps {
		if _, ok := handlers[st.Action]; !ok {
			return fmt.Errorf("scenario %s: step %d: unknown action %q", sc.Name, i, st.Action)
		}
	}
	return nil
}

package deployer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// ReleaseSpec is one release entry of a registry file.
type ReleaseSpec struct {
	Version                 string   `mapstructure:"version" yaml:"version"`
	Status                  string   `mapstructure:"status" yaml:"status"`
	MigrationTimelock       uint64   `mapstructure:"migration_timelock" yaml:"migration_timelock"`
	ReconfigurationTimelock uint64   `mapstructure:"reconfiguration_timelock" yaml:"reconfiguration_timelock"`
	Fees                    []string `mapstructure:"fees" yaml:"fees"`
	Policies                []string `mapstructure:"policies" yaml:"policies"`
	PositionTypes           []string `mapstructure:"position_types" yaml:"position_types"`
}

// Registry lists releases in installation order.
type Registry struct {
	Releases []ReleaseSpec `mapstructure:"releases" yaml:"releases"`
}

// LoadRegistry reads a release registry file. The format follows the file
// extension (yaml, json or toml).
func LoadRegistry(path string) (Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Registry{}, fmt.Errorf("read release registry: %w", err)
	}
	var reg Registry
	if err := v.Unmarshal(&reg); err != nil {
		return Registry{}, fmt.Errorf("decode release registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return Registry{}, err
	}
	return reg, nil
}

// Validate checks that versions are unique and every identifier is known.
func (r Registry) Validate() error {
	if len(r.Releases) == 0 {
		return fmt.Errorf("release registry: no releases")
	}
	seen := make(map[string]struct{}, len(r.Releases))
	for i, rel := range r.Releases {
		if strings.TrimSpace(rel.Version) == "" {
			return fmt.Errorf("release registry: entry %d has no version", i)
		}
		if _, dup := seen[rel.Version]; dup {
			return fmt.Errorf("release registry: duplicate version %s", rel.Version)
		}
		seen[rel.Version] = struct{}{}
		for _, id := range rel.Fees {
			if _, ok := feeConstructors[strings.ToUpper(strings.TrimSpace(id))]; !ok {
				return fmt.Errorf("release %s: unknown fee %q", rel.Version, id)
			}
		}
		for _, id := range rel.Policies {
			if _, ok := policyConstructors[strings.ToUpper(strings.TrimSpace(id))]; !ok {
				return fmt.Errorf("release %s: unknown policy %q", rel.Version, id)
			}
		}
		for _, label := range rel.PositionTypes {
			if _, ok := positionTypes[strings.ToUpper(strings.TrimSpace(label))]; !ok {
				return fmt.Errorf("release %s: unknown external position type %q", rel.Version, label)
			}
		}
	}
	return nil
}

// Identifiers lists the fee, policy and position type identifiers a registry
// file may name.
func Identifiers() (fees, policies, positions []string) {
	for id := range feeConstructors {
		fees = append(fees, id)
	}
	for id := range policyConstructors {
		policies = append(policies, id)
	}
	for label := range positionTypes {
		positions = append(positions, label)
	}
	sort.Strings(fees)
	sort.Strings(policies)
	sort.Strings(positions)
	return fees, policies, positions
}

package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ReleasesConfig holds configuration for inspecting a release registry.
type ReleasesConfig struct {
	Releases string
	LogLevel string
}

// LoadReleases merges config file, environment variables, and flags into
// ReleasesConfig.
func LoadReleases(cfgFile string, flags *pflag.FlagSet) (ReleasesConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"releases":  "./releases.yaml",
		"log-level": "info",
	})
	if err != nil {
		return ReleasesConfig{}, err
	}
	return ReleasesConfig{
		Releases: v.GetString("releases"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// DeployConfig holds configuration for installing releases and writing the
// resulting address book.
type DeployConfig struct {
	Releases           string
	AddressBook        string
	Governor           string
	Accounts           []string
	StartTime          uint64
	PayoutToleranceBps uint64
	LogLevel           string
}

// LoadDeploy merges config file, environment variables, and flags into
// DeployConfig.
func LoadDeploy(cfgFile string, flags *pflag.FlagSet) (DeployConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"releases":             "./releases.yaml",
		"addressbook":          "./data/addressbook.json",
		"governor":             "governor",
		"payout-tolerance-bps": uint64(50),
		"log-level":            "info",
	})
	if err != nil {
		return DeployConfig{}, err
	}
	start, err := ParseTimestamp(v.GetString("start-time"))
	if err != nil {
		return DeployConfig{}, fmt.Errorf("parse start-time: %w", err)
	}
	return DeployConfig{
		Releases:           v.GetString("releases"),
		AddressBook:        v.GetString("addressbook"),
		Governor:           v.GetString("governor"),
		Accounts:           getStringSlice(v, "account"),
		StartTime:          start,
		PayoutToleranceBps: v.GetUint64("payout-tolerance-bps"),
		LogLevel:           v.GetString("log-level"),
	}, nil
}

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	In       string
	Out      string
	Errors   string
	Names    []string
	LogLevel string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"in":        "./data/events.jsonl",
		"out":       "./data/decoded_events.jsonl",
		"errors":    "./data/decode_errors.jsonl",
		"log-level": "info",
	})
	if err != nil {
		return DecodeConfig{}, err
	}
	return DecodeConfig{
		In:       v.GetString("in"),
		Out:      v.GetString("out"),
		Errors:   v.GetString("errors"),
		Names:    getStringSlice(v, "name"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

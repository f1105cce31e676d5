package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration for running scenarios, loaded from flags, env,
// or config file.
type Config struct {
	Out                string
	SnapshotsOut       string
	PGDSN              string
	StateName          string
	RPCURL             string
	Feeds              map[string]string
	FeedMaxAge         time.Duration
	PayoutToleranceBps uint64
	AddressBook        string
	MetricsAddr        string
	MaxRetries         int
	RetryBackoff       time.Duration
	LogLevel           string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"out":                  "./data/events.jsonl",
		"snapshots-out":        "./data/snapshots.jsonl",
		"state-name":           "fundctl",
		"payout-tolerance-bps": uint64(50),
		"feed-max-age":         time.Duration(0),
		"max-retries":          5,
		"retry-backoff":        500 * time.Millisecond,
		"log-level":            "info",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Out:                v.GetString("out"),
		SnapshotsOut:       v.GetString("snapshots-out"),
		PGDSN:              v.GetString("pg-dsn"),
		StateName:          v.GetString("state-name"),
		RPCURL:             v.GetString("rpc"),
		Feeds:              getStringMap(v, "feeds"),
		FeedMaxAge:         v.GetDuration("feed-max-age"),
		PayoutToleranceBps: v.GetUint64("payout-tolerance-bps"),
		AddressBook:        v.GetString("addressbook"),
		MetricsAddr:        v.GetString("metrics-addr"),
		MaxRetries:         v.GetInt("max-retries"),
		RetryBackoff:       v.GetDuration("retry-backoff"),
		LogLevel:           v.GetString("log-level"),
	}
	if cfg.PayoutToleranceBps > 10000 {
		return Config{}, fmt.Errorf("payout tolerance %d bps exceeds 10000", cfg.PayoutToleranceBps)
	}

	return cfg, nil
}

// load builds a viper instance reading FUNDCTL_* env, flags and the config
// file. Without an explicit file a ./config.* is optional.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("FUNDCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	for _, pair := range strings.Split(input, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

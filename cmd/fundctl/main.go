package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "fundctl",
		Short:        "Fund accounting engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario against a fresh engine",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	runCmd.Flags().String("out", "./data/events.jsonl", "output events JSONL path")
	runCmd.Flags().String("snapshots-out", "./data/snapshots.jsonl", "output fund snapshots JSONL path (empty disables)")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for events, snapshots and run state")
	runCmd.Flags().String("state-name", "fundctl", "run state name in Postgres")
	runCmd.Flags().String("rpc", "", "RPC URL for aggregator-priced assets")
	runCmd.Flags().String("feeds", "", "asset aggregator overrides (comma-separated SYMBOL=address)")
	runCmd.Flags().Duration("feed-max-age", 0, "reject aggregator answers older than this, 0 disables")
	runCmd.Flags().Uint64("payout-tolerance-bps", 50, "specific-asset redemption tolerance in bps")
	runCmd.Flags().String("addressbook", "", "write the resulting address book to this path")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address until interrupted")
	runCmd.Flags().Int("max-retries", 5, "maximum connection retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial connection retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	releasesCmd := &cobra.Command{
		Use:   "releases",
		Short: "Validate a release registry and list known identifiers",
		RunE:  runReleases,
	}

	releasesCmd.Flags().String("releases", "./releases.yaml", "release registry file")
	releasesCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(releasesCmd)

	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Install every release of a registry and write the address book",
		RunE:  runDeploy,
	}

	deployCmd.Flags().String("releases", "./releases.yaml", "release registry file")
	deployCmd.Flags().String("addressbook", "./data/addressbook.json", "address book output path")
	deployCmd.Flags().String("governor", "governor", "account that owns the dispatcher and releases")
	deployCmd.Flags().StringSlice("account", nil, "extra named accounts to record (comma-separated)")
	deployCmd.Flags().String("start-time", "", "engine start time (unix seconds or RFC3339)")
	deployCmd.Flags().Uint64("payout-tolerance-bps", 50, "specific-asset redemption tolerance in bps")
	deployCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(deployCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode engine event records into named arguments",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "./data/events.jsonl", "input events JSONL")
	decodeCmd.Flags().String("out", "./data/decoded_events.jsonl", "output decoded events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().StringSlice("name", nil, "only decode these event names (comma-separated)")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

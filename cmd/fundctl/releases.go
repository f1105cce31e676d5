package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fundCore/internal/config"
	"fundCore/internal/deployer"
	"fundCore/internal/scenario"
)

func runReleases(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReleases(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg, err := deployer.LoadRegistry(cfg.Releases)
	if err != nil {
		return err
	}
	for _, rel := range reg.Releases {
		logger.Info("release",
			zap.String("version", rel.Version),
			zap.String("status", rel.Status),
			zap.Uint64("migration_timelock", rel.MigrationTimelock),
			zap.Uint64("reconfiguration_timelock", rel.ReconfigurationTimelock),
			zap.Strings("fees", rel.Fees),
			zap.Strings("policies", rel.Policies),
			zap.Strings("position_types", rel.PositionTypes),
		)
	}

	fees, policies, positions := deployer.Identifiers()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d releases valid in %s\n", len(reg.Releases), cfg.Releases)
	fmt.Fprintf(out, "fees: %v\npolicies: %v\nposition types: %v\n", fees, policies, positions)
	return nil
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDeploy(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := scenario.NewWorld(ctx, &scenario.Scenario{
		Name:        "deploy",
		StartTime:   fmt.Sprint(cfg.StartTime),
		Governor:    cfg.Governor,
		Accounts:    cfg.Accounts,
		ReleaseFile: cfg.Releases,
	}, scenario.Options{Logger: logger, PayoutToleranceBps: cfg.PayoutToleranceBps})
	if err != nil {
		return err
	}
	if err := w.Book.Save(cfg.AddressBook); err != nil {
		return err
	}

	logger.Info("deploy complete",
		zap.Int("releases", len(w.Releases())),
		zap.String("current", w.Dispatcher.CurrentFundDeployer().Hex()),
		zap.Int("addresses", len(w.Book)),
		zap.String("addressbook", cfg.AddressBook),
	)
	return nil
}

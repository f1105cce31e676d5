package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fundCore/internal/chain"
	"fundCore/internal/config"
	"fundCore/internal/metrics"
	"fundCore/internal/model"
	"fundCore/internal/scenario"
	"fundCore/internal/storage"
	"fundCore/internal/storage/postgres"
	"fundCore/internal/txn"
)

func runScenario(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	if err := applyFeeds(sc, cfg.Feeds); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector("")
	opts := scenario.Options{
		Logger:             logger,
		Recorder:           collector,
		Observer:           collector,
		FeedMaxAge:         cfg.FeedMaxAge,
		PayoutToleranceBps: cfg.PayoutToleranceBps,
	}

	snapshots := snapshotFanout{}
	if cfg.Out != "" {
		opts.Sinks = append(opts.Sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.SnapshotsOut != "" {
		snapshots = append(snapshots, storage.NewJsonlStorage(cfg.SnapshotsOut))
	}

	retry := chain.Retry{Retries: cfg.MaxRetries, Backoff: cfg.RetryBackoff, Logger: logger}

	var state storage.StateStore
	if cfg.PGDSN != "" {
		var store *postgres.Store
		err := retry.Do(ctx, "connect postgres", func(ctx context.Context) error {
			var err error
			store, err = postgres.NewStore(ctx, cfg.PGDSN)
			return err
		})
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		opts.Sinks = append(opts.Sinks, store)
		snapshots = append(snapshots, store)
		state = &postgres.StateStore{Store: store, Name: cfg.StateName}
	}
	if len(snapshots) > 0 {
		opts.Snapshots = snapshots
	}

	if cfg.RPCURL != "" {
		var client *chain.Client
		err := retry.Do(ctx, "connect rpc", func(ctx context.Context) error {
			var err error
			client, err = chain.NewClient(ctx, cfg.RPCURL)
			return err
		})
		if err != nil {
			return err
		}
		defer client.Close()
		opts.Caller = client

		head, err := client.Head(ctx)
		if err != nil {
			return err
		}
		// aggregator staleness is judged against the engine clock
		if strings.TrimSpace(sc.StartTime) == "" {
			sc.StartTime = strconv.FormatUint(head.Timestamp, 10)
		}
		logger.Info("rpc connected",
			zap.String("chain_id", head.ChainID.String()),
			zap.Uint64("head", head.Number),
			zap.String("start_time", sc.StartTime))
	}

	if state != nil {
		if last, ok, err := state.Load(ctx); err != nil {
			return err
		} else if ok {
			logger.Info("previous run", zap.String("state", cfg.StateName), zap.Uint64("last_block", last))
		}
	}

	var server *http.Server
	if cfg.MetricsAddr != "" {
		server = &http.Server{Addr: cfg.MetricsAddr, Handler: collector.Handler()}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	logger.Info("scenario start",
		zap.String("scenario", sc.Name),
		zap.Int("steps", len(sc.Steps)),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("rpc_feeds", opts.Caller != nil),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	res, runErr := scenario.Run(ctx, sc, opts)
	if res != nil {
		if cfg.AddressBook != "" {
			if err := res.Book.Save(cfg.AddressBook); err != nil {
				return err
			}
		}
		if state != nil && res.World != nil {
			if err := state.Save(ctx, res.World.Processor.BlockNumber()); err != nil {
				return err
			}
		}
		var failed int
		for _, st := range res.Steps {
			if st.Error != "" {
				failed++
			}
		}
		logger.Info("scenario finished",
			zap.Int("steps", len(res.Steps)),
			zap.Int("expected_failures", failed),
			zap.Int("snapshots", len(res.Snapshots)),
		)
	}
	if runErr != nil {
		return runErr
	}

	if server != nil {
		logger.Info("serving metrics until interrupted", zap.String("addr", cfg.MetricsAddr))
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
	return nil
}

// applyFeeds overrides asset aggregators by symbol.
func applyFeeds(sc *scenario.Scenario, feeds map[string]string) error {
	for symbol, aggregator := range feeds {
		found := false
		for i := range sc.Assets {
			if strings.EqualFold(sc.Assets[i].Symbol, symbol) {
				sc.Assets[i].Aggregator = aggregator
				found = true
			}
		}
		if !found {
			return fmt.Errorf("feed for unknown asset %s", symbol)
		}
	}
	return nil
}

type snapshotFanout []storage.SnapshotStorage

func (f snapshotFanout) PutSnapshots(ctx context.Context, snaps []model.FundSnapshot) error {
	for _, s := range f {
		if err := s.PutSnapshots(ctx, snaps); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ txn.Sink                = (*postgres.Store)(nil)
	_ storage.SnapshotStorage = snapshotFanout(nil)
)

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

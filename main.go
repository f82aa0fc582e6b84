package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/agp/config"
	"github.com/cppla/agp/observability"
	"github.com/cppla/agp/repository"
	"github.com/cppla/agp/routes"
	"github.com/cppla/agp/services"
	"github.com/cppla/agp/utils"
)

var (
	rootCmd = &cobra.Command{
		Use:   "agp",
		Short: "Points, experience and achievement engine for Agent Genesis Protocol",
		Long: `agp keeps the points ledger, user balances, achievements and agent
evolution state, and serves them over HTTP.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or extend the database schema and seed the default user",
		RunE:  runMigrate,
	}
	verifyCmd = &cobra.Command{
		Use:   "verify [user-id]",
		Short: "Check that stored balances equal the sum of their ledger entries",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVerify,
	}
	ledgerCmd = &cobra.Command{
		Use:   "ledger [user-id]",
		Short: "Print a user's ledger, newest first",
		Args:  cobra.ExactArgs(1),
		RunE:  runLedger,
	}
	ledgerPageSize int
)

func init() {
	ledgerCmd.Flags().IntVar(&ledgerPageSize, "page-size", services.DefaultTransactionLimit, "entries fetched per query")
	rootCmd.AddCommand(serveCmd, migrateCmd, verifyCmd, ledgerCmd)
}

// app is the process-wide object graph shared by the commands.
type app struct {
	cfg      config.AppConfig
	logger   *zap.Logger
	db       *gorm.DB
	store    *repository.GormStore
	engine   *services.Engine
	clock    services.Clock
	registry *prometheus.Registry
	metrics  *observability.Metrics
	closers  []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger, err := utils.InitLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := config.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, db: db}
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	a.store = repository.NewGormStore(db)
	if err := a.store.AutoMigrate(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = observability.NewMetrics(a.registry)
	a.clock = services.NewSystemClock(loc)

	opts := services.Options{Clock: a.clock, Logger: logger, Metrics: a.metrics}
	if cfg.CacheEnabled {
		rc, err := utils.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("redis unavailable, balance cache disabled", zap.Error(err))
		} else {
			a.closers = append(a.closers, func() { _ = rc.Close() })
			cache := utils.NewBalanceCache(rc, cfg.CacheTTL(), logger)
			// Balances may have changed while the process was down.
			cache.Flush(ctx)
			opts.Cache = cache
		}
	}
	a.engine = services.NewEngine(a.store, opts)

	if _, err := a.engine.Users.Bootstrap(ctx, cfg.DefaultUserID, cfg.DefaultUserName); err != nil {
		a.close()
		return nil, fmt.Errorf("bootstrap default user: %w", err)
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	accessLog := a.logger
	if a.cfg.GinPath != "" {
		l, err := utils.NewRollingFileLogger(a.cfg.GinPath, a.cfg.LogLevel, a.cfg.LogMaxSizeMB, a.cfg.LogMaxBackups, a.cfg.LogMaxAgeDays, a.cfg.LogCompress)
		if err != nil {
			a.logger.Warn("gin access log unavailable, using application log", zap.Error(err))
		} else {
			accessLog = l
			defer func() { _ = l.Sync() }()
		}
	}

	r := routes.SetupRouter(a.cfg, routes.Deps{
		Engine:       a.engine,
		Store:        a.store,
		Clock:        a.clock,
		Logger:       a.logger,
		Metrics:      a.metrics,
		Gatherer:     a.registry,
		AccessLogger: accessLog,
	})

	a.logger.Info("starting server", zap.String("port", a.cfg.AppPort), zap.String("db", a.cfg.DBDriver))
	return utils.GraceServer(ctx, ":"+a.cfg.AppPort, r, a.logger)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()
	fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		r, err := a.engine.Users.VerifyBalance(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s balance=%d ledger=%d consistent=%t\n", r.UserID, r.Balance, r.LedgerSum, r.Consistent())
		if !r.Consistent() {
			return fmt.Errorf("balance mismatch for %s", r.UserID)
		}
		return nil
	}

	bad, err := a.engine.Users.VerifyAll(cmd.Context())
	if err != nil {
		return err
	}
	for _, r := range bad {
		fmt.Fprintf(out, "%s balance=%d ledger=%d\n", r.UserID, r.Balance, r.LedgerSum)
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d user balance(s) differ from the ledger", len(bad))
	}
	fmt.Fprintln(out, "all balances match the ledger")
	return nil
}

func runLedger(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	for tx, err := range a.engine.Points.Transactions(cmd.Context(), args[0], ledgerPageSize) {
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%+d\t%s\t%s\n", tx.Timestamp.Format("2006-01-02 15:04:05"), tx.Amount, tx.Type, tx.Description)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

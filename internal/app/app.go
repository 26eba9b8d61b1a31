package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"SalesScanner/internal/config"
	"SalesScanner/internal/infrastructure/parser"
	"SalesScanner/internal/infrastructure/scheduler"
	"SalesScanner/internal/infrastructure/storage"
	"SalesScanner/internal/infrastructure/transport"
	"SalesScanner/internal/logging"
	"SalesScanner/internal/metrics"
	"SalesScanner/internal/ports"
	"SalesScanner/internal/report"
	"SalesScanner/internal/stage"
	"SalesScanner/internal/usecase"
)

const stopTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *zap.Logger
	deps     usecase.PipelineDeps
	recorder *metrics.Recorder
	db       *sqlx.DB
	out      io.Writer
}

// Option customizes an Application.
type Option func(*Application)

// WithOutput redirects the run summary table. A nil writer disables it.
func WithOutput(w io.Writer) Option {
	return func(a *Application) { a.out = w }
}

// WithDB injects an existing Postgres handle instead of dialing database.dsn.
func WithDB(db *sqlx.DB) Option {
	return func(a *Application) { a.db = db }
}

// New validates cfg and builds every adapter. Close releases the database
// handle when one was opened.
func New(ctx context.Context, cfg config.Config, baseLogger *zap.Logger, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		recorder: metrics.NewRecorder(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}

	sinks, err := a.buildSinks(ctx)
	if err != nil {
		return nil, err
	}

	a.deps = usecase.PipelineDeps{
		Fetcher:       transport.NewClient(nil),
		Parser:        parser.NewSiteParser(cfg.Site.LinkSelector),
		Sinks:         sinks,
		Requests:      usecase.NewSiteRequests(cfg.Site),
		Concurrency:   cfg.Pipeline.Concurrency,
		ResolveQuota:  stage.QuotaFromLimit(cfg.Pipeline.ResolveQuota),
		MetadataQuota: stage.QuotaFromLimit(cfg.Pipeline.MetadataQuota),
		ItemTimeout:   cfg.Pipeline.ItemTimeout,
		Recorder:      a.recorder,
	}
	return a, nil
}

func (a *Application) buildSinks(ctx context.Context) ([]ports.SaleSink, error) {
	csvPath, err := a.cfg.Output.ResolvedCSVPath()
	if err != nil {
		return nil, fmt.Errorf("resolve csv path: %w", err)
	}
	sinks := []ports.SaleSink{storage.NewCSVSink(csvPath)}

	if a.db == nil && a.cfg.Database.DSN != "" {
		db, err := storage.OpenPostgres(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
	}
	if a.db != nil {
		pg := storage.NewPostgresSink(a.db, a.cfg.Database.Table)
		if err := pg.EnsureTable(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
		sinks = append(sinks, pg)
	}

	a.logger.Info("sinks configured", zap.String("csv", csvPath), zap.Bool("postgres", a.db != nil))
	return sinks, nil
}

// RunOnce executes the pipeline a single time under a fresh run id, then
// writes metrics and prints the summary.
func (a *Application) RunOnce(ctx context.Context) error {
	runID := uuid.NewString()
	logger := a.logger.With(zap.String("run_id", runID))

	deps := a.deps
	deps.Logger = logger.With(zap.String("component", "pipeline"))
	pipeline := usecase.NewPipeline(deps)

	logger.Info("run started",
		zap.Int("concurrency", deps.Concurrency),
		zap.Stringer("resolve_quota", deps.ResolveQuota),
		zap.Stringer("metadata_quota", deps.MetadataQuota),
	)
	rep, runErr := pipeline.Run(ctx)

	a.recorder.MarkRunFinished()
	if err := a.recorder.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		logger.Warn("metrics not written", zap.Error(err))
	}
	if a.out != nil {
		report.Render(a.out, runID, rep)
	}

	if runErr != nil {
		logger.Error("run failed", zap.Int("exit_code", usecase.ExitCode(runErr)), zap.Error(runErr))
		return runErr
	}
	logger.Info("run finished", zap.Int("sold_rows", rep.SoldRows), zap.Duration("duration", rep.Duration))
	return nil
}

// RunScheduled runs the pipeline on the configured cron expression until ctx
// ends.
func (a *Application) RunScheduled(ctx context.Context) error {
	logger := a.logger.With(zap.String("component", "scheduler"))
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(), logger)
	sched := usecase.NewScheduler(driver, func(ctx context.Context, _ time.Time) error {
		return a.RunOnce(ctx)
	}, logger)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// Close releases resources held by the sinks.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return fmt.Errorf("close postgres: %w", err)
	}
	return nil
}

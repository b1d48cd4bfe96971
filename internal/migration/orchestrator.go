// Package migration runs the Sakila migration: one source connection, a KV
// phase and a document phase, each isolated from the other's failures.
package migration

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"example.com/sakila-migration/internal/config"
	"example.com/sakila-migration/internal/docstore"
	"example.com/sakila-migration/internal/kvstore"
	"example.com/sakila-migration/internal/metrics"
	"example.com/sakila-migration/internal/models"
	"example.com/sakila-migration/internal/source"
)

// SourceConn is an open source connection.
type SourceConn interface {
	source.Querier
	Close() error
}

// KVSink is an open key-value store connection.
type KVSink interface {
	KVWriter
	Ping(ctx context.Context) error
	Close() error
}

// DocumentSink is an open document store connection.
type DocumentSink interface {
	DocumentWriter
	Close(ctx context.Context) error
}

// Notifier receives the report of every finished run.
type Notifier interface {
	Publish(ctx context.Context, event any) error
}

// Connectors open the connections a run needs. Each is called at most once per run.
type Connectors struct {
	Source    func(ctx context.Context) (SourceConn, error)
	KV        func(ctx context.Context) (KVSink, error)
	Documents func(ctx context.Context) (DocumentSink, error)
}

// DefaultConnectors connects to PostgreSQL, Redis and MongoDB as configured by cfg.
func DefaultConnectors(cfg *config.Config) Connectors {
	return Connectors{
		Source: func(ctx context.Context) (SourceConn, error) {
			return source.Open(ctx, cfg.Postgres)
		},
		KV: func(ctx context.Context) (KVSink, error) {
			return kvstore.NewFromConfig(cfg.Redis), nil
		},
		Documents: func(ctx context.Context) (DocumentSink, error) {
			return docstore.Open(ctx, cfg.Mongo)
		},
	}
}

// Orchestrator executes migration runs.
type Orchestrator struct {
	connectors Connectors
	logger     *slog.Logger
	metrics    *metrics.Metrics
	notifier   Notifier
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics records task, phase and run results in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithNotifier publishes every finished report through n.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// NewOrchestrator creates an Orchestrator using connectors.
func NewOrchestrator(connectors Connectors, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		connectors: connectors,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one migration. It always returns a report; failures are
// recorded in it rather than returned.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	report := &Report{RunID: uuid.NewString(), StartedAt: o.now()}
	logger := o.logger.With("run_id", report.RunID)
	logger.Info("starting Sakila data migration")

	src, err := o.connectors.Source(ctx)
	if err != nil {
		report.Fatal = models.NewConnectError(models.PhaseInit, err)
		o.metrics.RecordPhaseFailure(models.PhaseInit)
		logger.Error("failed to connect to source database",
			"phase", models.PhaseInit,
			"code", models.CodeOf(report.Fatal),
			"error", err)
		o.finalize(ctx, logger, report)
		return report
	}
	logger.Info("connected to source database")
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := src.Close(); err != nil {
			logger.Warn("failed to close source connection", "error", err)
		}
	}
	defer release()

	reader := source.NewReader(src)
	report.Phases = append(report.Phases,
		o.runKVPhase(ctx, logger, reader),
		o.runDocumentPhase(ctx, logger, reader),
	)

	release()
	o.finalize(ctx, logger, report)
	return report
}

func (o *Orchestrator) runKVPhase(ctx context.Context, logger *slog.Logger, reader *source.Reader) PhaseReport {
	phase := PhaseReport{Name: models.PhaseKV}
	logger = logger.With("phase", models.PhaseKV)

	kv, err := o.connectors.KV(ctx)
	if err == nil {
		if err = kv.Ping(ctx); err != nil {
			kv.Close()
		}
	}
	if err != nil {
		return o.phaseFailed(logger, phase, err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("failed to close KV connection", "error", err)
		}
	}()

	logger.Info("connected to KV store")
	phase.Tasks = o.runTasks(ctx, logger, reader, KVTasks(kv))
	return phase
}

func (o *Orchestrator) runDocumentPhase(ctx context.Context, logger *slog.Logger, reader *source.Reader) PhaseReport {
	phase := PhaseReport{Name: models.PhaseDocuments}
	logger = logger.With("phase", models.PhaseDocuments)

	docs, err := o.connectors.Documents(ctx)
	if err != nil {
		return o.phaseFailed(logger, phase, err)
	}
	defer func() {
		if err := docs.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to close document store connection", "error", err)
		}
	}()

	logger.Info("connected to document store")
	phase.Tasks = o.runTasks(ctx, logger, reader, DocumentTasks(docs))
	return phase
}

func (o *Orchestrator) phaseFailed(logger *slog.Logger, phase PhaseReport, err error) PhaseReport {
	phase.Err = models.NewConnectError(phase.Name, err)
	o.metrics.RecordPhaseFailure(phase.Name)
	logger.Error("phase skipped: destination unavailable",
		"code", models.CodeOf(phase.Err),
		"error", err)
	return phase
}

func (o *Orchestrator) runTasks(ctx context.Context, logger *slog.Logger, reader *source.Reader, tasks []EntityTask) []Outcome {
	outcomes := make([]Outcome, 0, len(tasks))
	for _, task := range tasks {
		taskLogger := logger.With("entity", task.Entity())
		taskLogger.Info("migrating entity", "destination", task.Destination())

		out := task.Run(ctx, reader)
		code := models.CodeOf(out.Err)
		o.metrics.RecordTask(out.Entity, out.Destination, out.Migrated, code)
		if out.Err != nil {
			taskLogger.Error("entity migration failed",
				"migrated", out.Migrated,
				"code", code,
				"error", out.Err)
		} else {
			taskLogger.Info("entity migrated", "migrated", out.Migrated)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (o *Orchestrator) finalize(ctx context.Context, logger *slog.Logger, report *Report) {
	report.FinishedAt = o.now()
	o.metrics.RecordRun(report.Status(), report.Duration())
	logger.Info("migration process completed", "phase", models.PhaseFinalize, "report", report)

	if o.notifier == nil {
		return
	}
	if err := o.notifier.Publish(context.WithoutCancel(ctx), report); err != nil {
		logger.Warn("failed to publish completion event", "error", err)
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"SalesScanner/internal/domain"
	"SalesScanner/internal/operation"
	"SalesScanner/internal/ports"
	"SalesScanner/internal/stage"
)

// Stage names as they appear in logs, metrics and the run summary.
const (
	StageDiscover  = "discover"
	StageResolve   = "resolve"
	StageMetadata  = "metadata"
	StageSerialize = "serialize"
)

// Stage-level hard failures. Each one ends the run.
var (
	ErrNoListingURLs = errors.New("no listing urls discovered")
	ErrNoListingIDs  = errors.New("no listing ids resolved")
	ErrNoMetadata    = errors.New("no house metadata fetched")
)

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNoListingURLs):
		return 2
	case errors.Is(err, ErrNoListingIDs):
		return 3
	case errors.Is(err, ErrNoMetadata):
		return 4
	default:
		return 1
	}
}

// Recorder receives stage and sink observations, typically for metrics.
type Recorder interface {
	ObserveStage(s stage.Summary)
	ObserveSinkAppend(sink string, err error)
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Fetcher       ports.Fetcher
	Parser        ports.ListingParser
	Sinks         []ports.SaleSink
	Requests      SiteRequests
	Concurrency   int
	ResolveQuota  stage.Quota
	MetadataQuota stage.Quota
	ItemTimeout   time.Duration
	Recorder      Recorder
	Logger        *zap.Logger
}

// Report describes a finished (or aborted) run.
type Report struct {
	Stages       []stage.Summary
	Records      int
	SoldRows     int
	SinkRows     map[string]int
	SinkFailures map[string]int
	Duration     time.Duration
}

// Pipeline implements the discover, resolve, fetch and serialize workflow.
type Pipeline struct {
	fetcher       ports.Fetcher
	parser        ports.ListingParser
	sinks         []ports.SaleSink
	requests      SiteRequests
	executor      *stage.Executor
	resolveQuota  stage.Quota
	metadataQuota stage.Quota
	itemTimeout   time.Duration
	recorder      Recorder
	logger        *zap.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:       deps.Fetcher,
		parser:        deps.Parser,
		sinks:         deps.Sinks,
		requests:      deps.Requests,
		executor:      stage.NewExecutor(deps.Concurrency),
		resolveQuota:  deps.ResolveQuota,
		metadataQuota: deps.MetadataQuota,
		itemTimeout:   deps.ItemTimeout,
		recorder:      deps.Recorder,
		logger:        logger,
	}
}

// Run executes every stage in order. The returned report is populated up to
// the stage that failed.
func (p *Pipeline) Run(ctx context.Context) (report Report, err error) {
	started := time.Now()
	report = Report{
		SinkRows:     map[string]int{},
		SinkFailures: map[string]int{},
	}
	defer func() { report.Duration = time.Since(started) }()

	discoverStarted := time.Now()
	paths, err := p.DiscoverURLs(ctx)
	p.finishStage(&report, stage.Summary{
		Stage:     StageDiscover,
		Succeeded: len(paths),
		Failed:    boolToInt(err != nil),
		Duration:  time.Since(discoverStarted),
	})
	if err != nil {
		if ierr := interrupted(ctx, StageDiscover); ierr != nil {
			return report, ierr
		}
		return report, err
	}

	ids := p.ResolveIdentifiers(ctx, paths)
	p.finishStage(&report, ids.Summary())
	if err := interrupted(ctx, StageResolve); err != nil {
		return report, err
	}
	if len(ids.Values) == 0 {
		return report, fmt.Errorf("%w: %d paths, %d failures", ErrNoListingIDs, len(paths), ids.Failures)
	}

	records := p.FetchMetadata(ctx, ids.Values)
	p.finishStage(&report, records.Summary())
	if err := interrupted(ctx, StageMetadata); err != nil {
		return report, err
	}
	if len(records.Values) == 0 {
		return report, fmt.Errorf("%w: %d ids, %d failures", ErrNoMetadata, len(ids.Values), records.Failures)
	}
	report.Records = len(records.Values)

	serializeStarted := time.Now()
	err = p.FilterAndSerialize(ctx, records.Values, &report)
	sinkFailures := 0
	for _, n := range report.SinkFailures {
		sinkFailures += n
	}
	p.finishStage(&report, stage.Summary{
		Stage:     StageSerialize,
		Succeeded: report.SoldRows,
		Failed:    sinkFailures,
		Duration:  time.Since(serializeStarted),
	})
	return report, err
}

// DiscoverURLs fetches the sitemap and returns the listing paths it links to.
// A transport failure and an empty page are both reported as ErrNoListingURLs.
func (p *Pipeline) DiscoverURLs(ctx context.Context) ([]string, error) {
	body, err := p.fetcher.Get(ctx, p.requests.Sitemap())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoListingURLs, err)
	}

	paths, err := p.parser.ListingPaths(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoListingURLs, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: sitemap %s matched no listings", ErrNoListingURLs, p.requests.SitemapPath)
	}

	p.logger.Info("listing urls discovered", zap.Int("count", len(paths)))
	return paths, nil
}

// ResolveIdentifiers fetches each listing page concurrently and extracts its id.
func (p *Pipeline) ResolveIdentifiers(ctx context.Context, paths []string) stage.Result[string] {
	ops := make([]*operation.Operation[string, string], len(paths))
	for i, path := range paths {
		ops[i] = operation.New(path, p.resolveOne, p.operationOptions()...)
	}
	return stage.Collect(ctx, p.executor, StageResolve, ops, p.resolveQuota, p.logger)
}

func (p *Pipeline) resolveOne(ctx context.Context, path string) (string, error) {
	body, err := p.fetcher.Get(ctx, p.requests.Listing(path))
	if err != nil {
		return "", err
	}
	return p.parser.ListingID(body)
}

// FetchMetadata queries the detail API for each id concurrently.
func (p *Pipeline) FetchMetadata(ctx context.Context, ids []string) stage.Result[domain.HouseMetadata] {
	ops := make([]*operation.Operation[string, domain.HouseMetadata], len(ids))
	for i, id := range ids {
		ops[i] = operation.New(id, p.fetchOne, p.operationOptions()...)
	}
	return stage.Collect(ctx, p.executor, StageMetadata, ops, p.metadataQuota, p.logger)
}

func (p *Pipeline) fetchOne(ctx context.Context, id string) (domain.HouseMetadata, error) {
	body, err := p.fetcher.Get(ctx, p.requests.Detail(id))
	if err != nil {
		return domain.HouseMetadata{}, err
	}
	return p.parser.HouseMetadata(body)
}

// FilterAndSerialize appends every sold event to every sink, in record order.
// Sink failures are logged and counted; only context cancellation stops the fold.
func (p *Pipeline) FilterAndSerialize(ctx context.Context, records []domain.HouseMetadata, report *Report) error {
	for _, record := range records {
		for _, row := range domain.SaleRows(record) {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%s stage interrupted: %w", StageSerialize, err)
			}
			report.SoldRows++
			for _, sink := range p.sinks {
				err := sink.Append(ctx, row)
				if p.recorder != nil {
					p.recorder.ObserveSinkAppend(sink.Name(), err)
				}
				if err != nil {
					report.SinkFailures[sink.Name()]++
					p.logger.Warn("sale row not written",
						zap.String("sink", sink.Name()),
						zap.String("address", row.Address),
						zap.Stringer("kind", domain.KindOf(err)),
						zap.Error(err),
					)
					continue
				}
				report.SinkRows[sink.Name()]++
			}
		}
	}
	return nil
}

func (p *Pipeline) operationOptions() []operation.Option {
	if p.itemTimeout <= 0 {
		return nil
	}
	return []operation.Option{operation.WithTimeout(p.itemTimeout)}
}

func (p *Pipeline) finishStage(report *Report, summary stage.Summary) {
	report.Stages = append(report.Stages, summary)
	if p.recorder != nil {
		p.recorder.ObserveStage(summary)
	}
	p.logger.Info("stage finished",
		zap.String("stage", summary.Stage),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("dropped", summary.Dropped),
		zap.Int("discarded", summary.Discarded),
		zap.Duration("duration", summary.Duration),
	)
}

func interrupted(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s stage interrupted: %w", name, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package pipeline drives companies one at a time through search, extraction and
// ranking, producing one result row per company.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/challenge"
	"github.com/jonathan/talent-scout/internal/events"
	"github.com/jonathan/talent-scout/internal/fetch"
	"github.com/jonathan/talent-scout/internal/serp"
	"github.com/jonathan/talent-scout/internal/types"
)

// Browser is the web client the pipeline navigates with.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	WaitNavigation(ctx context.Context) error
	DismissConsent(ctx context.Context) (bool, error)
}

// Gate holds the pipeline while a challenge page is showing.
type Gate interface {
	CheckAndWait(ctx context.Context, page challenge.Page) error
}

// Extractor turns a rendered result page into candidates.
type Extractor interface {
	Extract(html string, pageURL string) ([]types.Candidate, error)
}

// Ranker picks the best candidate for a company. A nil match means none was usable.
type Ranker interface {
	Rank(ctx context.Context, company string, candidates []types.Candidate) *types.RankedMatch
}

// ResultCallback is called after each company's row is recorded.
type ResultCallback func(task types.CompanyTask, result types.CompanyResult)

// Options holds the collaborators for a Runner.
type Options struct {
	Browser   Browser
	Ranker    Ranker
	Publisher events.Publisher
	// Optional; defaults are used when nil.
	Gate      Gate
	Extractor Extractor
	Pacer     *Pacer
	OnResult  ResultCallback
}

// Runner processes a company list strictly sequentially over one browser session.
type Runner struct {
	browser   Browser
	gate      Gate
	extractor Extractor
	ranker    Ranker
	publisher events.Publisher
	pacer     *Pacer
	onResult  ResultCallback
	now       func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	r := &Runner{
		browser:   opts.Browser,
		gate:      opts.Gate,
		extractor: opts.Extractor,
		ranker:    opts.Ranker,
		publisher: opts.Publisher,
		pacer:     opts.Pacer,
		onResult:  opts.OnResult,
		now:       time.Now,
	}
	if r.publisher == nil {
		r.publisher = events.NewBroker(0)
	}
	if r.gate == nil {
		r.gate = challenge.NewGate(r.publisher)
	}
	if r.extractor == nil {
		r.extractor = serp.NewExtractor()
	}
	if r.pacer == nil {
		r.pacer = NewPacer(DefaultMinDelay, DefaultMaxDelay)
	}
	return r
}

// Run processes every company in order and returns exactly one row per company.
// Cancelling ctx stops the run early; the remaining companies are recorded as
// cancelled error rows.
func (r *Runner) Run(ctx context.Context, companies []string) []types.CompanyResult {
	tasks := types.NewTasks(companies)
	results := make([]types.CompanyResult, 0, len(tasks))
	runID := uuid.New()
	started := r.now()

	logger := zap.L().With(zap.String("run_id", runID.String()))
	logger.Info("run started", zap.Int("companies", len(tasks)))

	for i, task := range tasks {
		if ctx.Err() != nil {
			results = append(results, r.record(task, types.ErrorResult(task.Name, types.ReasonCancelled)))
			continue
		}

		result := r.processTask(ctx, logger, task, len(tasks))
		results = append(results, r.record(task, result))

		if i == len(tasks)-1 || ctx.Err() != nil {
			continue
		}
		delay, err := r.pacer.Wait(ctx)
		if err != nil {
			logger.Info("pacing interrupted", zap.Error(err))
			continue
		}
		logger.Debug("paced", zap.Duration("delay", delay))
	}

	summary := Summarize(results)
	logger.Info("run finished",
		zap.Int("matched", summary.Matched),
		zap.Int("not_found", summary.NotFound),
		zap.Int("no_results", summary.NoResults),
		zap.Int("errors", summary.Errors),
		zap.Int("cancelled", summary.Cancelled),
		zap.Duration("elapsed", r.now().Sub(started)),
	)
	return results
}

func (r *Runner) record(task types.CompanyTask, result types.CompanyResult) types.CompanyResult {
	if r.onResult != nil {
		r.onResult(task, result)
	}
	return result
}

// processTask runs one company and converts any failure, including a panic, into
// that company's error row.
func (r *Runner) processTask(ctx context.Context, logger *zap.Logger, task types.CompanyTask, total int) types.CompanyResult {
	logger = logger.With(zap.String("company", task.Name), zap.Int("position", task.Position))
	r.publisher.Publish(events.Progress("Processing (%d/%d): %s", task.Position, total, task.Name))

	result, err := r.safeProcess(ctx, logger, task.Name)
	if err != nil {
		logger.Error("company failed", zap.Error(err))
		r.publisher.Publish(events.Error("Error on %s: %s", task.Name, err.Error()))
		return types.ErrorResult(task.Name, err.Error())
	}
	logger.Debug("state", zap.String("state", string(StateRecorded)))
	return result
}

func (r *Runner) safeProcess(ctx context.Context, logger *zap.Logger, company string) (result types.CompanyResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic while processing company",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			err = fmt.Errorf("unexpected failure: %v", rec)
		}
	}()
	return r.process(ctx, logger, company)
}

func (r *Runner) process(ctx context.Context, logger *zap.Logger, company string) (types.CompanyResult, error) {
	logger.Debug("state", zap.String("state", string(StateDomainLookup)))
	domain, err := r.lookupDomain(ctx, logger, company)
	if err != nil {
		return types.CompanyResult{}, err
	}

	logger.Debug("state", zap.String("state", string(StateCandidateSearch)))
	candidates, err := r.searchCandidates(ctx, logger, company)
	if err != nil {
		return types.CompanyResult{}, err
	}
	if len(candidates) == 0 {
		return types.NoResultsResult(company, domain), nil
	}

	logger.Debug("state", zap.String("state", string(StateRanking)), zap.Int("candidates", len(candidates)))
	match := r.ranker.Rank(ctx, company, candidates)
	if err := ctx.Err(); err != nil {
		return types.CompanyResult{}, err
	}
	if match == nil || match.Name == "" {
		return types.NotFoundResult(company, domain), nil
	}

	r.publisher.Publish(events.Progress("Found: %s | %s", match.Name, domain))
	return types.MatchedResult(company, domain, match), nil
}

func (r *Runner) lookupDomain(ctx context.Context, logger *zap.Logger, company string) (string, error) {
	html, location, err := r.load(ctx, logger, fetch.DomainSearchURL(company))
	if err != nil {
		return "", err
	}
	domain := serp.DomainFrom(html, location)
	logger.Debug("domain lookup", zap.String("domain", domain))
	return domain, nil
}

func (r *Runner) searchCandidates(ctx context.Context, logger *zap.Logger, company string) ([]types.Candidate, error) {
	searchURL := fetch.CandidateSearchURL(company)
	if err := r.navigate(ctx, logger, searchURL); err != nil {
		return nil, err
	}

	if clicked, err := r.browser.DismissConsent(ctx); err != nil {
		logger.Debug("consent prompt not dismissed", zap.Error(err))
	} else if clicked {
		logger.Debug("consent prompt dismissed")
	}

	html, location, err := r.snapshot(ctx, logger)
	if err != nil {
		return nil, err
	}

	candidates, err := r.extractor.Extract(html, location)
	if err != nil {
		return nil, fmt.Errorf("failed to extract candidates: %w", err)
	}
	return candidates, nil
}

// load navigates to url, waits out any challenge and returns the rendered page.
func (r *Runner) load(ctx context.Context, logger *zap.Logger, url string) (string, string, error) {
	if err := r.navigate(ctx, logger, url); err != nil {
		return "", "", err
	}
	return r.snapshot(ctx, logger)
}

func (r *Runner) navigate(ctx context.Context, logger *zap.Logger, url string) error {
	if err := r.browser.Navigate(ctx, url); err != nil {
		return err
	}
	logger.Debug("state", zap.String("state", string(StateChallengeWait)))
	if err := r.gate.CheckAndWait(ctx, r.browser); err != nil {
		return fmt.Errorf("challenge not cleared: %w", err)
	}
	return nil
}

func (r *Runner) snapshot(ctx context.Context, logger *zap.Logger) (string, string, error) {
	html, err := r.browser.HTML(ctx)
	if err != nil {
		return "", "", err
	}
	location, err := r.browser.Location(ctx)
	if err != nil {
		return "", "", err
	}
	if blocked, kind := challenge.DetectBlock(html); blocked {
		logger.Warn("page content looks blocked", zap.String("block", string(kind)), zap.String("url", location))
	}
	return html, location, nil
}

// IsCancelled reports whether a row was recorded because the run was cancelled.
func IsCancelled(result types.CompanyResult) bool {
	return result.Domain == types.ValueError && result.Reasoning == types.ReasonCancelled
}

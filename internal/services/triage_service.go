package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/thomas-vilte/triagemate/internal/cache"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/triage"
	"github.com/thomas-vilte/triagemate/internal/vcs"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchConcurrency = 4
	MaxBatchConcurrency     = 16
)

// issueClassifier is the part of triage.Engine the service depends on.
type issueClassifier interface {
	Classify(ctx context.Context, issue models.NormalizedIssue) (triage.Result, error)
	CacheScope() string
}

type TriageService struct {
	fetcher vcs.IssueFetcher
	engine  issueClassifier
	cache   cache.Store
	now     func() time.Time
}

type TriageOption func(*TriageService)

// WithCache enables verdict caching. Fallback verdicts are never cached.
func WithCache(store cache.Store) TriageOption {
	return func(s *TriageService) {
		if store != nil {
			s.cache = store
		}
	}
}

func NewTriageService(fetcher vcs.IssueFetcher, engine issueClassifier, opts ...TriageOption) *TriageService {
	s := &TriageService{
		fetcher: fetcher,
		engine:  engine,
		cache:   cache.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze fetches, normalizes and classifies one issue. repoURL may itself point
// at an issue, in which case number may be 0.
func (s *TriageService) Analyze(ctx context.Context, repoURL string, number int) (*models.TriageReport, error) {
	ref, urlNumber, err := vcs.ParseIssueURL(repoURL)
	if err != nil {
		return nil, err
	}
	if number == 0 {
		number = urlNumber
	}
	return s.analyze(ctx, ref, number)
}

func (s *TriageService) analyze(ctx context.Context, ref models.RepoRef, number int) (*models.TriageReport, error) {
	if number <= 0 {
		return nil, domainErrors.ErrInvalidIssueNumber.WithContext("number", number)
	}

	ctx = logger.With(ctx, "repo", ref.FullName())
	start := s.now()

	raw, err := s.fetcher.FetchIssue(ctx, ref, number)
	if err != nil {
		return nil, err
	}
	if raw.RepoFullName == "" {
		raw.RepoFullName = ref.FullName()
	}

	issue, err := triage.Normalize(*raw)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(ref, issue)
	if report, ok := s.lookup(ctx, key); ok {
		report.Diagnostics.DurationMs = s.now().Sub(start).Milliseconds()
		return report, nil
	}

	res, err := s.engine.Classify(ctx, issue)
	if err != nil {
		return nil, err
	}

	report := buildReport(issue, res, s.now().Sub(start))
	if !res.Fallback {
		if err := s.cache.Set(ctx, key, report); err != nil {
			logger.Warn(ctx, "failed to store verdict in cache", "error", err)
		}
	}
	return report, nil
}

// Classify runs the engine on inline issue content, without fetching or caching.
func (s *TriageService) Classify(ctx context.Context, raw models.RawIssue) (*models.TriageReport, error) {
	start := s.now()

	issue, err := triage.Normalize(raw)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Classify(ctx, issue)
	if err != nil {
		return nil, err
	}
	return buildReport(issue, res, s.now().Sub(start)), nil
}

// AnalyzeBatch analyzes several issues of one repository concurrently. A failing
// issue is reported in its BatchItem and never aborts the rest of the batch.
// Items are returned in the order of numbers.
func (s *TriageService) AnalyzeBatch(ctx context.Context, repoURL string, numbers []int, concurrency int) ([]models.BatchItem, error) {
	ref, err := vcs.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	if concurrency > MaxBatchConcurrency {
		concurrency = MaxBatchConcurrency
	}

	items := make([]models.BatchItem, len(numbers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, n := range numbers {
		items[i].Number = n
		g.Go(func() error {
			report, err := s.analyze(gctx, ref, n)
			if err != nil {
				logger.Warn(gctx, "batch item failed", "issue_number", n, "error", err)
				items[i].Error = errorMessage(err)
				return nil
			}
			items[i].Report = report
			return nil
		})
	}

	_ = g.Wait()
	return items, ctx.Err()
}

// AnalyzeRepo lists the issues of a repository and analyzes them as a batch.
func (s *TriageService) AnalyzeRepo(ctx context.Context, repoURL string, opts vcs.ListOptions, concurrency int) ([]models.BatchItem, error) {
	ref, err := vcs.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	lister, ok := s.fetcher.(vcs.IssueLister)
	if !ok {
		return nil, domainErrors.ErrVCSNotSupported.WithContext("operation", "list issues")
	}

	numbers, err := lister.ListIssues(ctx, ref, opts)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "issues listed for batch analysis",
		"repo", ref.FullName(),
		"state", opts.State,
		"count", len(numbers))

	return s.AnalyzeBatch(ctx, repoURL, numbers, concurrency)
}

// ApplyLabels writes the suggested labels of report back to its issue and
// records them in report.AppliedLabels.
func (s *TriageService) ApplyLabels(ctx context.Context, repoURL string, report *models.TriageReport) error {
	if report == nil || len(report.Verdict.SuggestedLabels) == 0 {
		return nil
	}
	ref, err := vcs.ParseRepoURL(repoURL)
	if err != nil {
		return err
	}
	writer, ok := s.fetcher.(vcs.LabelWriter)
	if !ok {
		return domainErrors.ErrVCSNotSupported.WithContext("operation", "add labels")
	}

	labels := append([]string(nil), report.Verdict.SuggestedLabels...)
	if err := writer.AddLabels(ctx, ref, report.Number, labels); err != nil {
		return err
	}
	report.AppliedLabels = labels
	return nil
}

func (s *TriageService) lookup(ctx context.Context, key string) (*models.TriageReport, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "failed to read verdict cache", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var report models.TriageReport
	if err := json.Unmarshal(data, &report); err != nil {
		logger.Warn(ctx, "discarding unreadable cache entry", "error", err)
		return nil, false
	}
	report.Diagnostics.CacheHit = true
	logger.Debug(ctx, "verdict served from cache")
	return &report, true
}

// cacheKey covers every input of the classification, so an edited issue or a
// different provider, model or guidelines file misses.
func (s *TriageService) cacheKey(ref models.RepoRef, issue models.NormalizedIssue) string {
	return cache.Key(
		s.engine.CacheScope(),
		ref.Provider,
		ref.Host,
		ref.FullName(),
		strconv.Itoa(issue.Number),
		issue.Title,
		issue.Body,
		strings.Join(issue.Labels, ","),
		strconv.Itoa(issue.CommentCount),
	)
}

func buildReport(issue models.NormalizedIssue, res triage.Result, elapsed time.Duration) *models.TriageReport {
	return &models.TriageReport{
		Repo:     issue.RepoFullName,
		Number:   issue.Number,
		Title:    issue.Title,
		State:    issue.State,
		Author:   issue.Author,
		URL:      issue.URL,
		Comments: issue.CommentCount,
		Verdict:  res.Verdict,
		Diagnostics: models.Diagnostics{
			Strategy:       res.Strategy,
			Provider:       res.Provider,
			Fallback:       res.Fallback,
			FallbackReason: res.FallbackReason,
			Repairs:        res.Repairs,
			DurationMs:     elapsed.Milliseconds(),
			Usage:          res.Usage,
		},
	}
}

func errorMessage(err error) string {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

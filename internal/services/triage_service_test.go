package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/triagemate/internal/ai"
	"github.com/thomas-vilte/triagemate/internal/cache"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/triage"
	"github.com/thomas-vilte/triagemate/internal/vcs"
)

const validCompletion = `{"summary":"Uploading PNG files crashes the app.","type":"bug","priority_score":"4/5 - Uploads are blocked for all users","suggested_labels":["bug","priority:high"],"potential_impact":"Users cannot upload images."}`

var repo = models.RepoRef{Provider: "github", Owner: "acme", Name: "app"}

func rawIssue(number int, title, body string) *models.RawIssue {
	return &models.RawIssue{
		Number:       &number,
		Title:        &title,
		Body:         &body,
		State:        "open",
		Labels:       []string{"triage"},
		CommentCount: 2,
		Author:       "reporter",
		URL:          "https://github.com/acme/app/issues/1",
		RepoFullName: "acme/app",
	}
}

func newFetcher() *vcs.MockIssueFetcher {
	f := &vcs.MockIssueFetcher{}
	f.On("Name").Return("github").Maybe()
	return f
}

func newStore(t *testing.T) *cache.FileStore {
	t.Helper()
	store, err := cache.NewFileStore(filepath.Join(t.TempDir(), "cache"), time.Hour)
	require.NoError(t, err)
	return store
}

func TestTriageService_Analyze(t *testing.T) {
	t.Run("should classify a fetched issue with rules", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, 1).
			Return(rawIssue(1, "App crashes when uploading PNG", "Error: null pointer when I upload a file"), nil)
		svc := NewTriageService(fetcher, triage.NewEngine())

		report, err := svc.Analyze(context.Background(), "https://github.com/acme/app", 1)

		require.NoError(t, err)
		assert.Equal(t, "acme/app", report.Repo)
		assert.Equal(t, 1, report.Number)
		assert.Equal(t, models.IssueTypeBug, report.Verdict.Type)
		assert.Equal(t, triage.StrategyRules, report.Diagnostics.Strategy)
		assert.False(t, report.Diagnostics.CacheHit)
		assert.Equal(t, 2, report.Comments)
		fetcher.AssertExpectations(t)
	})

	t.Run("should take the number from an issue URL", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, 42).
			Return(rawIssue(42, "How do I configure the proxy?", ""), nil)
		svc := NewTriageService(fetcher, triage.NewEngine())

		report, err := svc.Analyze(context.Background(), "https://github.com/acme/app/issues/42", 0)

		require.NoError(t, err)
		assert.Equal(t, 42, report.Number)
		assert.Equal(t, models.IssueTypeQuestion, report.Verdict.Type)
	})

	t.Run("should reject invalid input before fetching", func(t *testing.T) {
		fetcher := newFetcher()
		svc := NewTriageService(fetcher, triage.NewEngine())

		_, err := svc.Analyze(context.Background(), "not a repo", 1)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidRepoURL)

		_, err = svc.Analyze(context.Background(), "acme/app", -3)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidIssueNumber)

		fetcher.AssertNotCalled(t, "FetchIssue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should propagate fetch errors", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, 404).Return(nil, domainErrors.ErrIssueNotFound)
		svc := NewTriageService(fetcher, triage.NewEngine())

		_, err := svc.Analyze(context.Background(), "acme/app", 404)

		assert.ErrorIs(t, err, domainErrors.ErrIssueNotFound)
	})

	t.Run("should report malformed issues", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, 5).Return(rawIssue(5, "   ", "body"), nil)
		svc := NewTriageService(fetcher, triage.NewEngine())

		_, err := svc.Analyze(context.Background(), "acme/app", 5)

		assert.ErrorIs(t, err, domainErrors.ErrMalformedIssue)
	})
}

func TestTriageService_Cache(t *testing.T) {
	t.Run("should serve the second call from cache", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, 1).
			Return(rawIssue(1, "Add dark mode", "It would be nice to support a dark theme"), nil)
		completer := &ai.MockCompleter{}
		completer.On("Name").Return("fake").Maybe()
		completer.On("Complete", mock.Anything, mock.Anything).
			Return(&ai.Completion{Text: validCompletion}, nil).Once()
		svc := NewTriageService(fetcher, triage.NewEngine(triage.WithCompleter(completer)), WithCache(newStore(t)))

		first, err := svc.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)
		second, err := svc.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)

		assert.False(t, first.Diagnostics.CacheHit)
		assert.True(t, second.Diagnostics.CacheHit)
		assert.Equal(t, first.Verdict, second.Verdict)
		completer.AssertNumberOfCalls(t, "Complete", 1)
	})

	t.Run("should miss when the issue was edited", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, 1).
			Return(rawIssue(1, "Add dark mode", "original body"), nil).Once()
		fetcher.On("FetchIssue", mock.Anything, repo, 1).
			Return(rawIssue(1, "Add dark mode", "edited body"), nil).Once()
		svc := NewTriageService(fetcher, triage.NewEngine(), WithCache(newStore(t)))

		_, err := svc.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)
		second, err := svc.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)

		assert.False(t, second.Diagnostics.CacheHit)
	})

	t.Run("should miss when the provider changes", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, 1).
			Return(rawIssue(1, "Add dark mode", "It would be nice to support a dark theme"), nil)
		store := newStore(t)
		completerFor := func(name string) *ai.MockCompleter {
			c := &ai.MockCompleter{}
			c.On("Name").Return(name).Maybe()
			c.On("Complete", mock.Anything, mock.Anything).
				Return(&ai.Completion{Text: validCompletion}, nil)
			return c
		}

		gemini := NewTriageService(fetcher, triage.NewEngine(triage.WithCompleter(completerFor("gemini"))), WithCache(store))
		openai := NewTriageService(fetcher, triage.NewEngine(triage.WithCompleter(completerFor("openai"))), WithCache(store))
		rules := NewTriageService(fetcher, triage.NewEngine(), WithCache(store))

		_, err := gemini.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)
		second, err := openai.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)
		third, err := rules.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)
		again, err := gemini.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)

		assert.False(t, second.Diagnostics.CacheHit)
		assert.False(t, third.Diagnostics.CacheHit)
		assert.True(t, again.Diagnostics.CacheHit)
	})

	t.Run("should not cache fallback verdicts", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, 1).
			Return(rawIssue(1, "App crashes on start", "crash"), nil)
		completer := &ai.MockCompleter{}
		completer.On("Name").Return("fake").Maybe()
		completer.On("Complete", mock.Anything, mock.Anything).
			Return(nil, ai.ErrRateLimited)
		svc := NewTriageService(fetcher, triage.NewEngine(triage.WithCompleter(completer)), WithCache(newStore(t)))

		first, err := svc.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)
		second, err := svc.Analyze(context.Background(), "acme/app", 1)
		require.NoError(t, err)

		assert.True(t, first.Diagnostics.Fallback)
		assert.Equal(t, "rate_limited", first.Diagnostics.FallbackReason)
		assert.False(t, second.Diagnostics.CacheHit)
		completer.AssertNumberOfCalls(t, "Complete", 2)
	})
}

func TestTriageService_Classify(t *testing.T) {
	svc := NewTriageService(newFetcher(), triage.NewEngine())

	report, err := svc.Classify(context.Background(), *rawIssue(3, "Docs: README install section is outdated", "The installation guide references an old version"))

	require.NoError(t, err)
	assert.Equal(t, models.IssueTypeDocumentation, report.Verdict.Type)

	_, err = svc.Classify(context.Background(), models.RawIssue{})
	assert.ErrorIs(t, err, domainErrors.ErrMalformedIssue)
}

func TestTriageService_AnalyzeBatch(t *testing.T) {
	t.Run("should keep order and isolate failures", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, 1).Return(rawIssue(1, "Crash on save", "error when saving"), nil)
		fetcher.On("FetchIssue", mock.Anything, repo, 2).Return(nil, domainErrors.ErrIssueNotFound)
		fetcher.On("FetchIssue", mock.Anything, repo, 3).Return(rawIssue(3, "How to export data?", ""), nil)
		svc := NewTriageService(fetcher, triage.NewEngine())

		items, err := svc.AnalyzeBatch(context.Background(), "acme/app", []int{1, 2, 3}, 2)

		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{items[0].Number, items[1].Number, items[2].Number})
		assert.NotNil(t, items[0].Report)
		assert.Nil(t, items[1].Report)
		assert.Equal(t, "issue not found", items[1].Error)
		assert.NotNil(t, items[2].Report)
	})

	t.Run("should respect the concurrency limit", func(t *testing.T) {
		var inFlight, peak atomic.Int32
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, mock.Anything).
			Run(func(mock.Arguments) {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inFlight.Add(-1)
			}).
			Return(rawIssue(1, "Crash", "error"), nil)
		svc := NewTriageService(fetcher, triage.NewEngine())

		items, err := svc.AnalyzeBatch(context.Background(), "acme/app", []int{1, 2, 3, 4, 5, 6}, 2)

		require.NoError(t, err)
		assert.Len(t, items, 6)
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("should reject invalid repository", func(t *testing.T) {
		svc := NewTriageService(newFetcher(), triage.NewEngine())

		_, err := svc.AnalyzeBatch(context.Background(), "", []int{1}, 1)

		assert.ErrorIs(t, err, domainErrors.ErrInvalidRepoURL)
	})

	t.Run("should report caller cancellation", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("FetchIssue", mock.Anything, repo, mock.Anything).
			Return(nil, errors.New("context canceled")).Maybe()
		svc := NewTriageService(fetcher, triage.NewEngine())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.AnalyzeBatch(ctx, "acme/app", []int{1, 2}, 1)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTriageService_AnalyzeRepo(t *testing.T) {
	t.Run("should analyze every listed issue", func(t *testing.T) {
		fetcher := newFetcher()
		opts := vcs.ListOptions{State: "open", Limit: 2}
		fetcher.On("ListIssues", mock.Anything, repo, opts).Return([]int{5, 4}, nil)
		fetcher.On("FetchIssue", mock.Anything, repo, 5).Return(rawIssue(5, "Crash on save", "error"), nil)
		fetcher.On("FetchIssue", mock.Anything, repo, 4).Return(rawIssue(4, "Add dark mode", ""), nil)
		svc := NewTriageService(fetcher, triage.NewEngine())

		items, err := svc.AnalyzeRepo(context.Background(), "acme/app", opts, 2)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, 5, items[0].Number)
		assert.Equal(t, models.IssueTypeBug, items[0].Report.Verdict.Type)
		assert.Equal(t, models.IssueTypeFeatureRequest, items[1].Report.Verdict.Type)
	})

	t.Run("should propagate listing errors", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("ListIssues", mock.Anything, repo, mock.Anything).Return(nil, domainErrors.ErrVCSRateLimit)
		svc := NewTriageService(fetcher, triage.NewEngine())

		_, err := svc.AnalyzeRepo(context.Background(), "acme/app", vcs.ListOptions{}, 2)

		assert.ErrorIs(t, err, domainErrors.ErrVCSRateLimit)
		fetcher.AssertNotCalled(t, "FetchIssue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should reject fetchers that cannot list", func(t *testing.T) {
		svc := NewTriageService(fetchOnly{newFetcher()}, triage.NewEngine())

		_, err := svc.AnalyzeRepo(context.Background(), "acme/app", vcs.ListOptions{}, 2)

		assert.ErrorIs(t, err, domainErrors.ErrVCSNotSupported)
	})
}

func TestTriageService_ApplyLabels(t *testing.T) {
	t.Run("should write the suggested labels", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("AddLabels", mock.Anything, repo, 7, []string{"bug", "priority:high"}).Return(nil)
		svc := NewTriageService(fetcher, triage.NewEngine())
		report := &models.TriageReport{Number: 7, Verdict: models.Verdict{SuggestedLabels: []string{"bug", "priority:high"}}}

		err := svc.ApplyLabels(context.Background(), "https://github.com/acme/app/issues/7", report)

		require.NoError(t, err)
		assert.Equal(t, []string{"bug", "priority:high"}, report.AppliedLabels)
	})

	t.Run("should leave the report untouched on failure", func(t *testing.T) {
		fetcher := newFetcher()
		fetcher.On("AddLabels", mock.Anything, repo, 7, mock.Anything).Return(domainErrors.ErrLabelWrite)
		svc := NewTriageService(fetcher, triage.NewEngine())
		report := &models.TriageReport{Number: 7, Verdict: models.Verdict{SuggestedLabels: []string{"bug", "ui"}}}

		err := svc.ApplyLabels(context.Background(), "acme/app", report)

		assert.ErrorIs(t, err, domainErrors.ErrLabelWrite)
		assert.Nil(t, report.AppliedLabels)
	})
}

// fetchOnly hides the optional capabilities of the wrapped fetcher.
type fetchOnly struct {
	vcs.IssueFetcher
}

func TestGenerateStatistics(t *testing.T) {
	report := func(typ models.IssueType, score string, state models.IssueState, comments int, fallback bool) *models.TriageReport {
		return &models.TriageReport{
			State:       state,
			Comments:    comments,
			Verdict:     models.Verdict{Type: typ, PriorityScore: score},
			Diagnostics: models.Diagnostics{Fallback: fallback},
		}
	}
	items := []models.BatchItem{
		{Number: 1, Report: report(models.IssueTypeBug, "4/5 - x", models.IssueStateOpen, 3, false)},
		{Number: 2, Report: report(models.IssueTypeBug, "2/5 - y", models.IssueStateClosed, 0, true)},
		{Number: 3, Report: report(models.IssueTypeQuestion, "2/5 - z", models.IssueStateOpen, 4, false)},
		{Number: 4, Error: "issue not found"},
	}

	stats := GenerateStatistics(items)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Fallbacks)
	assert.Equal(t, map[string]int{"bug": 2, "question": 1}, stats.Types)
	assert.Equal(t, map[string]int{"4": 1, "2": 2}, stats.Priorities)
	assert.Equal(t, map[string]int{"open": 2, "closed": 1}, stats.States)
	assert.Equal(t, 2.33, stats.AvgComment)
}

func TestGenerateStatistics_Empty(t *testing.T) {
	stats := GenerateStatistics(nil)

	assert.Equal(t, 0, stats.Total)
	assert.Zero(t, stats.AvgComment)
	assert.Empty(t, stats.Types)
}

package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/vcs"
)

// MockTriageService stands in for TriageService in command and server tests.
type MockTriageService struct {
	mock.Mock
}

func (m *MockTriageService) Analyze(ctx context.Context, repoURL string, number int) (*models.TriageReport, error) {
	args := m.Called(ctx, repoURL, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TriageReport), args.Error(1)
}

func (m *MockTriageService) Classify(ctx context.Context, raw models.RawIssue) (*models.TriageReport, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TriageReport), args.Error(1)
}

func (m *MockTriageService) AnalyzeBatch(ctx context.Context, repoURL string, numbers []int, concurrency int) ([]models.BatchItem, error) {
	args := m.Called(ctx, repoURL, numbers, concurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BatchItem), args.Error(1)
}

func (m *MockTriageService) AnalyzeRepo(ctx context.Context, repoURL string, opts vcs.ListOptions, concurrency int) ([]models.BatchItem, error) {
	args := m.Called(ctx, repoURL, opts, concurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BatchItem), args.Error(1)
}

func (m *MockTriageService) ApplyLabels(ctx context.Context, repoURL string, report *models.TriageReport) error {
	args := m.Called(ctx, repoURL, report)
	return args.Error(0)
}

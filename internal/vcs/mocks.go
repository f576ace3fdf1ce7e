package vcs

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/triagemate/internal/models"
)

type MockIssueFetcher struct {
	mock.Mock
}

var (
	_ IssueFetcher = (*MockIssueFetcher)(nil)
	_ IssueLister  = (*MockIssueFetcher)(nil)
	_ LabelWriter  = (*MockIssueFetcher)(nil)
)

func (m *MockIssueFetcher) FetchIssue(ctx context.Context, repo models.RepoRef, number int) (*models.RawIssue, error) {
	args := m.Called(ctx, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RawIssue), args.Error(1)
}

func (m *MockIssueFetcher) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIssueFetcher) ListIssues(ctx context.Context, repo models.RepoRef, opts ListOptions) ([]int, error) {
	args := m.Called(ctx, repo, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockIssueFetcher) AddLabels(ctx context.Context, repo models.RepoRef, number int, labels []string) error {
	args := m.Called(ctx, repo, number, labels)
	return args.Error(0)
}

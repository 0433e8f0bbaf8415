// Package mocks holds testify mocks of the gateway interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
)

// Fetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type Fetcher struct {
	mock.Mock
}

var _ gateway.Fetcher = (*Fetcher)(nil)

func (m *Fetcher) FetchViewer(ctx context.Context) (domain.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *Fetcher) FetchRepositories(ctx context.Context) ([]domain.Repository, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Repository), args.Error(1)
}

func (m *Fetcher) FetchOrganizations(ctx context.Context) ([]domain.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Organization), args.Error(1)
}

func (m *Fetcher) FetchCommits(ctx context.Context, scope, user, dateRange string) (map[string]int, error) {
	args := m.Called(ctx, scope, user, dateRange)
	// The returned map is nil when an error is simulated.
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *Fetcher) FetchCreatedPRs(ctx context.Context, scope, user, dateRange string) (map[string]int, error) {
	args := m.Called(ctx, scope, user, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *Fetcher) FetchReviewedPRs(ctx context.Context, scope, user, dateRange string) (map[string]int, error) {
	args := m.Called(ctx, scope, user, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *Fetcher) FetchPRLeadTimes(ctx context.Context, scope, user, dateRange string) (map[string][]domain.PRLeadTime, error) {
	args := m.Called(ctx, scope, user, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]domain.PRLeadTime), args.Error(1)
}

func (m *Fetcher) FetchCommitMessages(ctx context.Context, fullName, user string) ([]string, error) {
	args := m.Called(ctx, fullName, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *Fetcher) FetchPullRequests(ctx context.Context, fullName, user string) ([]domain.PullRequest, error) {
	args := m.Called(ctx, fullName, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PullRequest), args.Error(1)
}

func (m *Fetcher) FetchIssues(ctx context.Context, fullName, user string) ([]domain.Issue, error) {
	args := m.Called(ctx, fullName, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Issue), args.Error(1)
}

func (m *Fetcher) FetchCommitChanges(ctx context.Context, fullName, user string, limit int) ([]domain.CommitChange, error) {
	args := m.Called(ctx, fullName, user, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CommitChange), args.Error(1)
}

func (m *Fetcher) FetchCreatedIssues(ctx context.Context, scope, user, dateRange string) (map[string]int, error) {
	args := m.Called(ctx, scope, user, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *Fetcher) FetchContributors(ctx context.Context, fullName string) ([]domain.Contributor, error) {
	args := m.Called(ctx, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contributor), args.Error(1)
}

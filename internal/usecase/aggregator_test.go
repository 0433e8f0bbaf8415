package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/gateway/mocks"
)

// TestAggregator_Aggregate uses a table-driven approach to test the aggregator.
func TestAggregator_Aggregate(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name              string
		calculateLeadTime bool
		mockCommits       map[string]int
		mockCreatedPRs    map[string]int
		mockReviewedPRs   map[string]int
		mockCreatedIssues map[string]int
		mockLeadTimes     map[string][]domain.PRLeadTime
		mockCommitErr     error
		expectedResult    []*domain.RepoStats
		expectError       bool
	}{
		{
			name:              "happy path - successfully aggregates data from multiple sources",
			mockCommits:       map[string]int{"repo-a": 10, "repo-b": 5},
			mockCreatedPRs:    map[string]int{"repo-a": 2, "repo-c": 1},
			mockReviewedPRs:   map[string]int{"repo-b": 3, "repo-c": 4},
			mockCreatedIssues: map[string]int{"repo-c": 2, "repo-d": 1},
			expectedResult: []*domain.RepoStats{
				{Name: "repo-a", Commits: 10, CreatedPRs: 2, ReviewedPRs: 0},
				{Name: "repo-b", Commits: 5, CreatedPRs: 0, ReviewedPRs: 3},
				{Name: "repo-c", Commits: 0, CreatedPRs: 1, ReviewedPRs: 4, CreatedIssues: 2},
				{Name: "repo-d", CreatedIssues: 1},
			},
		},
		{
			name:           "error case - fetch commits fails",
			mockCommitErr:  errors.New("github api error"),
			expectedResult: nil,
			expectError:    true,
		},
		{
			name:            "empty case - all fetchers return empty maps",
			mockCommits:     map[string]int{},
			mockCreatedPRs:  map[string]int{},
			mockReviewedPRs: map[string]int{},
			expectedResult:  []*domain.RepoStats{}, // an empty slice, not nil
		},
		{
			name:            "partial data case - only commits have data",
			mockCommits:     map[string]int{"repo-a": 7},
			mockCreatedPRs:  map[string]int{},
			mockReviewedPRs: map[string]int{},
			expectedResult: []*domain.RepoStats{
				{Name: "repo-a", Commits: 7, CreatedPRs: 0, ReviewedPRs: 0},
			},
		},
		{
			name:              "lead time case - summarizes review lead times",
			calculateLeadTime: true,
			mockCommits:       map[string]int{"repo-a": 1},
			mockCreatedPRs:    map[string]int{"repo-a": 1},
			mockReviewedPRs:   map[string]int{},
			mockLeadTimes: map[string][]domain.PRLeadTime{
				"repo-a": {{CreatedAt: created, LastReviewedAt: created.Add(time.Minute)}},
			},
			expectedResult: []*domain.RepoStats{
				{
					Name: "repo-a", Commits: 1, CreatedPRs: 1,
					LeadTimeToLastReviewSeconds: []float64{60},
					LeadTime:                    &domain.LeadTimeSummary{Count: 1, MeanSeconds: 60, MedianSeconds: 60, P90Seconds: 60},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			fetcher := new(mocks.Fetcher)

			fetcher.On("FetchCommits", mock.Anything, "org:any-org", "any-user", "any-commit-range").Return(tc.mockCommits, tc.mockCommitErr)
			fetcher.On("FetchCreatedPRs", mock.Anything, "org:any-org", "any-user", "any-pr-range").Return(tc.mockCreatedPRs, nil).Maybe()
			fetcher.On("FetchReviewedPRs", mock.Anything, "org:any-org", "any-user", "any-pr-range").Return(tc.mockReviewedPRs, nil).Maybe()
			fetcher.On("FetchCreatedIssues", mock.Anything, "org:any-org", "any-user", "any-pr-range").Return(tc.mockCreatedIssues, nil).Maybe()
			if tc.calculateLeadTime {
				fetcher.On("FetchPRLeadTimes", mock.Anything, "org:any-org", "any-user", "any-pr-range").Return(tc.mockLeadTimes, nil)
			}

			aggregator := NewAggregator(fetcher, newTestLogger())

			results, err := aggregator.Aggregate(ctx, domain.Session{Login: "any-user"}, "any-org", "any-commit-range", "any-pr-range", tc.calculateLeadTime)

			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, results)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedResult, results)
			}

			fetcher.AssertExpectations(t)
			if !tc.calculateLeadTime {
				fetcher.AssertNotCalled(t, "FetchPRLeadTimes", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAggregator_Aggregate_RequiresSession(t *testing.T) {
	aggregator := NewAggregator(new(mocks.Fetcher), newTestLogger())
	_, err := aggregator.Aggregate(context.Background(), domain.Session{}, "any-org", "", "", false)
	assert.ErrorIs(t, err, ErrNoSession)
}

func setupSummaryMock() *mocks.Fetcher {
	fetcher := new(mocks.Fetcher)
	fetcher.On("FetchCommits", mock.Anything, "org:acme", "alice", "").Return(map[string]int{"acme/api": 4, "acme/web": 1}, nil)
	fetcher.On("FetchCreatedPRs", mock.Anything, "org:acme", "alice", "").Return(map[string]int{"acme/api": 2, "acme/web": 1}, nil)
	fetcher.On("FetchReviewedPRs", mock.Anything, "org:acme", "alice", "").Return(map[string]int{"acme/web": 5}, nil)
	fetcher.On("FetchCreatedIssues", mock.Anything, "org:acme", "alice", "").Return(map[string]int{"acme/api": 3}, nil)
	return fetcher
}

func TestAggregator_Summarize(t *testing.T) {
	fetcher := setupSummaryMock()
	fetcher.On("FetchContributors", mock.Anything, "acme/api").Return([]domain.Contributor{
		{Login: "bob", AvatarURL: "https://a/bob", Commits: 30},
		{Login: "alice", Commits: 10},
	}, nil)
	fetcher.On("FetchContributors", mock.Anything, "acme/web").Return([]domain.Contributor{
		{Login: "carol", Commits: 40},
		{Login: "Alice", Commits: 10},
		{Login: "bob", Commits: 10},
	}, nil)

	aggregator := NewAggregator(fetcher, newTestLogger())
	got, err := aggregator.Summarize(context.Background(), domain.Session{Login: "alice"}, "acme", "", "", false)
	require.NoError(t, err)

	assert.Equal(t, "acme", got.Organization)
	assert.Equal(t, "alice", got.User)
	assert.Equal(t, 100, got.TotalCommits)
	assert.Equal(t, 20, got.UserCommits)
	assert.InDelta(t, 20, got.ContributionPercentage, 0.001)
	assert.Equal(t, 2, got.TotalRepositories)
	assert.Equal(t, 3, got.TotalPullRequests)
	assert.Equal(t, 3, got.TotalIssues)

	// Ties on commits fall back to login order.
	assert.Equal(t, []domain.MemberContribution{
		{Login: "bob", AvatarURL: "https://a/bob", Commits: 40, ContributionPercentage: 40},
		{Login: "carol", Commits: 40, ContributionPercentage: 40},
		{Login: "alice", Commits: 20, ContributionPercentage: 20},
	}, got.TeamMembers)

	require.Len(t, got.Repositories, 2)
	assert.Equal(t, "acme/api", got.Repositories[0].Name)
	assert.Equal(t, 40, got.Repositories[0].TotalCommits)
	assert.InDelta(t, 25, got.Repositories[0].ContributionPercentage, 0.001)
	assert.Equal(t, 60, got.Repositories[1].TotalCommits)
	assert.InDelta(t, 16.7, got.Repositories[1].ContributionPercentage, 0.001)
	fetcher.AssertExpectations(t)
}

func TestAggregator_Summarize_ContributorFailure(t *testing.T) {
	boom := errors.New("boom")
	fetcher := setupSummaryMock()
	fetcher.On("FetchContributors", mock.Anything, mock.Anything).Return(nil, boom)

	aggregator := NewAggregator(fetcher, newTestLogger())
	got, err := aggregator.Summarize(context.Background(), domain.Session{Login: "alice"}, "acme", "", "", false)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
}

func TestAggregator_Summarize_EmptyOrganization(t *testing.T) {
	fetcher := new(mocks.Fetcher)
	for _, method := range []string{"FetchCommits", "FetchCreatedPRs", "FetchReviewedPRs", "FetchCreatedIssues"} {
		fetcher.On(method, mock.Anything, "org:acme", "alice", "").Return(map[string]int{}, nil)
	}

	aggregator := NewAggregator(fetcher, newTestLogger())
	got, err := aggregator.Summarize(context.Background(), domain.Session{Login: "alice"}, "acme", "", "", false)
	require.NoError(t, err)
	assert.Zero(t, got.TotalCommits)
	assert.Zero(t, got.ContributionPercentage)
	assert.Empty(t, got.TeamMembers)
	assert.Empty(t, got.Repositories)
	fetcher.AssertNotCalled(t, "FetchContributors", mock.Anything, mock.Anything)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/gateway/mocks"
	"github.com/naka-gawa/github-dashboard/internal/report"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
	"github.com/naka-gawa/github-dashboard/internal/view"
)

func setupTestServer(t *testing.T, fetcher *mocks.Fetcher, cacheTTL time.Duration) *Server {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	reports, err := report.LoadTemplates()
	require.NoError(t, err)
	return New(
		usecase.NewDashboardBuilder(fetcher, logger),
		usecase.NewAnalyzer(fetcher, logger, 5),
		usecase.NewAggregator(fetcher, logger),
		reports,
		NewMetrics(),
		Options{Session: domain.Session{Login: "alice"}, PageSize: 1, CacheTTL: cacheTTL},
		logger,
	)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	return rec
}

func dashboardFixtures() ([]domain.Repository, []domain.Organization) {
	bigco := domain.StructuredOwner("bigco", domain.OwnerKindOrganization, "https://avatars/bigco")
	repos := []domain.Repository{
		{ID: "1", Name: "api", Owner: domain.StructuredOwner("acme", domain.OwnerKindOrganization, "")},
		{ID: "2", Name: "dotfiles", Owner: domain.BareOwner("alice")},
		{ID: "3", Name: "notes", Owner: domain.BareOwner("alice")},
		{ID: "4", Name: "lib", Owner: domain.BareOwner("alice"), IsFork: true, Parent: &domain.Parent{FullName: "bigco/lib", Owner: bigco}},
	}
	return repos, []domain.Organization{{Login: "acme"}}
}

func TestServer_Dashboard(t *testing.T) {
	repos, orgs := dashboardFixtures()
	fetcher := new(mocks.Fetcher)
	fetcher.On("FetchRepositories", mock.Anything).Return(repos, nil).Once()
	fetcher.On("FetchOrganizations", mock.Anything).Return(orgs, nil).Once()
	s := setupTestServer(t, fetcher, time.Minute)

	rec := get(t, s, "/api/dashboard?expand=organizations")
	require.Equal(t, http.StatusOK, rec.Code)

	var got usecase.PagedDashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, 2, got.OrganizationRepositories.Total)
	assert.Len(t, got.OrganizationRepositories.Visible, 1)
	assert.Equal(t, 1, got.OrganizationRepositories.HiddenCount)

	assert.Equal(t, 2, got.PersonalRepositories.Total)
	assert.Len(t, got.PersonalRepositories.Visible, 1)

	require.True(t, got.Organizations.Expanded)
	require.Len(t, got.Organizations.Visible, 2)
	assert.Equal(t, "acme", got.Organizations.Visible[0].Login)
	assert.False(t, got.Organizations.Visible[0].IsVirtual)
	assert.Equal(t, "bigco", got.Organizations.Visible[1].Login)
	assert.True(t, got.Organizations.Visible[1].IsVirtual)

	// The second request derives again from the cached snapshot.
	rec = get(t, s, "/api/dashboard?pageSize=10")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.PersonalRepositories.Visible, 2)
	assert.Equal(t, 0, got.PersonalRepositories.HiddenCount)

	fetcher.AssertNumberOfCalls(t, "FetchRepositories", 1)
	fetcher.AssertNumberOfCalls(t, "FetchOrganizations", 1)
}

func TestServer_Dashboard_NoCache(t *testing.T) {
	repos, orgs := dashboardFixtures()
	fetcher := new(mocks.Fetcher)
	fetcher.On("FetchRepositories", mock.Anything).Return(repos, nil)
	fetcher.On("FetchOrganizations", mock.Anything).Return(orgs, nil)
	s := setupTestServer(t, fetcher, 0)

	get(t, s, "/api/dashboard")
	get(t, s, "/api/dashboard")

	fetcher.AssertNumberOfCalls(t, "FetchRepositories", 2)
}

func TestServer_Dashboard_BadRequest(t *testing.T) {
	s := setupTestServer(t, new(mocks.Fetcher), time.Minute)

	for _, target := range []string{
		"/api/dashboard?pageSize=-1",
		"/api/dashboard?pageSize=six",
		"/api/dashboard?expand=everything",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, s, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestServer_Dashboard_FetchErrors(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "unauthorized", err: fmt.Errorf("wrapped: %w", gateway.ErrUnauthorized), expected: http.StatusUnauthorized},
		{name: "rate limited", err: gateway.ErrRateLimited, expected: http.StatusTooManyRequests},
		{name: "not found", err: gateway.ErrNotFound, expected: http.StatusNotFound},
		{name: "timeout", err: gateway.ErrTimeout, expected: http.StatusGatewayTimeout},
		{name: "other", err: errors.New("boom"), expected: http.StatusBadGateway},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repos, _ := dashboardFixtures()
			fetcher := new(mocks.Fetcher)
			fetcher.On("FetchRepositories", mock.Anything).Return(repos, nil).Maybe()
			fetcher.On("FetchOrganizations", mock.Anything).Return(nil, tc.err)
			s := setupTestServer(t, fetcher, time.Minute)

			rec := get(t, s, "/api/dashboard")
			assert.Equal(t, tc.expected, rec.Code)
		})
	}
}

func TestServer_Dashboard_ClientGone(t *testing.T) {
	repos, orgs := dashboardFixtures()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := new(mocks.Fetcher)
	fetcher.On("FetchRepositories", mock.Anything).Return(repos, nil)
	fetcher.On("FetchOrganizations", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(orgs, nil)
	s := setupTestServer(t, fetcher, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Empty(t, rec.Body.String())
}

func setupAnalysisFetcher() *mocks.Fetcher {
	fetcher := new(mocks.Fetcher)
	fetcher.On("FetchCommitMessages", mock.Anything, "acme/api", "alice").Return([]string{"feat: a", "fix: b"}, nil)
	fetcher.On("FetchPullRequests", mock.Anything, "acme/api", "alice").Return([]domain.PullRequest{{Number: 1}, {Number: 2}}, nil)
	fetcher.On("FetchIssues", mock.Anything, "acme/api", "alice").Return([]domain.Issue{{Number: 3}, {Number: 4}}, nil)
	fetcher.On("FetchCommitChanges", mock.Anything, "acme/api", "alice", 5).Return([]domain.CommitChange{
		{SHA: "a1", Files: []string{"main.go"}, Additions: 12, Deletions: 3},
		{SHA: "b2", Files: []string{"README.md"}, Additions: 1},
	}, nil)
	fetcher.On("FetchPRLeadTimes", mock.Anything, "repo:acme/api", "alice", "").Return(map[string][]domain.PRLeadTime{}, nil)
	fetcher.On("FetchContributors", mock.Anything, "acme/api").Return([]domain.Contributor{
		{Login: "bob", Commits: 6},
		{Login: "alice", Commits: 2},
	}, nil)
	return fetcher
}

func TestServer_Analysis(t *testing.T) {
	testCases := []struct {
		name     string
		query    string
		expected view.TabState
	}{
		{name: "default tab", query: "", expected: view.TabState{Active: view.TabPullRequests}},
		{name: "manual selection", query: "?tab=issues", expected: view.TabState{Active: view.TabIssues}},
		{
			name:     "previous state kept when the flag did not flip",
			query:    "?tab=issues&showCommits=false",
			expected: view.TabState{Active: view.TabIssues},
		},
		{
			name:     "previous state overridden when the flag flipped",
			query:    "?tab=commits&showCommits=true",
			expected: view.TabState{Active: view.TabPullRequests},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := setupTestServer(t, setupAnalysisFetcher(), time.Minute)

			rec := get(t, s, "/api/analysis/acme/api"+tc.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var got usecase.Analysis
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "acme/api", got.Repository)
			assert.Equal(t, domain.ContributionCounts{CommitMessages: 2, PullRequests: 2, Issues: 2}, got.Counts)
			assert.Equal(t, tc.expected, got.Tabs)
			assert.Equal(t, domain.RoleCountRecord{Backend: 1, Documentation: 1}, got.Roles)
		})
	}
}

func TestServer_Analysis_BadRequest(t *testing.T) {
	s := setupTestServer(t, new(mocks.Fetcher), time.Minute)

	rec := get(t, s, "/api/analysis/acme/api?tab=wiki")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, s, "/api/analysis/acme/api?tab=pr&showCommits=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The previous state is incomplete without the tab that was active.
	rec = get(t, s, "/api/analysis/acme/api?showCommits=true")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "showCommits requires tab")
}

func TestServer_AnalysisReport(t *testing.T) {
	testCases := []struct {
		name        string
		format      string
		contentType string
		filename    string
		contains    []string
	}{
		{
			name:        "markdown",
			format:      "markdown",
			contentType: "text/markdown; charset=utf-8",
			filename:    "contribution-report-acme-api.md",
			contains:    []string{"# Contribution report: acme/api", "| Commits | 2 of 8 (25.0%) |", "| Lines changed | +13 / -3 |"},
		},
		{
			name:        "html",
			format:      "HTML",
			contentType: "text/html; charset=utf-8",
			filename:    "contribution-report-acme-api.html",
			contains:    []string{"<h1>Contribution report: acme/api</h1>", "<td>2 of 8 (25.0%)</td>"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := setupTestServer(t, setupAnalysisFetcher(), time.Minute)

			rec := get(t, s, "/api/analysis/acme/api/report/"+tc.format)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, fmt.Sprintf("attachment; filename=%q", tc.filename), rec.Header().Get("Content-Disposition"))
			for _, want := range tc.contains {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestServer_AnalysisReport_UnknownFormat(t *testing.T) {
	fetcher := new(mocks.Fetcher)
	s := setupTestServer(t, fetcher, time.Minute)

	rec := get(t, s, "/api/analysis/acme/api/report/pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fetcher.AssertNotCalled(t, "FetchCommitMessages", mock.Anything, mock.Anything, mock.Anything)
}

func TestServer_Analysis_NotFound(t *testing.T) {
	fetcher := new(mocks.Fetcher)
	fetcher.On("FetchCommitMessages", mock.Anything, "acme/gone", "alice").Return(nil, gateway.ErrNotFound)
	fetcher.On("FetchPullRequests", mock.Anything, "acme/gone", "alice").Return([]domain.PullRequest{}, nil).Maybe()
	fetcher.On("FetchIssues", mock.Anything, "acme/gone", "alice").Return([]domain.Issue{}, nil).Maybe()
	fetcher.On("FetchCommitChanges", mock.Anything, "acme/gone", "alice", 5).Return([]domain.CommitChange{}, nil).Maybe()
	fetcher.On("FetchContributors", mock.Anything, "acme/gone").Return([]domain.Contributor{}, nil).Maybe()
	fetcher.On("FetchPRLeadTimes", mock.Anything, "repo:acme/gone", "alice", "").Return(map[string][]domain.PRLeadTime{}, nil).Maybe()
	s := setupTestServer(t, fetcher, time.Minute)

	rec := get(t, s, "/api/analysis/acme/gone")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_OrganizationStats(t *testing.T) {
	fetcher := new(mocks.Fetcher)
	fetcher.On("FetchCommits", mock.Anything, "org:acme", "alice", " author-date:2024-01-01..2024-01-31").Return(map[string]int{"acme/api": 4}, nil)
	fetcher.On("FetchCreatedPRs", mock.Anything, "org:acme", "alice", " created:2024-01-01..2024-01-31").Return(map[string]int{"acme/api": 1}, nil)
	fetcher.On("FetchReviewedPRs", mock.Anything, "org:acme", "alice", " created:2024-01-01..2024-01-31").Return(map[string]int{}, nil)
	fetcher.On("FetchCreatedIssues", mock.Anything, "org:acme", "alice", " created:2024-01-01..2024-01-31").Return(map[string]int{"acme/api": 2}, nil)
	fetcher.On("FetchContributors", mock.Anything, "acme/api").Return([]domain.Contributor{
		{Login: "alice", Commits: 4},
		{Login: "bob", Commits: 12},
	}, nil)
	s := setupTestServer(t, fetcher, time.Minute)

	rec := get(t, s, "/api/organizations/acme/stats?from=2024-01-01&to=2024-01-31")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.OrganizationStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.OrganizationStats{
		Organization:           "acme",
		User:                   "alice",
		TotalCommits:           16,
		UserCommits:            4,
		ContributionPercentage: 25,
		TotalRepositories:      1,
		TotalPullRequests:      1,
		TotalIssues:            2,
		TeamMembers: []domain.MemberContribution{
			{Login: "bob", Commits: 12, ContributionPercentage: 75},
			{Login: "alice", Commits: 4, ContributionPercentage: 25},
		},
		Repositories: []*domain.RepoStats{{
			Name: "acme/api", Commits: 4, CreatedPRs: 1, CreatedIssues: 2,
			TotalCommits: 16, ContributionPercentage: 25,
		}},
	}, got)
	fetcher.AssertNotCalled(t, "FetchPRLeadTimes", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestServer_OrganizationStats_BadRequest(t *testing.T) {
	s := setupTestServer(t, new(mocks.Fetcher), time.Minute)

	rec := get(t, s, "/api/organizations/acme/stats?from=2024/01/01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, s, "/api/organizations/acme/stats?leadTime=often")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	repos, orgs := dashboardFixtures()
	fetcher := new(mocks.Fetcher)
	fetcher.On("FetchRepositories", mock.Anything).Return(repos, nil)
	fetcher.On("FetchOrganizations", mock.Anything).Return(orgs, nil)
	s := setupTestServer(t, fetcher, time.Minute)
	handler := s.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `dashboard_derivations_total{result="ok",view="dashboard"} 1`)
	assert.Contains(t, body, `dashboard_snapshot_cache_lookups_total{result="miss"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",route="/api/dashboard",status="200"} 1`)
}

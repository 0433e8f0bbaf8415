// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/github-dashboard/internal/domain"
)

// RepositoryLister fetches the two lists the dashboard is built from.
type RepositoryLister interface {
	FetchRepositories(ctx context.Context) ([]domain.Repository, error)
	FetchOrganizations(ctx context.Context) ([]domain.Organization, error)
}

// ActivityFetcher counts a user's activity per repository inside a search
// scope such as "org:acme" or "repo:acme/api".
type ActivityFetcher interface {
	FetchCommits(ctx context.Context, scope, user, dateRange string) (map[string]int, error)
	FetchCreatedPRs(ctx context.Context, scope, user, dateRange string) (map[string]int, error)
	FetchReviewedPRs(ctx context.Context, scope, user, dateRange string) (map[string]int, error)
	FetchCreatedIssues(ctx context.Context, scope, user, dateRange string) (map[string]int, error)
	FetchPRLeadTimes(ctx context.Context, scope, user, dateRange string) (map[string][]domain.PRLeadTime, error)
	FetchContributors(ctx context.Context, fullName string) ([]domain.Contributor, error)
}

// ContributionFetcher fetches the items behind a single repository's analysis.
type ContributionFetcher interface {
	FetchCommitMessages(ctx context.Context, fullName, user string) ([]string, error)
	FetchPullRequests(ctx context.Context, fullName, user string) ([]domain.PullRequest, error)
	FetchIssues(ctx context.Context, fullName, user string) ([]domain.Issue, error)
	FetchCommitChanges(ctx context.Context, fullName, user string, limit int) ([]domain.CommitChange, error)
	FetchPRLeadTimes(ctx context.Context, scope, user, dateRange string) (map[string][]domain.PRLeadTime, error)
	FetchContributors(ctx context.Context, fullName string) ([]domain.Contributor, error)
}

// ViewerFetcher identifies the authenticated user.
type ViewerFetcher interface {
	FetchViewer(ctx context.Context) (domain.Session, error)
}

// Fetcher is everything GitHubGateway offers.
type Fetcher interface {
	ViewerFetcher
	RepositoryLister
	ActivityFetcher
	ContributionFetcher
}

// OrgScope is the search qualifier restricting a query to an organization.
func OrgScope(org string) string { return "org:" + org }

// RepoScope is the search qualifier restricting a query to one repository.
func RepoScope(fullName string) string { return "repo:" + fullName }

// Options configures a GitHubGateway.
type Options struct {
	Token string
	// RESTURL and GraphQLURL point the clients at a GitHub Enterprise host.
	RESTURL    string
	GraphQLURL string
	// Concurrency bounds parallel per-commit requests.
	Concurrency int
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        logrus.FieldLogger
	concurrency   int
}

var _ Fetcher = (*GitHubGateway)(nil)

// searchIssuesQuery is for the simple PR and issue count queries.
type searchIssuesQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Edges []struct {
			Node struct {
				Typename    string `graphql:"__typename"`
				PullRequest struct {
					Repository struct {
						NameWithOwner string
					}
				} `graphql:"... on PullRequest"`
				Issue struct {
					Repository struct {
						NameWithOwner string
					}
				} `graphql:"... on Issue"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 100, after: $cursor)"`
}

// prLeadTimeQuery fetches creation and review timestamps of pull requests.
type prLeadTimeQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Edges []struct {
			Node struct {
				Typename    string `graphql:"__typename"`
				PullRequest struct {
					Repository struct {
						NameWithOwner string
					}
					CreatedAt githubv4.DateTime
					Reviews   struct {
						Nodes []struct {
							SubmittedAt githubv4.DateTime
						}
					} `graphql:"reviews(first: 100, states: [COMMENTED, APPROVED, CHANGES_REQUESTED])"`
				} `graphql:"... on PullRequest"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 20, after: $cursor)"` // smaller pages for the heavier query
}

// NewGitHubGateway creates a gateway authenticated with opts.Token.
func NewGitHubGateway(opts Options, logger logrus.FieldLogger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	if opts.RESTURL != "" {
		restClient, err = restClient.WithEnterpriseURLs(opts.RESTURL, opts.RESTURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure REST endpoint: %w", err)
		}
	}
	graphqlClient := githubv4.NewClient(httpClient)
	if opts.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger.WithField("component", "gateway"),
		concurrency:   concurrency,
	}, nil
}

func (g *GitHubGateway) FetchCommits(ctx context.Context, scope, user, dateRange string) (map[string]int, error) {
	log := g.logger.WithField("scope", scope)
	log.Debug("fetching commit counts using REST API")
	query := fmt.Sprintf("%s author:%s%s", scope, user, dateRange)
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: 100}}
	commitCounts := make(map[string]int)
	for {
		result, resp, err := g.restClient.Search.Commits(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to search commits with REST API: %w", categorize(err))
		}
		for _, commit := range result.Commits {
			repoName := commit.GetRepository().GetFullName()
			commitCounts[repoName]++
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		log.Debug("fetching next page of commits")
	}
	log.WithField("repositories", len(commitCounts)).Debug("completed fetching commit counts")
	return commitCounts, nil
}

func (g *GitHubGateway) FetchCreatedPRs(ctx context.Context, scope, user, dateRange string) (map[string]int, error) {
	g.logger.WithField("scope", scope).Debug("fetching created PR counts")
	query := fmt.Sprintf("%s author:%s is:pr%s", scope, user, dateRange)
	return g.fetchSearchCounts(ctx, query)
}

func (g *GitHubGateway) FetchReviewedPRs(ctx context.Context, scope, user, dateRange string) (map[string]int, error) {
	g.logger.WithField("scope", scope).Debug("fetching reviewed PR counts")
	query := fmt.Sprintf("%s reviewed-by:%s is:pr%s", scope, user, dateRange)
	return g.fetchSearchCounts(ctx, query)
}

func (g *GitHubGateway) FetchCreatedIssues(ctx context.Context, scope, user, dateRange string) (map[string]int, error) {
	g.logger.WithField("scope", scope).Debug("fetching created issue counts")
	query := fmt.Sprintf("%s author:%s is:issue%s", scope, user, dateRange)
	return g.fetchSearchCounts(ctx, query)
}

// fetchSearchCounts counts the pull requests or issues matched by query per
// repository.
func (g *GitHubGateway) fetchSearchCounts(ctx context.Context, query string) (map[string]int, error) {
	variables := map[string]interface{}{"query": githubv4.String(query), "cursor": (*githubv4.String)(nil)}
	counts := make(map[string]int)
	for {
		var q searchIssuesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for counts: %w", categorize(err))
		}
		for _, edge := range q.Search.Edges {
			repoName := edge.Node.PullRequest.Repository.NameWithOwner
			if edge.Node.Typename == "Issue" {
				repoName = edge.Node.Issue.Repository.NameWithOwner
			}
			if repoName != "" {
				counts[repoName]++
			}
		}
		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
	}
	g.logger.WithField("query", query).Debug("completed fetching search counts")
	return counts, nil
}

// FetchPRLeadTimes fetches PR creation and last review timestamps of the
// user's closed pull requests, grouped by repository. PRs without a review
// are skipped.
func (g *GitHubGateway) FetchPRLeadTimes(ctx context.Context, scope, user, dateRange string) (map[string][]domain.PRLeadTime, error) {
	log := g.logger.WithField("scope", scope)
	log.Debug("fetching PR lead time data")
	query := fmt.Sprintf("%s author:%s is:pr is:closed%s", scope, user, dateRange)

	variables := map[string]interface{}{
		"query":  githubv4.String(query),
		"cursor": (*githubv4.String)(nil),
	}

	leadTimesByRepo := make(map[string][]domain.PRLeadTime)

	for {
		var q prLeadTimeQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for lead times: %w", categorize(err))
		}

		for _, edge := range q.Search.Edges {
			prNode := edge.Node.PullRequest
			if edge.Node.Typename != "PullRequest" || len(prNode.Reviews.Nodes) == 0 {
				continue
			}

			lastReviewedAt := prNode.Reviews.Nodes[0].SubmittedAt.Time
			for _, review := range prNode.Reviews.Nodes[1:] {
				if review.SubmittedAt.After(lastReviewedAt) {
					lastReviewedAt = review.SubmittedAt.Time
				}
			}

			repoName := prNode.Repository.NameWithOwner
			leadTimesByRepo[repoName] = append(leadTimesByRepo[repoName], domain.PRLeadTime{
				CreatedAt:      prNode.CreatedAt.Time,
				LastReviewedAt: lastReviewedAt,
			})
		}

		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
		log.Debug("fetching next page of PRs for lead time analysis")
	}
	log.Debug("completed fetching PR lead time data")
	return leadTimesByRepo, nil
}

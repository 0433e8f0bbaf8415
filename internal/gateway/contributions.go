package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-dashboard/internal/domain"
)

type pullRequestSearchQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Nodes []struct {
			PullRequest struct {
				Number    int
				Title     string
				State     string
				URL       string `graphql:"url"`
				CreatedAt githubv4.DateTime
				ClosedAt  *githubv4.DateTime
				MergedAt  *githubv4.DateTime
			} `graphql:"... on PullRequest"`
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 100, after: $cursor)"`
}

type issueSearchQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Nodes []struct {
			Issue struct {
				Number    int
				Title     string
				State     string
				URL       string `graphql:"url"`
				CreatedAt githubv4.DateTime
				ClosedAt  *githubv4.DateTime
			} `graphql:"... on Issue"`
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 100, after: $cursor)"`
}

func splitFullName(fullName string) (string, string, error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository name %q (want owner/repo)", fullName)
	}
	return owner, repo, nil
}

func timePtr(dt *githubv4.DateTime) *time.Time {
	if dt == nil {
		return nil
	}
	t := dt.Time
	return &t
}

// FetchCommitMessages returns the messages of the user's commits in one repository.
func (g *GitHubGateway) FetchCommitMessages(ctx context.Context, fullName, user string) ([]string, error) {
	log := g.logger.WithField("repo", fullName)
	log.Debug("fetching commit messages using REST API")
	query := fmt.Sprintf("%s author:%s", RepoScope(fullName), user)
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: 100}}
	messages := make([]string, 0)
	for {
		result, resp, err := g.restClient.Search.Commits(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to search commit messages with REST API: %w", categorize(err))
		}
		for _, c := range result.Commits {
			messages = append(messages, c.GetCommit().GetMessage())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	log.WithField("commits", len(messages)).Debug("completed fetching commit messages")
	return messages, nil
}

// FetchPullRequests returns the pull requests the user opened in one repository.
func (g *GitHubGateway) FetchPullRequests(ctx context.Context, fullName, user string) ([]domain.PullRequest, error) {
	query := fmt.Sprintf("%s author:%s is:pr", RepoScope(fullName), user)
	variables := map[string]interface{}{"query": githubv4.String(query), "cursor": (*githubv4.String)(nil)}
	prs := make([]domain.PullRequest, 0)
	for {
		var q pullRequestSearchQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for pull requests: %w", categorize(err))
		}
		for _, node := range q.Search.Nodes {
			pr := node.PullRequest
			if pr.Number == 0 {
				continue
			}
			prs = append(prs, domain.PullRequest{
				Number:    pr.Number,
				Title:     pr.Title,
				State:     strings.ToLower(pr.State),
				URL:       pr.URL,
				CreatedAt: pr.CreatedAt.Time,
				ClosedAt:  timePtr(pr.ClosedAt),
				MergedAt:  timePtr(pr.MergedAt),
			})
		}
		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
	}
	g.logger.WithField("repo", fullName).WithField("pull_requests", len(prs)).Debug("completed fetching pull requests")
	return prs, nil
}

// FetchIssues returns the issues the user opened in one repository.
func (g *GitHubGateway) FetchIssues(ctx context.Context, fullName, user string) ([]domain.Issue, error) {
	query := fmt.Sprintf("%s author:%s is:issue", RepoScope(fullName), user)
	variables := map[string]interface{}{"query": githubv4.String(query), "cursor": (*githubv4.String)(nil)}
	issues := make([]domain.Issue, 0)
	for {
		var q issueSearchQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for issues: %w", categorize(err))
		}
		for _, node := range q.Search.Nodes {
			is := node.Issue
			if is.Number == 0 {
				continue
			}
			issues = append(issues, domain.Issue{
				Number:    is.Number,
				Title:     is.Title,
				State:     strings.ToLower(is.State),
				URL:       is.URL,
				CreatedAt: is.CreatedAt.Time,
				ClosedAt:  timePtr(is.ClosedAt),
			})
		}
		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
	}
	g.logger.WithField("repo", fullName).WithField("issues", len(issues)).Debug("completed fetching issues")
	return issues, nil
}

// FetchCommitChanges returns, for up to limit of the user's most recent
// commits, the paths and line counts each commit changed. The result
// follows the commit listing order.
func (g *GitHubGateway) FetchCommitChanges(ctx context.Context, fullName, user string, limit int) ([]domain.CommitChange, error) {
	if limit <= 0 {
		return []domain.CommitChange{}, nil
	}
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return nil, err
	}
	log := g.logger.WithField("repo", fullName)

	perPage := min(limit, 100)
	opts := &github.CommitsListOptions{Author: user, ListOptions: github.ListOptions{PerPage: perPage}}
	shas := make([]string, 0, limit)
	for len(shas) < limit {
		commits, resp, err := g.restClient.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits with REST API: %w", categorize(err))
		}
		for _, c := range commits {
			if len(shas) == limit {
				break
			}
			shas = append(shas, c.GetSHA())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	changes := make([]domain.CommitChange, len(shas))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, sha := range shas {
		i, sha := i, sha
		eg.Go(func() error {
			commit, _, err := g.restClient.Repositories.GetCommit(egCtx, owner, repo, sha, nil)
			if err != nil {
				return fmt.Errorf("failed to get commit %s with REST API: %w", sha, categorize(err))
			}
			paths := make([]string, 0, len(commit.Files))
			for _, f := range commit.Files {
				paths = append(paths, f.GetFilename())
			}
			changes[i] = domain.CommitChange{
				SHA:       sha,
				Files:     paths,
				Additions: commit.GetStats().GetAdditions(),
				Deletions: commit.GetStats().GetDeletions(),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	log.WithField("commits", len(changes)).Debug("completed fetching commit changes")
	return changes, nil
}

// FetchContributors lists everyone who committed to the repository with
// their all-time commit counts, most active first.
func (g *GitHubGateway) FetchContributors(ctx context.Context, fullName string) ([]domain.Contributor, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return nil, err
	}
	opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	contributors := make([]domain.Contributor, 0)
	for {
		page, resp, err := g.restClient.Repositories.ListContributors(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list contributors of %s with REST API: %w", fullName, categorize(err))
		}
		for _, c := range page {
			contributors = append(contributors, domain.Contributor{
				Login:     c.GetLogin(),
				AvatarURL: c.GetAvatarURL(),
				Commits:   c.GetContributions(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	g.logger.WithField("repo", fullName).WithField("contributors", len(contributors)).Debug("completed fetching contributors")
	return contributors, nil
}

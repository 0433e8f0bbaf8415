package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/view"
)

// ErrNoSession is returned when an operation needs the current user and
// none was given.
var ErrNoSession = errors.New("no active session user")

// Analysis is the contribution view of one repository.
type Analysis struct {
	Repository     string                    `json:"repository"`
	User           string                    `json:"user"`
	Counts         domain.ContributionCounts `json:"counts"`
	Tabs           view.TabState             `json:"tabs"`
	CommitMessages []string                  `json:"commitMessages"`
	PullRequests   []domain.PullRequest      `json:"pullRequests"`
	Issues         []domain.Issue            `json:"issues"`
	Roles          domain.RoleCountRecord    `json:"roles"`
	RoleChart      []view.RoleSlice          `json:"roleChart"`
	ReviewLeadTime *domain.LeadTimeSummary   `json:"reviewLeadTime,omitempty"`

	// TotalCommits and UserCommits come from the repository's contributor
	// list and cover its whole history.
	TotalCommits     int     `json:"totalCommits"`
	UserCommits      int     `json:"userCommits"`
	CommitPercentage float64 `json:"commitPercentage"`
	// Additions and Deletions are summed over the commits inspected for the
	// role chart.
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// ResumeTabs re-derives the tab state from the state the viewer last saw.
// The viewer's tab survives unless the commits flag flipped since then.
func (a *Analysis) ResumeTabs(prev view.TabState) {
	a.Tabs = view.DeriveActiveTab(prev, a.Counts)
}

// SelectTab applies a viewer-initiated tab switch.
func (a *Analysis) SelectTab(tab view.Tab) {
	a.Tabs = a.Tabs.Select(tab)
}

// Analyzer builds the analysis view of a repository for the session user.
type Analyzer struct {
	fetcher         gateway.ContributionFetcher
	logger          logrus.FieldLogger
	roleCommitLimit int
	categories      []view.RoleCategory
}

// NewAnalyzer creates a new Analyzer instance. roleCommitLimit caps how many
// commits are inspected file by file for the role chart.
func NewAnalyzer(fetcher gateway.ContributionFetcher, logger logrus.FieldLogger, roleCommitLimit int) *Analyzer {
	return &Analyzer{
		fetcher:         fetcher,
		logger:          logger.WithField("component", "analysis"),
		roleCommitLimit: roleCommitLimit,
		categories:      view.DefaultRoleCategories,
	}
}

// Analyze fetches everything the analysis view shows concurrently and
// derives the view. Any fetch failure aborts the analysis.
func (a *Analyzer) Analyze(ctx context.Context, session domain.Session, owner, repo string) (*Analysis, error) {
	if session.Login == "" {
		return nil, ErrNoSession
	}
	fullName := owner + "/" + repo
	log := a.logger.WithFields(logrus.Fields{"repo": fullName, "user": session.Login})
	log.Debug("starting analysis")

	var (
		messages     []string
		prs          []domain.PullRequest
		issues       []domain.Issue
		changes      []domain.CommitChange
		leadTimes    map[string][]domain.PRLeadTime
		contributors []domain.Contributor
	)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		messages, err = a.fetcher.FetchCommitMessages(egCtx, fullName, session.Login)
		return err
	})

	eg.Go(func() error {
		var err error
		prs, err = a.fetcher.FetchPullRequests(egCtx, fullName, session.Login)
		return err
	})

	eg.Go(func() error {
		var err error
		issues, err = a.fetcher.FetchIssues(egCtx, fullName, session.Login)
		return err
	})

	eg.Go(func() error {
		var err error
		changes, err = a.fetcher.FetchCommitChanges(egCtx, fullName, session.Login, a.roleCommitLimit)
		return err
	})

	eg.Go(func() error {
		var err error
		leadTimes, err = a.fetcher.FetchPRLeadTimes(egCtx, gateway.RepoScope(fullName), session.Login, "")
		return err
	})

	eg.Go(func() error {
		var err error
		contributors, err = a.fetcher.FetchContributors(egCtx, fullName)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", fullName, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrViewClosed, err)
	}

	counts := domain.ContributionCounts{
		CommitMessages: len(messages),
		PullRequests:   len(prs),
		Issues:         len(issues),
	}
	roles := CountRoles(changes)
	additions, deletions := SumLines(changes)
	userCommits, totalCommits := commitShare(contributors, session.Login, len(messages))
	result := &Analysis{
		Repository:       fullName,
		User:             session.Login,
		Counts:           counts,
		Tabs:             view.NewTabState(counts),
		CommitMessages:   messages,
		PullRequests:     prs,
		Issues:           issues,
		Roles:            roles,
		RoleChart:        view.RoleDistribution(roles, a.categories),
		ReviewLeadTime:   SummarizeLeadTimes(LeadTimeSeconds(mergeLeadTimes(leadTimes))),
		TotalCommits:     totalCommits,
		UserCommits:      userCommits,
		CommitPercentage: domain.Percentage(userCommits, totalCommits),
		Additions:        additions,
		Deletions:        deletions,
	}
	log.WithFields(logrus.Fields{
		"commits":       counts.CommitMessages,
		"pull_requests": counts.PullRequests,
		"issues":        counts.Issues,
		"active_tab":    result.Tabs.Active,
	}).Debug("analysis complete")
	return result, nil
}

// commitShare finds the user's entry in the contributor list. A user
// missing from the list, which GitHub truncates for large repositories,
// falls back to the searched commit count.
func commitShare(contributors []domain.Contributor, user string, searched int) (userCommits, totalCommits int) {
	userCommits = searched
	for _, c := range contributors {
		totalCommits += c.Commits
		if strings.EqualFold(c.Login, user) {
			userCommits = c.Commits
		}
	}
	return userCommits, max(totalCommits, userCommits)
}

// mergeLeadTimes flattens a repository-scoped lead time result. Every entry
// belongs to the one repository whatever case GitHub reports its name in.
func mergeLeadTimes(byRepo map[string][]domain.PRLeadTime) []domain.PRLeadTime {
	var merged []domain.PRLeadTime
	for _, data := range byRepo {
		merged = append(merged, data...)
	}
	return merged
}

package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
)

// contributorConcurrency bounds parallel contributor list requests.
const contributorConcurrency = 4

// Aggregator collects the session user's activity per repository inside an
// organization, for the organization detail view.
type Aggregator struct {
	fetcher gateway.ActivityFetcher
	logger  logrus.FieldLogger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.ActivityFetcher, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger.WithField("component", "aggregator"),
	}
}

// Aggregate fetches all required data concurrently and merges it into one
// entry per repository, sorted by name. calculateLeadTime controls whether
// the expensive lead time query is executed.
func (a *Aggregator) Aggregate(ctx context.Context, session domain.Session, org, commitDateRange, prDateRange string, calculateLeadTime bool) ([]*domain.RepoStats, error) {
	if session.Login == "" {
		return nil, ErrNoSession
	}
	user := session.Login
	scope := gateway.OrgScope(org)
	log := a.logger.WithFields(logrus.Fields{"org": org, "user": user})
	log.Debug("starting data aggregation")

	var commitCounts, createdPRCounts, reviewedPRCounts, createdIssueCounts map[string]int
	var leadTimesByRepo map[string][]domain.PRLeadTime

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		commitCounts, err = a.fetcher.FetchCommits(egCtx, scope, user, commitDateRange)
		return err
	})

	eg.Go(func() error {
		var err error
		createdPRCounts, err = a.fetcher.FetchCreatedPRs(egCtx, scope, user, prDateRange)
		return err
	})

	eg.Go(func() error {
		var err error
		reviewedPRCounts, err = a.fetcher.FetchReviewedPRs(egCtx, scope, user, prDateRange)
		return err
	})

	eg.Go(func() error {
		var err error
		createdIssueCounts, err = a.fetcher.FetchCreatedIssues(egCtx, scope, user, prDateRange)
		return err
	})

	if calculateLeadTime {
		eg.Go(func() error {
			var err error
			leadTimesByRepo, err = a.fetcher.FetchPRLeadTimes(egCtx, scope, user, prDateRange)
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	log.Debug("all data fetched successfully")

	statsMap := make(map[string]*domain.RepoStats)

	ensureRepoStat := func(repoName string) *domain.RepoStats {
		s, ok := statsMap[repoName]
		if !ok {
			s = &domain.RepoStats{Name: repoName}
			statsMap[repoName] = s
		}
		return s
	}

	for repoName, count := range commitCounts {
		ensureRepoStat(repoName).Commits = count
	}
	for repoName, count := range createdPRCounts {
		ensureRepoStat(repoName).CreatedPRs = count
	}
	for repoName, count := range reviewedPRCounts {
		ensureRepoStat(repoName).ReviewedPRs = count
	}
	for repoName, count := range createdIssueCounts {
		ensureRepoStat(repoName).CreatedIssues = count
	}

	for repoName, data := range leadTimesByRepo {
		s := ensureRepoStat(repoName)
		s.LeadTimeToLastReviewSeconds = LeadTimeSeconds(data)
		s.LeadTime = SummarizeLeadTimes(s.LeadTimeToLastReviewSeconds)
	}

	sortedStats := make([]*domain.RepoStats, 0, len(statsMap))
	for _, repoStat := range statsMap {
		sortedStats = append(sortedStats, repoStat)
	}
	sort.Slice(sortedStats, func(i, j int) bool {
		return sortedStats[i].Name < sortedStats[j].Name
	})

	log.WithField("repositories", len(sortedStats)).Debug("aggregation complete")
	return sortedStats, nil
}

// Summarize builds the organization detail view: Aggregate's per-repository
// activity plus the organization totals and every contributor's share of
// the commits, taken from the contributor lists of those repositories.
func (a *Aggregator) Summarize(ctx context.Context, session domain.Session, org, commitDateRange, prDateRange string, calculateLeadTime bool) (*domain.OrganizationStats, error) {
	repos, err := a.Aggregate(ctx, session, org, commitDateRange, prDateRange, calculateLeadTime)
	if err != nil {
		return nil, err
	}

	contributors := make([][]domain.Contributor, len(repos))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(contributorConcurrency)
	for i, repo := range repos {
		i, repo := i, repo
		eg.Go(func() error {
			var err error
			contributors[i], err = a.fetcher.FetchContributors(egCtx, repo.Name)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	stats := &domain.OrganizationStats{
		Organization:      org,
		User:              session.Login,
		TotalRepositories: len(repos),
		TeamMembers:       []domain.MemberContribution{},
		Repositories:      repos,
	}
	members := make(map[string]*domain.MemberContribution)
	for i, repo := range repos {
		userCommits := 0
		for _, c := range contributors[i] {
			repo.TotalCommits += c.Commits
			if strings.EqualFold(c.Login, session.Login) {
				userCommits += c.Commits
			}
			key := strings.ToLower(c.Login)
			m, ok := members[key]
			if !ok {
				m = &domain.MemberContribution{Login: c.Login, AvatarURL: c.AvatarURL}
				members[key] = m
			}
			m.Commits += c.Commits
		}
		repo.ContributionPercentage = domain.Percentage(userCommits, repo.TotalCommits)

		stats.TotalCommits += repo.TotalCommits
		stats.UserCommits += userCommits
		stats.TotalPullRequests += repo.CreatedPRs
		stats.TotalIssues += repo.CreatedIssues
	}
	stats.ContributionPercentage = domain.Percentage(stats.UserCommits, stats.TotalCommits)

	for _, m := range members {
		m.ContributionPercentage = domain.Percentage(m.Commits, stats.TotalCommits)
		stats.TeamMembers = append(stats.TeamMembers, *m)
	}
	sort.Slice(stats.TeamMembers, func(i, j int) bool {
		if stats.TeamMembers[i].Commits != stats.TeamMembers[j].Commits {
			return stats.TeamMembers[i].Commits > stats.TeamMembers[j].Commits
		}
		return stats.TeamMembers[i].Login < stats.TeamMembers[j].Login
	})

	a.logger.WithFields(logrus.Fields{
		"org":          org,
		"repositories": stats.TotalRepositories,
		"members":      len(stats.TeamMembers),
	}).Debug("organization summary complete")
	return stats, nil
}

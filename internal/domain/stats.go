package domain

import "math"

// RepoStats holds the activity counts of the session user for a single
// repository inside an organization.
type RepoStats struct {
	Name                        string           `json:"name"`
	Commits                     int              `json:"commits"`
	CreatedPRs                  int              `json:"created_prs"`
	ReviewedPRs                 int              `json:"reviewed_prs"`
	CreatedIssues               int              `json:"created_issues"`
	LeadTimeToLastReviewSeconds []float64        `json:"lead_time_to_last_review_seconds,omitempty"`
	LeadTime                    *LeadTimeSummary `json:"lead_time,omitempty"`

	// TotalCommits counts every contributor's commits to the repository.
	// It is only filled in by the organization summary.
	TotalCommits           int     `json:"total_commits,omitempty"`
	ContributionPercentage float64 `json:"contribution_percentage,omitempty"`
}

// Contributor is one entry of a repository's contributor list.
type Contributor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Commits   int    `json:"commits"`
}

// MemberContribution is a contributor's share of an organization's commits.
type MemberContribution struct {
	Login                  string  `json:"login"`
	AvatarURL              string  `json:"avatar_url,omitempty"`
	Commits                int     `json:"commits"`
	ContributionPercentage float64 `json:"contribution_percentage"`
}

// OrganizationStats is the organization detail view: the user's activity
// per repository plus organization-wide totals.
type OrganizationStats struct {
	Organization           string               `json:"organization"`
	User                   string               `json:"user"`
	TotalCommits           int                  `json:"total_commits"`
	UserCommits            int                  `json:"user_commits"`
	ContributionPercentage float64              `json:"contribution_percentage"`
	TotalRepositories      int                  `json:"total_repositories"`
	TotalPullRequests      int                  `json:"total_pull_requests"`
	TotalIssues            int                  `json:"total_issues"`
	TeamMembers            []MemberContribution `json:"team_members"`
	Repositories           []*RepoStats         `json:"repositories"`
}

// Percentage returns part as a share of total in percent, rounded to one
// decimal place. A zero total yields zero.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}

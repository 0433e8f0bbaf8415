package domain

import "time"

// ContributionCounts are the per-repository tallies that decide which
// contribution tab is shown first.
type ContributionCounts struct {
	CommitMessages int `json:"commitMessages"`
	PullRequests   int `json:"pullRequests"`
	Issues         int `json:"issues"`
}

// Role is a functional area a commit is attributed to.
type Role string

const (
	RoleBackend        Role = "backend"
	RoleFrontend       Role = "frontend"
	RoleInfrastructure Role = "infrastructure"
	RoleTest           Role = "test"
	RoleDocumentation  Role = "documentation"
	RoleConfiguration  Role = "configuration"
	RoleOther          Role = "other"
)

// Roles lists every role in display order.
var Roles = []Role{
	RoleBackend,
	RoleFrontend,
	RoleInfrastructure,
	RoleTest,
	RoleDocumentation,
	RoleConfiguration,
	RoleOther,
}

// RoleCountRecord holds the number of commits attributed to each role.
type RoleCountRecord struct {
	Backend        int `json:"backend"`
	Frontend       int `json:"frontend"`
	Infrastructure int `json:"infrastructure"`
	Test           int `json:"test"`
	Documentation  int `json:"documentation"`
	Configuration  int `json:"configuration"`
	Other          int `json:"other"`
}

// Count returns the counter for role. Unknown roles count as zero.
func (r RoleCountRecord) Count(role Role) int {
	switch role {
	case RoleBackend:
		return r.Backend
	case RoleFrontend:
		return r.Frontend
	case RoleInfrastructure:
		return r.Infrastructure
	case RoleTest:
		return r.Test
	case RoleDocumentation:
		return r.Documentation
	case RoleConfiguration:
		return r.Configuration
	case RoleOther:
		return r.Other
	}
	return 0
}

// Add increments the counter for role; unknown roles go to Other.
func (r *RoleCountRecord) Add(role Role) {
	switch role {
	case RoleBackend:
		r.Backend++
	case RoleFrontend:
		r.Frontend++
	case RoleInfrastructure:
		r.Infrastructure++
	case RoleTest:
		r.Test++
	case RoleDocumentation:
		r.Documentation++
	case RoleConfiguration:
		r.Configuration++
	default:
		r.Other++
	}
}

// PullRequest is a pull request authored by the session user.
type PullRequest struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	URL       string     `json:"htmlUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
	MergedAt  *time.Time `json:"mergedAt,omitempty"`
}

// Issue is an issue opened by the session user.
type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	URL       string     `json:"htmlUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

// CommitChange is what one commit changed: its file paths and line counts.
type CommitChange struct {
	SHA       string
	Files     []string
	Additions int
	Deletions int
}

// PRLeadTime holds the timestamps needed to measure how long a pull
// request waited for its last review.
type PRLeadTime struct {
	CreatedAt      time.Time
	LastReviewedAt time.Time
}

// LeadTimeSummary describes the distribution of review lead times in seconds.
type LeadTimeSummary struct {
	Count         int     `json:"count"`
	MeanSeconds   float64 `json:"meanSeconds"`
	MedianSeconds float64 `json:"medianSeconds"`
	P90Seconds    float64 `json:"p90Seconds"`
}

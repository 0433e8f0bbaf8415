package view

import (
	"fmt"

	"github.com/naka-gawa/github-dashboard/internal/domain"
)

// Tab is one of the contribution sub-views.
type Tab string

const (
	TabCommits      Tab = "commits"
	TabPullRequests Tab = "pr"
	TabIssues       Tab = "issues"
)

// ParseTab converts a tab name into a Tab.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabCommits, TabPullRequests, TabIssues:
		return Tab(s), nil
	}
	return "", fmt.Errorf("unknown tab %q (want commits, pr or issues)", s)
}

// maxActivityForCommits is the largest combined PR and issue count for which
// the commit list is still worth showing.
const maxActivityForCommits = 3

// ShowCommits reports whether the commits tab should be offered.
func ShowCommits(c domain.ContributionCounts) bool {
	return c.PullRequests+c.Issues <= maxActivityForCommits && c.CommitMessages > 0
}

// TabState is the contribution viewer's state.
type TabState struct {
	Active         Tab  `json:"activeTab"`
	ShowCommitsTab bool `json:"showCommitsTab"`
}

func defaultTab(showCommits bool) Tab {
	if showCommits {
		return TabCommits
	}
	return TabPullRequests
}

// NewTabState chooses the initial tab from the counts.
func NewTabState(c domain.ContributionCounts) TabState {
	show := ShowCommits(c)
	return TabState{Active: defaultTab(show), ShowCommitsTab: show}
}

// DeriveActiveTab recomputes the state after the counts changed. When the
// commits flag flips, the active tab is forced to the new default even if
// the viewer picked a tab by hand. Otherwise the active tab is kept.
func DeriveActiveTab(prev TabState, c domain.ContributionCounts) TabState {
	show := ShowCommits(c)
	if show == prev.ShowCommitsTab {
		return prev
	}
	return TabState{Active: defaultTab(show), ShowCommitsTab: show}
}

// Select is a viewer-initiated switch; any tab may be chosen.
func (s TabState) Select(tab Tab) TabState {
	s.Active = tab
	return s
}

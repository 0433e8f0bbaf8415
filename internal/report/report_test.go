package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
	"github.com/naka-gawa/github-dashboard/internal/view"
)

var generatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleAnalysis() *usecase.Analysis {
	created := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	return &usecase.Analysis{
		Repository: "acme/api",
		User:       "alice",
		Counts:     domain.ContributionCounts{CommitMessages: 5, PullRequests: 1, Issues: 0},
		PullRequests: []domain.PullRequest{
			{Number: 7, Title: "Fix <script> | pipes", State: "merged", URL: "https://github.com/acme/api/pull/7", CreatedAt: created},
		},
		Issues:           []domain.Issue{},
		RoleChart:        []view.RoleSlice{{Name: "Backend", Value: 2, Color: "#5b75ff"}},
		ReviewLeadTime:   &domain.LeadTimeSummary{Count: 1, MeanSeconds: 7200, MedianSeconds: 7200, P90Seconds: 7200},
		TotalCommits:     20,
		UserCommits:      5,
		CommitPercentage: 25,
		Additions:        63,
		Deletions:        11,
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Markdown")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	f, err = ParseFormat("html")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)
	assert.Equal(t, "text/html; charset=utf-8", f.ContentType())

	_, err = ParseFormat("pdf")
	assert.ErrorContains(t, err, "unknown report format")
}

func TestTemplates_RenderMarkdown(t *testing.T) {
	tpl, err := LoadTemplates()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tpl.Render(&buf, FormatMarkdown, sampleAnalysis(), generatedAt))
	out := buf.String()

	assert.Contains(t, out, "# Contribution report: acme/api\n")
	assert.Contains(t, out, "- Generated: 2025-03-01T12:00:00Z")
	assert.Contains(t, out, "| Commits | 5 of 20 (25.0%) |")
	assert.Contains(t, out, "| Lines changed | +63 / -11 |")
	assert.Contains(t, out, "| Review lead time (median) | 2h0m0s |")
	assert.Contains(t, out, "- Backend: 2")
	assert.Contains(t, out, `- [#7](https://github.com/acme/api/pull/7) Fix &lt;script&gt; \| pipes (merged, 2025-02-10)`)
	assert.Contains(t, out, "## Issues\n\nNone.")
}

func TestTemplates_RenderHTML(t *testing.T) {
	tpl, err := LoadTemplates()
	require.NoError(t, err)

	a := sampleAnalysis()
	a.ReviewLeadTime = nil
	var buf bytes.Buffer
	require.NoError(t, tpl.Render(&buf, FormatHTML, a, generatedAt))
	out := buf.String()

	assert.Contains(t, out, "<h1>Contribution report: acme/api</h1>")
	assert.Contains(t, out, "<td>5 of 20 (25.0%)</td>")
	assert.Contains(t, out, "Fix &lt;script&gt; | pipes")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "Review lead time")
}

func TestTemplates_RenderUnknownFormat(t *testing.T) {
	tpl, err := LoadTemplates()
	require.NoError(t, err)
	assert.Error(t, tpl.Render(&bytes.Buffer{}, Format("pdf"), sampleAnalysis(), generatedAt))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "contribution-report-acme-api.md", Filename("acme/api", FormatMarkdown))
	assert.Equal(t, "contribution-report-acme-api.html", Filename("acme/api", FormatHTML))
}

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-dashboard/internal/config"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/report"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
	"github.com/naka-gawa/github-dashboard/internal/view"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze OWNER/REPO",
	Short: "Analyzes your contributions to a repository and outputs them as JSON",
	Long: `Fetches your commits, pull requests and issues in a repository, breaks your
commits down by role (backend, frontend, tests, ...) from the files they
touch, summarizes review lead time, and prints the result as JSON.

With --report the analysis is printed as a Markdown or HTML document instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		owner, repo, ok := strings.Cut(args[0], "/")
		if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
			return fmt.Errorf("invalid repository %q, expected OWNER/REPO", args[0])
		}
		var tab view.Tab
		if raw, _ := cmd.Flags().GetString("tab"); raw != "" {
			var err error
			if tab, err = view.ParseTab(raw); err != nil {
				return err
			}
		}
		var format report.Format
		if raw, _ := cmd.Flags().GetString("report"); raw != "" {
			var err error
			if format, err = report.ParseFormat(raw); err != nil {
				return err
			}
		}

		return invoke(cmd, func(analyzer *usecase.Analyzer, reports *report.Templates, viewer gateway.ViewerFetcher, cfg *config.Config) error {
			session, err := usecase.CurrentSession(ctx, viewer, cfg.Login)
			if err != nil {
				return err
			}
			analysis, err := analyzer.Analyze(ctx, session, owner, repo)
			if err != nil {
				return err
			}
			if tab != "" {
				analysis.SelectTab(tab)
			}
			if format != "" {
				return reports.Render(cmd.OutOrStdout(), format, analysis, time.Now())
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().String("tab", "", "Active contribution tab: commits, pr or issues (default chosen from the counts)")
	analyzeCmd.Flags().String("report", "", "Print a report document instead of JSON: markdown or html")
}

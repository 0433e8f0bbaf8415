package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-dashboard/internal/config"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Aggregates your activity in an organization and outputs it as JSON",
	Long: `Aggregates activity (commits, created/reviewed PRs, created issues and
optionally review lead time) per repository for a user inside a GitHub
organization, adds organization totals and every contributor's share of the
commits, and outputs the result in JSON format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		org, _ := cmd.Flags().GetString("org")
		user, _ := cmd.Flags().GetString("user")
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		leadTime, _ := cmd.Flags().GetBool("lead-time")

		// Commit search filters on author-date, PR search on created.
		ranges, err := usecase.ParseDateRanges(fromStr, toStr, usecase.CLIDateLayout)
		if err != nil {
			return err
		}

		return invoke(cmd, func(aggregator *usecase.Aggregator, viewer gateway.ViewerFetcher, cfg *config.Config, logger logrus.FieldLogger) error {
			login := user
			if login == "" {
				login = cfg.Login
			}
			session, err := usecase.CurrentSession(ctx, viewer, login)
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{"org": org, "user": session.Login}).Debug("aggregating organization stats")

			results, err := aggregator.Summarize(ctx, session, org, ranges.Commits, ranges.PullRequests, leadTime)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		})
	},
}

func init() {
	rootCmd.AddCommand(orgCmd)
	orgCmd.Flags().StringP("org", "o", "", "Target GitHub organization name (required)")
	orgCmd.Flags().StringP("user", "u", "", "Target GitHub user name (default: the session user)")
	_ = orgCmd.MarkFlagRequired("org")
	orgCmd.Flags().String("from", "", "Start date for stats (YYYY/MM/DD)")
	orgCmd.Flags().String("to", "", "End date for stats (YYYY/MM/DD)")
	orgCmd.Flags().Bool("lead-time", false, "Also report how long pull requests waited for their last review")
}

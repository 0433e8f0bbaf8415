package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-dashboard/internal/config"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Groups your repositories and organizations and outputs them as JSON",
	Long: `Fetches the authenticated user's repositories and organizations, groups the
repositories into organization-owned and personal ones, adds virtual
organizations for forks of organizations you are not a member of, and prints
the paginated result as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sections, _ := cmd.Flags().GetStringSlice("expand")
		expanded, err := usecase.ParseExpansion(sections)
		if err != nil {
			return err
		}

		return invoke(cmd, func(builder *usecase.DashboardBuilder, cfg *config.Config, logger logrus.FieldLogger) error {
			pageSize, err := pageSizeFrom(cmd, cfg.PageSize)
			if err != nil {
				return err
			}
			logger.WithField("page_size", pageSize).Debug("building dashboard")

			dashboard, err := builder.Build(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dashboard.Paged(pageSize, expanded))
		})
	},
}

// pageSizeFrom returns the --page-size flag when it was given, else fallback.
func pageSizeFrom(cmd *cobra.Command, fallback int) (int, error) {
	if !cmd.Flags().Changed("page-size") {
		return fallback, nil
	}
	n, err := cmd.Flags().GetInt("page-size")
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid --page-size %d, must not be negative", n)
	}
	return n, nil
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().Int("page-size", 0, "Items shown per collapsed section (default from config, 6)")
	dashboardCmd.Flags().StringSlice("expand", nil, "Sections to show in full: organizationRepositories, personalRepositories, organizations")
}

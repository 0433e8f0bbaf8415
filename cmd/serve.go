package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-dashboard/internal/config"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/report"
	"github.com/naka-gawa/github-dashboard/internal/server"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the dashboard, analysis and organization stats over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		return invoke(cmd, func(
			dashboard *usecase.DashboardBuilder,
			analyzer *usecase.Analyzer,
			aggregator *usecase.Aggregator,
			reports *report.Templates,
			metrics *server.Metrics,
			viewer gateway.ViewerFetcher,
			cfg *config.Config,
			logger logrus.FieldLogger,
		) error {
			listen := cfg.Listen
			if cmd.Flags().Changed("listen") {
				listen, _ = cmd.Flags().GetString("listen")
			}
			session, err := usecase.CurrentSession(ctx, viewer, cfg.Login)
			if err != nil {
				return err
			}
			logger.WithField("user", session.Login).Info("serving dashboard")

			srv := server.New(dashboard, analyzer, aggregator, reports, metrics, server.Options{
				Session:  session,
				PageSize: cfg.PageSize,
				CacheTTL: cfg.CacheTTL,
			}, logger)
			return srv.Run(ctx, listen)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Address to listen on (default from config, :8080)")
}

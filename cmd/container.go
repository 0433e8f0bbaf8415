package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/naka-gawa/github-dashboard/internal/config"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/report"
	"github.com/naka-gawa/github-dashboard/internal/server"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	ConfigPath string
	Verbose    bool
}

func globalOptionsFrom(cmd *cobra.Command) globalOptions {
	verbose, _ := cmd.Flags().GetBool("verbose")
	configPath, _ := cmd.Flags().GetString("config")
	return globalOptions{ConfigPath: configPath, Verbose: verbose}
}

func newLogger(opts globalOptions) logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	// Default: only warnings and errors.
	logger.SetLevel(logrus.WarnLevel)
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func loadConfig(opts globalOptions, logger logrus.FieldLogger) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, logger)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newGateway(cfg *config.Config, logger logrus.FieldLogger) (*gateway.GitHubGateway, error) {
	gw, err := gateway.NewGitHubGateway(gateway.Options{
		Token:       cfg.Token,
		RESTURL:     cfg.RESTURL,
		GraphQLURL:  cfg.GraphQLURL,
		Concurrency: cfg.FetchConcurrency,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	return gw, nil
}

func newAnalyzer(fetcher gateway.ContributionFetcher, logger logrus.FieldLogger, cfg *config.Config) *usecase.Analyzer {
	return usecase.NewAnalyzer(fetcher, logger, cfg.RoleCommitLimit)
}

// buildContainer registers every provider the commands draw from.
func buildContainer(opts globalOptions) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() globalOptions { return opts }); err != nil {
		return nil, err
	}
	if err := container.Provide(newLogger); err != nil {
		return nil, err
	}
	if err := container.Provide(loadConfig); err != nil {
		return nil, err
	}
	if err := container.Provide(newGateway, dig.As(
		new(gateway.ViewerFetcher),
		new(gateway.RepositoryLister),
		new(gateway.ActivityFetcher),
		new(gateway.ContributionFetcher),
	)); err != nil {
		return nil, err
	}
	for _, constructor := range []any{
		usecase.NewDashboardBuilder,
		usecase.NewAggregator,
		newAnalyzer,
		report.LoadTemplates,
		server.NewMetrics,
	} {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}
	return container, nil
}

// invoke builds the container for cmd and calls fn with its dependencies.
func invoke(cmd *cobra.Command, fn any) error {
	container, err := buildContainer(globalOptionsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	if err := container.Invoke(fn); err != nil {
		return dig.RootCause(err)
	}
	return nil
}

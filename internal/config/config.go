// Package config loads the dashboard's settings from a YAML file, the
// environment and a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/naka-gawa/github-dashboard/internal/view"
)

// Config is the dashboard configuration.
type Config struct {
	Token            string        `yaml:"token"`
	Login            string        `yaml:"login"`
	PageSize         int           `yaml:"page_size"`
	RoleCommitLimit  int           `yaml:"role_commit_limit"`
	FetchConcurrency int           `yaml:"fetch_concurrency"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	Listen           string        `yaml:"listen"`
	RESTURL          string        `yaml:"rest_url"`
	GraphQLURL       string        `yaml:"graphql_url"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		PageSize:         view.DefaultPageSize,
		RoleCommitLimit:  50,
		FetchConcurrency: 4,
		CacheTTL:         time.Minute,
		Listen:           ":8080",
	}
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// defaultFiles are tried, in order, when no config path is given.
var defaultFiles = []string{
	".github-dashboard.yaml",
	".github-dashboard.yml",
	filepath.Join(".config", "github-dashboard.yaml"),
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first (existing variables win). Then the YAML
// file at path, or the first default file found, is read; environment
// variables override it.
func Load(path string, logger logrus.FieldLogger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
		logger.WithField("path", path).Debug("loaded config file")
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile() string {
	for _, p := range defaultFiles {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	expanded := envVarPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("GITHUB_LOGIN"); v != "" {
		cfg.Login = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" {
		cfg.RESTURL = v
	}
	if v := os.Getenv("GITHUB_GRAPHQL_URL"); v != "" {
		cfg.GraphQLURL = v
	}
	for key, dst := range map[string]*int{
		"DASHBOARD_PAGE_SIZE":         &cfg.PageSize,
		"DASHBOARD_ROLE_COMMIT_LIMIT": &cfg.RoleCommitLimit,
		"DASHBOARD_FETCH_CONCURRENCY": &cfg.FetchConcurrency,
	} {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("DASHBOARD_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DASHBOARD_CACHE_TTL %q: %w", v, err)
		}
		cfg.CacheTTL = d
	}
	if v := os.Getenv("DASHBOARD_LISTEN"); v != "" {
		cfg.Listen = v
	}
	return nil
}

// Validate checks the settings needed to talk to GitHub.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("token is required (set GITHUB_TOKEN or token in the config file)")
	}
	if c.PageSize < 0 {
		return fmt.Errorf("page_size must not be negative, got %d", c.PageSize)
	}
	if c.RoleCommitLimit < 0 {
		return fmt.Errorf("role_commit_limit must not be negative, got %d", c.RoleCommitLimit)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("fetch_concurrency must be at least 1, got %d", c.FetchConcurrency)
	}
	return nil
}

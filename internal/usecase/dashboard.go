// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/view"
)

// ErrViewClosed is returned when the caller went away before the fetched
// data could be derived. The data is discarded.
var ErrViewClosed = errors.New("view closed before data arrived")

// Dashboard is the grouped view of the user's repositories and organizations.
type Dashboard struct {
	OrganizationRepositories []domain.Repository   `json:"organizationRepositories"`
	PersonalRepositories     []domain.Repository   `json:"personalRepositories"`
	Organizations            []domain.Organization `json:"organizations"`
}

// EmptyDashboard is what a view shows when derivation did not run.
func EmptyDashboard() Dashboard {
	return Dashboard{
		OrganizationRepositories: []domain.Repository{},
		PersonalRepositories:     []domain.Repository{},
		Organizations:            []domain.Organization{},
	}
}

// DeriveDashboard classifies a complete snapshot of repositories and
// organizations. It must only be called once both lists are known.
func DeriveDashboard(repos []domain.Repository, orgs []domain.Organization) Dashboard {
	c := Classify(repos, orgs)
	return Dashboard{
		OrganizationRepositories: c.OrganizationRepositories,
		PersonalRepositories:     c.PersonalRepositories,
		Organizations:            Synthesize(orgs, c.VirtualOrganizations),
	}
}

// Section names a paginated part of the dashboard.
type Section string

const (
	SectionOrganizationRepositories Section = "organizationRepositories"
	SectionPersonalRepositories     Section = "personalRepositories"
	SectionOrganizations            Section = "organizations"
)

// Expansion records which sections the viewer expanded.
type Expansion map[Section]bool

// ParseExpansion builds an Expansion from section names. Blank names are
// ignored; unknown names are an error.
func ParseExpansion(names []string) (Expansion, error) {
	expanded := Expansion{}
	for _, name := range names {
		section := Section(strings.TrimSpace(name))
		switch section {
		case SectionOrganizationRepositories, SectionPersonalRepositories, SectionOrganizations:
			expanded[section] = true
		case "":
		default:
			return nil, fmt.Errorf("unknown section %q", section)
		}
	}
	return expanded, nil
}

// PagedDashboard is a Dashboard with each section paginated.
type PagedDashboard struct {
	OrganizationRepositories view.Page[domain.Repository]   `json:"organizationRepositories"`
	PersonalRepositories     view.Page[domain.Repository]   `json:"personalRepositories"`
	Organizations            view.Page[domain.Organization] `json:"organizations"`
}

// Paged paginates every section of d with the same threshold.
func (d Dashboard) Paged(threshold int, expanded Expansion) PagedDashboard {
	return PagedDashboard{
		OrganizationRepositories: view.Paginate(d.OrganizationRepositories, threshold, expanded[SectionOrganizationRepositories]),
		PersonalRepositories:     view.Paginate(d.PersonalRepositories, threshold, expanded[SectionPersonalRepositories]),
		Organizations:            view.Paginate(d.Organizations, threshold, expanded[SectionOrganizations]),
	}
}

// Snapshot is the raw data a dashboard is derived from.
type Snapshot struct {
	Repositories  []domain.Repository
	Organizations []domain.Organization
}

// DashboardBuilder fetches the dashboard's inputs and derives the view.
type DashboardBuilder struct {
	lister gateway.RepositoryLister
	logger logrus.FieldLogger
}

// NewDashboardBuilder creates a new DashboardBuilder instance.
func NewDashboardBuilder(lister gateway.RepositoryLister, logger logrus.FieldLogger) *DashboardBuilder {
	return &DashboardBuilder{
		lister: lister,
		logger: logger.WithField("component", "dashboard"),
	}
}

// Fetch retrieves repositories and organizations concurrently. Both must
// succeed; a partial snapshot is never returned.
func (b *DashboardBuilder) Fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		snap.Repositories, err = b.lister.FetchRepositories(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		snap.Organizations, err = b.lister.FetchOrganizations(egCtx)
		return err
	})

	if err := eg.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Build fetches and derives the dashboard. When a fetch fails, the empty
// dashboard is returned with the error and nothing is classified. When ctx
// is done by the time both results arrive, they are discarded and
// ErrViewClosed is returned.
func (b *DashboardBuilder) Build(ctx context.Context) (Dashboard, error) {
	b.logger.Debug("starting dashboard fetch")
	snap, err := b.Fetch(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return EmptyDashboard(), fmt.Errorf("%w: %w", ErrViewClosed, ctxErr)
		}
		b.logger.WithError(err).Warn("dashboard fetch failed; skipping derivation")
		return EmptyDashboard(), err
	}
	return b.Derive(ctx, snap)
}

// Derive classifies snap unless ctx is already done.
func (b *DashboardBuilder) Derive(ctx context.Context, snap Snapshot) (Dashboard, error) {
	if err := ctx.Err(); err != nil {
		b.logger.Debug("view closed; discarding fetched data")
		return EmptyDashboard(), fmt.Errorf("%w: %w", ErrViewClosed, err)
	}
	d := DeriveDashboard(snap.Repositories, snap.Organizations)
	b.logger.WithFields(logrus.Fields{
		"organization_repositories": len(d.OrganizationRepositories),
		"personal_repositories":     len(d.PersonalRepositories),
		"organizations":             len(d.Organizations),
	}).Debug("dashboard derived")
	return d, nil
}

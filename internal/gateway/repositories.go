package gateway

import (
	"context"
	"fmt"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"

	"github.com/naka-gawa/github-dashboard/internal/domain"
)

// ownerNode carries the owner's concrete type through __typename, which the
// REST listing does not expose for fork parents.
type ownerNode struct {
	Typename  string `graphql:"__typename"`
	Login     string
	AvatarURL string `graphql:"avatarUrl"`
}

type repositoryNode struct {
	ID               string `graphql:"id"`
	Name             string
	NameWithOwner    string
	Description      string
	URL              string `graphql:"url"`
	Owner            ownerNode
	IsFork           bool
	IsPrivate        bool
	DefaultBranchRef *struct {
		Name string
	}
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	Parent    *struct {
		NameWithOwner string
		Owner         ownerNode
	}
}

// viewerRepositoriesQuery lists every repository the viewer owns, collaborates
// on or can see through an organization membership.
type viewerRepositoriesQuery struct {
	Viewer struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []repositoryNode
		} `graphql:"repositories(first: 100, after: $cursor, ownerAffiliations: [OWNER, COLLABORATOR, ORGANIZATION_MEMBER], orderBy: {field: UPDATED_AT, direction: DESC})"`
	}
}

func (o ownerNode) toDomain() domain.Owner {
	kind := domain.OwnerKindUser
	if o.Typename == string(domain.OwnerKindOrganization) {
		kind = domain.OwnerKindOrganization
	}
	return domain.StructuredOwner(o.Login, kind, o.AvatarURL)
}

func (n repositoryNode) toDomain() domain.Repository {
	created := n.CreatedAt.Time
	updated := n.UpdatedAt.Time
	repo := domain.Repository{
		ID:          n.ID,
		Name:        n.Name,
		FullName:    n.NameWithOwner,
		Description: n.Description,
		URL:         n.URL,
		Owner:       n.Owner.toDomain(),
		IsFork:      n.IsFork,
		IsPrivate:   n.IsPrivate,
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}
	if n.DefaultBranchRef != nil {
		repo.DefaultBranch = n.DefaultBranchRef.Name
	}
	if n.IsFork && n.Parent != nil {
		repo.Parent = &domain.Parent{
			FullName: n.Parent.NameWithOwner,
			Owner:    n.Parent.Owner.toDomain(),
		}
	}
	return repo
}

// FetchRepositories lists the authenticated user's repositories, most
// recently updated first.
func (g *GitHubGateway) FetchRepositories(ctx context.Context) ([]domain.Repository, error) {
	g.logger.Debug("fetching repositories using GraphQL API")
	variables := map[string]interface{}{"cursor": (*githubv4.String)(nil)}
	repos := make([]domain.Repository, 0)
	for {
		var q viewerRepositoriesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for repositories: %w", categorize(err))
		}
		for _, node := range q.Viewer.Repositories.Nodes {
			repos = append(repos, node.toDomain())
		}
		if !q.Viewer.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Viewer.Repositories.PageInfo.EndCursor)
	}
	g.logger.WithField("repositories", len(repos)).Debug("completed fetching repositories")
	return repos, nil
}

// FetchOrganizations lists the organizations the authenticated user belongs to.
func (g *GitHubGateway) FetchOrganizations(ctx context.Context) ([]domain.Organization, error) {
	g.logger.Debug("fetching organizations using REST API")
	opts := &github.ListOptions{PerPage: 100}
	orgs := make([]domain.Organization, 0)
	for {
		page, resp, err := g.restClient.Organizations.List(ctx, "", opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list organizations with REST API: %w", categorize(err))
		}
		for _, o := range page {
			orgs = append(orgs, domain.Organization{
				Login:       o.GetLogin(),
				AvatarURL:   o.GetAvatarURL(),
				Description: o.GetDescription(),
				PublicRepos: o.PublicRepos,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	g.logger.WithField("organizations", len(orgs)).Debug("completed fetching organizations")
	return orgs, nil
}

// FetchViewer returns the login of the user the token belongs to.
func (g *GitHubGateway) FetchViewer(ctx context.Context) (domain.Session, error) {
	user, _, err := g.restClient.Users.Get(ctx, "")
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to get authenticated user: %w", categorize(err))
	}
	return domain.Session{Login: user.GetLogin()}, nil
}

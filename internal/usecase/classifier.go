package usecase

import "github.com/naka-gawa/github-dashboard/internal/domain"

// Classification is the dashboard's grouping of a repository list.
type Classification struct {
	OrganizationRepositories []domain.Repository
	PersonalRepositories     []domain.Repository
	// VirtualOrganizations are ordered by the first repository that created them.
	VirtualOrganizations []domain.VirtualOrganization
}

// VirtualMembers returns the repositories grouped under a virtual organization.
func (c Classification) VirtualMembers(login string) ([]domain.Repository, bool) {
	for _, v := range c.VirtualOrganizations {
		if v.Login == login {
			return v.Repositories, true
		}
	}
	return nil, false
}

// Classify splits repos into organization-owned and personal buckets. A
// personal fork of an organization's repository counts as organization-owned;
// if the user is not a member of that organization (per realOrgs), the fork
// is also grouped under a virtual organization for the upstream owner.
//
// A fork whose parent is missing, or whose parent owner is a bare login, is
// personal: without a structured owner the upstream kind is unknown.
func Classify(repos []domain.Repository, realOrgs []domain.Organization) Classification {
	members := make(map[string]struct{}, len(realOrgs))
	for _, o := range realOrgs {
		members[o.Login] = struct{}{}
	}

	out := Classification{
		OrganizationRepositories: []domain.Repository{},
		PersonalRepositories:     []domain.Repository{},
		VirtualOrganizations:     []domain.VirtualOrganization{},
	}
	virtualIndex := make(map[string]int)

	for _, repo := range repos {
		owner := domain.ResolveOwner(repo.Owner)
		if owner.Kind == domain.OwnerKindOrganization {
			out.OrganizationRepositories = append(out.OrganizationRepositories, repo)
			continue
		}

		upstream, ok := organizationParent(repo)
		if !ok {
			out.PersonalRepositories = append(out.PersonalRepositories, repo)
			continue
		}

		out.OrganizationRepositories = append(out.OrganizationRepositories, repo)
		if _, member := members[upstream.Login]; member {
			continue
		}
		i, seen := virtualIndex[upstream.Login]
		if !seen {
			i = len(out.VirtualOrganizations)
			virtualIndex[upstream.Login] = i
			out.VirtualOrganizations = append(out.VirtualOrganizations, domain.VirtualOrganization{
				Login:     upstream.Login,
				AvatarURL: repo.Parent.Owner.AvatarURL,
			})
		}
		out.VirtualOrganizations[i].Repositories = append(out.VirtualOrganizations[i].Repositories, repo)
	}
	return out
}

// organizationParent returns the upstream owner of a fork when it is
// known to be an organization.
func organizationParent(repo domain.Repository) (domain.ResolvedOwner, bool) {
	if !repo.IsFork || repo.Parent == nil {
		return domain.ResolvedOwner{}, false
	}
	if repo.Parent.Owner.Shape != domain.OwnerShapeStructured {
		return domain.ResolvedOwner{}, false
	}
	parent := domain.ResolveOwner(repo.Parent.Owner)
	if parent.Kind != domain.OwnerKindOrganization {
		return domain.ResolvedOwner{}, false
	}
	return parent, true
}

// Synthesize merges the real organizations with the virtual ones derived by
// Classify. Real organizations come first, in their given order.
func Synthesize(realOrgs []domain.Organization, virtual []domain.VirtualOrganization) []domain.Organization {
	merged := make([]domain.Organization, 0, len(realOrgs)+len(virtual))
	for _, o := range realOrgs {
		o.IsVirtual = false
		merged = append(merged, o)
	}
	for _, v := range virtual {
		merged = append(merged, v.Organization())
	}
	return merged
}

package domain

import "fmt"

// virtualKeyPrefix namespaces synthesized organizations so their keys can
// never collide with a real login.
const virtualKeyPrefix = "virtual:"

// Organization is a real organization the user belongs to, or one
// synthesized from forks when IsVirtual is set.
type Organization struct {
	Login       string `json:"login"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Description string `json:"description,omitempty"`
	PublicRepos *int   `json:"publicRepos,omitempty"`
	IsVirtual   bool   `json:"isVirtual"`
}

// Key is a stable identifier for rendering. It depends only on the login,
// so repeated derivations yield the same key.
func (o Organization) Key() string {
	if o.IsVirtual {
		return virtualKeyPrefix + o.Login
	}
	return o.Login
}

// VirtualOrganization groups the user's forks of one upstream organization
// the user has not joined.
type VirtualOrganization struct {
	Login        string       `json:"login"`
	AvatarURL    string       `json:"avatarUrl,omitempty"`
	Repositories []Repository `json:"repositories"`
}

// Organization renders the virtual entry in the same form as a real one.
func (v VirtualOrganization) Organization() Organization {
	count := len(v.Repositories)
	return Organization{
		Login:       v.Login,
		AvatarURL:   v.AvatarURL,
		Description: fmt.Sprintf("%d forked repositories", count),
		PublicRepos: &count,
		IsVirtual:   true,
	}
}

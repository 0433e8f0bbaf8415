// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// OwnerKind is the account type of a repository owner.
type OwnerKind string

const (
	OwnerKindUser         OwnerKind = "User"
	OwnerKindOrganization OwnerKind = "Organization"
)

// OwnerShape records how an owner was delivered by the API.
type OwnerShape int

const (
	// OwnerShapeBare is an owner given only as a login string.
	OwnerShapeBare OwnerShape = iota
	// OwnerShapeStructured is an owner given as a record carrying its kind.
	OwnerShapeStructured
)

// Owner is either a bare login or a structured {login, kind} record.
// The zero value is a bare owner with an empty login.
type Owner struct {
	Shape     OwnerShape
	Login     string
	Kind      OwnerKind
	AvatarURL string
}

// BareOwner builds an owner known only by its login.
func BareOwner(login string) Owner {
	return Owner{Shape: OwnerShapeBare, Login: login}
}

// StructuredOwner builds an owner whose account kind is known.
func StructuredOwner(login string, kind OwnerKind, avatarURL string) Owner {
	return Owner{Shape: OwnerShapeStructured, Login: login, Kind: kind, AvatarURL: avatarURL}
}

// ResolvedOwner is the uniform form every owner is reduced to.
type ResolvedOwner struct {
	Login string
	Kind  OwnerKind
}

// ResolveOwner normalizes an owner into {login, kind}. Bare owners, and
// structured owners that omit their kind, resolve to a User.
func ResolveOwner(o Owner) ResolvedOwner {
	kind := OwnerKindUser
	if o.Shape == OwnerShapeStructured && o.Kind != "" {
		kind = o.Kind
	}
	return ResolvedOwner{Login: o.Login, Kind: kind}
}

// ownerRecord is the structured JSON form. Both the REST spelling (type,
// avatar_url) and the camelCase spelling (kind, avatarUrl) are accepted.
type ownerRecord struct {
	Login       string    `json:"login"`
	Type        OwnerKind `json:"type,omitempty"`
	Kind        OwnerKind `json:"kind,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	AvatarCamel string    `json:"avatarUrl,omitempty"`
}

// UnmarshalJSON accepts either a JSON string or an owner object.
func (o *Owner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = Owner{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var login string
		if err := json.Unmarshal(data, &login); err != nil {
			return fmt.Errorf("failed to decode bare owner: %w", err)
		}
		*o = BareOwner(login)
		return nil
	}
	var rec ownerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to decode owner record: %w", err)
	}
	kind := rec.Kind
	if kind == "" {
		kind = rec.Type
	}
	avatar := rec.AvatarURL
	if avatar == "" {
		avatar = rec.AvatarCamel
	}
	*o = StructuredOwner(rec.Login, kind, avatar)
	return nil
}

// MarshalJSON writes the owner back in the shape it was received in.
func (o Owner) MarshalJSON() ([]byte, error) {
	if o.Shape == OwnerShapeBare {
		return json.Marshal(o.Login)
	}
	return json.Marshal(struct {
		Login     string    `json:"login"`
		Kind      OwnerKind `json:"kind,omitempty"`
		AvatarURL string    `json:"avatarUrl,omitempty"`
	}{o.Login, o.Kind, o.AvatarURL})
}

// Parent is the upstream repository a fork was created from.
type Parent struct {
	FullName string `json:"fullName,omitempty"`
	Owner    Owner  `json:"owner"`
}

// Repository is a single repository as delivered by the API.
type Repository struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	FullName      string     `json:"fullName"`
	Description   string     `json:"description,omitempty"`
	URL           string     `json:"url,omitempty"`
	Owner         Owner      `json:"owner"`
	IsFork        bool       `json:"isFork"`
	Parent        *Parent    `json:"parent,omitempty"`
	IsPrivate     bool       `json:"isPrivate"`
	DefaultBranch string     `json:"defaultBranch,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// Session identifies the user the dashboard is rendered for.
type Session struct {
	Login string `json:"login"`
}

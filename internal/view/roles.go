package view

import "github.com/naka-gawa/github-dashboard/internal/domain"

// RoleCategory is the display metadata of one role.
type RoleCategory struct {
	Role  domain.Role
	Label string
	Color string
}

// DefaultRoleCategories is the fixed chart order.
var DefaultRoleCategories = []RoleCategory{
	{Role: domain.RoleBackend, Label: "Backend", Color: "#5b75ff"},
	{Role: domain.RoleFrontend, Label: "Frontend", Color: "#a855f7"},
	{Role: domain.RoleInfrastructure, Label: "Infrastructure", Color: "#6b7280"},
	{Role: domain.RoleTest, Label: "Test", Color: "#10b981"},
	{Role: domain.RoleDocumentation, Label: "Documentation", Color: "#f59e0b"},
	{Role: domain.RoleConfiguration, Label: "Configuration", Color: "#8b5cf6"},
	{Role: domain.RoleOther, Label: "Other", Color: "#94a3b8"},
}

// RoleSlice is one bar of the role chart.
type RoleSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// RoleDistribution keeps the categories with a positive count, in the order
// of categories. Values are raw commit counts.
func RoleDistribution(record domain.RoleCountRecord, categories []RoleCategory) []RoleSlice {
	slices := make([]RoleSlice, 0, len(categories))
	for _, c := range categories {
		v := record.Count(c.Role)
		if v <= 0 {
			continue
		}
		slices = append(slices, RoleSlice{Name: c.Label, Value: v, Color: c.Color})
	}
	return slices
}

package domain

// NavItem is a single navigation entry. Roles holds the roles permitted to
// use it; empty means any authenticated operator.
type NavItem struct {
	Title  string   `json:"title"`
	Path   string   `json:"path"`
	Roles  []string `json:"-"`
	Locked bool     `json:"locked,omitempty"`
}

// NavSection groups navigation entries under a heading.
type NavSection struct {
	Title string    `json:"title"`
	Roles []string  `json:"-"`
	Items []NavItem `json:"items"`
}

// DefaultNavigation is the console's declarative navigation tree.
var DefaultNavigation = []NavSection{
	{
		Title: "Infrastructure",
		Roles: []string{RoleSuperAdmin, RoleAdmin, RoleTechnician},
		Items: []NavItem{
			{Title: "Organizations", Path: "/app/organizations", Roles: []string{RoleSuperAdmin, RoleAdmin}},
			{Title: "Districts", Path: "/app/districts", Roles: []string{RoleSuperAdmin, RoleAdmin}},
			{Title: "Streets", Path: "/app/streets", Roles: []string{RoleSuperAdmin, RoleAdmin}},
			{Title: "Lighting objects", Path: "/app/objects", Roles: []string{RoleSuperAdmin, RoleAdmin, RoleTechnician}},
		},
	},
	{
		Title: "Operations",
		Roles: []string{RoleSuperAdmin, RoleAdmin, RoleTechnician},
		Items: []NavItem{
			{Title: "Map", Path: "/app/map", Roles: []string{RoleSuperAdmin, RoleAdmin, RoleTechnician}},
			{Title: "Work acts", Path: "/app/acts", Roles: []string{RoleSuperAdmin, RoleAdmin, RoleTechnician}},
		},
	},
	{
		Title: "Administration",
		Roles: []string{RoleSuperAdmin, RoleAdmin},
		Items: []NavItem{
			{Title: "Users", Path: "/app/admin/users", Roles: []string{RoleSuperAdmin}},
			{Title: "Audit log", Path: "/app/admin/audit", Roles: []string{RoleSuperAdmin, RoleAdmin}},
		},
	},
	{
		Title: "Account",
		Items: []NavItem{
			{Title: "Profile", Path: "/app/profile"},
		},
	},
}

// FilterNavigation returns the navigation visible to the given canonical
// role set. Sections and items whose role lists do not intersect the set are
// dropped, except for viewer-only operators, who see the full tree with
// inaccessible entries marked Locked instead of hidden.
func FilterNavigation(sections []NavSection, roles []string) []NavSection {
	viewer := DerivePermissions(roles).IsViewerOnly

	out := make([]NavSection, 0, len(sections))
	for _, sec := range sections {
		secAllowed := HasAnyRole(roles, sec.Roles...)
		if !secAllowed && !viewer {
			continue
		}
		filtered := NavSection{Title: sec.Title}
		for _, item := range sec.Items {
			itemAllowed := secAllowed && HasAnyRole(roles, item.Roles...)
			if !itemAllowed && !viewer {
				continue
			}
			item.Locked = !itemAllowed
			filtered.Items = append(filtered.Items, item)
		}
		if len(filtered.Items) > 0 {
			out = append(out, filtered)
		}
	}
	return out
}

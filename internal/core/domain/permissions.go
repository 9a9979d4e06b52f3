package domain

// Permissions is the capability snapshot derived from a canonical role set.
// It has no lifecycle of its own: recompute with DerivePermissions whenever
// the role set changes, never mutate an instance.
type Permissions struct {
	IsSuperAdmin bool `json:"is_super_admin"`
	IsAdmin      bool `json:"is_admin"`
	IsTechnician bool `json:"is_technician"`
	IsUser       bool `json:"is_user"`
	// IsViewerOnly marks the "no real privilege" state: the console shows
	// such operators a read-only, preview-capacity UI instead of bouncing
	// them off gated pages.
	IsViewerOnly bool `json:"is_viewer_only"`

	CanManageUsers        bool `json:"can_manage_users"`
	CanManageDictionaries bool `json:"can_manage_dictionaries"`
	CanManageActs         bool `json:"can_manage_acts"`
	CanAccessAdmin        bool `json:"can_access_admin"`
	CanAccessMap          bool `json:"can_access_map"`
}

// DerivePermissions computes the capability flags for a canonical role set.
// An empty set is treated as the plain USER role, not as an error. The
// feature flags are the privilege matrix of the console: this table is the
// only place to edit when the policy changes.
func DerivePermissions(roles []string) Permissions {
	p := Permissions{
		IsSuperAdmin: HasAnyRole(roles, RoleSuperAdmin),
		IsAdmin:      HasAnyRole(roles, RoleAdmin),
		IsTechnician: HasAnyRole(roles, RoleTechnician),
	}
	p.IsUser = len(roles) == 0 || HasAnyRole(roles, RoleUser)
	p.IsViewerOnly = p.IsUser && !p.IsSuperAdmin && !p.IsAdmin && !p.IsTechnician

	p.CanManageUsers = p.IsSuperAdmin
	p.CanManageDictionaries = p.IsSuperAdmin || p.IsAdmin
	p.CanManageActs = p.IsSuperAdmin || p.IsAdmin || p.IsTechnician
	p.CanAccessAdmin = p.IsSuperAdmin || p.IsAdmin
	p.CanAccessMap = p.IsSuperAdmin || p.IsAdmin || p.IsTechnician
	return p
}

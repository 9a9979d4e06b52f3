package domain

import "time"

// Canonical role vocabulary. Every raw role string observed on the wire is
// folded into one of these by the normalizer in role.go.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleTechnician = "TECHNICIAN"
	RoleUser       = "USER"
)

// Profile is the resolved "who am I" identity of the current operator.
// Roles is always the canonical, variant-expanded set; payload-shape
// branching stops at the API boundary.
type Profile struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// User models an account held by the built-in identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile projects the stored account into the identity returned by "me",
// with roles expanded to their canonical variants.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:    u.ID,
		Email: u.Email,
		Roles: ExpandRoles(u.Roles, "", ""),
	}
}

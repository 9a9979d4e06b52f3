package domain

import (
	"sort"
	"strings"
)

// rolePrefix is the structural prefix some backends attach to authority
// names (Spring-style "ROLE_ADMIN"). Membership checks must succeed with or
// without it, so every canonical role is expanded into both variants.
const rolePrefix = "ROLE_"

// roleAliases folds organization-specific role names into the canonical
// vocabulary. Keys are upper-case, prefix-stripped.
var roleAliases = map[string]string{
	"SUPERADMIN":    RoleSuperAdmin,
	"ROOT":          RoleSuperAdmin,
	"ORG_ADMIN":     RoleAdmin,
	"ORGADMIN":      RoleAdmin,
	"ADMINISTRATOR": RoleAdmin,
	"DISPATCHER":    RoleTechnician,
	"ENGINEER":      RoleTechnician,
	"TECH":          RoleTechnician,
	"VIEWER":        RoleUser,
	"MEMBER":        RoleUser,
}

// NormalizeRole maps an arbitrary raw role string to its canonical name:
// trim, upper-case, strip the structural prefix to a fixpoint, fold aliases.
// Stripping repeats so that stacked prefixes ("ROLE_ROLE_ADMIN") canonicalize
// in one pass, keeping the function idempotent. Empty or whitespace-only
// input normalizes to "".
func NormalizeRole(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(s)
	for strings.HasPrefix(s, rolePrefix) {
		s = strings.TrimPrefix(s, rolePrefix)
	}
	if canonical, ok := roleAliases[s]; ok {
		return canonical
	}
	return s
}

// RoleVariants returns the canonical role and its prefixed form for a raw
// role string, or nil when normalization yields nothing.
func RoleVariants(raw string) []string {
	canonical := NormalizeRole(raw)
	if canonical == "" {
		return nil
	}
	return []string{canonical, rolePrefix + canonical}
}

// ParseAuthorities splits a comma-separated authorities string, tolerating a
// single layer of enclosing brackets ("[ROLE_ADMIN, ROLE_USER]"). Empty
// entries are dropped.
func ParseAuthorities(csv string) []string {
	s := strings.TrimSpace(csv)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExpandRoles builds the canonical role set from the three shapes a profile
// payload may carry (a role list, a single role string, an authorities CSV)
// in any combination. The result is de-duplicated, variant-expanded, and
// sorted only for stable output; consumers must treat it as a set.
func ExpandRoles(roles []string, role string, authorities string) []string {
	seen := make(map[string]struct{})
	add := func(raw string) {
		for _, v := range RoleVariants(raw) {
			seen[v] = struct{}{}
		}
	}
	for _, r := range roles {
		add(r)
	}
	add(role)
	for _, r := range ParseAuthorities(authorities) {
		add(r)
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// HasAnyRole reports whether any variant of any required role is present in
// the given canonical set. An empty requirement always passes.
func HasAnyRole(set []string, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(set))
	for _, r := range set {
		have[r] = struct{}{}
	}
	for _, req := range required {
		for _, v := range RoleVariants(req) {
			if _, ok := have[v]; ok {
				return true
			}
		}
	}
	return false
}

package domain

import (
	"reflect"
	"sort"
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"admin", "ADMIN"},
		{"ROLE_ADMIN", "ADMIN"},
		{"  role_user  ", "USER"},
		{"ORG_ADMIN", "ADMIN"},
		{"ROLE_ORG_ADMIN", "ADMIN"},
		{"dispatcher", "TECHNICIAN"},
		{"viewer", "USER"},
		{"SUPER_ADMIN", "SUPER_ADMIN"},
		{"ROLE_ROLE_ADMIN", "ADMIN"},
		{"ROLE_ROLE_ROLE_USER", "USER"},
		{"", ""},
		{"   ", ""},
		{"UNKNOWN_ROLE", "UNKNOWN_ROLE"},
	}
	for _, tc := range cases {
		if got := NormalizeRole(tc.in); got != tc.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeRole_Idempotent(t *testing.T) {
	inputs := []string{
		"admin", "ROLE_ADMIN", "org_admin", "dispatcher", "", "weird role",
		"SUPER_ADMIN", "ROLE_ROLE_ADMIN", "role_role_org_admin", "ROLE_",
	}
	for _, in := range inputs {
		once := NormalizeRole(in)
		if twice := NormalizeRole(once); twice != once {
			t.Errorf("NormalizeRole not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestRoleVariants(t *testing.T) {
	got := RoleVariants("org_admin")
	want := []string{"ADMIN", "ROLE_ADMIN"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RoleVariants(org_admin) = %v, want %v", got, want)
	}

	if v := RoleVariants("   "); v != nil {
		t.Fatalf("expected nil variants for blank input, got %v", v)
	}
}

func TestParseAuthorities(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"[ROLE_ADMIN, ROLE_USER]", []string{"ROLE_ADMIN", "ROLE_USER"}},
		{"ROLE_ADMIN,ROLE_USER", []string{"ROLE_ADMIN", "ROLE_USER"}},
		{"[]", nil},
		{"", nil},
		{"  ", nil},
		{"[ROLE_ADMIN, , ROLE_USER,]", []string{"ROLE_ADMIN", "ROLE_USER"}},
	}
	for _, tc := range cases {
		if got := ParseAuthorities(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseAuthorities(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestExpandRoles_AllShapes(t *testing.T) {
	got := ExpandRoles([]string{"ORG_ADMIN"}, "dispatcher", "[ROLE_USER]")

	want := []string{"ADMIN", "ROLE_ADMIN", "ROLE_TECHNICIAN", "ROLE_USER", "TECHNICIAN", "USER"}
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandRoles = %v, want %v", got, want)
	}
}

func TestExpandRoles_DuplicateSources(t *testing.T) {
	// The same role arriving through every shape must not duplicate.
	got := ExpandRoles([]string{"ADMIN"}, "ROLE_ADMIN", "[admin]")
	want := []string{"ADMIN", "ROLE_ADMIN"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandRoles = %v, want %v", got, want)
	}
}

func TestExpandRoles_Empty(t *testing.T) {
	if got := ExpandRoles(nil, "", ""); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestHasAnyRole(t *testing.T) {
	set := ExpandRoles([]string{"ORG_ADMIN"}, "", "")

	if !HasAnyRole(set, "ADMIN") {
		t.Fatalf("expected ADMIN membership")
	}
	if !HasAnyRole(set, "ROLE_ADMIN") {
		t.Fatalf("expected ROLE_ADMIN membership via variant")
	}
	if HasAnyRole(set, "SUPER_ADMIN") {
		t.Fatalf("unexpected SUPER_ADMIN membership")
	}
	if !HasAnyRole(set) {
		t.Fatalf("empty requirement must always pass")
	}
	if HasAnyRole(nil, "USER") {
		t.Fatalf("empty set must not satisfy USER")
	}
}

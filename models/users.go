package models

// SystemRole is the platform-wide role of a user, independent of any tenant.
type SystemRole string

const (
	RoleSystemAdmin  SystemRole = "SystemAdmin"
	RoleStandardUser SystemRole = "StandardUser"
)

// UserProfile represents the authenticated user as served by the identity
// API. Profiles are replaced wholesale on login, refresh and logout; no code
// mutates one in place.
type UserProfile struct {
	ID          string                       `json:"id"`
	Email       string                       `json:"email"`
	DisplayName string                       `json:"display_name"`
	SystemRole  SystemRole                   `json:"system_role"`
	Memberships []OrganizationUnitMembership `json:"memberships"`
}

// IsSystemAdmin reports whether the profile carries the administrator role.
func (p *UserProfile) IsSystemAdmin() bool {
	return p != nil && p.SystemRole == RoleSystemAdmin
}

// Membership returns the membership for the given tenant slug, or nil when
// the user does not belong to that tenant.
func (p *UserProfile) Membership(tenant string) *OrganizationUnitMembership {
	if p == nil {
		return nil
	}
	for i := range p.Memberships {
		if p.Memberships[i].TenantSlug == tenant {
			return &p.Memberships[i]
		}
	}
	return nil
}

// OrganizationUnitMembership ties a user to one tenant and carries the
// per-resource permission grants inside that tenant.
type OrganizationUnitMembership struct {
	TenantSlug  string               `json:"tenant_slug"`
	Permissions []ResourcePermission `json:"permissions"`
}

// PermissionFor returns the stored level for a resource. A resource with no
// entry is NoAccess.
func (m *OrganizationUnitMembership) PermissionFor(resource Resource) PermissionLevel {
	if m == nil {
		return NoAccess
	}
	for _, rp := range m.Permissions {
		if rp.Resource == resource {
			return rp.Level
		}
	}
	return NoAccess
}

// ResourcePermission pairs a resource with the granted level. At most one
// entry exists per (tenant, resource) pair.
type ResourcePermission struct {
	Resource Resource        `json:"resource"`
	Level    PermissionLevel `json:"level"`
}

package permissions

import (
	"controlroom/pkg/models"
)

// ProfileSource yields the current cached profile. The credential store
// satisfies this.
type ProfileSource interface {
	Profile() *models.UserProfile
}

// TenantSource yields the currently active tenant slug. The tenant resolver
// satisfies this.
type TenantSource interface {
	Current() string
}

// Evaluator answers permission questions against the cached profile. It is
// a pure read over the store: no I/O, no memoization, safe to call on every
// render. A missing or still-loading profile always evaluates to deny.
type Evaluator struct {
	profiles ProfileSource
	tenants  TenantSource
}

// NewEvaluator binds an evaluator to its profile and tenant sources.
func NewEvaluator(profiles ProfileSource, tenants TenantSource) *Evaluator {
	return &Evaluator{profiles: profiles, tenants: tenants}
}

// HasPermission reports whether the current user holds at least the required
// level on a resource. An optional tenant overrides the active one; system
// administrators bypass the matrix entirely.
func (e *Evaluator) HasPermission(resource models.Resource, required models.PermissionLevel, tenant ...string) bool {
	profile := e.profiles.Profile()
	if profile == nil {
		return false
	}
	if profile.IsSystemAdmin() {
		return true
	}

	slug := e.tenants.Current()
	if len(tenant) > 0 && tenant[0] != "" {
		slug = tenant[0]
	}
	if slug == "" {
		return false
	}

	membership := profile.Membership(slug)
	if membership == nil {
		return false
	}
	return membership.PermissionFor(resource).Grants(required)
}

// HasAnyPermission reports whether the user holds the required level on at
// least one of the given resources. Used by pages that render when any of
// several tabs is visible.
func (e *Evaluator) HasAnyPermission(resources []models.Resource, required models.PermissionLevel, tenant ...string) bool {
	for _, r := range resources {
		if e.HasPermission(r, required, tenant...) {
			return true
		}
	}
	return false
}

// Level returns the stored level for a resource in a tenant, NoAccess when
// profile or membership is missing. System administrators report Delete.
func (e *Evaluator) Level(resource models.Resource, tenant ...string) models.PermissionLevel {
	profile := e.profiles.Profile()
	if profile == nil {
		return models.NoAccess
	}
	if profile.IsSystemAdmin() {
		return models.Delete
	}

	slug := e.tenants.Current()
	if len(tenant) > 0 && tenant[0] != "" {
		slug = tenant[0]
	}
	return profile.Membership(slug).PermissionFor(resource)
}

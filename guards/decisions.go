// Package guards decides whether protected dashboard surfaces render or
// redirect. The decision core is pure: a function from observed auth state
// to a Decision, with no I/O and no framework types, so every transition is
// unit-testable. HTTP adapters live in middleware.go.
package guards

import (
	"controlroom/pkg/models"
	"controlroom/pkg/permissions"
)

// State is the guard lifecycle phase.
type State int

const (
	Loading State = iota
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Default redirect targets.
const (
	LoginPath          = "/login"
	TenantSelectorPath = "/tenants"
)

// DashboardPath returns a tenant's landing page.
func DashboardPath(tenant string) string {
	return "/" + tenant + "/dashboard"
}

// Decision is the output of one guard evaluation. Redirect is set only for
// Unauthorized; protected content must not render in that case.
type Decision struct {
	State    State
	Redirect string
}

func allow() Decision   { return Decision{State: Authorized} }
func loading() Decision { return Decision{State: Loading} }

func deny(target string) Decision {
	return Decision{State: Unauthorized, Redirect: target}
}

// Input is the observed auth state a guard evaluates against. Consumers
// fill it from the credential store and tenant resolver on every
// navigation.
type Input struct {
	// Authenticated is false once the user is known to be logged out. A
	// logged-out user always redirects to login, whatever else is set.
	Authenticated bool
	// Profile is the cached profile, nil while none is loaded.
	Profile *models.UserProfile
	// ProfileLoading is true while a profile fetch is in flight and no
	// cached profile is available yet.
	ProfileLoading bool
	// Tenant is the resolved tenant slug, "" outside tenant routes.
	Tenant string
	// TenantLoading is true while membership data for the tenant is still
	// in flight.
	TenantLoading bool
}

// SystemAdmin gates administrator-only surfaces. fallback is where
// non-administrators land; "" means the tenant selector.
func SystemAdmin(in Input, fallback string) Decision {
	if fallback == "" {
		fallback = TenantSelectorPath
	}
	if !in.Authenticated {
		return deny(LoginPath)
	}
	if in.ProfileLoading || in.Profile == nil {
		return loading()
	}
	if in.Profile.IsSystemAdmin() {
		return allow()
	}
	return deny(fallback)
}

// Permission gates a surface on a per-tenant resource grant. redirect is
// where denied users land; "" means the tenant's dashboard.
func Permission(in Input, eval *permissions.Evaluator, resource models.Resource, required models.PermissionLevel, redirect string) Decision {
	if !in.Authenticated {
		return deny(LoginPath)
	}
	if in.ProfileLoading || in.Profile == nil || in.TenantLoading || in.Tenant == "" {
		return loading()
	}
	if eval.HasPermission(resource, required, in.Tenant) {
		return allow()
	}
	if redirect == "" {
		redirect = DashboardPath(in.Tenant)
	}
	return deny(redirect)
}

// Tenant gates tenant-scoped routes: it requires a logged-in user and a
// resolvable tenant segment. The profile refresh a tenant switch triggers
// is the resolver's job and never blocks this decision.
func Tenant(in Input) Decision {
	if in.ProfileLoading || in.TenantLoading {
		return loading()
	}
	if !in.Authenticated {
		return deny(LoginPath)
	}
	if in.Tenant == "" {
		return deny(TenantSelectorPath)
	}
	return allow()
}

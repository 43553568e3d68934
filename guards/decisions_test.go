package guards

import (
	"testing"

	"controlroom/pkg/models"
	"controlroom/pkg/permissions"
)

type staticProfile struct{ p *models.UserProfile }

func (s staticProfile) Profile() *models.UserProfile { return s.p }

type staticTenant struct{ slug string }

func (s staticTenant) Current() string { return s.slug }

func operatorProfile() *models.UserProfile {
	return &models.UserProfile{
		ID:         "u-1",
		SystemRole: models.RoleStandardUser,
		Memberships: []models.OrganizationUnitMembership{
			{
				TenantSlug: "acme",
				Permissions: []models.ResourcePermission{
					{Resource: models.ResourceAsset, Level: models.Update},
				},
			},
		},
	}
}

func TestSystemAdmin(t *testing.T) {
	admin := &models.UserProfile{SystemRole: models.RoleSystemAdmin}

	cases := []struct {
		name     string
		in       Input
		fallback string
		want     Decision
	}{
		{
			name: "logged out forces login redirect",
			in:   Input{Authenticated: false, Profile: admin},
			want: Decision{State: Unauthorized, Redirect: LoginPath},
		},
		{
			name: "loading while profile in flight",
			in:   Input{Authenticated: true, ProfileLoading: true},
			want: Decision{State: Loading},
		},
		{
			name: "administrator authorized",
			in:   Input{Authenticated: true, Profile: admin},
			want: Decision{State: Authorized},
		},
		{
			name: "standard user falls back to tenant selector",
			in:   Input{Authenticated: true, Profile: operatorProfile()},
			want: Decision{State: Unauthorized, Redirect: TenantSelectorPath},
		},
		{
			name:     "custom fallback honored",
			in:       Input{Authenticated: true, Profile: operatorProfile()},
			fallback: "/no-access",
			want:     Decision{State: Unauthorized, Redirect: "/no-access"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SystemAdmin(tc.in, tc.fallback); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPermission(t *testing.T) {
	eval := permissions.NewEvaluator(staticProfile{operatorProfile()}, staticTenant{"acme"})

	authed := Input{Authenticated: true, Profile: operatorProfile(), Tenant: "acme"}

	if got := Permission(authed, eval, models.ResourceAsset, models.View, ""); got.State != Authorized {
		t.Fatalf("expected Authorized, got %+v", got)
	}

	got := Permission(authed, eval, models.ResourceAsset, models.Delete, "")
	if got.State != Unauthorized || got.Redirect != "/acme/dashboard" {
		t.Fatalf("expected dashboard redirect, got %+v", got)
	}

	got = Permission(authed, eval, models.ResourceSchedule, models.View, "/denied")
	if got.State != Unauthorized || got.Redirect != "/denied" {
		t.Fatalf("expected caller-supplied redirect, got %+v", got)
	}

	if got := Permission(Input{Authenticated: true, ProfileLoading: true, Tenant: "acme"}, eval, models.ResourceAsset, models.View, ""); got.State != Loading {
		t.Fatalf("expected Loading while profile in flight, got %+v", got)
	}

	if got := Permission(Input{Authenticated: true, Profile: operatorProfile()}, eval, models.ResourceAsset, models.View, ""); got.State != Loading {
		t.Fatalf("expected Loading while tenant unresolved, got %+v", got)
	}

	if got := Permission(Input{}, eval, models.ResourceAsset, models.View, ""); got.Redirect != LoginPath {
		t.Fatalf("expected login redirect for logged-out user, got %+v", got)
	}
}

func TestTenant(t *testing.T) {
	// Unauthenticated user on a tenant-guarded route: Loading -> Unauthorized
	// with a login redirect.
	first := Tenant(Input{ProfileLoading: true})
	if first.State != Loading {
		t.Fatalf("expected Loading while auth in flight, got %+v", first)
	}
	second := Tenant(Input{Authenticated: false})
	if second.State != Unauthorized || second.Redirect != LoginPath {
		t.Fatalf("expected login redirect, got %+v", second)
	}

	got := Tenant(Input{Authenticated: true, Profile: operatorProfile()})
	if got.State != Unauthorized || got.Redirect != TenantSelectorPath {
		t.Fatalf("expected tenant selector redirect without a tenant segment, got %+v", got)
	}

	if got := Tenant(Input{Authenticated: true, Profile: operatorProfile(), Tenant: "acme"}); got.State != Authorized {
		t.Fatalf("expected Authorized, got %+v", got)
	}
}

func TestUnauthorizedNeverAllowsRender(t *testing.T) {
	// Every Unauthorized decision must carry a redirect target.
	decisions := []Decision{
		SystemAdmin(Input{}, ""),
		Permission(Input{}, permissions.NewEvaluator(staticProfile{nil}, staticTenant{""}), models.ResourceAsset, models.View, ""),
		Tenant(Input{Authenticated: true}),
	}
	for i, d := range decisions {
		if d.State == Unauthorized && d.Redirect == "" {
			t.Fatalf("decision %d is Unauthorized without a redirect", i)
		}
	}
}

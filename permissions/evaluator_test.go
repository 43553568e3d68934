package permissions

import (
	"testing"

	"controlroom/pkg/models"
)

type staticProfile struct {
	profile *models.UserProfile
}

func (s *staticProfile) Profile() *models.UserProfile { return s.profile }

type staticTenant struct {
	slug string
}

func (s *staticTenant) Current() string { return s.slug }

func acmeProfile() *models.UserProfile {
	return &models.UserProfile{
		ID:         "u-1",
		Email:      "ops@acme.test",
		SystemRole: models.RoleStandardUser,
		Memberships: []models.OrganizationUnitMembership{
			{
				TenantSlug: "acme",
				Permissions: []models.ResourcePermission{
					{Resource: models.ResourceAsset, Level: models.Update},
					{Resource: models.ResourceExecution, Level: models.View},
				},
			},
		},
	}
}

func newTestEvaluator(p *models.UserProfile, tenant string) *Evaluator {
	return NewEvaluator(&staticProfile{profile: p}, &staticTenant{slug: tenant})
}

func TestHasPermission_SystemAdminBypassesMatrix(t *testing.T) {
	admin := &models.UserProfile{ID: "a-1", SystemRole: models.RoleSystemAdmin}
	eval := newTestEvaluator(admin, "")

	for _, resource := range []models.Resource{models.ResourceBotAgent, models.ResourceSubscription, models.ResourceQueue} {
		for level := models.View; level <= models.Delete; level++ {
			if !eval.HasPermission(resource, level, "any-tenant") {
				t.Fatalf("admin denied %s at %s", resource, level)
			}
		}
	}
}

func TestHasPermission_NoProfileFailsClosed(t *testing.T) {
	eval := newTestEvaluator(nil, "acme")
	if eval.HasPermission(models.ResourceAsset, models.View) {
		t.Fatal("expected deny with no profile loaded")
	}
}

func TestHasPermission_NoMembershipDenies(t *testing.T) {
	eval := newTestEvaluator(acmeProfile(), "acme")
	if eval.HasPermission(models.ResourceAsset, models.View, "other-tenant") {
		t.Fatal("expected deny for tenant without membership")
	}
}

func TestHasPermission_OrderedScale(t *testing.T) {
	eval := newTestEvaluator(acmeProfile(), "acme")

	if !eval.HasPermission(models.ResourceAsset, models.View, "acme") {
		t.Fatal("Update grant should allow View")
	}
	if !eval.HasPermission(models.ResourceAsset, models.Update, "acme") {
		t.Fatal("Update grant should allow Update")
	}
	if eval.HasPermission(models.ResourceAsset, models.Delete, "acme") {
		t.Fatal("Update grant should not allow Delete")
	}
}

func TestHasPermission_MonotonicityAcrossLevels(t *testing.T) {
	eval := newTestEvaluator(acmeProfile(), "acme")

	allowed := false
	for level := models.Delete; level >= models.View; level-- {
		got := eval.HasPermission(models.ResourceAsset, level, "acme")
		if allowed && !got {
			t.Fatalf("deny at %s after allow at a higher level", level)
		}
		allowed = allowed || got
	}
	if !allowed {
		t.Fatal("expected at least View to be allowed")
	}
}

func TestHasPermission_MissingResourceIsNoAccess(t *testing.T) {
	eval := newTestEvaluator(acmeProfile(), "acme")
	if eval.HasPermission(models.ResourceSchedule, models.View, "acme") {
		t.Fatal("resource without an entry should evaluate as NoAccess")
	}
}

func TestHasPermission_UsesActiveTenantByDefault(t *testing.T) {
	eval := newTestEvaluator(acmeProfile(), "acme")
	if !eval.HasPermission(models.ResourceExecution, models.View) {
		t.Fatal("expected allow via active tenant")
	}

	eval = newTestEvaluator(acmeProfile(), "")
	if eval.HasPermission(models.ResourceExecution, models.View) {
		t.Fatal("expected deny with no active tenant and no override")
	}
}

func TestHasPermission_Idempotent(t *testing.T) {
	eval := newTestEvaluator(acmeProfile(), "acme")
	first := eval.HasPermission(models.ResourceAsset, models.Update, "acme")
	second := eval.HasPermission(models.ResourceAsset, models.Update, "acme")
	if first != second {
		t.Fatalf("evaluation not idempotent: %v then %v", first, second)
	}
}

func TestHasAnyPermission(t *testing.T) {
	eval := newTestEvaluator(acmeProfile(), "acme")
	resources := []models.Resource{models.ResourceSchedule, models.ResourceExecution}
	if !eval.HasAnyPermission(resources, models.View) {
		t.Fatal("expected allow via Execution grant")
	}
	if eval.HasAnyPermission(resources, models.Delete) {
		t.Fatal("expected deny at Delete for both resources")
	}
}

func TestLevel(t *testing.T) {
	eval := newTestEvaluator(acmeProfile(), "acme")
	if got := eval.Level(models.ResourceAsset); got != models.Update {
		t.Fatalf("expected Update, got %s", got)
	}
	if got := eval.Level(models.ResourceSchedule); got != models.NoAccess {
		t.Fatalf("expected NoAccess, got %s", got)
	}

	admin := &models.UserProfile{SystemRole: models.RoleSystemAdmin}
	if got := newTestEvaluator(admin, "acme").Level(models.ResourceAsset); got != models.Delete {
		t.Fatalf("expected Delete for admin, got %s", got)
	}
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMembershipLookup(t *testing.T) {
	profile := &UserProfile{
		Memberships: []OrganizationUnitMembership{
			{TenantSlug: "acme", Permissions: []ResourcePermission{{Resource: ResourceAsset, Level: Update}}},
			{TenantSlug: "globex"},
		},
	}

	assert.NotNil(t, profile.Membership("acme"))
	assert.NotNil(t, profile.Membership("globex"))
	assert.Nil(t, profile.Membership("initech"))
	assert.Nil(t, (*UserProfile)(nil).Membership("acme"))
}

func TestPermissionFor(t *testing.T) {
	m := &OrganizationUnitMembership{
		TenantSlug:  "acme",
		Permissions: []ResourcePermission{{Resource: ResourceAsset, Level: Update}},
	}

	assert.Equal(t, Update, m.PermissionFor(ResourceAsset))
	assert.Equal(t, NoAccess, m.PermissionFor(ResourceSchedule))
	assert.Equal(t, NoAccess, (*OrganizationUnitMembership)(nil).PermissionFor(ResourceAsset))
}

func TestGrantsIsOrdered(t *testing.T) {
	assert.True(t, Delete.Grants(View))
	assert.True(t, Update.Grants(Update))
	assert.False(t, View.Grants(Create))
	assert.False(t, NoAccess.Grants(View))
}

func TestIsSystemAdmin(t *testing.T) {
	assert.True(t, (&UserProfile{SystemRole: RoleSystemAdmin}).IsSystemAdmin())
	assert.False(t, (&UserProfile{SystemRole: RoleStandardUser}).IsSystemAdmin())
	assert.False(t, (*UserProfile)(nil).IsSystemAdmin())
}

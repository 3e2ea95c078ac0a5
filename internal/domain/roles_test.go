package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRoleLabel_KnownRoles(t *testing.T) {
	assert.Equal(t, "Super Admin", ResolveRoleLabel("super_admin"))
	assert.Equal(t, "Administrator", ResolveRoleLabel("admin"))
	assert.Equal(t, "Finance", ResolveRoleLabel("finance"))
	assert.Equal(t, "Supplier", ResolveRoleLabel("supplier"))
}

func TestResolveRoleLabel_NumericCodes(t *testing.T) {
	assert.Equal(t, "Super Admin", ResolveRoleLabel("1"))
	assert.Equal(t, "Administrator", ResolveRoleLabel("2"))
	assert.Equal(t, "Finance", ResolveRoleLabel("3"))
}

func TestResolveRoleLabel_UnknownPassesThrough(t *testing.T) {
	assert.Equal(t, "auditor", ResolveRoleLabel("auditor"))
}

func TestResolveRoleLabel_Empty(t *testing.T) {
	assert.Equal(t, "Unknown", ResolveRoleLabel(""))
}

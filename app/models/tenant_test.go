package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantIssueAPIKey(t *testing.T) {
	tenant := &Tenant{Handle: "acme"}
	require.False(t, tenant.HasAPIKey())

	key, err := tenant.IssueAPIKey()
	require.NoError(t, err)
	require.NotEmpty(t, key)

	assert.True(t, strings.HasPrefix(key, "qb_"))
	assert.Equal(t, key, tenant.APIKey)
	assert.Equal(t, HashAPIKey(key), tenant.APIKeyHash)
	assert.Equal(t, key[:12], tenant.APIKeyPrefix)
	assert.NotNil(t, tenant.APIKeyCreatedAt)
	assert.True(t, tenant.HasAPIKey())

	// 24 random bytes hex-encoded behind the prefix.
	assert.Len(t, strings.TrimPrefix(key, "qb_"), 48)
}

func TestTenantIssueAPIKeyIsUnique(t *testing.T) {
	tenant := &Tenant{Handle: "acme"}

	first, err := tenant.IssueAPIKey()
	require.NoError(t, err)
	second, err := tenant.IssueAPIKey()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, HashAPIKey(second), tenant.APIKeyHash)
}

func TestHashAPIKey(t *testing.T) {
	assert.Equal(t, HashAPIKey("qb_abc"), HashAPIKey(" qb_abc "))
	assert.NotEqual(t, HashAPIKey("qb_abc"), HashAPIKey("qb_abd"))
	assert.Len(t, HashAPIKey("qb_abc"), 64)
}

func TestTenantHasAPIKeyNilReceiver(t *testing.T) {
	var tenant *Tenant
	assert.False(t, tenant.HasAPIKey())
}

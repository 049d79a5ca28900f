package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenscope/internal/acl/models"
)

func extract(t *testing.T, f Field, token *models.Token) Value {
	t.Helper()
	ex, ok := Lookup(f)
	require.True(t, ok, "field %s must be registered", f)
	return ex(token, "ignored")
}

func TestScalarFieldsProjectUnchanged(t *testing.T) {
	token := &models.Token{
		AccessorID:  "6a1253d2-1785-24fd-91c2-f8e78c745511",
		Name:        "ci-deployer",
		Description: "  Deploys from CI  ",
	}

	tests := []struct {
		field    Field
		expected string
	}{
		{FieldName, "ci-deployer"},
		{FieldDescription, "  Deploys from CI  "},
		{FieldAccessorID, "6a1253d2-1785-24fd-91c2-f8e78c745511"},
	}
	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			v := extract(t, tt.field, token)
			assert.False(t, v.IsList())
			assert.Equal(t, tt.expected, v.Scalar())
		})
	}

	t.Run("absent scalars are empty strings", func(t *testing.T) {
		empty := &models.Token{}
		for _, f := range []Field{FieldName, FieldDescription, FieldAccessorID} {
			assert.Equal(t, "", extract(t, f, empty).Scalar())
		}
	})
}

func TestRoleField(t *testing.T) {
	t.Run("nil roles yield an empty list", func(t *testing.T) {
		v := extract(t, FieldRole, &models.Token{})
		assert.True(t, v.IsList())
		assert.NotNil(t, v.Strings())
		assert.Empty(t, v.Strings())
	})

	t.Run("empty roles yield an empty list", func(t *testing.T) {
		v := extract(t, FieldRole, &models.Token{Roles: []models.RoleLink{}})
		assert.Empty(t, v.Strings())
	})

	t.Run("names keep input order", func(t *testing.T) {
		token := &models.Token{Roles: []models.RoleLink{{Name: "a"}, {Name: "b"}}}
		assert.Equal(t, []string{"a", "b"}, extract(t, FieldRole, token).Strings())
	})
}

func TestPolicyField(t *testing.T) {
	t.Run("policies then service identities", func(t *testing.T) {
		token := &models.Token{
			Policies:          []models.PolicyLink{{Name: "p1"}},
			ServiceIdentities: []models.ServiceIdentity{{ServiceName: "s1"}},
			NodeIdentities:    []models.NodeIdentity{},
		}
		assert.Equal(t, []string{"p1", "s1"}, extract(t, FieldPolicy, token).Strings())
	})

	t.Run("all sources absent yields empty list", func(t *testing.T) {
		v := extract(t, FieldPolicy, &models.Token{})
		assert.True(t, v.IsList())
		assert.Empty(t, v.Strings())
	})

	t.Run("concatenation order and duplicates are preserved", func(t *testing.T) {
		token := &models.Token{
			Policies: []models.PolicyLink{{Name: "web"}, {Name: "global-management"}},
			ServiceIdentities: []models.ServiceIdentity{
				{ServiceName: "web"},
				{ServiceName: "api", Datacenters: []string{"dc1"}},
			},
			NodeIdentities: []models.NodeIdentity{{NodeName: "node-1", Datacenter: "dc1"}},
		}
		assert.Equal(t,
			[]string{"web", "global-management", "web", "api", "node-1"},
			extract(t, FieldPolicy, token).Strings())
	})
}

func TestExtractorsArePure(t *testing.T) {
	token := &models.Token{
		Name:              "reader",
		Roles:             []models.RoleLink{{ID: "r1", Name: "ops"}},
		Policies:          []models.PolicyLink{{ID: "p1", Name: "read"}},
		ServiceIdentities: []models.ServiceIdentity{{ServiceName: "db"}},
	}
	before := token.Clone()

	for _, f := range Fields() {
		first := extract(t, f, token)
		second := extract(t, f, token)
		assert.Equal(t, first, second, "field %s", f)
	}
	assert.Equal(t, before, token)
}

func TestExtractorIgnoresQueryValue(t *testing.T) {
	token := &models.Token{Name: "reader", Roles: []models.RoleLink{{Name: "ops"}}}
	for _, f := range Fields() {
		ex, ok := Lookup(f)
		require.True(t, ok)
		assert.Equal(t, ex(token, ""), ex(token, "something else"), "field %s", f)
	}
}

func TestLookupUnknownField(t *testing.T) {
	ex, ok := Lookup(Field("SecretID"))
	assert.False(t, ok)
	assert.Nil(t, ex)
}

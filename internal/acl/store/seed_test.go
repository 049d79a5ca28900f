package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	t.Run("decodes tokens with links and identities", func(t *testing.T) {
		doc := `
tokens:
  - accessor_id: 6a1253d2-1785-24fd-91c2-f8e78c745511
    secret: dev-secret
    name: ci
    description: CI deployer
    policies:
      - name: deploy
    roles:
      - name: builders
    service_identities:
      - service_name: web
        datacenters: [dc1]
    node_identities:
      - node_name: node-1
        datacenter: dc1
    local: true
    expiration_ttl: 24h
`
		seeds, err := ParseSeed(strings.NewReader(doc))
		require.NoError(t, err)
		require.Len(t, seeds, 1)

		st := seeds[0]
		assert.Equal(t, "6a1253d2-1785-24fd-91c2-f8e78c745511", st.AccessorID)
		assert.Equal(t, "dev-secret", st.Secret)
		assert.Equal(t, "ci", st.Name)
		assert.Equal(t, "deploy", st.Policies[0].Name)
		assert.Equal(t, "builders", st.Roles[0].Name)
		assert.Equal(t, []string{"dc1"}, st.ServiceIdentities[0].Datacenters)
		assert.Equal(t, "node-1", st.NodeIdentities[0].NodeName)
		assert.True(t, st.Local)
		assert.Equal(t, "24h", st.ExpirationTTL)
	})

	t.Run("rejects missing accessor ids", func(t *testing.T) {
		_, err := ParseSeed(strings.NewReader("tokens:\n  - name: anonymous\n"))
		assert.ErrorContains(t, err, "accessor_id is required")

		_, err = ParseSeed(strings.NewReader("tokens:\n  - accessor_id: \"  \"\n    name: blank\n"))
		assert.ErrorContains(t, err, "accessor_id is required")
	})

	t.Run("empty document yields no tokens", func(t *testing.T) {
		seeds, err := ParseSeed(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, seeds)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		_, err := ParseSeed(strings.NewReader("tokens:\n  - nmae: typo\n"))
		assert.Error(t, err)
	})

	t.Run("rejects invalid accessor ids", func(t *testing.T) {
		_, err := ParseSeed(strings.NewReader("tokens:\n  - accessor_id: not-a-uuid\n"))
		assert.Error(t, err)
	})

	t.Run("rejects duplicate accessor ids", func(t *testing.T) {
		doc := `
tokens:
  - accessor_id: 6a1253d2-1785-24fd-91c2-f8e78c745511
  - accessor_id: 6a1253d2-1785-24fd-91c2-f8e78c745511
`
		_, err := ParseSeed(strings.NewReader(doc))
		assert.ErrorContains(t, err, "duplicate")
	})
}

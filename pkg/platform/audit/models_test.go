package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, CategorySecurity, EventTokenDeleted.Category())
	assert.Equal(t, CategorySecurity, EventTokenSecretRejected.Category())
	assert.Equal(t, CategoryOperations, EventTokenCreated.Category())
	assert.Equal(t, CategoryOperations, EventTokensPurged.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}

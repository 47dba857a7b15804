package auditware_test

import (
	"testing"

	auditware "github.com/goliatone/go-auditware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySession(t *testing.T) {
	session := auditware.NewMemorySession()

	_, ok := session.Get(auditware.SessionKeyUser)
	assert.False(t, ok)

	session.Set(auditware.SessionKeyUser, testClaims())

	got, ok := session.Get(auditware.SessionKeyUser)
	require.True(t, ok)
	assert.Equal(t, testClaims(), got)

	session.Delete(auditware.SessionKeyUser)
	_, ok = session.Get(auditware.SessionKeyUser)
	assert.False(t, ok)

	// Deleting an absent key is a no-op.
	session.Delete("nope")
}

package auditware_test

import (
	"context"
	"testing"
	"time"

	auditware "github.com/goliatone/go-auditware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) auditware.Clock {
	return func() time.Time { return at }
}

func sessionWithClaims(claims auditware.ClaimMapping) *auditware.MemorySession {
	session := auditware.NewMemorySession()
	session.Set(auditware.SessionKeyUser, claims)
	return session
}

func liveClaims(expiresAt time.Time) auditware.ClaimMapping {
	claims := testClaims()
	claims["exp"] = float64(expiresAt.Unix())
	return claims
}

func TestBackendAuthenticate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newBackend := func(t *testing.T, store auditware.UserStore, opts ...auditware.BackendOption) *auditware.Backend {
		t.Helper()
		opts = append(opts, auditware.WithClock(fixedClock(now)))
		backend, err := auditware.NewBackend(store, testClaimKeys(), opts...)
		require.NoError(t, err)
		return backend
	}

	t.Run("no session entry yields anonymous", func(t *testing.T) {
		store := new(MockUserStore)
		backend := newBackend(t, store)

		identity, err := backend.Authenticate(ctx, auditware.NewMemorySession())
		require.NoError(t, err)
		assert.False(t, identity.IsAuthenticated())
		assert.Empty(t, identity.Roles)

		store.AssertNotCalled(t, "UpsertUser", mock.Anything, mock.Anything)
	})

	t.Run("nil session yields anonymous", func(t *testing.T) {
		backend := newBackend(t, new(MockUserStore))

		identity, err := backend.Authenticate(ctx, nil)
		require.NoError(t, err)
		assert.False(t, identity.IsAuthenticated())
	})

	t.Run("default claims yield synthetic identity without upsert", func(t *testing.T) {
		store := new(MockUserStore)
		backend := newBackend(t, store, auditware.WithDefaultClaims(testClaims()))

		identity, err := backend.Authenticate(ctx, auditware.NewMemorySession())
		require.NoError(t, err)
		assert.True(t, identity.IsAuthenticated())
		assert.True(t, identity.Synthetic)
		assert.Equal(t, "user-1", identity.ID)

		store.AssertNotCalled(t, "UpsertUser", mock.Anything, mock.Anything)
	})

	t.Run("live claims authenticate and upsert", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("UpsertUser", ctx, mock.Anything).Return(nil).Once()

		backend := newBackend(t, store)
		session := sessionWithClaims(liveClaims(now.Add(time.Hour)))

		identity, err := backend.Authenticate(ctx, session)
		require.NoError(t, err)
		assert.True(t, identity.IsAuthenticated())
		assert.False(t, identity.Synthetic)
		assert.Equal(t, "user-1", identity.ID)

		_, present := session.Get(auditware.SessionKeyUser)
		assert.True(t, present, "live session entry must be left alone")

		store.AssertExpectations(t)
	})

	t.Run("expired claims drop the entry and yield anonymous", func(t *testing.T) {
		store := new(MockUserStore)
		backend := newBackend(t, store)
		session := sessionWithClaims(liveClaims(now.Add(-time.Minute)))

		identity, err := backend.Authenticate(ctx, session)
		require.NoError(t, err)
		assert.False(t, identity.IsAuthenticated())

		_, present := session.Get(auditware.SessionKeyUser)
		assert.False(t, present, "expired entry must be removed")

		store.AssertNotCalled(t, "UpsertUser", mock.Anything, mock.Anything)
	})

	t.Run("exp exactly now counts as expired", func(t *testing.T) {
		backend := newBackend(t, new(MockUserStore))
		session := sessionWithClaims(liveClaims(now))

		identity, err := backend.Authenticate(ctx, session)
		require.NoError(t, err)
		assert.False(t, identity.IsAuthenticated())
	})

	t.Run("missing exp on a present entry is fatal", func(t *testing.T) {
		backend := newBackend(t, new(MockUserStore))
		session := sessionWithClaims(testClaims())

		_, err := backend.Authenticate(ctx, session)
		require.Error(t, err)
		assert.True(t, auditware.IsMissingClaimError(err))
	})

	t.Run("malformed exp is fatal", func(t *testing.T) {
		claims := testClaims()
		claims["exp"] = "not-a-number"

		backend := newBackend(t, new(MockUserStore))

		_, err := backend.Authenticate(ctx, sessionWithClaims(claims))
		require.Error(t, err)
		assert.True(t, auditware.IsMissingClaimError(err))
	})

	t.Run("non-mapping session entry is fatal", func(t *testing.T) {
		backend := newBackend(t, new(MockUserStore))
		session := auditware.NewMemorySession()
		session.Set(auditware.SessionKeyUser, "garbage")

		_, err := backend.Authenticate(ctx, session)
		require.Error(t, err)
		assert.True(t, auditware.IsMissingClaimError(err))
	})

	t.Run("upsert failure propagates", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("UpsertUser", ctx, mock.Anything).Return(auditware.ErrStoreUnavailable).Once()

		backend := newBackend(t, store)

		_, err := backend.Authenticate(ctx, sessionWithClaims(liveClaims(now.Add(time.Hour))))
		require.Error(t, err)
		assert.True(t, auditware.IsStoreUnavailableError(err))
	})

	t.Run("transform runs before parsing and spares the session copy", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("UpsertUser", ctx, mock.Anything).Return(nil).Once()

		transform := func(claims auditware.ClaimMapping) auditware.ClaimMapping {
			claims["roles"] = []string{"transformed"}
			return claims
		}

		backend := newBackend(t, store, auditware.WithClaimTransform(transform))
		raw := liveClaims(now.Add(time.Hour))
		session := sessionWithClaims(raw)

		identity, err := backend.Authenticate(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, []string{"transformed"}, identity.Roles)
		assert.Equal(t, []string{"reader", "editor"}, raw["roles"], "session claims stay untouched")
	})
}

func TestNewBackendValidation(t *testing.T) {
	t.Run("invalid claim keys rejected", func(t *testing.T) {
		keys := testClaimKeys()
		keys.Email = ""

		_, err := auditware.NewBackend(new(MockUserStore), keys)
		assert.Error(t, err)
	})

	t.Run("unparsable default claims rejected", func(t *testing.T) {
		_, err := auditware.NewBackend(new(MockUserStore), testClaimKeys(),
			auditware.WithDefaultClaims(auditware.ClaimMapping{"oid": "dev"}))
		require.Error(t, err)
		assert.True(t, auditware.IsMissingClaimError(err))
	})
}

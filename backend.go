package auditware

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Backend is the authentication state machine over the session's user entry.
// It is evaluated fresh on every request: validating and persisting per
// request keeps the stored user row in sync with the latest claims, so role
// changes made upstream propagate without a re-login.
type Backend struct {
	store         UserStore
	keys          ClaimKeys
	defaultClaims ClaimMapping
	transform     ClaimTransform
	logger        Logger
	clock         Clock
	metrics       MetricsCollector
}

type BackendOption func(*Backend)

// WithDefaultClaims configures a synthetic identity for environments without
// a live OAuth provider (local/dev). Requests without a session user entry
// authenticate as this identity instead of falling back to anonymous.
func WithDefaultClaims(claims ClaimMapping) BackendOption {
	return func(b *Backend) {
		b.defaultClaims = claims
	}
}

// WithClaimTransform installs a transform applied to live claim mappings
// before parsing. The session copy is not mutated.
func WithClaimTransform(transform ClaimTransform) BackendOption {
	return func(b *Backend) {
		b.transform = transform
	}
}

func WithBackendLogger(logger Logger) BackendOption {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithBackendMetrics(metrics MetricsCollector) BackendOption {
	return func(b *Backend) {
		b.metrics = normalizeMetrics(metrics)
	}
}

// WithClock overrides the expiry clock. Test seam.
func WithClock(clock Clock) BackendOption {
	return func(b *Backend) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// NewBackend creates a Backend writing through the given store. The claim key
// mapping is fixed for the lifetime of the backend.
func NewBackend(store UserStore, keys ClaimKeys, opts ...BackendOption) (*Backend, error) {
	if err := keys.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{
		store:   store,
		keys:    keys,
		logger:  defLogger{},
		clock:   time.Now,
		metrics: noopMetrics{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	if b.defaultClaims != nil {
		// Fail fast: a default mapping that cannot parse would otherwise break
		// every request in a no-OAuth environment.
		if _, err := ParseIdentity(b.defaultClaims, b.keys); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Authenticate resolves the current identity for the request session.
//
// No user entry: anonymous, or the configured default identity. Expired entry:
// the entry is removed from the session and the result is anonymous. Live
// entry: the claims are transformed, parsed, and the identity is upserted into
// the store before being returned. A malformed exp or claim mapping is fatal
// for the request, never treated as unauthenticated.
func (b *Backend) Authenticate(ctx context.Context, session Session) (*Identity, error) {
	raw, ok, err := sessionClaims(session)
	if err != nil {
		b.metrics.RecordAuthentication(AuthResultError)
		return nil, err
	}
	if !ok {
		if b.defaultClaims != nil {
			identity, err := ParseIdentity(b.defaultClaims, b.keys)
			if err != nil {
				b.metrics.RecordAuthentication(AuthResultError)
				return nil, err
			}
			identity.Synthetic = true
			b.metrics.RecordAuthentication(AuthResultDefault)
			return identity, nil
		}

		b.metrics.RecordAuthentication(AuthResultAnonymous)
		return AnonymousIdentity(), nil
	}

	expires, err := claimExpiry(raw)
	if err != nil {
		b.logger.Error("session claims have no usable exp: %v", err)
		b.metrics.RecordAuthentication(AuthResultError)
		return nil, err
	}

	now := b.clock().UTC()
	if !expires.After(now) {
		b.logger.Debug("session claims expired at %s, dropping", expires.Format(time.RFC3339))
		session.Delete(SessionKeyUser)
		b.metrics.RecordAuthentication(AuthResultExpired)
		return AnonymousIdentity(), nil
	}

	claims := raw
	if b.transform != nil {
		claims = b.transform(cloneClaims(raw))
	}

	identity, err := ParseIdentity(claims, b.keys)
	if err != nil {
		b.metrics.RecordAuthentication(AuthResultError)
		return nil, err
	}

	if err := b.store.UpsertUser(ctx, identity); err != nil {
		b.metrics.RecordAuthentication(AuthResultError)
		return nil, err
	}

	b.metrics.RecordAuthentication(AuthResultAuthenticated)

	return identity, nil
}

// sessionClaims reads the user entry. An entry that exists but is not a claim
// mapping is fatal rather than a silent fall-through to anonymous.
func sessionClaims(session Session) (ClaimMapping, bool, error) {
	if session == nil {
		return nil, false, nil
	}

	raw, ok := session.Get(SessionKeyUser)
	if !ok || raw == nil {
		return nil, false, nil
	}

	claims, ok := raw.(map[string]any)
	if !ok {
		return nil, false, ErrMissingClaim.Clone().WithMetadata(map[string]any{
			"reason": "session user entry is not a claim mapping",
		})
	}

	return claims, true, nil
}

// claimExpiry reads the exp claim through jwt.MapClaims so numeric JSON
// shapes (float64, json.Number, string) all parse consistently.
func claimExpiry(claims ClaimMapping) (time.Time, error) {
	expires, err := jwt.MapClaims(claims).GetExpirationTime()
	if err != nil {
		return time.Time{}, missingClaim("exp")
	}
	if expires == nil {
		return time.Time{}, missingClaim("exp")
	}

	return expires.Time, nil
}

func cloneClaims(claims ClaimMapping) ClaimMapping {
	out := make(ClaimMapping, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out
}

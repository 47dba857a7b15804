package auditware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ClaimMapping is the raw identity assertion returned by the OpenID provider.
// It is stored verbatim in the session under SessionKeyUser, including the
// "exp" expiry timestamp.
type ClaimMapping = map[string]any

// ClaimTransform mutates a claim mapping before it is parsed into an Identity.
// Used to normalize provider-specific shapes (nested department info,
// alternate role fields) into the configured ClaimKeys layout.
type ClaimTransform func(ClaimMapping) ClaimMapping

// Clock returns the current time. Injectable for tests.
type Clock func() time.Time

// Session keys read and written by this package. The session object itself is
// owned by the host framework; we only borrow these entries.
const (
	// SessionKeyUser holds the last claim mapping obtained from the provider.
	SessionKeyUser = "user"
	// SessionKeyNext holds the post-login redirect target.
	SessionKeyNext = "next"
)

// Session is the request-scoped session supplied by the host framework.
type Session interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
}

// SessionResolver extracts the framework session from an inbound request.
type SessionResolver func(r *http.Request) Session

// Token is the result of an authorization-code exchange. Userinfo is nil when
// the provider returned no identity payload, which callers treat as a benign
// redirect-to-login rather than an error.
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Expiry       time.Time
	Userinfo     ClaimMapping
}

// OAuthClient is the external OAuth2 collaborator the flow handlers delegate
// to. The provider/oidc subpackage has an OpenID Connect implementation.
type OAuthClient interface {
	// AuthorizeRedirect responds with a redirect to the provider's
	// authorization endpoint.
	AuthorizeRedirect(w http.ResponseWriter, r *http.Request) error

	// AuthorizeAccessToken completes the authorization-code exchange for the
	// callback request.
	AuthorizeAccessToken(r *http.Request) (*Token, error)
}

// UserStore persists identities. Satisfied by *StoreGateway.
type UserStore interface {
	UpsertUser(ctx context.Context, identity *Identity) error
}

// AccessLogStore appends audit records. Satisfied by *StoreGateway.
type AccessLogStore interface {
	InsertAccessLog(ctx context.Context, entry *AccessLogEntry) error
}

// Logger interface used across the package
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUDIT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUDIT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUDIT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUDIT "+newline(format), args...)
}

func newline(format string) string {
	if strings.HasSuffix(format, "\n") {
		return format
	}
	return format + "\n"
}

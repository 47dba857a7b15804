// Package auditware turns OpenID-style identity assertions stored in a host
// framework session into typed authenticated users, keeps those users synced
// into a relational store, and selectively records per-request access logs.
//
// Authentication:
//   - Backend evaluates the session's "user" claim mapping on every request:
//     expired claims drop back to an anonymous identity, live claims are parsed
//     through a configurable ClaimKeys mapping and upserted into the store
//     before the identity is returned. Validation is never silently downgraded;
//     a malformed claim mapping terminates the request.
//   - ClaimKeys is an immutable value passed explicitly into every parse so the
//     Identity parser stays referentially pure and safe to use in parallel.
//
// Audit logging:
//   - AccessLogger is a net/http middleware gated by a RouteGate over
//     chi-style path patterns. Requests from authenticated identities on
//     in-scope routes are appended to the access_logs table with the timestamp
//     captured at request start. With no configured routes the middleware is a
//     pure pass-through.
//
// OAuth flow:
//   - FlowHandlers exposes login, callback, and logout handlers that drive the
//     session keys the Backend reads. The authorization-code exchange itself is
//     delegated to an OAuthClient; see the provider/oidc subpackage for an
//     implementation backed by go-oidc and golang.org/x/oauth2.
package auditware

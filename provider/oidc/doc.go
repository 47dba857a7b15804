// Package oidc implements the auditware.OAuthClient boundary with a standard
// OpenID Connect authorization-code flow.
//
// Use this package to back auditware.FlowHandlers with any provider that
// publishes discovery metadata (Microsoft Entra, Google, Keycloak, Dex). The
// callback verifies the returned ID token against the provider's JWKS and
// hands its claims back as the session claim mapping.
package oidc

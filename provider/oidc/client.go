package oidc

import (
	"context"
	"net/http"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	auditware "github.com/goliatone/go-auditware"
)

const defaultStateCookie = "oauth_state"

// Config holds provider settings for the authorization-code flow.
type Config struct {
	// IssuerURL is the provider's issuer, used for metadata discovery.
	IssuerURL string

	ClientID     string
	ClientSecret string

	// RedirectURL is the absolute callback URL registered with the provider.
	RedirectURL string

	// Scopes beyond "openid". Optional.
	Scopes []string

	// StateCookieName overrides the CSRF state cookie name. Optional.
	StateCookieName string

	// CookieSecure sets the Secure flag on the state cookie.
	CookieSecure bool
}

// Client drives the authorization-code exchange against one OIDC provider.
type Client struct {
	cfg      Config
	oauth    oauth2.Config
	verifier *gooidc.IDTokenVerifier
}

var _ auditware.OAuthClient = (*Client)(nil)

// New discovers the provider metadata and builds a Client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	provider, err := gooidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "oidc discovery failed").
			WithMetadata(map[string]any{
				"issuer": cfg.IssuerURL,
			})
	}

	if cfg.StateCookieName == "" {
		cfg.StateCookieName = defaultStateCookie
	}

	return &Client{
		cfg: cfg,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       append([]string{gooidc.ScopeOpenID}, cfg.Scopes...),
		},
		verifier: provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// AuthorizeRedirect sends the user to the provider's authorization page with
// a fresh state nonce pinned in a short-lived cookie.
func (c *Client) AuthorizeRedirect(w http.ResponseWriter, r *http.Request) error {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, c.oauth.AuthCodeURL(state), http.StatusFound)

	return nil
}

// AuthorizeAccessToken completes the code exchange for the callback request.
// The ID token is verified against the provider's JWKS; its claims become the
// token's Userinfo. A token response without an ID token yields a Token with
// nil Userinfo, which the flow handlers treat as a redirect back to login.
func (c *Client) AuthorizeAccessToken(r *http.Request) (*auditware.Token, error) {
	if err := c.checkState(r); err != nil {
		return nil, err
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		return nil, auditware.ErrOAuthExchangeFailed.Clone().WithMetadata(map[string]any{
			"reason": "missing authorization code",
		})
	}

	oauthToken, err := c.oauth.Exchange(r.Context(), code)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "oauth token exchange failed").
			WithTextCode(auditware.TextCodeExchangeFailed).
			WithCode(errors.CodeUnauthorized)
	}

	token := &auditware.Token{
		AccessToken:  oauthToken.AccessToken,
		TokenType:    oauthToken.TokenType,
		RefreshToken: oauthToken.RefreshToken,
		Expiry:       oauthToken.Expiry,
	}

	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return token, nil
	}

	idToken, err := c.verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "id token verification failed").
			WithTextCode(auditware.TextCodeExchangeFailed).
			WithCode(errors.CodeUnauthorized)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "id token claims decode failed").
			WithTextCode(auditware.TextCodeExchangeFailed).
			WithCode(errors.CodeUnauthorized)
	}

	token.Userinfo = claims

	return token, nil
}

func (c *Client) checkState(r *http.Request) error {
	state := r.URL.Query().Get("state")

	cookie, err := r.Cookie(c.cfg.StateCookieName)
	if err != nil || state == "" || cookie.Value != state {
		return auditware.ErrOAuthExchangeFailed.Clone().WithMetadata(map[string]any{
			"reason": "state mismatch",
		})
	}

	return nil
}

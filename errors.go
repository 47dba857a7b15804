package auditware

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingClaim     = "audit_missing_claim"
	TextCodeStoreUnavailable = "audit_store_unavailable"
	TextCodeExchangeFailed   = "audit_oauth_exchange_failed"
)

// ErrMissingClaim is returned when a required field is absent from the claim
// mapping or the exp value cannot be parsed. Fatal for the current
// authentication attempt; never downgraded to an anonymous identity.
var ErrMissingClaim = errors.New("required claim missing or malformed", errors.CategoryAuth).
	WithTextCode(TextCodeMissingClaim).
	WithCode(errors.CodeUnauthorized)

// ErrStoreUnavailable is returned when a connect or write against the
// relational store fails. Surfaced uncaught; no retry happens here.
var ErrStoreUnavailable = errors.New("user store unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrOAuthExchangeFailed is returned when the delegated token exchange fails.
// A token response without userinfo is not an error, only a redirect to login.
var ErrOAuthExchangeFailed = errors.New("oauth token exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeExchangeFailed).
	WithCode(errors.CodeUnauthorized)

// IsMissingClaimError checks for claim parse failures.
func IsMissingClaimError(err error) bool {
	return hasTextCode(err, TextCodeMissingClaim)
}

// IsStoreUnavailableError checks for store connect/write failures.
func IsStoreUnavailableError(err error) bool {
	return hasTextCode(err, TextCodeStoreUnavailable)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

func missingClaim(key string) error {
	return ErrMissingClaim.Clone().WithMetadata(map[string]any{
		"claim": key,
	})
}

func storeUnavailable(op string, err error) error {
	return errors.Wrap(err, errors.CategoryOperation, "user store unavailable").
		WithTextCode(TextCodeStoreUnavailable).
		WithCode(errors.CodeInternal).
		WithMetadata(map[string]any{
			"operation": op,
		})
}

package auditware

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// ClaimKeys maps provider claim names to the semantic fields of an Identity.
// The value is immutable and passed explicitly into every parse; construct it
// once at startup and share it by value.
type ClaimKeys struct {
	// ID is the claim holding the user identifier. Ignored when EmailAsID.
	ID string
	// Name is the claim holding the display name.
	Name string
	// Email is the claim holding the email address.
	Email string
	// Roles is the claim holding the ordered list of role strings.
	Roles string
	// Department is the claim holding the department identifier. Empty means
	// the field is absent from parsed identities.
	Department string
	// DepartmentTree is the claim holding the ancestor department list. Empty
	// means the field is absent from parsed identities.
	DepartmentTree string
	// EmailAsID derives the identifier from the email's local part instead of
	// reading the ID claim.
	EmailAsID bool
}

// DefaultClaimKeys mirrors the flat claim shape most OpenID providers emit.
func DefaultClaimKeys() ClaimKeys {
	return ClaimKeys{
		ID:    "id",
		Name:  "name",
		Email: "email",
		Roles: "role",
	}
}

// Validate ensures the mapping can produce a non-empty identifier.
func (k ClaimKeys) Validate() error {
	err := validation.ValidateStruct(&k,
		validation.Field(&k.Name, validation.Required),
		validation.Field(&k.Email, validation.Required),
		validation.Field(&k.Roles, validation.Required),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid claim key mapping").
			WithCode(errors.CodeBadRequest)
	}

	if !k.EmailAsID && k.ID == "" {
		return errors.New("claim key mapping needs an id key unless EmailAsID is set", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	return nil
}

// Identity is the typed, derived representation of a principal. The zero
// value is not useful; use ParseIdentity or AnonymousIdentity.
type Identity struct {
	ID             string
	Name           string
	Email          string
	Roles          []string
	Department     string
	DepartmentTree []string

	// Synthetic marks the configured default/dev identity, decided once at
	// construction rather than by type switching.
	Synthetic bool

	authenticated bool
}

// AnonymousIdentity is the unauthenticated principal with an empty role set.
func AnonymousIdentity() *Identity {
	return &Identity{Roles: []string{}}
}

// IsAuthenticated reports whether the identity came from a live or default
// claim mapping.
func (i *Identity) IsAuthenticated() bool {
	return i != nil && i.authenticated
}

// DisplayName returns the name for presentation.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	return i.Name
}

func (i *Identity) String() string {
	if i == nil || !i.authenticated {
		return "identity(anonymous)"
	}
	return fmt.Sprintf("identity(id=%s email=%s roles=%v)", i.ID, i.Email, i.Roles)
}

// ParseIdentity builds an authenticated Identity from a raw claim mapping.
// Pure function of its inputs: no I/O, no shared state. A missing required
// claim or an empty derived id fails with ErrMissingClaim.
func ParseIdentity(claims ClaimMapping, keys ClaimKeys) (*Identity, error) {
	email, err := stringClaim(claims, keys.Email)
	if err != nil {
		return nil, err
	}

	var id string
	if keys.EmailAsID {
		id = strings.SplitN(email, "@", 2)[0]
	} else {
		if id, err = stringClaim(claims, keys.ID); err != nil {
			return nil, err
		}
	}

	if id == "" {
		return nil, missingClaim(keys.ID)
	}

	name, err := stringClaim(claims, keys.Name)
	if err != nil {
		return nil, err
	}

	roles, err := stringListClaim(claims, keys.Roles)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		ID:            id,
		Name:          name,
		Email:         email,
		Roles:         roles,
		authenticated: true,
	}

	// Optional fields only exist on the identity when their key is configured.
	if keys.Department != "" {
		if raw, ok := claims[keys.Department]; ok {
			department, ok := raw.(string)
			if !ok {
				return nil, missingClaim(keys.Department)
			}
			identity.Department = department
		}
	}

	if keys.DepartmentTree != "" {
		if _, ok := claims[keys.DepartmentTree]; ok {
			tree, err := stringListClaim(claims, keys.DepartmentTree)
			if err != nil {
				return nil, err
			}
			identity.DepartmentTree = tree
		}
	}

	return identity, nil
}

func stringClaim(claims ClaimMapping, key string) (string, error) {
	raw, ok := claims[key]
	if !ok {
		return "", missingClaim(key)
	}

	value, ok := raw.(string)
	if !ok {
		return "", missingClaim(key)
	}

	return value, nil
}

// stringListClaim accepts both []string and the []any a JSON decode produces.
func stringListClaim(claims ClaimMapping, key string) ([]string, error) {
	raw, ok := claims[key]
	if !ok {
		return nil, missingClaim(key)
	}

	switch list := raw.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, el := range list {
			s, ok := el.(string)
			if !ok {
				return nil, missingClaim(key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, missingClaim(key)
	}
}

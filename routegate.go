package auditware

import (
	"strings"
)

// RouteGate decides whether a request path is in scope for audit logging, and
// whether the query string should be recorded with it.
//
// Patterns are literal paths ("/reports") or chi-style route patterns
// ("/reports/{id}"); matching is on the first path segment, so any request
// under a configured root is in scope. A pattern whose first segment is a
// placeholder carries no literal prefix and is skipped.
type RouteGate struct {
	plain map[string]struct{}
	query map[string]struct{}
}

// NewRouteGate compiles the two pattern sets. The plain set marks routes for
// path-only logging; the query set additionally records the query string.
// A request matches the gate when it matches either set.
func NewRouteGate(plain, query []string) *RouteGate {
	return &RouteGate{
		plain: compileRoutes(plain),
		query: compileRoutes(query),
	}
}

// Empty reports whether no patterns are configured at all, letting callers
// short-circuit to a pass-through without evaluating anything.
func (g *RouteGate) Empty() bool {
	return g == nil || (len(g.plain) == 0 && len(g.query) == 0)
}

// Matches reports whether the request path is in scope, and whether matching
// routes want the query string included. Plain and query sets form a union
// for the in-scope decision; includeQuery is true only on a query-set match.
func (g *RouteGate) Matches(path string) (inScope, includeQuery bool) {
	if g.Empty() {
		return false, false
	}

	segment := firstSegment(path)
	if segment == "" {
		return false, false
	}

	_, includeQuery = g.query[segment]
	if includeQuery {
		return true, true
	}

	_, inScope = g.plain[segment]
	return inScope, false
}

func compileRoutes(patterns []string) map[string]struct{} {
	set := make(map[string]struct{}, len(patterns))

	for _, pattern := range patterns {
		segment := firstSegment(pattern)
		if segment == "" {
			continue
		}
		// Placeholder segments ("{id}") are route parameters, not literal
		// prefix tokens.
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			continue
		}
		set[segment] = struct{}{}
	}

	return set
}

func firstSegment(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}

	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}

	return trimmed
}

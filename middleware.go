package auditware

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ErrorHandler terminates a request that hit a fatal authentication or store
// error. The default maps rich error codes onto HTTP statuses.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// AuthenticationConfig wires the Backend into the middleware chain.
type AuthenticationConfig struct {
	Backend *Backend
	// Session resolves the framework session for a request. A nil resolver or
	// a nil session authenticates as anonymous (or the configured default).
	Session SessionResolver
	// ErrorHandler handles fatal claim/store errors. Optional.
	ErrorHandler ErrorHandler
	Logger       Logger
}

// Authentication resolves the request identity once, upstream of every other
// handler, and stores it in the request context. Claim and store failures end
// the request; they are never downgraded to anonymous.
func Authentication(cfg AuthenticationConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler(cfg.Logger)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var session Session
			if cfg.Session != nil {
				session = cfg.Session(r)
			}

			identity, err := cfg.Backend.Authenticate(r.Context(), session)
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// AccessLoggerConfig configures the audit middleware.
type AccessLoggerConfig struct {
	Store AccessLogStore
	Gate  *RouteGate
	// StatusCodes is the response-status allow-list. Empty logs every status.
	StatusCodes []int
	// ErrorHandler handles access-log write failures. Optional.
	ErrorHandler ErrorHandler
	Logger       Logger
	Clock        Clock
}

// AccessLogger records audit rows for authenticated requests on in-scope
// routes. The row timestamp is captured before the downstream handler runs,
// so it reflects when the request entered the system.
//
// With an empty gate the middleware returns the next handler untouched: no
// timing, no identity inspection, no store access.
func AccessLogger(cfg AccessLoggerConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler(cfg.Logger)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	statuses := make(map[int]struct{}, len(cfg.StatusCodes))
	for _, code := range cfg.StatusCodes {
		statuses[code] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if cfg.Gate.Empty() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !identity.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}

			inScope, includeQuery := cfg.Gate.Matches(r.URL.Path)
			if !inScope {
				next.ServeHTTP(w, r)
				return
			}

			start := cfg.Clock().UTC()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			if len(statuses) > 0 {
				if _, ok := statuses[rec.status]; !ok {
					return
				}
			}

			path := r.URL.Path
			if includeQuery && r.URL.RawQuery != "" {
				path += "?" + r.URL.RawQuery
			}

			entry := &AccessLogEntry{
				Time:   start,
				UserID: identity.ID,
				Method: r.Method,
				Path:   path,
				Status: rec.status,
			}

			if err := cfg.Store.InsertAccessLog(r.Context(), entry); err != nil {
				cfg.ErrorHandler(w, r, err)
			}
		})
	}
}

// statusRecorder captures the downstream response status without altering
// what is written to the client.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.written {
		rec.status = code
		rec.written = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if !rec.written {
		rec.status = http.StatusOK
		rec.written = true
	}
	return rec.ResponseWriter.Write(b)
}

func defaultErrorHandler(logger Logger) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}

		logger.Error(
			"request terminated: %s category=%s path=%s details=%s",
			richErr.Message,
			richErr.Category,
			r.URL.Path,
			print.MaybePrettyJSON(richErr.Metadata),
		)

		status := richErr.Code
		if status == 0 {
			status = http.StatusInternalServerError
		}

		http.Error(w, http.StatusText(status), status)
	}
}

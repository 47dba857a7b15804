package auditware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// FlowConfig configures the OAuth flow handlers.
type FlowConfig struct {
	OAuth   OAuthClient
	Session SessionResolver
	// DefaultRedirect is the fallback post-login target. Defaults to "/".
	DefaultRedirect string
	// LoginPath is where a callback without userinfo redirects. Defaults to
	// "/login".
	LoginPath string
	// ErrorHandler handles token-exchange failures. Optional.
	ErrorHandler ErrorHandler
	Logger       Logger
}

// FlowHandlers drives the login, callback, and logout session mutations. The
// handlers are stateless beyond the session they mutate: the Backend observes
// the result on the next request.
type FlowHandlers struct {
	cfg FlowConfig
}

// NewFlowHandlers creates the three OAuth flow handlers.
func NewFlowHandlers(cfg FlowConfig) *FlowHandlers {
	if cfg.DefaultRedirect == "" {
		cfg.DefaultRedirect = "/"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler(cfg.Logger)
	}

	return &FlowHandlers{cfg: cfg}
}

// RegisterRoutes mounts the handlers at the conventional paths.
func (h *FlowHandlers) RegisterRoutes(r chi.Router) {
	r.Get(h.cfg.LoginPath, h.Login)
	r.Get(h.cfg.LoginPath+"/auth", h.Callback)
	r.Get("/logout", h.Logout)
}

// Login redirects an already-authenticated user straight to the next target;
// everyone else is stashed a next target and sent to the provider's
// authorization page. The configured default/dev identity does not count as
// authenticated here, so local environments can still exercise the flow.
func (h *FlowHandlers) Login(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	session := h.session(r)

	if identity.IsAuthenticated() && !identity.Synthetic {
		http.Redirect(w, r, h.nextTarget(r, session), http.StatusFound)
		return
	}

	if next := r.URL.Query().Get(SessionKeyNext); next != "" && session != nil {
		session.Set(SessionKeyNext, next)
	}

	if err := h.cfg.OAuth.AuthorizeRedirect(w, r); err != nil {
		h.cfg.ErrorHandler(w, r, err)
	}
}

// Callback completes the code exchange. With userinfo present the claims are
// stored under the session user key and the stashed next target is consumed;
// without userinfo the user is bounced back to the login page untouched.
func (h *FlowHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	token, err := h.cfg.OAuth.AuthorizeAccessToken(r)
	if err != nil {
		h.cfg.ErrorHandler(w, r, err)
		return
	}

	session := h.session(r)
	redirect := h.cfg.LoginPath

	if token != nil && token.Userinfo != nil && session != nil {
		session.Set(SessionKeyUser, token.Userinfo)

		redirect = h.cfg.DefaultRedirect
		if next, ok := session.Get(SessionKeyNext); ok {
			if target, ok := next.(string); ok && target != "" {
				redirect = target
			}
			session.Delete(SessionKeyNext)
		}
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

// Logout removes the user entry from the session. No-op when absent.
func (h *FlowHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.session(r); session != nil {
		session.Delete(SessionKeyUser)
	}

	http.Redirect(w, r, h.cfg.DefaultRedirect, http.StatusFound)
}

func (h *FlowHandlers) session(r *http.Request) Session {
	if h.cfg.Session == nil {
		return nil
	}
	return h.cfg.Session(r)
}

// nextTarget resolves the redirect for an already-authenticated login: the
// next query parameter, then the stashed session target, then the default.
// Nothing is mutated, so repeated logins redirect identically.
func (h *FlowHandlers) nextTarget(r *http.Request, session Session) string {
	if next := r.URL.Query().Get(SessionKeyNext); next != "" {
		return next
	}

	if session != nil {
		if next, ok := session.Get(SessionKeyNext); ok {
			if target, ok := next.(string); ok && target != "" {
				return target
			}
		}
	}

	return h.cfg.DefaultRedirect
}

package middleware

import (
	"net/http"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/session"
)

// RejectFunc writes the response for a request a gate turned away.
type RejectFunc func(w http.ResponseWriter, r *http.Request, out authcore.Outcome)

// SeeOther redirects to the outcome's target with 303.
func SeeOther(w http.ResponseWriter, r *http.Request, out authcore.Outcome) {
	http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
}

// RequireAuthenticated passes requests whose session carries an
// authenticated account. Others are rejected, by default with a 303 to
// /login. Must be mounted inside [Sessions].
func RequireAuthenticated(engine *authcore.Engine, reject RejectFunc) func(http.Handler) http.Handler {
	return gate(authcore.OpRequireAuthenticated, engine.RequireAuthenticated, reject)
}

// RequireAnonymous passes requests without an authenticated account, by
// default redirecting signed-in users to /dashboard.
func RequireAnonymous(engine *authcore.Engine, reject RejectFunc) func(http.Handler) http.Handler {
	return gate(authcore.OpRequireAnonymous, engine.RequireAnonymous, reject)
}

func gate(op authcore.Operation, check func(*session.Session) error, reject RejectFunc) func(http.Handler) http.Handler {
	if reject == nil {
		reject = SeeOther
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := FromContext(r.Context())
			if err := check(sess); err != nil {
				reject(w, r, authcore.Describe(op, err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

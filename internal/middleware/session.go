package middleware

import (
	"net/http"

	"TASKPILOT_BACK-END/internal/session"
	"TASKPILOT_BACK-END/internal/utils"
)

// SessionMiddleware resolves the auth_session cookie to a user and injects
// both user and session into the request context. Requests without a valid,
// unexpired session are rejected with 401 before reaching the handler.
func SessionMiddleware(next http.HandlerFunc, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
			return
		}

		user, sess, err := sessions.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusInternalServerError, "Session validation failed", err.Error())
			return
		}
		if user == nil || sess == nil {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired session")
			return
		}

		next.ServeHTTP(w, r.WithContext(utils.WithUser(r.Context(), user, sess)))
	}
}

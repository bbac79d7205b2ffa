package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

/* An interface dependency avoids a cyclic import between `auth` and `directory`:
the middleware only needs to check user existence, not the full repository. */

const userNameKey = "userName"

// UserChecker is the slice of the directory repository the middleware needs.
type UserChecker interface {
	ExistsUserName(name string) bool
}

// Auth gates mutating routes behind an API key carrying a known user name.
// Password verification belongs to an external collaborator; the stored `pass`
// column is opaque to this service.
func Auth(ur UserChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {

			var name, err = parseBearer(request)

			if err != nil {
				reportUnauthorised(w)
				return
			}

			// verify the user exists
			if ur.ExistsUserName(name) {
				// derive a new context carrying the user's name for future reference
				next.ServeHTTP(w, request.WithContext(context.WithValue(request.Context(), userNameKey, name)))
			} else {
				reportUnauthorised(w)
			}

		})
	}
}

// parseBearer extracts the user name from the authorization header.
func parseBearer(request *http.Request) (string, error) {
	var header = request.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if name := header[7:]; name != "" {
			return name, nil
		}
	}
	return "", errors.New("bad authorization header")
}

func GetUserName(request *http.Request) (string, error) {
	var name = request.Context().Value(userNameKey)
	// return an error to detect a possibly missing auth middleware
	if name == nil {
		return "", errors.New("missing user name in request context")
	}
	return name.(string), nil
}

func reportUnauthorised(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
}

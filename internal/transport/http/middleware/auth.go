package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"tomato_backend/internal/httputil"
	"tomato_backend/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"
	// UserNameKey is the context key for the authenticated user's display name
	UserNameKey contextKey = "user_name"
)

// TokenVerifier checks session tokens. Implemented by service.TokenCodec.
type TokenVerifier interface {
	HasSecret() bool
	Verify(token string) (*model.SessionClaims, error)
}

// Outcome is the result of one interceptor: either continue with a
// (possibly enriched) context, or stop the request with an error reply.
type Outcome struct {
	ctx     context.Context
	stop    bool
	status  int
	code    string
	message string
}

// Continue lets the request proceed with ctx.
func Continue(ctx context.Context) Outcome {
	return Outcome{ctx: ctx}
}

// ShortCircuit ends the request with status and message. No later
// interceptor or handler runs.
func ShortCircuit(status int, code, message string) Outcome {
	return Outcome{stop: true, status: status, code: code, message: message}
}

// Interceptor inspects a request before it reaches the handler.
type Interceptor func(r *http.Request) Outcome

// Chain runs interceptors in order and stops at the first short circuit.
func Chain(interceptors ...Interceptor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, intercept := range interceptors {
				outcome := intercept(r)
				if outcome.stop {
					httputil.WriteError(w, outcome.status, outcome.code, outcome.message)
					return
				}
				if outcome.ctx != nil {
					r = r.WithContext(outcome.ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticate is the required-auth interceptor.
//
//	no token            -> 401 "No token provided"
//	secret not set      -> 500 "Internal Server Error"
//	verification failed -> 400 "Invalid token."
//	otherwise           -> subject and name attached to the context
func Authenticate(verifier TokenVerifier) Interceptor {
	return func(r *http.Request) Outcome {
		tokenString := bearerToken(r)
		if tokenString == "" {
			return ShortCircuit(http.StatusUnauthorized, model.CodeNoToken, model.MsgNoToken)
		}

		if !verifier.HasSecret() {
			log.Printf("[Auth] ERROR: session token secret is not configured")
			return ShortCircuit(http.StatusInternalServerError, httputil.ErrCodeInternal, model.MsgInternalFailure)
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			if errors.Is(err, model.ErrMissingSigningSecret) {
				log.Printf("[Auth] ERROR: session token secret is not configured")
				return ShortCircuit(http.StatusInternalServerError, httputil.ErrCodeInternal, model.MsgInternalFailure)
			}
			log.Printf("[Auth] Rejected token: %s %s: %v", r.Method, r.URL.Path, err)
			return ShortCircuit(http.StatusBadRequest, model.CodeTokenInvalid, model.MsgInvalidToken)
		}

		return Continue(withClaims(r.Context(), claims))
	}
}

// Identify is the optional-auth interceptor: a valid token attaches the
// caller's identity, anything else continues anonymously.
func Identify(verifier TokenVerifier) Interceptor {
	return func(r *http.Request) Outcome {
		tokenString := bearerToken(r)
		if tokenString == "" || !verifier.HasSecret() {
			return Continue(r.Context())
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			log.Printf("[Auth] Ignoring invalid token on optional route: %s %s: %v", r.Method, r.URL.Path, err)
			return Continue(r.Context())
		}
		return Continue(withClaims(r.Context(), claims))
	}
}

// RequireAuth wraps Authenticate as chi middleware.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return Chain(Authenticate(verifier))
}

// OptionalAuth wraps Identify as chi middleware.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return Chain(Identify(verifier))
}

func withClaims(ctx context.Context, claims *model.SessionClaims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
	return context.WithValue(ctx, UserNameKey, claims.DisplayName)
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or "" and false if not found
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetUserNameFromContext extracts the display name carried by the session token.
func GetUserNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(UserNameKey).(string)
	return name, ok
}

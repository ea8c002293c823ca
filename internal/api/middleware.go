package api

import (
	"bufio"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"aistudio/internal/auth"
)

// AuthMiddleware validates the Bearer token from the Authorization header and
// attaches the caller's session to the request context.
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeUnauthorized(w)
				return
			}
			if !auth.ValidateToken(parts[1], token) {
				writeUnauthorized(w)
				return
			}

			userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
			if userID == "" {
				userID = "local"
			}
			ctx := auth.WithSession(r.Context(), &auth.Session{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireSession is a helper that returns the session from context or writes
// a 401 error.
func requireSession(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		writeUnauthorized(w)
		return nil, false
	}
	return session, true
}

// LoggingMiddleware logs HTTP requests.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Printf("%s %s %d %v",
			r.Method,
			r.URL.Path,
			wrapped.status,
			time.Since(start),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

// RecovererMiddleware recovers from panics and returns a 500 error.
func RecovererMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %v\n%s", err, debug.Stack())
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

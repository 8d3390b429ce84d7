package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	iutils "staffLookupPortal/internal/utils"
	"staffLookupPortal/utils"
)

func (app *App) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		AppLogger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"duration_ms": duration.Milliseconds(),
			"status_code": wrapper.statusCode,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		}).Info("HTTP request completed")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (app *App) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				AppLogger.WithFields(logrus.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"panic":       fmt.Sprintf("%v", err),
					"remote_addr": r.RemoteAddr,
				}).Error("Panic recovered in HTTP handler")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware resolves the caller's session: the cookie carries only the
// session ID, the session store does the rest (registry first, durable store
// as fallback). Anything invalid gets a 401 and a cleared cookie.
func (app *App) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookieSession, err := app.CookieStore.Get(r, sessionCookieName)
		if err != nil {
			// Corrupted cookie: clear it and ask the caller to log in again.
			AppLogger.WithField("path", r.URL.Path).WithError(err).Debug("Failed to decode session cookie")
			app.clearSessionCookie(w, r)
			iutils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		sessionID, _ := cookieSession.Values["session_id"].(string)
		sess, ok := app.Sessions.Get(sessionID)
		if !ok {
			app.clearSessionCookie(w, r)
			iutils.RespondWithError(w, http.StatusUnauthorized, "Session expired or invalid")
			return
		}

		csrfToken, _ := cookieSession.Values["csrf_token"].(string)

		ctx := context.WithValue(r.Context(), utils.UsernameKey, sess.Username)
		ctx = context.WithValue(ctx, utils.RoleKey, sess.Role)
		ctx = context.WithValue(ctx, utils.SessionIDKey, sess.ID)
		ctx = context.WithValue(ctx, utils.CSRFTokenKey, csrfToken)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RoleMiddleware allows the request through only when the session role is in
// the allow-list. Must run after AuthMiddleware.
func (app *App) RoleMiddleware(allowed ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			role, ok := utils.GetRole(r)
			if !ok {
				iutils.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			for _, a := range allowed {
				if role == a {
					next.ServeHTTP(w, r)
					return
				}
			}

			AppLogger.WithFields(logrus.Fields{
				"role": role,
				"path": r.URL.Path,
			}).Warn("Access denied by role")
			iutils.RespondWithError(w, http.StatusForbidden, "Access denied - insufficient role")
		}
	}
}

func (app *App) CSRFMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" || r.Method == "PUT" || r.Method == "DELETE" {
			expectedToken, ok := utils.GetCSRFToken(r)
			if !ok {
				iutils.RespondWithError(w, http.StatusForbidden, "CSRF token not found in session")
				return
			}

			var providedToken string
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				providedToken = r.Header.Get("X-CSRF-Token")
			} else {
				providedToken = r.Header.Get("X-CSRF-Token")
				if providedToken == "" {
					providedToken = r.FormValue("csrf_token")
				}
			}

			if providedToken != expectedToken {
				AppLogger.WithField("path", r.URL.Path).Warn("CSRF token mismatch")
				iutils.RespondWithError(w, http.StatusForbidden, "CSRF token mismatch")
				return
			}
		}

		next.ServeHTTP(w, r)
	}
}

// RateLimitMiddleware guards a handler with the per-IP limiter. Used on login
// so credential guessing burns out quickly.
func (app *App) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !app.LoginLimiter.Allow(ip) {
			AppLogger.WithField("remote_addr", ip).Warn("Login rate limit exceeded")
			iutils.RespondWithError(w, http.StatusTooManyRequests, "Too many attempts, slow down")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

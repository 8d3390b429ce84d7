package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	iutils "staffLookupPortal/internal/utils"
	"staffLookupPortal/utils"
)

const sessionCookieName = "portal-session"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK        bool      `json:"ok"`
	User      string    `json:"user"`
	Role      string    `json:"role"`
	Expiry    time.Time `json:"expiry"`
	CSRFToken string    `json:"csrf_token"`
}

func (app *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		iutils.RespondWithError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := ValidateUsernameInput(req.Username); err != nil {
		iutils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	acct, err := app.Accounts.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			AppLogger.WithField("remote_addr", clientIP(r)).Info("Login rejected: bad credentials")
			// Wrong credentials never touch an existing session.
			iutils.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		iutils.RespondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	sess := app.Sessions.Create(acct.Username, acct.Role)

	csrfToken, err := GenerateCSRFToken()
	if err != nil {
		app.Sessions.Destroy(sess.ID)
		iutils.RespondWithError(w, http.StatusInternalServerError, "Security token error")
		return
	}

	cookieSession, err := app.CookieStore.Get(r, sessionCookieName)
	if err != nil {
		// Corrupted cookie: start a fresh one.
		cookieSession, err = app.CookieStore.New(r, sessionCookieName)
		if err != nil {
			app.Sessions.Destroy(sess.ID)
			iutils.RespondWithError(w, http.StatusInternalServerError, "Session error")
			return
		}
	}

	for k := range cookieSession.Values {
		delete(cookieSession.Values, k)
	}
	cookieSession.Values["session_id"] = sess.ID
	cookieSession.Values["csrf_token"] = csrfToken
	// MaxAge 0 makes this a browser-session cookie: closing the browser drops
	// it. That is best-effort only; the server-side TTL is the real boundary.
	cookieSession.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   app.Config.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	}

	if err := cookieSession.Save(r, w); err != nil {
		app.Sessions.Destroy(sess.ID)
		iutils.RespondWithError(w, http.StatusInternalServerError, "Session error")
		return
	}

	AppLogger.WithFields(logrus.Fields{
		"username": acct.Username,
		"role":     acct.Role,
		"expiry":   sess.ExpiresAt,
	}).Info("User logged in")

	iutils.RespondWithJSON(w, http.StatusOK, LoginResponse{
		OK:        true,
		User:      acct.Username,
		Role:      acct.Role,
		Expiry:    sess.ExpiresAt,
		CSRFToken: csrfToken,
	})
}

func (app *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := utils.GetSessionID(r); ok {
		app.Sessions.Destroy(sessionID)
	}
	app.clearSessionCookie(w, r)

	if username, ok := utils.GetUsername(r); ok {
		AppLogger.WithField("username", username).Info("User logged out")
	}
	iutils.RespondWithSuccess(w, nil, "Logout successful")
}

type MeResponse struct {
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Expiry   time.Time `json:"expiry"`
}

func (app *App) handleMe(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := utils.GetSessionID(r)
	sess, ok := app.Sessions.Get(sessionID)
	if !ok {
		iutils.RespondWithError(w, http.StatusUnauthorized, "Session expired or invalid")
		return
	}
	iutils.RespondWithJSON(w, http.StatusOK, MeResponse{
		Username: sess.Username,
		Role:     sess.Role,
		Expiry:   sess.ExpiresAt,
	})
}

func (app *App) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	if cookieSession, err := app.CookieStore.Get(r, sessionCookieName); err == nil && cookieSession != nil {
		for k := range cookieSession.Values {
			delete(cookieSession.Values, k)
		}
		cookieSession.Options.MaxAge = -1
		_ = cookieSession.Save(r, w)
		return
	}

	// Fall back to clearing the cookie manually if decoding failed.
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   app.Config.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"staffLookupPortal/internal/roster"
	"staffLookupPortal/internal/session"
)

type App struct {
	DB           *sql.DB
	CookieStore  *sessions.CookieStore
	Sessions     *session.Store
	Accounts     *AccountTable
	Roster       *roster.Loader
	LoginLimiter *RateLimiter
	Config       *Config
}

func main() {
	config, err := LoadConfig()
	if err != nil {
		fmt.Println("Failed to load configuration:", err)
		return
	}

	InitializeLogger(config)

	app, err := newApp(config)
	if err != nil {
		AppLogger.WithError(err).Fatal("Failed to initialize application")
	}
	if app.DB != nil {
		defer app.DB.Close()
	}
	defer app.Sessions.Close()

	app.LoginLimiter.StartCleanupRoutine()
	app.startSessionJanitor()

	// Warm the roster index in the background; a failure here is not fatal,
	// the first search retries and the upload path always works.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := app.Roster.Load(ctx); err != nil {
			AppLogger.WithError(err).Warn("Initial roster load failed")
			return
		}
		status := app.Roster.Index().Status()
		app.recordImport(status.Source, status.Count, "startup")
	}()

	r := app.Routes()

	AppLogger.WithField("port", config.Port).Info("Server starting")
	if err := http.ListenAndServe(":"+config.Port, r); err != nil {
		AppLogger.WithError(err).Fatal("Server stopped")
	}
}

// newApp wires the application from config. Opening the durable session store
// may fail (missing directory, read-only disk); that degrades the gate to
// memory-only sessions instead of refusing to start.
func newApp(config *Config) (*App, error) {
	accounts, err := LoadAccounts(config)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	var db *sql.DB
	var backend session.Backend
	if config.DatabasePath != "" {
		db, err = openDatabase(config.DatabasePath)
		if err != nil {
			AppLogger.WithField("path", config.DatabasePath).WithError(err).
				Warn("Session database unavailable; sessions will not survive restarts")
			db = nil
		} else {
			backend = newSQLSessionBackend(db)
		}
	}

	cookieStore := sessions.NewCookieStore(config.SessionSecret)
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   config.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	}

	index := roster.NewIndex()
	loader := roster.NewLoader(index, roster.LoaderConfig{
		Sources:     roster.ParseSources(config.RosterSources),
		SheetAPIKey: config.SheetAPIKey,
		SheetRange:  config.SheetRange,
		Logger:      AppLogger,
	})

	return &App{
		DB:           db,
		CookieStore:  cookieStore,
		Sessions:     session.NewStore(config.SessionTTL, backend, AppLogger),
		Accounts:     accounts,
		Roster:       loader,
		LoginLimiter: NewRateLimiter(10, 5),
		Config:       config,
	}, nil
}

// Routes builds the full router with the middleware chain.
func (app *App) Routes() *mux.Router {
	r := mux.NewRouter()

	r.Use(app.RecoveryMiddleware)
	r.Use(app.LoggingMiddleware)

	r.HandleFunc("/healthz", app.handleHealth).Methods("GET")

	r.HandleFunc("/api/login", app.RateLimitMiddleware(app.handleLogin)).Methods("POST")
	r.HandleFunc("/api/logout", app.AuthMiddleware(app.CSRFMiddleware(app.handleLogout))).Methods("POST")
	r.HandleFunc("/api/me", app.AuthMiddleware(app.handleMe)).Methods("GET")

	r.HandleFunc("/api/employee",
		app.AuthMiddleware(app.RoleMiddleware(session.RoleAdmin, session.RoleUser)(app.handleEmployeeLookup))).Methods("GET")
	r.HandleFunc("/api/roster/status",
		app.AuthMiddleware(app.RoleMiddleware(session.RoleAdmin, session.RoleUser)(app.handleRosterStatus))).Methods("GET")
	r.HandleFunc("/api/roster/reload",
		app.AuthMiddleware(app.RoleMiddleware(session.RoleAdmin)(app.CSRFMiddleware(app.handleRosterReload)))).Methods("POST")
	r.HandleFunc("/api/roster/upload",
		app.AuthMiddleware(app.RoleMiddleware(session.RoleAdmin)(app.CSRFMiddleware(app.handleRosterUpload)))).Methods("POST")

	return r
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}

// startSessionJanitor periodically purges expired sessions from the durable
// store. The per-session timers already cover the in-memory registry.
func (app *App) startSessionJanitor() {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			if n := app.Sessions.Sweep(); n > 0 {
				AppLogger.WithField("purged", n).Debug("Swept expired sessions")
			}
		}
	}()
}

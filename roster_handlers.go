package main

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"staffLookupPortal/internal/roster"
	iutils "staffLookupPortal/internal/utils"
	"staffLookupPortal/utils"
)

// maxUploadBytes caps roster uploads.
const maxUploadBytes = 32 << 20

// LookupResponse is the outcome of an employee search.
type LookupResponse struct {
	Found    bool             `json:"found"`
	Employee *roster.Employee `json:"employee,omitempty"`
}

// SourcesFailedResponse is returned when no candidate roster source could be
// loaded. It lists what was tried so the operator knows where the service
// looked, and points at the upload fallback.
type SourcesFailedResponse struct {
	Error    string           `json:"error"`
	Attempts []roster.Attempt `json:"attempts"`
	Hint     string           `json:"hint"`
}

func (app *App) handleEmployeeLookup(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if err := ValidateEmployeeCode(code); err != nil {
		iutils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Lazy, one-shot load: the first search pulls the roster in; after that
	// the in-memory index serves every lookup.
	if !app.Roster.Index().Loaded() {
		if err := app.Roster.Load(r.Context()); err != nil {
			app.respondLoadFailure(w, err)
			return
		}
		status := app.Roster.Index().Status()
		app.recordImport(status.Source, status.Count, "system")
	}

	rec, ok := app.Roster.Index().Search(code)
	if !ok {
		iutils.RespondWithJSON(w, http.StatusNotFound, LookupResponse{Found: false})
		return
	}

	employee := rec.Employee()
	iutils.RespondWithJSON(w, http.StatusOK, LookupResponse{Found: true, Employee: &employee})
}

func (app *App) handleRosterStatus(w http.ResponseWriter, r *http.Request) {
	status := app.Roster.Index().Status()

	payload := struct {
		roster.Status
		LastError string `json:"last_error,omitempty"`
	}{Status: status}
	if err := app.Roster.LastError(); err != nil {
		payload.LastError = err.Error()
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	iutils.RespondWithJSON(w, http.StatusOK, payload)
}

func (app *App) handleRosterReload(w http.ResponseWriter, r *http.Request) {
	username, _ := utils.GetUsername(r)

	if err := app.Roster.Reload(r.Context()); err != nil {
		app.respondLoadFailure(w, err)
		return
	}

	status := app.Roster.Index().Status()
	app.recordImport(status.Source, status.Count, username)
	AppLogger.WithFields(logrus.Fields{
		"username": username,
		"source":   status.Source,
		"rows":     status.Count,
	}).Info("Roster reloaded")

	iutils.RespondWithSuccess(w, status, "Roster reloaded")
}

func (app *App) handleRosterUpload(w http.ResponseWriter, r *http.Request) {
	username, _ := utils.GetUsername(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		iutils.RespondWithError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		iutils.RespondWithError(w, http.StatusBadRequest, "Missing roster file")
		return
	}
	defer file.Close()

	if err := ValidateUploadFilename(header.Filename); err != nil {
		iutils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := app.Roster.LoadFromUpload(header.Filename, file)
	if err != nil {
		AppLogger.WithField("file", header.Filename).WithError(err).Warn("Roster upload failed")
		iutils.RespondWithError(w, http.StatusUnprocessableEntity, "Could not parse the uploaded roster file")
		return
	}

	status := app.Roster.Index().Status()
	app.recordImport(status.Source, count, username)
	AppLogger.WithFields(logrus.Fields{
		"username": username,
		"file":     header.Filename,
		"rows":     count,
	}).Info("Roster replaced from upload")

	iutils.RespondWithSuccess(w, status, "Roster imported")
}

func (app *App) respondLoadFailure(w http.ResponseWriter, err error) {
	var loadErr *roster.LoadError
	if errors.As(err, &loadErr) {
		iutils.RespondWithJSON(w, http.StatusServiceUnavailable, SourcesFailedResponse{
			Error:    "No roster source could be loaded",
			Attempts: loadErr.Attempts,
			Hint:     "Upload a roster file via POST /api/roster/upload",
		})
		return
	}
	iutils.RespondWithError(w, http.StatusServiceUnavailable, "Roster load failed: "+err.Error())
}

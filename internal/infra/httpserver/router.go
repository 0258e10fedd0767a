package httpserver

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/M1CTIAN/potato-doc/internal/application/analysis"
	"github.com/M1CTIAN/potato-doc/internal/application/files"
	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
	"github.com/M1CTIAN/potato-doc/internal/middleware"
	"github.com/M1CTIAN/potato-doc/internal/presenter"
)

// uploadField is the multipart field the page posts its file under.
const uploadField = "file"

// maxFormMemory bounds how much of a parsed form stays in memory.
const maxFormMemory = 32 << 20

type Router struct {
	svc      *appanalysis.Service
	acquirer *files.Acquirer
}

func NewRouter(svc *appanalysis.Service, acquirer *files.Acquirer) http.Handler {
	r := &Router{svc: svc, acquirer: acquirer}
	mux := chi.NewRouter()

	mux.Post("/v1/sessions", r.wrap(r.handleCreate))
	mux.Get("/v1/sessions/{id}", r.wrap(r.handleSnapshot))
	mux.Post("/v1/sessions/{id}/files", r.wrap(r.handleSelectPicker))
	mux.Post("/v1/sessions/{id}/files/drop", r.wrap(r.handleSelectDrop))
	mux.Post("/v1/sessions/{id}/drag", r.wrap(r.handleDrag))
	mux.Post("/v1/sessions/{id}/reset", r.wrap(r.handleReset))
	mux.Delete("/v1/sessions/{id}", r.wrap(r.handleTeardown))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/sessions
func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) error {
	snap := r.svc.CreateSession()
	return writeJSON(w, http.StatusCreated, presenter.Present(snap))
}

// GET /v1/sessions/{id}
func (r *Router) handleSnapshot(w http.ResponseWriter, req *http.Request) error {
	snap, err := r.svc.Snapshot(sessionID(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, presenter.Present(snap))
}

// POST /v1/sessions/{id}/files
// Multipart body dari file picker: satu file di field "file".
func (r *Router) handleSelectPicker(w http.ResponseWriter, req *http.Request) error {
	return r.handleSelect(w, req, func(fhs []*multipart.FileHeader) (*domain.SelectedFile, error) {
		if len(fhs) == 0 {
			return r.acquirer.FromPicker(nil)
		}
		return r.acquirer.FromPicker(fhs[0])
	})
}

// POST /v1/sessions/{id}/files/drop
// Multipart body dari drag-drop: boleh banyak file, cuma yang pertama
// yang dipakai.
func (r *Router) handleSelectDrop(w http.ResponseWriter, req *http.Request) error {
	return r.handleSelect(w, req, r.acquirer.FromDrop)
}

func (r *Router) handleSelect(w http.ResponseWriter, req *http.Request, acquire func([]*multipart.FileHeader) (*domain.SelectedFile, error)) error {
	id := sessionID(req)

	// make sure the session exists before touching the body
	current, err := r.svc.Snapshot(id)
	if err != nil {
		return err
	}

	var headers []*multipart.FileHeader
	if err := req.ParseMultipartForm(maxFormMemory); err == nil && req.MultipartForm != nil {
		headers = req.MultipartForm.File[uploadField]
	}

	file, err := acquire(headers)
	if err != nil {
		if domain.IsRejection(err) {
			// selection diabaikan diam-diam, state tidak berubah
			middleware.IncrementUploadsRejected()
			return writeJSON(w, http.StatusOK, presenter.Present(current))
		}
		return err
	}

	snap, err := r.svc.Select(req.Context(), id, file)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, presenter.Present(snap))
}

// POST /v1/sessions/{id}/drag
// Body: {"active": true|false}, indikator visual saja.
func (r *Router) handleDrag(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return nil
	}

	snap, err := r.svc.SetDragActive(sessionID(req), body.Active)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, presenter.Present(snap))
}

// POST /v1/sessions/{id}/reset
func (r *Router) handleReset(w http.ResponseWriter, req *http.Request) error {
	snap, err := r.svc.Reset(sessionID(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, presenter.Present(snap))
}

// DELETE /v1/sessions/{id}
func (r *Router) handleTeardown(w http.ResponseWriter, req *http.Request) error {
	if err := r.svc.Teardown(sessionID(req)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func sessionID(req *http.Request) domain.SessionID {
	return domain.SessionID(chi.URLParam(req, "id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

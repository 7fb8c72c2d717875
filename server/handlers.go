// Package server exposes the workboard commands over HTTP. It owns no
// reconciliation logic: every route resolves the session's Board and
// delegates, translating the board's error taxonomy into status codes.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/openclerk/sheetboard/config"
	"github.com/openclerk/sheetboard/gateway"
	"github.com/openclerk/sheetboard/history"
	"github.com/openclerk/sheetboard/httperror"
	"github.com/openclerk/sheetboard/prom"
	"github.com/openclerk/sheetboard/session"
)

const maxUploadBytes = 32 << 20

// Server routes HTTP requests onto per-session Boards.
type Server struct {
	registry *Registry
	cfg      *config.Store
	journal  *history.Journal // may be nil
}

// New builds a Server over the given registry and shared stores.
func New(registry *Registry, cfg *config.Store, journal *history.Journal) *Server {
	return &Server{registry: registry, cfg: cfg, journal: journal}
}

// Router builds the chi route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/health", prom.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Get("/state", s.state)

		r.Get("/config", s.getConfig)
		r.Put("/config", s.putConfig)

		r.Post("/analyze", s.analyze)
		r.Post("/predict", s.predict)
		r.Post("/save", s.save)
		r.Get("/accounts", s.accounts)
		r.Get("/history", s.history)

		r.Route("/rows", func(r chi.Router) {
			r.Get("/", s.listRows)
			r.Post("/", s.insertRow)
			r.Patch("/{index}", s.updateRow)
			r.Delete("/{index}", s.deleteRow)
		})
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("Request")
		next.ServeHTTP(w, r)
	})
}

// sendError maps the board's error taxonomy onto status codes. Remote and
// transport failures both come back as 502 so the front end retries the
// same way; the two precondition failures carry their routing hint in the
// status.
func sendError(w http.ResponseWriter, r *http.Request, err error) {
	var remote *gateway.RemoteError
	switch {
	case errors.Is(err, gateway.ErrConfigurationMissing):
		httperror.Send(w, r, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, gateway.ErrNotAuthenticated):
		httperror.Send(w, r, http.StatusUnauthorized, err.Error())
	case errors.As(err, &remote):
		httperror.Send(w, r, http.StatusBadGateway, remote.Message)
	default:
		httperror.Send(w, r, http.StatusBadGateway, err.Error())
	}
}

func sendJSON(w http.ResponseWriter, doc any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)

	var body struct {
		Token            string `json:"token"`
		ExpiresInSeconds int64  `json:"expires_in_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		httperror.Send(w, r, http.StatusBadRequest, "invalid login payload")
		return
	}

	// A token in the payload means the front end already completed the
	// consent flow; an empty payload runs the interactive flow here.
	if body.Token != "" {
		cred := b.LoginWithToken(body.Token, time.Duration(body.ExpiresInSeconds)*time.Second)
		sendJSON(w, map[string]any{"expires_at": cred.ExpiresAt})
		return
	}

	cred, err := b.Login(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrAuthorizationUnavailable) {
			httperror.Send(w, r, http.StatusNotImplemented, err.Error())
			return
		}
		httperror.Send(w, r, http.StatusUnauthorized, err.Error())
		return
	}
	sendJSON(w, map[string]any{"expires_at": cred.ExpiresAt})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)
	_ = b.Logout(r.Context())
	s.registry.Drop(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)
	sendJSON(w, map[string]any{
		"logged_in":  b.Session().LoggedIn(),
		"configured": s.cfg.Load().Complete(),
		"items":      b.Items(),
	})
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	rec := s.cfg.Load()
	// The API key is write-only through this surface.
	sendJSON(w, map[string]any{
		"spreadsheet_id": rec.SpreadsheetID,
		"has_api_key":    rec.APIKey != "",
	})
}

func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey        string `json:"api_key"`
		SpreadsheetID string `json:"spreadsheet_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperror.Send(w, r, http.StatusBadRequest, "invalid config payload")
		return
	}
	rec := s.cfg.Load()
	if body.APIKey != "" {
		rec.APIKey = body.APIKey
	}
	if body.SpreadsheetID != "" {
		rec.SpreadsheetID = body.SpreadsheetID
	}
	if err := s.cfg.Save(rec); err != nil {
		httperror.Send(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httperror.Send(w, r, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	appendMode := r.FormValue("append") == "true"

	var files []gateway.File
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				httperror.Sendf(w, r, http.StatusBadRequest, "could not read upload %s", header.Filename)
				return
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				httperror.Sendf(w, r, http.StatusBadRequest, "could not read upload %s", header.Filename)
				return
			}
			files = append(files, gateway.File{Name: header.Filename, Content: content})
		}
	}
	if len(files) == 0 {
		httperror.Send(w, r, http.StatusBadRequest, "no files uploaded")
		return
	}

	items, err := b.Analyze(r.Context(), files, appendMode)
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendJSON(w, items)
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)
	applied, err := b.Predict(r.Context())
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendJSON(w, map[string]int{"applied": applied})
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)
	if err := b.Save(r.Context()); err != nil {
		sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) accounts(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)
	names, err := b.Accounts(r.Context())
	if err != nil {
		// Advisory data: the hint list failing is not worth an error
		// dialog, match the remote contract and degrade quietly.
		log.Warn().Err(err).Msg("Account list unavailable")
		sendJSON(w, map[string][]string{"accounts": {}})
		return
	}
	if names == nil {
		names = []string{}
	}
	sendJSON(w, map[string][]string{"accounts": names})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		sendJSON(w, []history.Commit{})
		return
	}
	commits, err := s.journal.Recent(50)
	if err != nil {
		httperror.Send(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if commits == nil {
		commits = []history.Commit{}
	}
	sendJSON(w, commits)
}

func (s *Server) listRows(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)
	sendJSON(w, b.Items())
}

func (s *Server) insertRow(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)
	var body struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		httperror.Send(w, r, http.StatusBadRequest, "invalid row payload")
		return
	}
	index := b.InsertRow(body.Date)
	sendJSON(w, map[string]int{"index": index})
}

func (s *Server) updateRow(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httperror.Send(w, r, http.StatusBadRequest, "invalid row index")
		return
	}
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperror.Send(w, r, http.StatusBadRequest, "invalid row payload")
		return
	}
	// Out-of-range edits are deliberately silent: the client re-renders
	// from /api/rows and self-heals.
	b.UpdateField(index, body.Field, body.Value)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteRow(w http.ResponseWriter, r *http.Request) {
	b := s.registry.Board(w, r)
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httperror.Send(w, r, http.StatusBadRequest, "invalid row index")
		return
	}
	b.DeleteRow(index)
	w.WriteHeader(http.StatusNoContent)
}

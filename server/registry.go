package server

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/openclerk/sheetboard/board"
)

const sessionCookie = "sheetboard_session"

// Registry maps session cookies to live Boards, instantiating one Board per
// user session on first sight.
type Registry struct {
	deps board.Deps

	mu     sync.Mutex
	boards map[string]*board.Board
}

// NewRegistry builds an empty registry over the shared collaborators.
func NewRegistry(deps board.Deps) *Registry {
	return &Registry{deps: deps, boards: make(map[string]*board.Board)}
}

// Len reports the number of live sessions, for the metrics gauge.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// Board returns the Board for the request's session, creating both the
// session and the Board if needed. The session cookie is set on the
// response when freshly issued.
func (r *Registry) Board(w http.ResponseWriter, req *http.Request) *board.Board {
	if c, err := req.Cookie(sessionCookie); err == nil {
		r.mu.Lock()
		b, ok := r.boards[c.Value]
		r.mu.Unlock()
		if ok {
			return b
		}
	}

	id := newSessionID()
	b := board.New(r.deps)
	r.mu.Lock()
	r.boards[id] = b
	r.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return b
}

// Drop removes the request's session, ending its Board. Called after
// logout: the credential store is already cleared, this just frees the
// slot.
func (r *Registry) Drop(req *http.Request) {
	c, err := req.Cookie(sessionCookie)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boards, c.Value)
}

func newSessionID() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

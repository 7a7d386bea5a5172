package ui

import (
	"embed"
	"html/template"
	"net/http"
	"sort"
	"sync"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// maxTurns bounds the timeline kept per session.
const maxTurns = 200

type Turn struct {
	Time       time.Time
	Utterance  string
	Normalized string
	Rule       string
	Acts       string
	Duration   string
}

type UIStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

func NewUIStore() *UIStore {
	return &UIStore{sessions: make(map[string][]Turn)}
}

// AddTurn records one recognized turn for a session.
func (s *UIStore) AddTurn(sessionID string, t Turn) {
	if t.Time.IsZero() {
		t.Time = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := append(s.sessions[sessionID], t)
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	s.sessions[sessionID] = turns
}

// Forget drops a session's timeline.
func (s *UIStore) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// snapshot returns a copy safe to read without the lock.
func (s *UIStore) snapshot() map[string][]Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]Turn, len(s.sessions))
	for k, v := range s.sessions {
		cp := make([]Turn, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// HandleIndex lists sessions, most recently active first.
func (s *UIStore) HandleIndex(w http.ResponseWriter, r *http.Request) {
	type row struct {
		ID    string
		Last  Turn
		Count int
	}

	data := s.snapshot()
	rows := make([]row, 0, len(data))
	for id, turns := range data {
		if len(turns) == 0 {
			continue
		}
		rows = append(rows, row{ID: id, Last: turns[len(turns)-1], Count: len(turns)})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Last.Time.After(rows[j].Last.Time)
	})

	render(w, "index.html", rows)
}

// HandleSession shows the full turn timeline of one session.
func (s *UIStore) HandleSession(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Redirect(w, r, "/ui", http.StatusFound)
		return
	}

	turns, ok := s.snapshot()[id]
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].Time.Before(turns[j].Time)
	})

	render(w, "session.html", struct {
		ID    string
		Turns []Turn
	}{ID: id, Turns: turns})
}

func render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

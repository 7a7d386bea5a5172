// Package session keeps the recognizer state each conversation carries
// between turns.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ccastromar/movie-nlu/internal/dialogue"
	"github.com/ccastromar/movie-nlu/internal/nlu"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string             `json:"id"`
	Memory    nlu.Memory         `json:"memory"`
	Offers    *dialogue.OfferLog `json:"offers"`
	Turns     int                `json:"turns"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func New(id string) *Session {
	return &Session{ID: id, Offers: dialogue.NewOfferLog(), UpdatedAt: time.Now()}
}

// Store persists sessions. Load returns ErrNotFound for unknown ids.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// LoadOrNew returns the stored session or a fresh one.
func LoadOrNew(ctx context.Context, st Store, id string) (*Session, error) {
	s, err := st.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return New(id), nil
	}
	if err != nil {
		return nil, err
	}
	if s.Offers == nil {
		s.Offers = dialogue.NewOfferLog()
	}
	return s, nil
}

// Locks serialises turns per session id.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*entry)}
}

// Lock blocks until id is free and returns its unlock func.
func (l *Locks) Lock(id string) func() {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &entry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *Locks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

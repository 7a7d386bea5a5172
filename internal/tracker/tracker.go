// Package tracker runs one recognition turn against a stored session.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ccastromar/movie-nlu/internal/dialogue"
	"github.com/ccastromar/movie-nlu/internal/logx"
	"github.com/ccastromar/movie-nlu/internal/metrics"
	"github.com/ccastromar/movie-nlu/internal/nlu"
	"github.com/ccastromar/movie-nlu/internal/session"
	"github.com/ccastromar/movie-nlu/internal/ui"
)

type Request struct {
	SessionID       string         `json:"session_id"`
	Utterance       string         `json:"utterance"`
	LastSysActs     []dialogue.Act `json:"last_sys_acts"`
	SystemMadeOffer bool           `json:"system_made_offer"`
}

type Result struct {
	SessionID  string             `json:"session_id"`
	Turn       int                `json:"turn"`
	Acts       []dialogue.Act     `json:"acts"`
	Normalized string             `json:"normalized"`
	Rule       string             `json:"rule"`
	Offers     *dialogue.OfferLog `json:"offers"`
}

type Tracker struct {
	nlu   *nlu.Recognizer
	store session.Store
	locks *session.Locks
	trace *ui.UIStore
}

// New wires a tracker. trace may be nil.
func New(rec *nlu.Recognizer, store session.Store, trace *ui.UIStore) *Tracker {
	return &Tracker{nlu: rec, store: store, locks: session.NewLocks(), trace: trace}
}

func (t *Tracker) Turn(ctx context.Context, req Request) (*Result, error) {
	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = uuid.NewString()
	}

	unlock := t.locks.Lock(id)
	defer unlock()

	sess, err := session.LoadOrNew(ctx, t.store, id)
	observeStore("load", err)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	for _, a := range req.LastSysActs {
		sess.Offers.Track(a)
	}

	state := dialogue.State{LastSysActs: req.LastSysActs, SystemMadeOffer: req.SystemMadeOffer}
	timer := logx.Start(id, "Tracker", "recognize")
	res := t.nlu.RecognizeTurn(&sess.Memory, req.Utterance, state, sess.Offers)
	took := timer.End()

	sess.Turns++
	sess.UpdatedAt = time.Now()
	err = t.store.Save(ctx, sess)
	observeStore("save", err)
	if err != nil {
		return nil, fmt.Errorf("saving session %s: %w", id, err)
	}

	t.record(id, req.Utterance, res, took)
	logx.L(id, "Tracker", "turn %d rule=%s acts=%s", sess.Turns, res.Rule, renderActs(res.Acts))

	return &Result{
		SessionID:  id,
		Turn:       sess.Turns,
		Acts:       res.Acts,
		Normalized: res.Normalized,
		Rule:       res.Rule,
		Offers:     sess.Offers,
	}, nil
}

// Session returns the stored state for id.
func (t *Tracker) Session(ctx context.Context, id string) (*session.Session, error) {
	s, err := t.store.Load(ctx, id)
	observeStore("load", err)
	return s, err
}

// Forget deletes a session and its trace.
func (t *Tracker) Forget(ctx context.Context, id string) error {
	unlock := t.locks.Lock(id)
	defer unlock()

	err := t.store.Delete(ctx, id)
	observeStore("delete", err)
	if err != nil {
		return err
	}
	if t.trace != nil {
		t.trace.Forget(id)
	}
	logx.L(id, "Tracker", "session forgotten")
	return nil
}

func (t *Tracker) Ping(ctx context.Context) error {
	return t.store.Ping(ctx)
}

func (t *Tracker) record(id, utterance string, res nlu.Result, took time.Duration) {
	for _, a := range res.Acts {
		metrics.Turns.Inc(map[string]string{"intent": string(a.Intent)})
	}
	metrics.RuleHits.Inc(map[string]string{"rule": res.Rule})
	metrics.RecognizeDur.Observe(map[string]string{"rule": res.Rule}, took.Seconds())

	if t.trace != nil {
		t.trace.AddTurn(id, ui.Turn{
			Utterance:  utterance,
			Normalized: res.Normalized,
			Rule:       res.Rule,
			Acts:       renderActs(res.Acts),
			Duration:   took.String(),
		})
	}
}

func observeStore(op string, err error) {
	outcome := "ok"
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		outcome = "error"
	}
	metrics.SessionOps.Inc(map[string]string{"op": op, "outcome": outcome})
}

func renderActs(acts []dialogue.Act) string {
	parts := make([]string, len(acts))
	for i, a := range acts {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Package nlu turns user utterances into dialogue acts for the movie domain.
package nlu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ccastromar/movie-nlu/internal/database"
	"github.com/ccastromar/movie-nlu/internal/dialogue"
	"github.com/ccastromar/movie-nlu/internal/logx"
	"github.com/ccastromar/movie-nlu/internal/ontology"
)

var (
	ErrMissingOntology = errors.New("nlu: ontology is required")
	ErrMissingDatabase = errors.New("nlu: database is required")
)

// Options configures a Recognizer. Either a live handle or a path must be set
// for both the ontology and the database.
type Options struct {
	Ontology     *ontology.Ontology
	OntologyPath string

	Database     database.Store
	DatabasePath string

	// columns split into lists when indexing; nil means the defaults
	MultiValued []string

	// overrides on top of DefaultPatterns
	Patterns Patterns
}

// Recognizer is shared read-only across sessions. Per-session state lives in
// Memory and the caller's OfferContext.
type Recognizer struct {
	onto     *ontology.Ontology
	index    *database.ValueIndex
	patterns Patterns
	match    *Matcher

	requestableOnly map[string]bool
	candidates      []candidate
	rules           []rule
}

// candidate is a slot value the brute-force pass looks for verbatim.
type candidate struct {
	slot   string
	value  string
	folded string
}

func New(ctx context.Context, opts Options) (*Recognizer, error) {
	onto := opts.Ontology
	if onto == nil {
		if opts.OntologyPath == "" {
			return nil, ErrMissingOntology
		}
		var err error
		if onto, err = ontology.Load(opts.OntologyPath); err != nil {
			return nil, err
		}
	}

	store := opts.Database
	if store == nil {
		if opts.DatabasePath == "" {
			return nil, ErrMissingDatabase
		}
		var err error
		if store, err = database.Open(ctx, opts.DatabasePath); err != nil {
			return nil, err
		}
		defer store.Close()
	}

	t := logx.Start("init", "NLU", "value index")
	index, err := database.BuildValueIndex(ctx, store, opts.MultiValued)
	if err != nil {
		return nil, fmt.Errorf("preprocessing database: %w", err)
	}
	t.End()
	logx.Info("NLU", "indexed %d values over %d columns from table %s", index.Len(), len(index.Slots()), store.TableName())

	return newRecognizer(onto, index, DefaultPatterns().Merge(opts.Patterns)), nil
}

func newRecognizer(onto *ontology.Ontology, index *database.ValueIndex, p Patterns) *Recognizer {
	r := &Recognizer{
		onto:            onto,
		index:           index,
		patterns:        p,
		requestableOnly: make(map[string]bool),
	}
	for _, s := range onto.RequestableOnly() {
		r.requestableOnly[s] = true
	}

	lists := [][]string{{helpWord}, p.Bye, p.Thanks, p.DontLike, p.Watched, p.Deny, p.Affirm, p.DontCare}
	for _, slot := range onto.InformableSlots() {
		lists = append(lists, onto.Patterns(slot))
	}
	r.match = NewMatcher(lists...)

	r.candidates = r.buildCandidates()
	r.rules = r.cascade()
	return r
}

// buildCandidates flattens the brute-force search space. Indexed values win
// over ontology patterns; only informable slots other than name can produce
// an act, so nothing else is kept.
func (r *Recognizer) buildCandidates() []candidate {
	var slots []string
	values := r.onto.Patterns
	if r.index != nil && r.index.Len() > 0 {
		slots = r.index.Slots()
		values = r.index.Values
	} else {
		slots = r.onto.InformableSlots()
	}

	var out []candidate
	for _, slot := range slots {
		if slot == dialogue.NameSlot || !r.onto.IsInformable(slot) {
			continue
		}
		// report the ontology's spelling when it knows the value
		canonical := make(map[string]string)
		for _, p := range r.onto.Patterns(slot) {
			canonical[foldValue(p)] = p
		}
		for _, v := range values(slot) {
			folded := foldValue(v)
			if v == "" || folded == "" {
				continue
			}
			if p, ok := canonical[folded]; ok {
				v = p
			}
			out = append(out, candidate{slot: slot, value: v, folded: folded})
		}
	}
	return out
}

func foldValue(s string) string {
	return stripPunctuation(strings.ToLower(s))
}

// knownValues lists what the recognizer can match for slot, used as the
// can't-help hint.
func (r *Recognizer) knownValues(slot string) []string {
	if r.index != nil && r.index.Has(slot) {
		return r.index.Values(slot)
	}
	return r.onto.Patterns(slot)
}

func (r *Recognizer) Ontology() *ontology.Ontology { return r.onto }
func (r *Recognizer) Index() *database.ValueIndex { return r.index }
func (r *Recognizer) Patterns() Patterns { return r.patterns }

// Memory is the per-session recall of the last act list that carried an offer.
type Memory struct {
	PrevActs []dialogue.Act `json:"prev_acts"`
}

func (m *Memory) remember(acts []dialogue.Act) {
	m.PrevActs = dialogue.CloneActs(acts)
}

func (m *Memory) recall() []dialogue.Act {
	return dialogue.CloneActs(m.PrevActs)
}

// Result is one recognized turn.
type Result struct {
	Acts       []dialogue.Act `json:"acts"`
	Normalized string         `json:"normalized"`
	// rule that decided the acts, and every rule that fired on the way
	Rule  string   `json:"rule"`
	Trail []string `json:"trail"`
}

// Recognize maps one utterance to dialogue acts. It never fails: input it
// cannot make sense of yields UNK or canthelp.
func (r *Recognizer) Recognize(mem *Memory, utterance string, state dialogue.State, offers dialogue.OfferContext) []dialogue.Act {
	return r.RecognizeTurn(mem, utterance, state, offers).Acts
}

func (r *Recognizer) RecognizeTurn(mem *Memory, utterance string, state dialogue.State, offers dialogue.OfferContext) Result {
	if mem == nil {
		mem = &Memory{}
	}
	if offers == nil {
		offers = noOffers{}
	}
	t := &turn{
		r:      r,
		mem:    mem,
		offers: offers,
		state:  state,
		raw:    utterance,
		text:   utterance,
		act:    dialogue.NewAct(dialogue.UNK),
	}
	for _, rl := range r.rules {
		if rl.when != nil && !rl.when(t) {
			continue
		}
		t.trail = append(t.trail, rl.name)
		intent, params := t.act.Intent, len(t.act.Params)
		if rl.then(t) {
			return Result{Acts: t.out, Normalized: t.text, Rule: t.deciding(rl.name), Trail: t.trail}
		}
		if !rl.fallback && (t.act.Intent != intent || len(t.act.Params) != params) {
			t.decided = rl.name
		}
	}
	// emit always finishes the turn
	return Result{Acts: []dialogue.Act{dialogue.NewAct(dialogue.UNK)}, Normalized: t.text, Rule: "none", Trail: t.trail}
}

type noOffers struct{}

func (noOffers) Offered(string) bool                             { return false }
func (noOffers) UpdateOffer(string, string, dialogue.OfferStatus) {}

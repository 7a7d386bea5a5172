package nlu

import (
	"strings"

	"github.com/ccastromar/movie-nlu/internal/dialogue"
)

// rule is one step of the turn cascade. Rules run in order; a rule whose when
// holds (or is nil) runs its then, and the turn ends at the first then that
// returns true. A fallback rule only defaults the pending act and is never
// reported as the rule that decided it.
type rule struct {
	name     string
	when     func(*turn) bool
	then     func(*turn) bool
	fallback bool
}

type turn struct {
	r      *Recognizer
	mem    *Memory
	offers dialogue.OfferContext
	state  dialogue.State

	raw  string
	text string
	last *dialogue.Act

	act   dialogue.Act
	out   []dialogue.Act
	trail []string

	// last rule that changed act
	decided string
	// emit stores its output in memory even without an offer
	keep bool
}

func (t *turn) lastIs(intent dialogue.Intent) bool {
	return t.last != nil && t.last.Intent == intent
}

func (t *turn) finish(acts ...dialogue.Act) bool {
	t.out = acts
	return true
}

const emitRule = "emit"

// deciding names the rule a turn is reported under. emit only renders the
// pending act, so its turns go to the rule that last changed that act. A turn
// ending in canthelp stays with emit.
func (t *turn) deciding(finisher string) string {
	if finisher != emitRule || t.decided == "" {
		return finisher
	}
	if len(t.out) == 1 && t.out[0].Intent == dialogue.CantHelp {
		return finisher
	}
	return t.decided
}

func (t *turn) add(slot, value string) {
	t.act.Params = append(t.act.Params, dialogue.NewItem(slot, value))
}

// requestedSlot is the slot the last system request asked about.
func (t *turn) requestedSlot() string {
	if t.last == nil || len(t.last.Params) == 0 {
		return ""
	}
	return t.last.Params[0].Slot
}

// markOffered sets status on every slot of the last system act still under offer.
func (t *turn) markOffered(status dialogue.OfferStatus) {
	if t.last == nil {
		return
	}
	for _, p := range t.last.Params {
		if t.offers.Offered(p.Slot) {
			t.offers.UpdateOffer(p.Slot, p.Value, status)
		}
	}
}

// replay repeats the remembered acts, or UNK when there are none.
func (t *turn) replay() []dialogue.Act {
	if prev := t.mem.recall(); len(prev) > 0 {
		return prev
	}
	return []dialogue.Act{dialogue.NewAct(dialogue.UNK)}
}

func (r *Recognizer) cascade() []rule {
	p := r.patterns
	afterOffer := func(t *turn) bool {
		return t.last != nil && t.state.SystemMadeOffer && !t.lastIs(dialogue.Feedback)
	}

	return []rule{
		{
			name: "empty",
			when: func(t *turn) bool { return strings.TrimSpace(t.raw) == "" },
			then: func(t *turn) bool {
				unk := dialogue.NewAct(dialogue.UNK)
				t.mem.remember([]dialogue.Act{unk})
				return t.finish(unk)
			},
		},
		{
			name: "context",
			then: func(t *turn) bool {
				if last, ok := t.state.LastSubstantive(); ok {
					t.last = &last
				}
				// a review is kept verbatim
				if !t.lastIs(dialogue.Feedback) {
					t.text = r.Normalize(t.raw, t.last)
				}
				return false
			},
		},
		{
			name: "help",
			when: func(t *turn) bool { return r.match.Contains(t.text, helpWord) },
			then: func(t *turn) bool { return t.finish(dialogue.NewAct(dialogue.Help)) },
		},
		{
			name: "thanks",
			when: func(t *turn) bool { return r.match.Any(t.text, p.Thanks) },
			then: func(t *turn) bool { return t.finish(dialogue.NewAct(dialogue.MoreInfo)) },
		},
		{
			name: "offer-affirm",
			when: func(t *turn) bool { return t.lastIs(dialogue.Offer) && r.match.Any(t.text, p.Affirm) },
			then: watchedOffer,
		},
		{
			name: "offer-watched",
			when: func(t *turn) bool { return afterOffer(t) && r.match.Any(t.text, p.Watched) },
			then: watchedOffer,
		},
		{
			name: "offer-dislike",
			when: func(t *turn) bool { return afterOffer(t) && r.match.Any(t.text, p.DontLike) },
			then: func(t *turn) bool {
				t.markOffered(dialogue.StatusDisliked)
				return t.finish(t.replay()...)
			},
		},
		{
			name: "feedback",
			when: func(t *turn) bool { return t.lastIs(dialogue.Feedback) },
			then: func(t *turn) bool {
				var out []dialogue.Act
				if name, ok := t.last.NameItem(); ok {
					out = append(out, dialogue.NewAct(dialogue.FeedbackGiven, dialogue.NewItem(name.Value, t.text)))
				}
				out = append(out, t.mem.recall()...)
				if len(out) == 0 {
					out = append(out, dialogue.NewAct(dialogue.UNK))
				}
				return t.finish(out...)
			},
		},
		{
			name: "dontcare",
			when: func(t *turn) bool {
				return (t.last == nil || t.lastIs(dialogue.Request)) && Exact(t.text, p.DontCare)
			},
			then: func(t *turn) bool {
				act := dialogue.NewAct(dialogue.Offer, dialogue.NewItem(t.requestedSlot(), dialogue.DontCare))
				t.mem.remember([]dialogue.Act{act})
				return t.finish(act)
			},
		},
		{
			name: "affirm",
			when: func(t *turn) bool { return t.act.Intent == dialogue.UNK && Exact(t.text, p.Affirm) },
			then: func(t *turn) bool {
				t.act.Intent = dialogue.Affirm
				return false
			},
		},
		{
			name: "bye",
			when: func(t *turn) bool { return t.act.Intent == dialogue.UNK && r.match.Any(t.text, p.Bye) },
			then: func(t *turn) bool {
				t.act.Intent = dialogue.Bye
				return false
			},
		},
		{
			name:     "no-info",
			when:     func(t *turn) bool { return t.act.Intent == dialogue.UNK },
			then:     noInfo,
			fallback: true,
		},
		{
			name: "slot-scan",
			when: func(t *turn) bool {
				return t.act.Intent == dialogue.Inform || t.act.Intent == dialogue.Request
			},
			then: scanSlots,
		},
		{
			name: "brute-force",
			when: func(t *turn) bool {
				return (t.act.Intent == dialogue.UNK || t.act.Intent == dialogue.Inform) && len(t.act.Params) == 0
			},
			then: bruteForce,
		},
		{
			name: emitRule,
			then: emit,
		},
	}
}

// watchedOffer records that the user has seen what was offered and asks for
// feedback on it.
func watchedOffer(t *turn) bool {
	t.markOffered(dialogue.StatusWatched)
	act := dialogue.NewAct(dialogue.Feedback)
	if name, ok := t.last.NameItem(); ok {
		act.Params = append(act.Params, name)
	}
	return t.finish(act)
}

// noInfo defaults the turn to inform and handles "no info" answers.
func noInfo(t *turn) bool {
	t.act.Intent = dialogue.Inform
	if !strings.Contains(t.text, noInfoPhrase) {
		return false
	}
	for _, slot := range t.r.onto.Requestable() {
		if strings.Contains(t.text, slot) {
			t.add(slot, dialogue.NoInfo)
			t.mem.remember([]dialogue.Act{t.act})
			return t.finish(t.act)
		}
	}
	if t.lastIs(dialogue.Request) {
		t.add(t.requestedSlot(), dialogue.DontCare)
		t.mem.remember([]dialogue.Act{t.act})
		return t.finish(t.act)
	}
	return false
}

// scanSlots walks the words looking for slot names, then for a value of the
// first informable slot named.
func scanSlots(t *turn) bool {
	r := t.r
	for _, word := range strings.Fields(t.text) {
		if r.requestableOnly[word] {
			if t.act.Intent == dialogue.Request {
				t.add(word, "")
				break
			}
			if word != dialogue.NameSlot {
				t.act.Intent = dialogue.Request
				t.add(word, "")
				break
			}
		}
		if !r.onto.IsInformable(word) {
			continue
		}
		if t.act.Intent == dialogue.Request {
			t.add(word, "")
			break
		}
		if value, ok := r.match.First(t.text, r.onto.Patterns(word)); ok {
			if word == dialogue.NameSlot {
				t.act.Intent = dialogue.Offer
			} else {
				t.act.Intent = dialogue.Inform
			}
			t.add(word, value)
			break
		}
		if r.match.Any(t.text, r.patterns.DontCare) {
			t.act.Intent = dialogue.Inform
			t.add(word, dialogue.DontCare)
			t.mem.remember([]dialogue.Act{t.act})
			return t.finish(t.act)
		}
		// the slot is known but its value is not: treat it as a question
		t.act.Intent = dialogue.Request
		t.add(word, "")
	}

	if t.lastIs(dialogue.Offer) {
		status := dialogue.StatusIgnored
		if t.act.Intent == dialogue.Request || t.act.Intent == dialogue.Inform {
			status = dialogue.StatusAcknowledged
		}
		t.markOffered(status)
	}
	return false
}

// bruteForce looks for any known value verbatim in the utterance. Hits are
// informs, split one per value on emit, and are remembered like an offer so a
// later rejection replays them.
func bruteForce(t *turn) bool {
	for _, c := range t.r.candidates {
		if !strings.Contains(t.text, c.folded) {
			continue
		}
		t.act.Intent = dialogue.Inform
		t.keep = true
		item := dialogue.NewItem(c.slot, c.value)
		if !t.act.Contains(item) {
			t.act.Params = append(t.act.Params, item)
		}
	}
	return false
}

func emit(t *turn) bool {
	switch {
	case t.act.Intent == dialogue.Inform && len(t.act.Params) == 0:
		return t.finish(t.cantHelp())
	case t.act.Intent == dialogue.Inform:
		t.out = splitInform(t.act.Params)
	default:
		t.out = []dialogue.Act{t.act}
	}
	if t.keep {
		t.mem.remember(t.out)
		return true
	}
	for _, a := range t.out {
		if a.Intent == dialogue.Offer {
			t.mem.remember(t.out)
			break
		}
	}
	return true
}

// splitInform drops incomplete items and emits one act per remaining item: an
// offer for a name, an inform for anything else.
func splitInform(items []dialogue.Item) []dialogue.Act {
	var out []dialogue.Act
	for _, it := range items {
		if it.Slot == "" || it.Value == "" {
			continue
		}
		intent := dialogue.Inform
		if it.Slot == dialogue.NameSlot {
			intent = dialogue.Offer
		}
		out = append(out, dialogue.NewAct(intent, it))
	}
	if len(out) == 0 {
		return []dialogue.Act{dialogue.NewAct(dialogue.UNK)}
	}
	return out
}

// cantHelp hints at the values the system knows for the slot it last asked about.
func (t *turn) cantHelp() dialogue.Act {
	act := dialogue.NewAct(dialogue.CantHelp)
	if t.last == nil {
		return act
	}
	hint := dialogue.NewItem("", "")
	if t.lastIs(dialogue.Request) {
		for _, p := range t.last.Params {
			if t.r.onto.IsSystemRequestable(p.Slot) {
				hint = dialogue.NewItem(p.Slot, strings.Join(t.r.knownValues(p.Slot), " | "))
				break
			}
		}
	}
	act.Params = append(act.Params, hint)
	return act
}

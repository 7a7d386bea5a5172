package dialogue

import "strings"

// Operator compares a slot against a value. Only EQ is produced.
type Operator string

const EQ Operator = "="

type Intent string

const (
	UNK           Intent = "UNK"
	Help          Intent = "help"
	MoreInfo      Intent = "moreinfo"
	Feedback      Intent = "feedback"
	FeedbackGiven Intent = "feedback_given"
	Offer         Intent = "offer"
	Inform        Intent = "inform"
	Request       Intent = "request"
	Affirm        Intent = "affirm"
	Bye           Intent = "bye"
	CantHelp      Intent = "canthelp"

	// system-side meta acts, skipped when looking for the last substantive act
	AckFeedback Intent = "ack_feedback"
)

// Sentinel values.
const (
	DontCare = "dontcare"
	NoInfo   = "no info"
)

// NameSlot identifies the recommended item.
const NameSlot = "name"

type Item struct {
	Slot  string   `json:"slot"`
	Op    Operator `json:"op"`
	Value string   `json:"value"`
}

func NewItem(slot, value string) Item {
	return Item{Slot: slot, Op: EQ, Value: value}
}

func (i Item) Equal(o Item) bool {
	return i.Slot == o.Slot && i.Op == o.Op && i.Value == o.Value
}

func (i Item) String() string {
	op := i.Op
	if op == "" {
		op = EQ
	}
	return i.Slot + string(op) + i.Value
}

type Act struct {
	Intent Intent `json:"intent"`
	Params []Item `json:"params"`
}

func NewAct(intent Intent, params ...Item) Act {
	if params == nil {
		params = []Item{}
	}
	return Act{Intent: intent, Params: params}
}

// Contains reports whether an item structurally equal to it is already present.
func (a Act) Contains(it Item) bool {
	for _, p := range a.Params {
		if p.Equal(it) {
			return true
		}
	}
	return false
}

// NameItem returns the first name item carrying a value.
func (a Act) NameItem() (Item, bool) {
	for _, p := range a.Params {
		if p.Slot == NameSlot && p.Value != "" {
			return p, true
		}
	}
	return Item{}, false
}

// Clone returns a deep copy so callers can keep it across turns.
func (a Act) Clone() Act {
	params := make([]Item, len(a.Params))
	copy(params, a.Params)
	return Act{Intent: a.Intent, Params: params}
}

func (a Act) String() string {
	parts := make([]string, len(a.Params))
	for i, p := range a.Params {
		parts[i] = p.String()
	}
	return string(a.Intent) + "(" + strings.Join(parts, ", ") + ")"
}

// CloneActs deep-copies a list of acts.
func CloneActs(acts []Act) []Act {
	out := make([]Act, len(acts))
	for i, a := range acts {
		out[i] = a.Clone()
	}
	return out
}

// State is the slice of dialogue state the recognizer reads.
type State struct {
	// most recent first
	LastSysActs     []Act `json:"last_sys_acts"`
	SystemMadeOffer bool  `json:"system_made_offer"`
}

// LastSubstantive returns the most recent system act that is not an
// acknowledgement or can't-help meta act.
func (s State) LastSubstantive() (Act, bool) {
	for _, a := range s.LastSysActs {
		if a.Intent == AckFeedback || a.Intent == CantHelp {
			continue
		}
		return a, true
	}
	return Act{}, false
}

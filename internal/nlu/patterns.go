package nlu

// Patterns are the word lists the recognizer keys its intents on.
type Patterns struct {
	Bye      []string
	Thanks   []string
	DontLike []string
	Watched  []string
	Deny     []string
	Affirm   []string
	DontCare []string
}

const helpWord = "help"

const noInfoPhrase = "no info"

func DefaultPatterns() Patterns {
	return Patterns{
		Bye:      []string{"bye", "goodbye", "exit", "quit", "stop"},
		Thanks:   []string{"thanks", "thankyou", "thank"},
		DontLike: []string{"something else", "anything else", "dont like it", "not this", "another"},
		Watched:  []string{"watched", "seen"},
		Deny:     []string{"no", "nope", "nah", "not"},
		Affirm:   []string{"yes", "sure"},
		DontCare: []string{
			"anything", "any", "i do not care", "i dont care", "dont care", "dontcare",
			"it does not matter", "it doesnt matter", "does not matter", "doesnt matter",
		},
	}
}

// Merge replaces every list that o sets.
func (p Patterns) Merge(o Patterns) Patterns {
	pick := func(base, over []string) []string {
		if len(over) > 0 {
			return append([]string(nil), over...)
		}
		return base
	}
	return Patterns{
		Bye:      pick(p.Bye, o.Bye),
		Thanks:   pick(p.Thanks, o.Thanks),
		DontLike: pick(p.DontLike, o.DontLike),
		Watched:  pick(p.Watched, o.Watched),
		Deny:     pick(p.Deny, o.Deny),
		Affirm:   pick(p.Affirm, o.Affirm),
		DontCare: pick(p.DontCare, o.DontCare),
	}
}

// Lists returns every list keyed by its definitions name.
func (p Patterns) Lists() map[string][]string {
	return map[string][]string{
		"bye":      p.Bye,
		"thanks":   p.Thanks,
		"dontlike": p.DontLike,
		"watched":  p.Watched,
		"deny":     p.Deny,
		"affirm":   p.Affirm,
		"dontcare": p.DontCare,
	}
}

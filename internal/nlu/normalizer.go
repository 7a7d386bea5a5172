package nlu

import (
	"regexp"
	"strings"

	"github.com/ccastromar/movie-nlu/internal/dialogue"
)

// keptPunctuation survives stripping; every other ASCII punctuation mark goes.
const keptPunctuation = "$_&-"

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) && !strings.ContainsRune(keptPunctuation, r) {
			return -1
		}
		return r
	}, s)
}

type fold struct {
	re *regexp.Regexp
	to string
}

func folds(to string, words ...string) []fold {
	out := make([]fold, len(words))
	for i, w := range words {
		out[i] = fold{re: regexp.MustCompile(`\b` + w + `\b`), to: to}
	}
	return out
}

// foldStep is applied in order. A step marked exclusive stops at its first
// matching fold; otherwise every fold in the step runs. Fallback folds run
// only when nothing in the step matched.
type foldStep struct {
	exclusive bool
	folds     []fold
	fallback  []fold
}

// Folds match on word boundaries, so an already canonical token such as
// title_year or imdb_score never folds twice.
var vocabulary = []foldStep{
	{folds: folds("director_name", `director name`), fallback: folds("director_name", `directors?`, `directed`)},
	{exclusive: true, folds: folds("imdb_score", `imdb score`, `scores?`, `imdb`, `ratings?`)},
	{folds: folds("genres", `genre`, `moives?`)},
	{folds: folds("plot_keywords", `plot`)},
	{exclusive: true, folds: folds("plot_keywords", `more`, `about`, `storyline`)},
	{folds: folds("actors", `actor names`, `acted`, `actor`, `stars?`)},
	{folds: folds("title_year", `released?`, `years?`)},
	{folds: folds("duration", `long`)},
}

func (s foldStep) apply(text string) string {
	hit := false
	for _, f := range s.folds {
		if !f.re.MatchString(text) {
			continue
		}
		text = f.re.ReplaceAllString(text, f.to)
		hit = true
		if s.exclusive {
			break
		}
	}
	if !hit {
		for _, f := range s.fallback {
			text = f.re.ReplaceAllString(text, f.to)
		}
	}
	return text
}

// Normalize lower-cases, strips punctuation and folds domain vocabulary onto
// slot names. After an offer, a denial asks for other genres.
func (r *Recognizer) Normalize(utterance string, lastSysAct *dialogue.Act) string {
	text := stripPunctuation(strings.ToLower(strings.TrimRight(utterance, " \t\r\n")))

	if lastSysAct != nil && lastSysAct.Intent == dialogue.Offer && r.match.Any(text, r.patterns.Deny) {
		text += " genres"
	}

	for _, step := range vocabulary {
		text = step.apply(text)
	}
	return strings.TrimSpace(text)
}

package nlu

import (
	"regexp"
	"strings"
)

// Matcher tests whole-word occurrence of literal patterns. Every pattern is
// compiled once when the matcher is built; the matcher is read-only after.
type Matcher struct {
	res map[string]*regexp.Regexp
}

func NewMatcher(lists ...[]string) *Matcher {
	m := &Matcher{res: make(map[string]*regexp.Regexp)}
	for _, l := range lists {
		for _, p := range l {
			if _, ok := m.res[p]; !ok && p != "" {
				m.res[p] = compileWord(p)
			}
		}
	}
	return m
}

// compileWord matches p case-insensitively when it is not glued to another
// letter, digit or underscore on either side.
func compileWord(p string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(strings.TrimSpace(p)) + `(?:$|[^\p{L}\p{N}_])`)
}

func (m *Matcher) Contains(text, pattern string) bool {
	if pattern == "" {
		return false
	}
	re, ok := m.res[pattern]
	if !ok {
		re = compileWord(pattern)
	}
	return re.MatchString(text)
}

// First returns the first pattern, in list order, found in text.
func (m *Matcher) First(text string, patterns []string) (string, bool) {
	for _, p := range patterns {
		if m.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

func (m *Matcher) Any(text string, patterns []string) bool {
	_, ok := m.First(text, patterns)
	return ok
}

// Exact reports whether text equals one of the patterns.
func Exact(text string, patterns []string) bool {
	for _, p := range patterns {
		if p == text {
			return true
		}
	}
	return false
}

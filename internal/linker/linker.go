// Package linker finds the movie titles an agent utterance mentions and links
// them to records in the movie store.
package linker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ccastromar/movie-nlu/internal/database"
	"github.com/ccastromar/movie-nlu/internal/logx"
)

var ErrNoTemplate = errors.New("linker: utterance matches no known template")

// DefaultTemplates are the agent utterances that carry titles, one capture
// group per title.
var DefaultTemplates = []string{
	`1\. (.*) 2\. (.*) 3\. (.*) 4\. (.*) 5\. (.*)Which options matches`,
	`1\. (.*)2\. (.*)3\. (.*)Which film do you have`,
	`There is a movie named "(.*)"\. Have you watched it\?`,
	`Have you watched "(.*)"\? It can be a good recommendation\.`,
	`You should try (.*)!`,
	`There's also (.*)!`,
	`Also check out (.*)!`,
	`I found (.*) for you!`,
	`I also found (.*)!`,
	`I think you should give (.*) a shot!`,
}

var (
	replaceBySpace = regexp.MustCompile(`[/(){}\[\]|@,;]`)
	badSymbols     = regexp.MustCompile(`[^0-9a-z #+_]`)
)

// PrepareText lower-cases, turns separators into spaces, drops other symbols
// and collapses whitespace.
func PrepareText(s string) string {
	s = strings.ToLower(s)
	s = replaceBySpace.ReplaceAllString(s, " ")
	s = badSymbols.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

type Match struct {
	Surface string   `json:"surface"`
	Title   string   `json:"title"`
	Score   int      `json:"score"`
	Genres  []string `json:"genres"`
}

type Options struct {
	TitleColumn string
	GenreColumn string
	Templates   []string
}

// Linker is read-only after New.
type Linker struct {
	templates []*regexp.Regexp
	titles    []string
	prepared  []string
	byPrep    map[string]int
	genres    map[string][]string
}

func New(ctx context.Context, store database.Store, opts Options) (*Linker, error) {
	if opts.TitleColumn == "" {
		opts.TitleColumn = "name"
	}
	if opts.GenreColumn == "" {
		opts.GenreColumn = "genres"
	}
	if len(opts.Templates) == 0 {
		opts.Templates = DefaultTemplates
	}

	l := &Linker{byPrep: make(map[string]int), genres: make(map[string][]string)}
	for _, tpl := range opts.Templates {
		re, err := regexp.Compile(tpl)
		if err != nil {
			return nil, fmt.Errorf("compiling template %q: %w", tpl, err)
		}
		l.templates = append(l.templates, re)
	}

	err := store.Scan(ctx, func(cols []string, row []any) error {
		var title, genres string
		for i, c := range cols {
			s, _ := row[i].(string)
			switch c {
			case opts.TitleColumn:
				title = strings.TrimSpace(s)
			case opts.GenreColumn:
				genres = s
			}
		}
		if title == "" {
			return nil
		}
		if _, dup := l.genres[title]; dup {
			return nil
		}
		l.genres[title] = splitGenres(genres)
		prep := PrepareText(title)
		if _, ok := l.byPrep[prep]; !ok {
			l.byPrep[prep] = len(l.titles)
		}
		l.titles = append(l.titles, title)
		l.prepared = append(l.prepared, prep)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading titles: %w", err)
	}
	logx.Info("Linker", "loaded %d titles from %s", len(l.titles), store.TableName())
	return l, nil
}

func splitGenres(s string) []string {
	var out []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// ExtractTitles returns the surface forms the first matching template captures.
func (l *Linker) ExtractTitles(utterance string) ([]string, error) {
	text := strings.NewReplacer("\n", "", ";)", "").Replace(utterance)
	for _, re := range l.templates {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out := make([]string, 0, len(m)-1)
		for _, sf := range m[1:] {
			if sf = strings.TrimSpace(sf); sf != "" {
				out = append(out, sf)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoTemplate, utterance)
}

// Link resolves a surface form to the closest known title. An exact match on
// prepared text wins; otherwise the best fuzzy match does.
func (l *Linker) Link(surface string) (Match, bool) {
	prep := PrepareText(surface)
	if prep == "" || len(l.titles) == 0 {
		return Match{}, false
	}
	if i, ok := l.byPrep[prep]; ok {
		return l.match(surface, i, 0), true
	}
	matches := fuzzy.Find(prep, l.prepared)
	if len(matches) == 0 {
		return Match{}, false
	}
	best := matches[0]
	return l.match(surface, best.Index, best.Score), true
}

func (l *Linker) match(surface string, i, score int) Match {
	title := l.titles[i]
	return Match{Surface: surface, Title: title, Score: score, Genres: l.genres[title]}
}

// LinkUtterance extracts and links every title an agent utterance names.
// Surface forms that link to nothing are returned with an empty title.
func (l *Linker) LinkUtterance(utterance string) ([]Match, error) {
	sfs, err := l.ExtractTitles(utterance)
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(sfs))
	for _, sf := range sfs {
		m, ok := l.Link(sf)
		if !ok {
			m = Match{Surface: sf}
		}
		out = append(out, m)
	}
	return out, nil
}

func (l *Linker) Titles() int { return len(l.titles) }

package linker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/movie-nlu/internal/database"
)

func newTestLinker(t *testing.T) *Linker {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"movies": [
		{"id": 1, "name": "The Dark Knight", "genres": "Action, Crime, Drama"},
		{"id": 2, "name": "Heat", "genres": "Crime, Drama"},
		{"id": 3, "name": "Spider-Man 2", "genres": "Action"},
		{"id": 4, "name": "Heat", "genres": "Thriller"},
		{"id": 5, "genres": "Comedy"}
	]}`), 0o644))

	ctx := context.Background()
	store, err := database.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l, err := New(ctx, store, Options{})
	require.NoError(t, err)
	return l
}

func TestPrepareText(t *testing.T) {
	require.Equal(t, "spiderman 2", PrepareText("Spider-Man 2"))
	require.Equal(t, "amlie the fabulous destiny", PrepareText("Amélie (The Fabulous   Destiny)"))
	require.Equal(t, "c++ #1", PrepareText("C++, #1!"))
}

func TestExtractTitles(t *testing.T) {
	l := newTestLinker(t)

	got, err := l.ExtractTitles(`There is a movie named "Heat". Have you watched it?`)
	require.NoError(t, err)
	require.Equal(t, []string{"Heat"}, got)

	got, err = l.ExtractTitles(`Thank you for your feedback. Have you watched "The Dark Knight"? It can be a good recommendation.`)
	require.NoError(t, err)
	require.Equal(t, []string{"The Dark Knight"}, got)

	got, err = l.ExtractTitles("I think you should give Spider-Man 2 a shot!")
	require.NoError(t, err)
	require.Equal(t, []string{"Spider-Man 2"}, got)

	got, err = l.ExtractTitles("Here are a couple of movies for you! 1. Heat 2. The Dark Knight 3. Spider-Man 2Which film do you have an interest?")
	require.NoError(t, err)
	require.Equal(t, []string{"Heat", "The Dark Knight", "Spider-Man 2"}, got)

	_, err = l.ExtractTitles("Hello there")
	require.ErrorIs(t, err, ErrNoTemplate)
}

func TestLink(t *testing.T) {
	l := newTestLinker(t)
	require.Equal(t, 3, l.Titles())

	m, ok := l.Link("heat")
	require.True(t, ok)
	require.Equal(t, "Heat", m.Title)
	require.Equal(t, []string{"Crime", "Drama"}, m.Genres)

	m, ok = l.Link("dark knight")
	require.True(t, ok)
	require.Equal(t, "The Dark Knight", m.Title)
	require.Equal(t, []string{"Action", "Crime", "Drama"}, m.Genres)

	m, ok = l.Link("spiderman")
	require.True(t, ok)
	require.Equal(t, "Spider-Man 2", m.Title)

	_, ok = l.Link("zzzz")
	require.False(t, ok)
	_, ok = l.Link("!!!")
	require.False(t, ok)
}

func TestLinkUtterance(t *testing.T) {
	l := newTestLinker(t)

	got, err := l.LinkUtterance("You should try the dark knight!")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "the dark knight", got[0].Surface)
	require.Equal(t, "The Dark Knight", got[0].Title)

	got, err = l.LinkUtterance("I found Qqqq for you!")
	require.NoError(t, err)
	require.Equal(t, []Match{{Surface: "Qqqq"}}, got)
}

func TestNew_BadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"movies": [{"name": "Heat"}]}`), 0o644))
	store, err := database.Open(context.Background(), path)
	require.NoError(t, err)

	_, err = New(context.Background(), store, Options{Templates: []string{"("}})
	require.Error(t, err)
}

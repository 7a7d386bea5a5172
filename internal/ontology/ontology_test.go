package ontology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const yamlOntology = `
type: movies
informable:
  genres: [comedy, drama, science fiction]
  director_name: [christopher nolan]
  name: [inception, heat]
requestable: [genres, director_name, duration, imdb_score, name]
system_requestable: [genres, director_name, unknown]
`

func TestParse_PreservesOrder(t *testing.T) {
	o, err := Parse([]byte(yamlOntology))
	require.NoError(t, err)

	require.Equal(t, []string{"genres", "director_name", "name"}, o.InformableSlots())
	require.Equal(t, []string{"comedy", "drama", "science fiction"}, o.Patterns("genres"))
	require.True(t, o.IsInformable("name"))
	require.False(t, o.IsInformable("duration"))
	require.True(t, o.IsRequestable("duration"))
	require.True(t, o.IsSystemRequestable("director_name"))
	require.Equal(t, []string{"duration", "imdb_score", "name"}, o.RequestableOnly())
}

func TestParse_JSON(t *testing.T) {
	o, err := Parse([]byte(`{"informable": {"genres": ["comedy"], "title_year": [1999, 2010]}, "requestable": ["genres"], "system_requestable": ["genres"]}`))
	require.NoError(t, err)
	require.Equal(t, []string{"genres", "title_year"}, o.InformableSlots())
	require.Equal(t, []string{"1999", "2010"}, o.Patterns("title_year"))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`requestable: [genres]`))
	require.ErrorIs(t, err, ErrEmptyOntology)

	_, err = Parse([]byte(`- a`))
	require.Error(t, err)

	_, err = Parse([]byte("informable:\n  genres: comedy\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onto.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlOntology), 0o644))

	o, err := Load(path)
	require.NoError(t, err)
	require.Len(t, o.InformableSlots(), 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

package nlu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/movie-nlu/internal/dialogue"
)

func TestNormalize(t *testing.T) {
	r := newTestRecognizer(t)

	cases := map[string]string{
		"Who is the Director?":               "who is the director_name",
		"Director name please":               "director_name please",
		"who directed it, and the directors": "who director_name it and the director_name",
		"What's the IMDB score":              "whats the imdb_score",
		"imdb rating":                        "imdb_score rating",
		"what is its rating":                 "what is its imdb_score",
		"tell me more about the plot":        "tell me plot_keywords about the plot_keywords",
		"whats the storyline":                "whats the plot_keywords",
		"who acted in it":                    "who actors in it",
		"which actor names and stars":        "which actors and actors",
		"when was it released":               "when was it title_year",
		"which year":                         "which title_year",
		"how long is it":                     "how duration is it",
		"I like that genre":                  "i like that genres",
		"Rock & Roll - $5_x!  ":              "rock & roll - $5_x",
		"start the movie":                    "start the movie",
	}
	for in, want := range cases {
		require.Equal(t, want, r.Normalize(in, nil), in)
	}
}

func TestNormalize_DenialAfterOffer(t *testing.T) {
	r := newTestRecognizer(t)
	offer := act(dialogue.Offer, "name", "Heat")

	require.Equal(t, "no genres", r.Normalize("No.", &offer))
	require.Equal(t, "nope i want a comedy genres", r.Normalize("Nope, I want a comedy", &offer))
	require.Equal(t, "nothing", r.Normalize("nothing", &offer))

	req := act(dialogue.Request, "genres", "")
	require.Equal(t, "no", r.Normalize("no", &req))
}

func TestNormalize_Idempotent(t *testing.T) {
	r := newTestRecognizer(t)
	for _, in := range []string{
		"Who directed Inception?",
		"what is the imdb score of heat",
		"a movie released in 1999 starring al pacino",
		"tell me about it",
		"how long is the genre thing",
		"i dont care",
	} {
		once := r.Normalize(in, nil)
		require.Equal(t, once, r.Normalize(once, nil), in)
	}
}

func TestMatcher(t *testing.T) {
	m := NewMatcher([]string{"al pacino", "sci-fi", "no"})

	require.True(t, m.Contains("a film with al pacino", "al pacino"))
	require.True(t, m.Contains("AL PACINO rocks", "al pacino"))
	require.False(t, m.Contains("a film with al pacinos", "al pacino"))
	require.True(t, m.Contains("some sci-fi please", "sci-fi"))
	require.False(t, m.Contains("nothing", "no"))
	require.False(t, m.Contains("no_way", "no"))
	// patterns outside the precompiled set still work
	require.True(t, m.Contains("so (weird) title", "(weird)"))

	p, ok := m.First("no sci-fi", []string{"sci-fi", "no"})
	require.True(t, ok)
	require.Equal(t, "sci-fi", p)

	require.True(t, Exact("any", DefaultPatterns().DontCare))
	require.False(t, Exact("any genre", DefaultPatterns().DontCare))
}

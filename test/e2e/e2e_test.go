package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	rt "runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ccastromar/movie-nlu/internal/app"
	"github.com/ccastromar/movie-nlu/internal/config"
)

// chdirToRepoRoot ensures relative paths like "definitions/..." resolve during tests.
func chdirToRepoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, _ := rt.Caller(0)
	root := filepath.Clean(filepath.Join(filepath.Dir(file), "../.."))
	if err := os.Chdir(root); err != nil {
		t.Fatalf("chdir to repo root: %v", err)
	}
	return root
}

func env(dir string) *config.EnvVars {
	return &config.EnvVars{
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		DefinitionsDir: dir,
		SessionTTL:     time.Hour,
		SweepEvery:     time.Minute,
		RateLimit:      100,
		RateWindow:     time.Minute,
	}
}

type act struct {
	Intent string `json:"intent"`
	Params []struct {
		Slot  string `json:"slot"`
		Value string `json:"value"`
	} `json:"params"`
}

type parseResult struct {
	SessionID string `json:"session_id"`
	Turn      int    `json:"turn"`
	Rule      string `json:"rule"`
	Acts      []act  `json:"acts"`
}

func parse(t *testing.T, url string, body map[string]any) parseResult {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url+"/nlu/parse", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res parseResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

// TestE2E_Conversation drives a whole recommendation dialogue through the
// HTTP surface, relying on the session to carry memory between turns.
func TestE2E_Conversation(t *testing.T) {
	chdirToRepoRoot(t)
	a, err := app.New(context.Background(), env("definitions"))
	require.NoError(t, err)
	ts := httptest.NewServer(a.Handler())
	defer ts.Close()

	// 1) user asks for a genre
	res := parse(t, ts.URL, map[string]any{"utterance": "I would like a comedy"})
	require.NotEmpty(t, res.SessionID)
	require.Len(t, res.Acts, 1)
	require.Equal(t, "inform", res.Acts[0].Intent)
	require.Equal(t, "comedy", res.Acts[0].Params[0].Value)
	sid := res.SessionID

	// 2) system asks for the director, user does not care
	res = parse(t, ts.URL, map[string]any{
		"session_id":    sid,
		"utterance":     "I don't care",
		"last_sys_acts": []map[string]any{{"intent": "request", "params": []map[string]string{{"slot": "director_name", "value": ""}}}},
	})
	require.Equal(t, 2, res.Turn)
	require.Equal(t, "offer", res.Acts[0].Intent)
	require.Equal(t, "dontcare", res.Acts[0].Params[0].Value)

	// 3) system offers a movie, user rejects it: the remembered acts replay
	res = parse(t, ts.URL, map[string]any{
		"session_id":        sid,
		"utterance":         "show me something else",
		"last_sys_acts":     []map[string]any{{"intent": "offer", "params": []map[string]string{{"slot": "name", "value": "Superbad"}}}},
		"system_made_offer": true,
	})
	require.Equal(t, "offer-dislike", res.Rule)
	require.Equal(t, "offer", res.Acts[0].Intent)
	require.Equal(t, "director_name", res.Acts[0].Params[0].Slot)

	// 4) the session remembers the rejection
	resp, err := http.Get(ts.URL + "/sessions/" + sid)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess struct {
		Turns  int `json:"turns"`
		Offers struct {
			Feedback map[string]map[string]string `json:"feedback"`
		} `json:"offers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
	require.Equal(t, 3, sess.Turns)
	require.Equal(t, "don't like", sess.Offers.Feedback["name"]["Superbad"])

	// 5) bye
	res = parse(t, ts.URL, map[string]any{"session_id": sid, "utterance": "goodbye"})
	require.Equal(t, "bye", res.Acts[0].Intent)
}

// TestE2E_SQLiteDefinitions points the service at a SQLite movie store.
func TestE2E_SQLiteDefinitions(t *testing.T) {
	root := chdirToRepoRoot(t)
	dir := t.TempDir()

	db, err := sql.Open("sqlite", filepath.Join(dir, "movies.db"))
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE movies (id INTEGER PRIMARY KEY, name TEXT, genres TEXT, director_name TEXT, actors TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO movies (name, genres, director_name, actors) VALUES
		('Heat', 'Action, Crime, Drama', 'Michael Mann', 'Al Pacino, Robert De Niro'),
		('Toy Story', 'Animation, Comedy', 'John Lasseter', 'Tom Hanks')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	onto := filepath.Join(root, "definitions", "ontology.yaml")
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefinitionsFile),
		[]byte("ontology: "+onto+"\ndatabase: movies.db\n"), 0o644))

	a, err := app.New(context.Background(), env(dir))
	require.NoError(t, err)
	ts := httptest.NewServer(a.Handler())
	defer ts.Close()

	res := parse(t, ts.URL, map[string]any{"utterance": "something by director michael mann"})
	require.Equal(t, "inform", res.Acts[0].Intent)
	require.Equal(t, "director_name", res.Acts[0].Params[0].Slot)
	require.Equal(t, "michael mann", res.Acts[0].Params[0].Value)

	body := bytes.NewBufferString(`{"utterance": "You should try toy story!"}`)
	resp, err := http.Post(ts.URL+"/nlu/link", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var link struct {
		Titles []struct {
			Title string `json:"title"`
		} `json:"titles"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&link))
	require.Equal(t, "Toy Story", link.Titles[0].Title)
}

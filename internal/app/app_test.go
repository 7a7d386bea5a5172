package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/movie-nlu/internal/config"
)

// chdirToRepoRoot ensures relative paths like "definitions/..." resolve during tests.
func chdirToRepoRoot(t *testing.T) {
	t.Helper()
	_, file, _, _ := goruntime.Caller(0)
	root := filepath.Clean(filepath.Join(filepath.Dir(file), "../.."))
	if err := os.Chdir(root); err != nil {
		t.Fatalf("chdir to repo root: %v", err)
	}
}

func testEnv() *config.EnvVars {
	return &config.EnvVars{
		Port:           0,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		DefinitionsDir: "definitions",
		SessionTTL:     time.Minute,
		SweepEvery:     10 * time.Millisecond,
		RateLimit:      100,
		RateWindow:     time.Minute,
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	chdirToRepoRoot(t)
	a, err := New(context.Background(), testEnv())
	require.NoError(t, err)
	return a
}

func TestNew_ConstructsApp(t *testing.T) {
	a := newTestApp(t)
	require.NotNil(t, a.cfg)
	require.NotNil(t, a.nlu)
	require.NotNil(t, a.linker)
	require.NotNil(t, a.sessions)
	require.NotNil(t, a.janitor)
	require.NotNil(t, a.http)
	require.Greater(t, a.linker.Titles(), 0)
}

func TestNew_MissingDefinitions(t *testing.T) {
	chdirToRepoRoot(t)
	env := testEnv()
	env.DefinitionsDir = "does-not-exist"
	_, err := New(context.Background(), env)
	require.Error(t, err)
}

func TestNew_BadRedis(t *testing.T) {
	chdirToRepoRoot(t)
	env := testEnv()
	env.RedisURL = "not-a-url://"
	_, err := New(context.Background(), env)
	require.Error(t, err)
}

func TestRouter_Endpoints(t *testing.T) {
	a := newTestApp(t)
	ts := httptest.NewServer(a.http.srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, err = http.Get(ts.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/nlu/parse", "application/json",
		strings.NewReader(`{"session_id": "e2e", "utterance": "I want a comedy"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ui/session?id=e2e")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodTrace, ts.URL+"/health/live", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAppRun_StopsOnContextCancel(t *testing.T) {
	a := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	a.http.srv.Addr = addr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health/live")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for Run to return after cancel")
	}
}

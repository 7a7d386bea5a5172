package ui

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUIStore_AddTurnAndSnapshotIsolation(t *testing.T) {
	s := NewUIStore()
	s.AddTurn("s1", Turn{Utterance: "hello", Rule: "slot-scan"})
	s.AddTurn("s1", Turn{Utterance: "bye", Rule: "bye"})

	snap := s.snapshot()
	require.Len(t, snap["s1"], 2)
	require.False(t, snap["s1"][0].Time.IsZero())

	snap["s1"][0].Utterance = "hacked"
	require.Equal(t, "hello", s.snapshot()["s1"][0].Utterance)
}

func TestUIStore_BoundsTimeline(t *testing.T) {
	s := NewUIStore()
	for i := 0; i < maxTurns+5; i++ {
		s.AddTurn("s1", Turn{Rule: "help"})
	}
	require.Len(t, s.snapshot()["s1"], maxTurns)

	s.Forget("s1")
	require.Empty(t, s.snapshot())
}

func TestHandleIndex_OrdersByLastTurn(t *testing.T) {
	s := NewUIStore()
	now := time.Now()
	s.AddTurn("sessionA", Turn{Time: now, Utterance: "first"})
	s.AddTurn("sessionB", Turn{Time: now.Add(time.Second), Utterance: "second"})

	rr := httptest.NewRecorder()
	s.HandleIndex(rr, httptest.NewRequest(http.MethodGet, "/ui", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "sessionA")
	require.Contains(t, body, "sessionB")
	require.Less(t, strings.Index(body, "sessionB"), strings.Index(body, "sessionA"))
}

func TestHandleSession_MissingID_Redirects(t *testing.T) {
	rr := httptest.NewRecorder()
	NewUIStore().HandleSession(rr, httptest.NewRequest(http.MethodGet, "/ui/session", nil))
	require.Equal(t, http.StatusFound, rr.Code)
}

func TestHandleSession_NotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	NewUIStore().HandleSession(rr, httptest.NewRequest(http.MethodGet, "/ui/session?id=unknown", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleSession_OK(t *testing.T) {
	s := NewUIStore()
	s.AddTurn("sX", Turn{Utterance: "show me comedy", Normalized: "show me comedy", Rule: "emit", Acts: "inform(genres=comedy)"})
	s.AddTurn("sX", Turn{Utterance: "thanks", Rule: "thanks", Acts: "moreinfo()"})

	rr := httptest.NewRecorder()
	q := url.Values{"id": {"sX"}}
	s.HandleSession(rr, httptest.NewRequest(http.MethodGet, "/ui/session?"+q.Encode(), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "show me comedy")
	require.Contains(t, body, "inform(genres=comedy)")
	require.Contains(t, body, "moreinfo()")
}

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterVec(t *testing.T) {
	cv := NewCounterVec("test_total", "help")
	cv.Inc(map[string]string{"intent": "inform"})
	cv.Inc(map[string]string{"intent": "inform"})
	cv.Add(map[string]string{"intent": "offer"}, 3)
	cv.Inc(nil)

	require.Equal(t, 2.0, cv.Value(map[string]string{"intent": "inform"}))
	require.Equal(t, 3.0, cv.Value(map[string]string{"intent": "offer"}))
	require.Equal(t, 1.0, cv.Value(nil))

	var b strings.Builder
	cv.write(&b)
	require.Equal(t, `# HELP test_total help
# TYPE test_total counter
test_total 1
test_total{intent="inform"} 2
test_total{intent="offer"} 3
`, b.String())
}

func TestMakeKeyIsOrderIndependent(t *testing.T) {
	a := makeKey(map[string]string{"b": "2", "a": "1"})
	b := makeKey(map[string]string{"a": "1", "b": "2"})
	require.Equal(t, a, b)
	require.Equal(t, labelsKey(`a="1",b="2"`), a)
	require.Equal(t, labelsKey(`q="say \"hi\""`), makeKey(map[string]string{"q": `say "hi"`}))
}

func TestSummaryVec(t *testing.T) {
	sv := NewSummaryVec("test_seconds", "help")
	sv.Observe(map[string]string{"rule": "help"}, 0.5)
	sv.Observe(map[string]string{"rule": "help"}, 1.5)
	require.Equal(t, 2.0, sv.Count(map[string]string{"rule": "help"}))

	var b strings.Builder
	sv.write(&b)
	require.Contains(t, b.String(), `test_seconds_sum{rule="help"} 2`)
	require.Contains(t, b.String(), `test_seconds_count{rule="help"} 2`)
}

func TestServeHTTP(t *testing.T) {
	Turns.Inc(map[string]string{"intent": "bye"})

	rr := httptest.NewRecorder()
	ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, "text/plain; version=0.0.4", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	require.Contains(t, body, "# TYPE nlu_turns_total counter")
	require.Contains(t, body, `nlu_turns_total{intent="bye"}`)
	require.Contains(t, body, "# TYPE nlu_recognize_seconds summary")
}

// Package metrics is a small in-process registry exported in Prometheus text
// format. It supports counters and count/sum summaries with labels.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
)

type labelsKey string

func makeKey(lbls map[string]string) labelsKey {
	if len(lbls) == 0 {
		return ""
	}
	keys := make([]string, 0, len(lbls))
	for k := range lbls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", k, lbls[k])
	}
	return labelsKey(b.String())
}

type CounterVec struct {
	Name string
	Help string

	mu     sync.RWMutex
	values map[labelsKey]float64
}

func NewCounterVec(name, help string) *CounterVec {
	return &CounterVec{Name: name, Help: help, values: make(map[labelsKey]float64)}
}

func (cv *CounterVec) Inc(lbls map[string]string) {
	cv.Add(lbls, 1)
}

func (cv *CounterVec) Add(lbls map[string]string, v float64) {
	key := makeKey(lbls)
	cv.mu.Lock()
	cv.values[key] += v
	cv.mu.Unlock()
}

func (cv *CounterVec) Value(lbls map[string]string) float64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.values[makeKey(lbls)]
}

func (cv *CounterVec) write(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", cv.Name, cv.Help, cv.Name)
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	for _, key := range sortedKeys(cv.values) {
		fmt.Fprintf(w, "%s%s %g\n", cv.Name, braces(key), cv.values[key])
	}
}

// SummaryVec exports name_sum and name_count per label set.
type SummaryVec struct {
	Name string
	Help string

	mu    sync.RWMutex
	count map[labelsKey]float64
	sum   map[labelsKey]float64
}

func NewSummaryVec(name, help string) *SummaryVec {
	return &SummaryVec{Name: name, Help: help, count: make(map[labelsKey]float64), sum: make(map[labelsKey]float64)}
}

func (sv *SummaryVec) Observe(lbls map[string]string, v float64) {
	key := makeKey(lbls)
	sv.mu.Lock()
	sv.count[key]++
	sv.sum[key] += v
	sv.mu.Unlock()
}

func (sv *SummaryVec) Count(lbls map[string]string) float64 {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	return sv.count[makeKey(lbls)]
}

func (sv *SummaryVec) write(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s summary\n", sv.Name, sv.Help, sv.Name)
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	for _, key := range sortedKeys(sv.count) {
		fmt.Fprintf(w, "%s_sum%s %g\n", sv.Name, braces(key), sv.sum[key])
		fmt.Fprintf(w, "%s_count%s %g\n", sv.Name, braces(key), sv.count[key])
	}
}

func sortedKeys(m map[labelsKey]float64) []labelsKey {
	keys := make([]labelsKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func braces(key labelsKey) string {
	if key == "" {
		return ""
	}
	return "{" + string(key) + "}"
}

var (
	HTTPRequests = NewCounterVec("nlu_http_requests_total", "Total HTTP requests")
	HTTPDuration = NewSummaryVec("nlu_http_request_seconds", "HTTP request duration seconds")

	Turns        = NewCounterVec("nlu_turns_total", "Recognized turns by emitted intent")
	RuleHits     = NewCounterVec("nlu_rule_hits_total", "Turns finished by each cascade rule")
	RecognizeDur = NewSummaryVec("nlu_recognize_seconds", "Recognition duration seconds")
	Links        = NewCounterVec("nlu_links_total", "Title links by outcome") // outcome=linked|unlinked|no_template
	SessionOps   = NewCounterVec("nlu_session_ops_total", "Session store calls by op and outcome")
)

// ServeHTTP exposes all metrics in Prometheus text format.
func ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	HTTPRequests.write(w)
	HTTPDuration.write(w)
	Turns.write(w)
	RuleHits.write(w)
	RecognizeDur.write(w)
	Links.write(w)
	SessionOps.write(w)
}

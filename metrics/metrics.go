package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	stageLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docqa_stage_latency_ms",
		Help:    "Latency of pipeline stages in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	}, []string{"stage", "result"})

	retrievedMatches = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "docqa_retrieved_matches",
		Help:    "Number of matches returned by the vector store per question",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	outcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docqa_questions_total",
		Help: "Questions handled by outcome (answered/no_match/failed)",
	}, []string{"outcome"})

	evidencePages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docqa_evidence_pages_total",
		Help: "Evidence pages delivered by result (ok/failed)",
	}, []string{"result"})

	promptTokens = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "docqa_prompt_tokens",
		Help:    "Prompt size in tokens",
		Buckets: []float64{64, 128, 256, 512, 1024, 2048, 4096, 8192},
	})

	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docqa_sessions",
		Help: "Sessions with conversation history held in memory",
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// ObserveStage records latency of a pipeline stage.
func ObserveStage(stage string, start time.Time, err error) {
	ensureRegistered()
	result := "ok"
	if err != nil {
		result = "error"
	}
	stageLatency.WithLabelValues(stage, result).Observe(float64(time.Since(start).Milliseconds()))
}

// ObserveMatches records how many matches a search returned.
func ObserveMatches(n int) {
	ensureRegistered()
	retrievedMatches.Observe(float64(n))
}

// IncOutcome counts a finished question.
func IncOutcome(outcome string) {
	ensureRegistered()
	outcomes.WithLabelValues(outcome).Inc()
}

// IncEvidencePage counts a delivered or failed evidence page.
func IncEvidencePage(result string) {
	ensureRegistered()
	evidencePages.WithLabelValues(result).Inc()
}

// ObservePromptTokens records the prompt size; negative counts are ignored.
func ObservePromptTokens(n int) {
	ensureRegistered()
	if n >= 0 {
		promptTokens.Observe(float64(n))
	}
}

// SetSessions reports the number of tracked sessions.
func SetSessions(n int) {
	ensureRegistered()
	activeSessions.Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}

// Collectors exposes all collectors for external registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		stageLatency, retrievedMatches, outcomes, evidencePages, promptTokens, activeSessions,
	}
}

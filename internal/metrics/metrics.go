package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finlit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finlit_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	AnswersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finlit_answers_submitted_total",
			Help: "Graded answers by level and correctness",
		},
		[]string{"level", "correct"},
	)

	SessionsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finlit_sessions_saved_total",
			Help: "Session saves by level and outcome",
		},
		[]string{"level", "outcome"},
	)

	Analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finlit_analyses_total",
			Help: "AI analyses by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finlit_analysis_duration_seconds",
			Help:    "Latency of the AI analysis call",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 60},
		},
	)

	ReportsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finlit_reports_delivered_total",
			Help: "Report mails by outcome (sent, skipped, failed)",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AnswersSubmitted,
			SessionsSaved,
			Analyses,
			AnalysisDuration,
			ReportsDelivered,
		)
	})
}

// Outcome maps a success flag to a label value.
func Outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Level formats a level label.
func Level(level int) string {
	return strconv.Itoa(level)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer (websocket hijack).
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack supports websocket upgrades through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware records request counts and latency keyed by the matched mux pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

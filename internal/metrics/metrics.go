package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors under a private registry
type Metrics struct {
	Registry *prometheus.Registry

	RequestCounter    *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	AttemptsStarted   *prometheus.CounterVec
	AttemptsCompleted *prometheus.CounterVec
	AttemptsRejected  *prometheus.CounterVec
	AttemptsAbandoned prometheus.Counter
	ScorePercent      prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		AttemptsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_started_total",
				Help: "Quiz attempts started",
			},
			[]string{"quiz_id"},
		),
		AttemptsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_completed_total",
				Help: "Quiz attempts completed, by pass outcome",
			},
			[]string{"quiz_id", "passed"},
		),
		AttemptsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempt_rejections_total",
				Help: "Start or submit requests rejected, by reason",
			},
			[]string{"operation", "reason"},
		),
		AttemptsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_abandoned_total",
			Help: "Attempts moved to abandoned by the sweeper",
		}),
		ScorePercent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_attempt_score_percent",
			Help:    "Score percentage of completed attempts",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}

	m.Registry.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.AttemptsStarted,
		m.AttemptsCompleted,
		m.AttemptsRejected,
		m.AttemptsAbandoned,
		m.ScorePercent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveStarted(quizID uint) {
	m.AttemptsStarted.WithLabelValues(strconv.FormatUint(uint64(quizID), 10)).Inc()
}

func (m *Metrics) ObserveCompleted(quizID uint, passed bool, score float64) {
	m.AttemptsCompleted.WithLabelValues(strconv.FormatUint(uint64(quizID), 10), strconv.FormatBool(passed)).Inc()
	m.ScorePercent.Observe(score)
}

func (m *Metrics) ObserveRejected(operation, reason string) {
	m.AttemptsRejected.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) ObserveAbandoned(n int64) {
	m.AttemptsAbandoned.Add(float64(n))
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

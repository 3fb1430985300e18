package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/oficina-bot/internal/assistant"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	flowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_transitions_total",
			Help: "Total number of creation flow transitions",
		},
		[]string{"mode", "from", "to"},
	)
	assistantTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Assistant turns split by result kind and channel",
		},
		[]string{"kind", "channel"},
	)
	customerCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_commits_total",
			Help: "Customer persistence attempts by outcome",
		},
		[]string{"outcome"},
	)
	completionDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_duration_seconds",
			Help:    "Latency of completion service calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"status"},
	)
	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open",
		},
		[]string{"name"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	activeConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_conversations",
			Help: "Conversations with an in-flight creation flow",
		},
	)
	conversationsByMode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conversations_by_mode",
			Help: "In-flight creation flows per mode",
		},
		[]string{"mode"},
	)
)

var trackedModes = []assistant.Mode{
	assistant.ModeCustomer,
	assistant.ModeWorkOrder,
	assistant.ModeProduct,
}

func init() {
	assistant.RegisterTransitionRecorder(RecordFlowTransition)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	command = orUnknown(command)
	botCommandsTotal.WithLabelValues(command, orUnknown(status)).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordFlowTransition tracks creation flow progress by field hint.
func RecordFlowTransition(mode assistant.Mode, from, to string) {
	flowTransitionsTotal.WithLabelValues(orUnknown(string(mode)), orUnknown(from), orUnknown(to)).Inc()
}

func RecordTurn(kind, channel string) {
	assistantTurnsTotal.WithLabelValues(orUnknown(kind), orUnknown(channel)).Inc()
}

// RecordCommit counts customer inserts: created, duplicate or failed.
func RecordCommit(outcome string) {
	customerCommitsTotal.WithLabelValues(orUnknown(outcome)).Inc()
}

func ObserveCompletion(status string, duration time.Duration) {
	completionDurationSeconds.WithLabelValues(orUnknown(status)).Observe(duration.Seconds())
}

func SetCircuitState(name string, state int) {
	circuitBreakerState.WithLabelValues(orUnknown(name)).Set(float64(state))
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	errorsTotal.WithLabelValues(orUnknown(errType), orUnknown(severity)).Inc()
}

func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	route = orUnknown(route)
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ModeCounter reports how many stored conversations are in each flow mode.
type ModeCounter interface {
	CountByMode(ctx context.Context) (map[assistant.Mode]int, error)
}

// ConversationCollector periodically gathers flow counts and emits gauge metrics.
type ConversationCollector struct {
	counter  ModeCounter
	interval time.Duration
}

// NewConversationCollector builds a collector that polls counter every interval.
func NewConversationCollector(counter ModeCounter, interval time.Duration) *ConversationCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &ConversationCollector{counter: counter, interval: interval}
}

// Run polls until ctx is cancelled.
func (c *ConversationCollector) Run(ctx context.Context) {
	if c == nil || c.counter == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *ConversationCollector) collect(ctx context.Context) error {
	counts, err := c.counter.CountByMode(ctx)
	if err != nil {
		return err
	}

	total := 0
	conversationsByMode.Reset()
	for _, mode := range trackedModes {
		conversationsByMode.WithLabelValues(string(mode)).Set(float64(counts[mode]))
		total += counts[mode]
		delete(counts, mode)
	}
	for mode, n := range counts {
		conversationsByMode.WithLabelValues(orUnknown(string(mode))).Set(float64(n))
		total += n
	}
	activeConversations.Set(float64(total))

	return nil
}

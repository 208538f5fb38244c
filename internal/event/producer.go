package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	pkgkafka "github.com/telubhanuprasad/firestore-item-showcase/pkg/kafka"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/logger"
)

// TopicReviewCreated receives one event per stored review.
var TopicReviewCreated = pkgkafka.Topic("review", "created")

// Aggregate type constant.
const AggregateTypeReview = "review"

// SourceShowcase identifies events published by this module.
const SourceShowcase = "item-showcase"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID           string `json:"id"`
	ItemID       string `json:"item_id"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	ReviewerName string `json:"reviewer_name"`
}

// Publisher announces completed review submissions.
type Publisher interface {
	PublishReviewCreated(ctx context.Context, id string, review domain.NewReview) error
}

// Noop discards events. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) PublishReviewCreated(context.Context, string, domain.NewReview) error { return nil }

type eventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// BreakerConfig controls when publishing is short-circuited.
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig trips after half of at least five publishes fail and
// probes the broker again after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// Producer publishes review events to Kafka behind a circuit breaker.
type Producer struct {
	kafka   eventWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

const breakerName = "kafka-review-events"

// NewProducer creates a review event producer. The breaker state is exported
// as showcase_event_breaker_state on reg.
func NewProducer(kafka eventWriter, cfg BreakerConfig, reg prometheus.Registerer, log *slog.Logger) (*Producer, error) {
	state := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "showcase_event_breaker_state",
		Help:        "State of the event publishing circuit breaker (0=closed, 1=half-open, 2=open).",
		ConstLabels: prometheus.Labels{"name": breakerName},
	})
	if reg != nil {
		if err := reg.Register(state); err != nil {
			return nil, fmt.Errorf("register breaker metric: %w", err)
		}
	}

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			state.Set(stateToFloat(to))
		},
	}

	return &Producer{
		kafka:   kafka,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
		logger:  log,
	}, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// ErrBreakerOpen is returned while the breaker rejects publishes.
var ErrBreakerOpen = gobreaker.ErrOpenState

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, id string, review domain.NewReview) error {
	data := ReviewCreatedData{
		ID:           id,
		ItemID:       review.ItemID,
		Rating:       review.Rating,
		Comment:      review.Comment,
		ReviewerName: review.ReviewerName,
	}

	evt, err := pkgkafka.NewEvent(TopicReviewCreated, id, AggregateTypeReview, SourceShowcase, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.kafka.Publish(ctx, TopicReviewCreated, evt)
	})
	if err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", id),
		slog.String("item_id", review.ItemID),
	)
	return nil
}

// State reports the breaker state.
func (p *Producer) State() gobreaker.State {
	return p.breaker.State()
}

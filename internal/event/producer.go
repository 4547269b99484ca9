package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	pkgkafka "github.com/rajmohan-121/Ai-Tool-Finder/pkg/kafka"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/logger"
)

// Kafka topics for tool finder domain events.
var (
	TopicToolCreated     = pkgkafka.Topic(AggregateTypeTool, "created")
	TopicToolUpdated     = pkgkafka.Topic(AggregateTypeTool, "updated")
	TopicToolDeleted     = pkgkafka.Topic(AggregateTypeTool, "deleted")
	TopicReviewSubmitted = pkgkafka.Topic(AggregateTypeReview, "submitted")
	TopicReviewApproved  = pkgkafka.Topic(AggregateTypeReview, "approved")
	TopicReviewRejected  = pkgkafka.Topic(AggregateTypeReview, "rejected")
)

const (
	AggregateTypeTool   = "tool"
	AggregateTypeReview = "review"

	Source = "toolfinder"
)

// ToolData is the payload for tool.created and tool.updated.
type ToolData struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	UseCase  string  `json:"use_case"`
	Category *string `json:"category,omitempty"`
	Pricing  string  `json:"pricing"`
}

// ToolDeletedData is the payload for tool.deleted.
type ToolDeletedData struct {
	ID int64 `json:"id"`
}

// ReviewSubmittedData is the payload for review.submitted.
type ReviewSubmittedData struct {
	ID     int64 `json:"id"`
	ToolID int64 `json:"tool_id"`
	Rating int   `json:"rating"`
}

// ReviewModeratedData is the payload for review.approved and review.rejected.
type ReviewModeratedData struct {
	ID             int64               `json:"id"`
	ToolID         int64               `json:"tool_id"`
	Rating         int                 `json:"rating"`
	PreviousStatus domain.ReviewStatus `json:"previous_status"`
	Status         domain.ReviewStatus `json:"status"`
	ToolAvgRating  *float64            `json:"tool_avg_rating,omitempty"`
}

// Publisher is the part of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes tool finder domain events. With a nil publisher every
// method is a no-op, which is how the service runs with Kafka disabled.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p != nil && p.kafka != nil
}

func (p *Producer) publish(ctx context.Context, topic string, aggregateID int64, aggregateType string, data any) error {
	if !p.Enabled() {
		return nil
	}

	evt, err := pkgkafka.NewEvent(topic, strconv.FormatInt(aggregateID, 10), aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.Int64("aggregate_id", aggregateID),
	)
	return nil
}

func toolData(tool *domain.Tool) ToolData {
	return ToolData{
		ID:       tool.ID,
		Name:     tool.Name,
		UseCase:  tool.UseCase,
		Category: tool.Category,
		Pricing:  tool.Pricing,
	}
}

// PublishToolCreated publishes a tool.created event.
func (p *Producer) PublishToolCreated(ctx context.Context, tool *domain.Tool) error {
	return p.publish(ctx, TopicToolCreated, tool.ID, AggregateTypeTool, toolData(tool))
}

// PublishToolUpdated publishes a tool.updated event.
func (p *Producer) PublishToolUpdated(ctx context.Context, tool *domain.Tool) error {
	return p.publish(ctx, TopicToolUpdated, tool.ID, AggregateTypeTool, toolData(tool))
}

// PublishToolDeleted publishes a tool.deleted event.
func (p *Producer) PublishToolDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicToolDeleted, id, AggregateTypeTool, ToolDeletedData{ID: id})
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewSubmitted, review.ID, AggregateTypeReview, ReviewSubmittedData{
		ID:     review.ID,
		ToolID: review.ToolID,
		Rating: review.Rating,
	})
}

// PublishReviewModerated publishes review.approved or review.rejected
// depending on the new status.
func (p *Producer) PublishReviewModerated(ctx context.Context, m *domain.Moderation) error {
	topic := TopicReviewRejected
	if m.Review.Status == domain.ReviewApproved {
		topic = TopicReviewApproved
	}
	return p.publish(ctx, topic, m.Review.ID, AggregateTypeReview, ReviewModeratedData{
		ID:             m.Review.ID,
		ToolID:         m.Review.ToolID,
		Rating:         m.Review.Rating,
		PreviousStatus: m.Previous,
		Status:         m.Review.Status,
		ToolAvgRating:  m.ToolAvgRating,
	})
}

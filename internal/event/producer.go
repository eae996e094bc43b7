package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	pkgkafka "github.com/Omillo-Charles/New-Testament-Backend/pkg/kafka"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/logger"
)

// Kafka topic constants for domain events. The mailer service consumes the
// user topics to deliver verification, reset, and welcome emails.
const (
	TopicUserRegistered       = "ntc.user.registered"
	TopicUserPasswordResetReq = "ntc.user.password_reset_requested"
	TopicUserPasswordChanged  = "ntc.user.password_changed"
	TopicUserEmailVerified    = "ntc.user.email_verified"
	TopicContactReceived      = "ntc.contact.received"
	TopicContactStatusChanged = "ntc.contact.status_changed"
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeContact = "contact"
)

// Source identifier for events originating from this service.
const SourceBackend = "ntc-backend"

// UserRegisteredData is the payload for a user.registered event. The
// verification token is included so the mailer can build the verify link.
type UserRegisteredData struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Role              string `json:"role"`
	VerificationToken string `json:"verification_token,omitempty"`
}

// PasswordResetRequestedData is the payload for a password_reset_requested event.
type PasswordResetRequestedData struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// PasswordChangedData is the payload for a password_changed event.
type PasswordChangedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// EmailVerifiedData is the payload for an email_verified event.
type EmailVerifiedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// ContactReceivedData is the payload for a contact.received event.
type ContactReceivedData struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
}

// ContactStatusChangedData is the payload for a contact.status_changed event.
type ContactStatusChangedData struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User, verificationToken string) error {
	data := UserRegisteredData{
		ID:                user.ID,
		Email:             user.Email,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Role:              user.Role.String(),
		VerificationToken: verificationToken,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

// PublishPasswordResetRequested publishes a password_reset_requested event.
func (p *Producer) PublishPasswordResetRequested(ctx context.Context, user *domain.User, resetToken string) error {
	data := PasswordResetRequestedData{
		UserID:     user.ID,
		Email:      user.Email,
		ResetToken: resetToken,
	}
	return p.publish(ctx, TopicUserPasswordResetReq, user.ID, AggregateTypeUser, data)
}

// PublishPasswordChanged publishes a password_changed event.
func (p *Producer) PublishPasswordChanged(ctx context.Context, user *domain.User) error {
	data := PasswordChangedData{UserID: user.ID, Email: user.Email}
	return p.publish(ctx, TopicUserPasswordChanged, user.ID, AggregateTypeUser, data)
}

// PublishEmailVerified publishes an email_verified event.
func (p *Producer) PublishEmailVerified(ctx context.Context, user *domain.User) error {
	data := EmailVerifiedData{UserID: user.ID, Email: user.Email}
	return p.publish(ctx, TopicUserEmailVerified, user.ID, AggregateTypeUser, data)
}

// PublishContactReceived publishes a contact.received event.
func (p *Producer) PublishContactReceived(ctx context.Context, contact *domain.Contact) error {
	data := ContactReceivedData{
		ID:      contact.ID,
		Name:    contact.Name,
		Email:   contact.Email,
		Subject: string(contact.Subject),
	}
	return p.publish(ctx, TopicContactReceived, contact.ID, AggregateTypeContact, data)
}

// PublishContactStatusChanged publishes a contact.status_changed event.
func (p *Producer) PublishContactStatusChanged(ctx context.Context, id string, status domain.ContactStatus) error {
	data := ContactStatusChangedData{ID: id, Status: string(status)}
	return p.publish(ctx, TopicContactStatusChanged, id, AggregateTypeContact, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	// Eventing is optional; with no broker configured events are dropped.
	if p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceBackend, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		event.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

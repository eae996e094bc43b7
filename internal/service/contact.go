package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/repository"
	apperrors "github.com/Omillo-Charles/New-Testament-Backend/pkg/errors"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/pagination"
)

const (
	statsCacheKey = "ntc:contact:stats"
	statsCacheTTL = 60 * time.Second
)

// ContactService implements contact form intake and admin moderation.
type ContactService struct {
	contactRepo repository.ContactRepository
	events      EventPublisher
	cache       *redis.Client
	logger      *slog.Logger
}

// NewContactService creates a new contact service. cache may be nil, in which
// case stats are computed on every call.
func NewContactService(
	contactRepo repository.ContactRepository,
	events EventPublisher,
	cache *redis.Client,
	logger *slog.Logger,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		events:      events,
		cache:       cache,
		logger:      logger,
	}
}

// CreateContactInput holds the parameters for a contact form submission.
type CreateContactInput struct {
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	IPAddress string
	UserAgent string
}

// Create records a new contact form submission in the pending state.
func (s *ContactService) Create(ctx context.Context, input CreateContactInput) (*domain.Contact, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Message == "" {
		return nil, apperrors.InvalidInput("message is required")
	}

	subject := domain.ContactSubject(input.Subject)
	if input.Subject == "" {
		subject = domain.SubjectGeneral
	}
	if !subject.IsValid() {
		return nil, apperrors.InvalidInput("invalid contact subject")
	}

	now := time.Now().UTC()
	contact := &domain.Contact{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Subject:   subject,
		Message:   input.Message,
		Status:    domain.ContactPending,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	s.invalidateStats(ctx)

	if err := s.events.PublishContactReceived(ctx, contact); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish contact.received event",
			slog.String("contact_id", contact.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "contact submission received",
		slog.String("contact_id", contact.ID),
		slog.String("subject", string(contact.Subject)),
	)

	return contact, nil
}

// List returns a page of submissions, newest first, optionally filtered by
// status.
func (s *ContactService) List(ctx context.Context, status string, params pagination.Params) (*pagination.Result[domain.Contact], error) {
	filter := domain.ContactStatus(status)
	if status != "" && !filter.IsValid() {
		return nil, apperrors.InvalidInput("invalid contact status")
	}

	contacts, total, err := s.contactRepo.List(ctx, filter, params)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	result := pagination.NewResult(contacts, total, params)
	return &result, nil
}

// GetByID retrieves a single submission. Fetching a pending submission marks
// it as read.
func (s *ContactService) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}

	if contact.Status == domain.ContactPending {
		if err := s.contactRepo.UpdateStatus(ctx, id, domain.ContactRead, "", ""); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark contact as read",
				slog.String("contact_id", id),
				slog.String("error", err.Error()),
			)
		} else {
			contact.Status = domain.ContactRead
			s.invalidateStats(ctx)
		}
	}

	return contact, nil
}

// UpdateStatus moves a submission to a new moderation status. respondedBy is
// the acting admin's user ID; it and responseNote are recorded only when the
// new status is responded.
func (s *ContactService) UpdateStatus(ctx context.Context, id string, status, respondedBy, responseNote string) (*domain.Contact, error) {
	newStatus := domain.ContactStatus(status)
	if !newStatus.IsValid() {
		return nil, apperrors.InvalidInput("invalid contact status")
	}

	if err := s.contactRepo.UpdateStatus(ctx, id, newStatus, respondedBy, responseNote); err != nil {
		return nil, fmt.Errorf("update contact status: %w", err)
	}

	s.invalidateStats(ctx)

	if err := s.events.PublishContactStatusChanged(ctx, id, newStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish contact.status_changed event",
			slog.String("contact_id", id),
			slog.String("error", err.Error()),
		)
	}

	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get contact after status update: %w", err)
	}

	s.logger.InfoContext(ctx, "contact status updated",
		slog.String("contact_id", id),
		slog.String("status", status),
	)

	return contact, nil
}

// Delete removes a submission.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	s.invalidateStats(ctx)

	s.logger.InfoContext(ctx, "contact deleted",
		slog.String("contact_id", id),
	)

	return nil
}

// Stats returns aggregate submission counts, served from a short-lived cache
// when available.
func (s *ContactService) Stats(ctx context.Context) (*domain.ContactStats, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, statsCacheKey).Bytes()
		if err == nil {
			var stats domain.ContactStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "contact stats cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}

	stats, err := s.contactRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("contact stats: %w", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, statsCacheTTL).Err(); err != nil {
				s.logger.WarnContext(ctx, "contact stats cache write failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return stats, nil
}

// invalidateStats drops the cached stats after any mutation.
func (s *ContactService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil {
		s.logger.WarnContext(ctx, "contact stats cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}

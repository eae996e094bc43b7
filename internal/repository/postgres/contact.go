package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	apperrors "github.com/Omillo-Charles/New-Testament-Backend/pkg/errors"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/pagination"
)

const contactColumns = `id, name, email, phone, subject, message, status,
	ip_address, user_agent, responded_by, response_note, responded_at,
	created_at, updated_at`

// ContactRepository implements repository.ContactRepository using PostgreSQL.
type ContactRepository struct {
	db DB
}

// NewContactRepository creates a new PostgreSQL-backed contact repository.
func NewContactRepository(db DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a new contact submission.
func (r *ContactRepository) Create(ctx context.Context, c *domain.Contact) error {
	query := `
		INSERT INTO contacts (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Email,
		c.Phone,
		string(c.Subject),
		c.Message,
		string(c.Status),
		c.IPAddress,
		c.UserAgent,
		c.RespondedBy,
		c.ResponseNote,
		c.RespondedAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}

	return nil
}

// GetByID retrieves a submission by its ID.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`

	c, err := scanContact(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	return c, nil
}

// List returns a page of submissions, optionally filtered by status, newest first.
func (r *ContactRepository) List(ctx context.Context, status domain.ContactStatus, params pagination.Params) ([]domain.Contact, int, error) {
	var (
		total int
		args  []any
		where string
	)

	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, string(status))
	}

	countQuery := `SELECT COUNT(*) FROM contacts` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	listQuery := fmt.Sprintf(
		`SELECT `+contactColumns+` FROM contacts`+where+` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		len(args)+1, len(args)+2,
	)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact row: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate contacts: %w", err)
	}

	return contacts, total, nil
}

// UpdateStatus changes the moderation status of a submission. Moving to
// responded also records who responded, when, and an optional note.
func (r *ContactRepository) UpdateStatus(ctx context.Context, id string, status domain.ContactStatus, respondedBy, responseNote string) error {
	now := time.Now().UTC()

	var (
		query string
		args  []any
	)
	if status == domain.ContactResponded {
		query = `
			UPDATE contacts
			SET status = $1, responded_by = $2, response_note = $3,
			    responded_at = $4, updated_at = $5
			WHERE id = $6`
		args = []any{string(status), respondedBy, responseNote, now, now, id}
	} else {
		query = `UPDATE contacts SET status = $1, updated_at = $2 WHERE id = $3`
		args = []any{string(status), now, id}
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update contact status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("contact", id)
	}

	return nil
}

// Delete removes a submission by its ID.
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM contacts WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("contact", id)
	}

	return nil
}

// Stats returns aggregate submission counts by status, by subject, and for
// the trailing seven days.
func (r *ContactRepository) Stats(ctx context.Context) (*domain.ContactStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'read'),
			COUNT(*) FILTER (WHERE status = 'responded'),
			COUNT(*) FILTER (WHERE status = 'archived'),
			COUNT(*) FILTER (WHERE created_at >= now() - interval '7 days')
		FROM contacts`

	var stats domain.ContactStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Read,
		&stats.Responded,
		&stats.Archived,
		&stats.LastWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("contact stats: %w", err)
	}

	subjectQuery := `SELECT subject, COUNT(*) FROM contacts GROUP BY subject`

	rows, err := r.db.Query(ctx, subjectQuery)
	if err != nil {
		return nil, fmt.Errorf("contact stats by subject: %w", err)
	}
	defer rows.Close()

	stats.BySubject = make(map[string]int)
	for rows.Next() {
		var (
			subject string
			count   int
		)
		if err := rows.Scan(&subject, &count); err != nil {
			return nil, fmt.Errorf("scan subject count: %w", err)
		}
		stats.BySubject[subject] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subject counts: %w", err)
	}

	return &stats, nil
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var (
		c       domain.Contact
		subject string
		status  string
	)

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&subject,
		&c.Message,
		&status,
		&c.IPAddress,
		&c.UserAgent,
		&c.RespondedBy,
		&c.ResponseNote,
		&c.RespondedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Subject = domain.ContactSubject(subject)
	c.Status = domain.ContactStatus(status)

	return &c, nil
}

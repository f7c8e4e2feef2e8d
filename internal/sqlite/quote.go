package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/phaseboard/internal/domain/quote"
	"github.com/rpggio/phaseboard/internal/repository"
)

// QuoteRepository implements quote.Repository for SQLite
type QuoteRepository struct {
	db *DB
}

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(db *DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, tenant_id, project_id, number, status, total_cents, created_by, created_at, updated_at`

// Create creates a new quote
func (r *QuoteRepository) Create(ctx context.Context, tenantID string, q *quote.Quote) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quotes (`+quoteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.ID,
		tenantID,
		nullString(q.ProjectID),
		q.Number,
		string(q.Status),
		q.TotalCents,
		q.CreatedBy,
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create quote: %w", err)
	}
	q.TenantID = tenantID
	return nil
}

// Get retrieves a quote by ID
func (r *QuoteRepository) Get(ctx context.Context, tenantID, id string) (*quote.Quote, error) {
	q, err := scanQuote(r.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = ? AND tenant_id = ?`, id, tenantID))
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return q, nil
}

// ListByProject returns every quote linked to a project
func (r *QuoteRepository) ListByProject(ctx context.Context, tenantID, projectID string) ([]quote.Quote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		WHERE tenant_id = ? AND project_id = ?
		ORDER BY created_at, id
	`, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []quote.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quote rows: %w", err)
	}
	return quotes, nil
}

// UpdateStatus sets a quote's status
func (r *QuoteRepository) UpdateStatus(ctx context.Context, tenantID, id string, status quote.Status, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE quotes SET status = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, string(status), at, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}
	return requireRow(result)
}

// SetProject links the quote to a project, or unlinks it when projectID is nil
func (r *QuoteRepository) SetProject(ctx context.Context, tenantID, id string, projectID *string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE quotes SET project_id = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, nullString(projectID), at, id, tenantID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to link quote: %w", err)
	}
	return requireRow(result)
}

func scanQuote(row rowScanner) (*quote.Quote, error) {
	var q quote.Quote
	var projectID sql.NullString
	err := row.Scan(
		&q.ID,
		&q.TenantID,
		&projectID,
		&q.Number,
		&q.Status,
		&q.TotalCents,
		&q.CreatedBy,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	q.ProjectID = stringPtr(projectID)
	return &q, nil
}

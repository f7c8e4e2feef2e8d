package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/project"
	"github.com/rpggio/phaseboard/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	id, tenant_id, name, category, event_date, description, client_id, created_by,
	derived_phase, phase_override, created_at, updated_at, archived_at
`

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, tenantID string, proj *project.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var override any
	if proj.PhaseOverride != nil {
		override = string(*proj.PhaseOverride)
	}

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		tenantID,
		proj.Name,
		string(proj.Category),
		nullTime(proj.EventDate),
		proj.Description,
		proj.ClientID,
		proj.CreatedBy,
		string(proj.DerivedPhase),
		override,
		proj.CreatedAt,
		proj.UpdatedAt,
		nullTime(proj.ArchivedAt),
	)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	proj.TenantID = tenantID
	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ? AND tenant_id = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id, tenantID))
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// List returns projects for a tenant, newest first
func (r *ProjectRepository) List(ctx context.Context, tenantID string, opts project.ListOptions) ([]project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE tenant_id = ?`
	args := []any{tenantID}
	conditions := []string{}

	if opts.ClientID != "" {
		conditions = append(conditions, "client_id = ?")
		args = append(args, opts.ClientID)
	}
	if opts.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, string(opts.Category))
	}
	if !opts.IncludeArchived {
		conditions = append(conditions, "archived_at IS NULL")
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

// Archive marks a project archived
func (r *ProjectRepository) Archive(ctx context.Context, tenantID, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE projects SET archived_at = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, at, at, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}
	return requireRow(result)
}

// UpdateDerivedPhase stores a recomputed phase. phase_override is not touched.
func (r *ProjectRepository) UpdateDerivedPhase(ctx context.Context, tenantID, id string, derived phase.Phase, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE projects SET derived_phase = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, string(derived), at, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update derived phase: %w", err)
	}
	return requireRow(result)
}

// SetOverride pins or, with a nil override, unpins a project. derived_phase is not touched.
func (r *ProjectRepository) SetOverride(ctx context.Context, tenantID, id string, override *phase.Phase, at time.Time) error {
	var value any
	if override != nil {
		value = string(*override)
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE projects SET phase_override = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, value, at, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to set phase override: %w", err)
	}
	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var proj project.Project
	var eventDate, archivedAt sql.NullTime
	var override sql.NullString

	err := row.Scan(
		&proj.ID,
		&proj.TenantID,
		&proj.Name,
		&proj.Category,
		&eventDate,
		&proj.Description,
		&proj.ClientID,
		&proj.CreatedBy,
		&proj.DerivedPhase,
		&override,
		&proj.CreatedAt,
		&proj.UpdatedAt,
		&archivedAt,
	)
	if err != nil {
		return nil, err
	}

	proj.EventDate = timePtr(eventDate)
	proj.ArchivedAt = timePtr(archivedAt)
	if override.Valid {
		pinned := phase.Phase(override.String)
		proj.PhaseOverride = &pinned
	}
	return &proj, nil
}

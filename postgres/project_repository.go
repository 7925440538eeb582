package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.phasenull.dev/portfolio/domain"
)

var _ domain.ProjectRepository = (*ProjectRepository)(nil)

const projectColumns = "id, created_at, title, description, project_start_date, project_end_date, thumbnail_url, is_visible"

// ProjectRepository provides CRUD over portfolio projects.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("select project: %w", err)
	}
	project, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Project])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("select project: %w", err)
	}
	return project, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	return r.collectProjects(ctx,
		"SELECT "+projectColumns+" FROM projects ORDER BY id ASC")
}

// ListVisible returns publishable projects, most recently finished first.
func (r *ProjectRepository) ListVisible(ctx context.Context) ([]*domain.Project, error) {
	return r.collectProjects(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE is_visible ORDER BY project_end_date DESC NULLS LAST")
}

func (r *ProjectRepository) SearchByStacks(ctx context.Context, stackIDs []int64) ([]*domain.Project, error) {
	return r.collectProjects(ctx, `
		SELECT DISTINCT p.id, p.created_at, p.title, p.description,
			p.project_start_date, p.project_end_date, p.thumbnail_url, p.is_visible
		FROM projects p
		JOIN project_to_stack pts ON pts.project_id = p.id
		WHERE pts.stack_id = ANY($1)
		ORDER BY p.id ASC`, stackIDs)
}

func (r *ProjectRepository) collectProjects(ctx context.Context, sql string, args ...interface{}) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.Project])
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Create inserts a hidden placeholder project the admin UI then edits.
func (r *ProjectRepository) Create(ctx context.Context) (*domain.Project, error) {
	rows, err := r.pool.Query(ctx, `
		INSERT INTO projects (title, description, is_visible)
		VALUES ('New Project', '', false)
		RETURNING `+projectColumns)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	project, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Project])
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// Update applies the non-nil fields of upd to one project row.
func (r *ProjectRepository) Update(ctx context.Context, id int64, upd domain.ProjectUpdate) (*domain.Project, error) {
	sets := []string{}
	args := []interface{}{id}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.ProjectStartDate != nil {
		add("project_start_date", *upd.ProjectStartDate)
	}
	if upd.ProjectEndDate != nil {
		add("project_end_date", *upd.ProjectEndDate)
	}
	if upd.ThumbnailURL != nil {
		add("thumbnail_url", *upd.ThumbnailURL)
	}
	if upd.IsVisible != nil {
		add("is_visible", *upd.IsVisible)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	rows, err := r.pool.Query(ctx,
		"UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id = $1 RETURNING "+projectColumns,
		args...)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	project, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Project])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// Delete removes a project and returns the removed row.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) (*domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		"DELETE FROM projects WHERE id = $1 RETURNING "+projectColumns, id)
	if err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	project, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Project])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("delete project: %w", err)
	}
	return project, nil
}

// AddStacks links the given stacks to a project, ignoring duplicates.
func (r *ProjectRepository) AddStacks(ctx context.Context, projectID int64, stackIDs []int64) error {
	batch := &pgx.Batch{}
	for _, stackID := range stackIDs {
		batch.Queue(`
			INSERT INTO project_to_stack (project_id, stack_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			projectID, stackID)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("add project stacks: %w", err)
	}
	return nil
}

func (r *ProjectRepository) ListRelations(ctx context.Context) ([]*domain.ProjectStack, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT project_id, stack_id FROM project_to_stack")
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	relations, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.ProjectStack])
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	return relations, nil
}

func (r *ProjectRepository) ListRelationsForProject(ctx context.Context, projectID int64) ([]*domain.ProjectStack, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT project_id, stack_id FROM project_to_stack WHERE project_id = $1", projectID)
	if err != nil {
		return nil, fmt.Errorf("list project relations: %w", err)
	}
	relations, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.ProjectStack])
	if err != nil {
		return nil, fmt.Errorf("list project relations: %w", err)
	}
	return relations, nil
}

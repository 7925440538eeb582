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

var _ domain.StackRepository = (*StackRepository)(nil)

const stackColumns = "id, key, description, created_at, url, type, image_url"

// StackRepository provides CRUD over tech-stack tags.
type StackRepository struct {
	pool *pgxpool.Pool
}

func NewStackRepository(pool *pgxpool.Pool) *StackRepository {
	return &StackRepository{pool: pool}
}

func (r *StackRepository) GetByID(ctx context.Context, id int64) (*domain.Stack, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+stackColumns+" FROM stacks WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("select stack: %w", err)
	}
	stack, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Stack])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStackNotFound
		}
		return nil, fmt.Errorf("select stack: %w", err)
	}
	return stack, nil
}

func (r *StackRepository) List(ctx context.Context) ([]*domain.Stack, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+stackColumns+" FROM stacks ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list stacks: %w", err)
	}
	stacks, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.Stack])
	if err != nil {
		return nil, fmt.Errorf("list stacks: %w", err)
	}
	return stacks, nil
}

// CreateBatch inserts new stacks, skipping rows whose key already exists.
func (r *StackRepository) CreateBatch(ctx context.Context, stacks []*domain.Stack) ([]*domain.Stack, error) {
	created := make([]*domain.Stack, 0, len(stacks))
	for _, stack := range stacks {
		rows, err := r.pool.Query(ctx, `
			INSERT INTO stacks (key, description, url, type, image_url)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (key) DO NOTHING
			RETURNING `+stackColumns,
			stack.Key, stack.Description, stack.URL, stack.Type, stack.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("insert stack: %w", err)
		}
		inserted, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Stack])
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // conflict, key already present
			}
			return nil, fmt.Errorf("insert stack: %w", err)
		}
		created = append(created, inserted)
	}
	return created, nil
}

// UpdateBatch applies each partial update in turn and returns the updated
// rows. Unknown ids are skipped, matching the admin table semantics.
func (r *StackRepository) UpdateBatch(ctx context.Context, updates []domain.StackUpdate) ([]*domain.Stack, error) {
	updated := make([]*domain.Stack, 0, len(updates))
	for _, upd := range updates {
		stack, err := r.update(ctx, upd)
		if err != nil {
			if errors.Is(err, domain.ErrStackNotFound) {
				continue
			}
			return nil, err
		}
		updated = append(updated, stack)
	}
	return updated, nil
}

func (r *StackRepository) update(ctx context.Context, upd domain.StackUpdate) (*domain.Stack, error) {
	sets := []string{}
	args := []interface{}{upd.ID}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Key != nil {
		add("key", *upd.Key)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.URL != nil {
		add("url", *upd.URL)
	}
	if upd.Type != nil {
		add("type", *upd.Type)
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, upd.ID)
	}

	rows, err := r.pool.Query(ctx,
		"UPDATE stacks SET "+strings.Join(sets, ", ")+" WHERE id = $1 RETURNING "+stackColumns,
		args...)
	if err != nil {
		return nil, fmt.Errorf("update stack: %w", err)
	}
	stack, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Stack])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStackNotFound
		}
		return nil, fmt.Errorf("update stack: %w", err)
	}
	return stack, nil
}

func (r *StackRepository) DeleteBatch(ctx context.Context, ids []int64) error {
	if _, err := r.pool.Exec(ctx,
		"DELETE FROM stacks WHERE id = ANY($1)", ids); err != nil {
		return fmt.Errorf("delete stacks: %w", err)
	}
	return nil
}

func (r *StackRepository) ListRelationsForStack(ctx context.Context, stackID int64) ([]*domain.ProjectStack, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT project_id, stack_id FROM project_to_stack WHERE stack_id = $1", stackID)
	if err != nil {
		return nil, fmt.Errorf("list stack relations: %w", err)
	}
	relations, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.ProjectStack])
	if err != nil {
		return nil, fmt.Errorf("list stack relations: %w", err)
	}
	return relations, nil
}

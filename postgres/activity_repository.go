package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.phasenull.dev/portfolio/domain"
)

var _ domain.ActivityRepository = (*ActivityRepository)(nil)

// ActivityRepository reads mirrored social activity for the public feed.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at, source, external_id, text, url
		FROM activities
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	activities, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.Activity])
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

func (r *ActivityRepository) ListRecentMedia(ctx context.Context, limit int) ([]*domain.ActivityMedia, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, activity_id, created_at, url, type
		FROM activity_media
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity media: %w", err)
	}
	media, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.ActivityMedia])
	if err != nil {
		return nil, fmt.Errorf("list activity media: %w", err)
	}
	return media, nil
}

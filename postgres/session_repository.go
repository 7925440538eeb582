package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.phasenull.dev/portfolio/domain"
)

var _ domain.SessionRepository = (*SessionRepository)(nil)

// SessionRepository persists established admin sessions. Rows are insert
// only; there is no update path.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts the session and fills in its generated id and timestamp.
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sessions (ip, bearer, account_userid, account_username, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		session.IP, session.Bearer, session.AccountUserID, session.AccountUsername, session.Data).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, ip, bearer, account_userid, account_username, created_at, data
		FROM sessions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	session, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Session])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return session, nil
}

// List returns sessions newest first, one page at a time.
func (r *SessionRepository) List(ctx context.Context, page, perPage int) ([]*domain.Session, error) {
	if page < 1 {
		page = 1
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, ip, bearer, account_userid, account_username, created_at, data
		FROM sessions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.Session])
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

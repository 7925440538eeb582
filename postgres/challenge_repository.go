package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.phasenull.dev/portfolio/domain"
)

var _ domain.ChallengeRepository = (*ChallengeRepository)(nil)

// ChallengeRepository persists PKCE login challenges.
type ChallengeRepository struct {
	pool *pgxpool.Pool
}

func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

// Create generates a fresh verifier and inserts an unused challenge row.
func (r *ChallengeRepository) Create(ctx context.Context, ip string) (*domain.Challenge, error) {
	secret, err := domain.NewCodeVerifier(domain.VerifierLength)
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		INSERT INTO code_challenges (secret, ip)
		VALUES ($1, $2)
		RETURNING id, secret, ip, created_at, used_at`,
		secret, ip)
	if err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	challenge, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Challenge])
	if err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	return challenge, nil
}

// Redeem marks the challenge used in a single conditional update, so the
// same authorization code and verifier pair cannot be replayed.
func (r *ChallengeRepository) Redeem(ctx context.Context, id int64, ip string) (*domain.Challenge, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE code_challenges
		SET used_at = now()
		WHERE id = $1 AND ip = $2 AND used_at IS NULL
		RETURNING id, secret, ip, created_at, used_at`,
		id, ip)
	if err != nil {
		return nil, fmt.Errorf("redeem challenge: %w", err)
	}
	challenge, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Challenge])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("redeem challenge: %w", err)
	}
	return challenge, nil
}

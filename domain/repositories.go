package domain

import "context"

// ChallengeRepository persists one-time PKCE verifiers.
type ChallengeRepository interface {
	// Create generates a fresh code verifier and stores it bound to the
	// caller's IP with used_at unset.
	Create(ctx context.Context, ip string) (*Challenge, error)
	// Redeem atomically marks the challenge used. It succeeds only when a
	// row exists with the given id, the same origin IP and used_at still
	// null; otherwise it returns ErrChallengeNotFound. A challenge can be
	// redeemed at most once.
	Redeem(ctx context.Context, id int64, ip string) (*Challenge, error)
}

// SessionRepository persists established admin sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id int64) (*Session, error)
	List(ctx context.Context, page, perPage int) ([]*Session, error)
}

// ProjectRepository provides CRUD over portfolio projects and their stack
// relations.
type ProjectRepository interface {
	GetByID(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
	ListVisible(ctx context.Context) ([]*Project, error)
	SearchByStacks(ctx context.Context, stackIDs []int64) ([]*Project, error)
	Create(ctx context.Context) (*Project, error)
	Update(ctx context.Context, id int64, upd ProjectUpdate) (*Project, error)
	Delete(ctx context.Context, id int64) (*Project, error)
	AddStacks(ctx context.Context, projectID int64, stackIDs []int64) error
	ListRelations(ctx context.Context) ([]*ProjectStack, error)
	ListRelationsForProject(ctx context.Context, projectID int64) ([]*ProjectStack, error)
}

// StackRepository provides CRUD over tech-stack tags.
type StackRepository interface {
	GetByID(ctx context.Context, id int64) (*Stack, error)
	List(ctx context.Context) ([]*Stack, error)
	CreateBatch(ctx context.Context, stacks []*Stack) ([]*Stack, error)
	UpdateBatch(ctx context.Context, updates []StackUpdate) ([]*Stack, error)
	DeleteBatch(ctx context.Context, ids []int64) error
	ListRelationsForStack(ctx context.Context, stackID int64) ([]*ProjectStack, error)
}

// ActivityRepository reads mirrored social activity.
type ActivityRepository interface {
	ListRecent(ctx context.Context, limit int) ([]*Activity, error)
	ListRecentMedia(ctx context.Context, limit int) ([]*ActivityMedia, error)
}

package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"go.phasenull.dev/portfolio/config"
	"go.phasenull.dev/portfolio/domain"
	apierrors "go.phasenull.dev/portfolio/errors"
	"go.phasenull.dev/portfolio/twitter"
)

// OAuthScope is requested from the provider; RequiredScope must appear in
// the granted scope for the login to count.
const (
	OAuthScope    = "tweet.read users.read"
	RequiredScope = "tweet.read"
)

// DefaultProviderTokenTTL is used when the provider omits expires_in.
const DefaultProviderTokenTTL = 7200 * time.Second

// AuthService orchestrates the two-phase admin login: Authorize issues a
// challenge and builds the provider redirect URL, Callback redeems it and
// establishes a session.
type AuthService struct {
	cfg        *config.ServerConfig
	challenges domain.ChallengeRepository
	sessions   domain.SessionRepository
	tokens     *TokenService
	provider   *twitter.Client
}

// NewAuthService wires the authorization flow controller.
func NewAuthService(
	cfg *config.ServerConfig,
	challenges domain.ChallengeRepository,
	sessions domain.SessionRepository,
	tokens *TokenService,
	provider *twitter.Client,
) *AuthService {
	return &AuthService{
		cfg:        cfg,
		challenges: challenges,
		sessions:   sessions,
		tokens:     tokens,
		provider:   provider,
	}
}

// CallbackResult is returned to the client after a successful login.
type CallbackResult struct {
	AccessToken string
	User        *twitter.User
}

// Authorize starts a login attempt for the given origin IP and returns the
// provider authorization URL. The service never redirects by itself.
func (s *AuthService) Authorize(ctx context.Context, ip string) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", apierrors.Config("JWT_SECRET is undefined in the environment")
	}
	if s.cfg.TwitterClientID == "" || s.cfg.TwitterClientSecret == "" {
		return "", apierrors.Config("TWITTER_CLIENT_ID or TWITTER_CLIENT_SECRET is undefined in the environment")
	}
	if ip == "" {
		return "", apierrors.Validation("invalid ip.")
	}

	challenge, err := s.challenges.Create(ctx, ip)
	if err != nil {
		log.Error().Err(err).Msg("failed to create login challenge")
		return "", err
	}

	state, err := s.tokens.SignState(challenge.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign state token")
		return "", err
	}

	return twitter.BuildAuthorizeURL(
		s.cfg.TwitterClientID,
		s.cfg.RedirectURI(),
		OAuthScope,
		state,
		CodeChallengeS256(challenge.Secret),
	), nil
}

// Callback completes the login: it verifies the state token, redeems the
// challenge, exchanges the code with the provider, enforces the single
// allowed admin identity and mints the session token. Any redemption
// failure rejects the login outright; the flow never proceeds with an
// empty verifier.
func (s *AuthService) Callback(ctx context.Context, code, state, ip string) (*CallbackResult, error) {
	if code == "" || state == "" {
		return nil, apierrors.Validation("code or state parameter is missing.")
	}

	claims, err := s.tokens.VerifyState(state)
	if err != nil {
		return nil, apierrors.Validation("request has expired or invalid.")
	}
	if ip == "" {
		return nil, apierrors.Validation("invalid ip.")
	}

	challenge, err := s.challenges.Redeem(ctx, claims.ChallengeID, ip)
	if err != nil {
		if errors.Is(err, domain.ErrChallengeNotFound) {
			return nil, apierrors.Validation("request has expired or invalid.")
		}
		log.Error().Err(err).Int64("challenge_id", claims.ChallengeID).Msg("challenge redemption failed")
		return nil, err
	}

	token, err := s.provider.ExchangeCode(ctx, s.cfg.TwitterClientID, s.cfg.RedirectURI(), code, challenge.Secret)
	if err != nil {
		log.Error().Err(err).Msg("provider code exchange failed")
		return nil, apierrors.Upstream("twitter api did not return an access token")
	}
	if token.AccessToken == "" {
		return nil, apierrors.Upstream("twitter api did not return an access token")
	}
	if !token.HasScope(RequiredScope) {
		return nil, apierrors.Upstream("scope is not valid")
	}

	user, err := s.provider.Me(ctx, token.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("provider identity lookup failed")
		return nil, apierrors.Upstream("twitter /users/me request failed or did not return a valid user")
	}

	if user.Username != s.cfg.TwitterUsername {
		return nil, apierrors.Forbidden("You are not allowed to see this page, if you are the portfolio owner please put your twitter username with key TWITTER_USERNAME in your .env file.")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	session := &domain.Session{
		IP:              ip,
		Bearer:          token.AccessToken,
		AccountUserID:   user.ID,
		AccountUsername: user.Name,
		Data:            data,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		log.Error().Err(err).Msg("failed to create session")
		return nil, err
	}

	ttl := DefaultProviderTokenTTL
	if token.ExpiresIn > 0 {
		ttl = time.Duration(token.ExpiresIn) * time.Second
	}
	accessToken, err := s.tokens.SignSession(session.ID, ttl)
	if err != nil {
		log.Error().Err(err).Int64("session_id", session.ID).Msg("failed to sign session token")
		return nil, err
	}

	log.Info().
		Str("username", user.Username).
		Int64("session_id", session.ID).
		Msg("admin login established")

	return &CallbackResult{AccessToken: accessToken, User: user}, nil
}

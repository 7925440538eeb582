package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portfolio "go.phasenull.dev/portfolio"
	"go.phasenull.dev/portfolio/blobstore"
	"go.phasenull.dev/portfolio/cache"
	"go.phasenull.dev/portfolio/config"
	"go.phasenull.dev/portfolio/domain"
)

// --- Stub repositories ---

type stubSessionRepo struct {
	sessions map[int64]*domain.Session
}

func (s *stubSessionRepo) Create(_ context.Context, session *domain.Session) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessionRepo) GetByID(_ context.Context, id int64) (*domain.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *stubSessionRepo) List(_ context.Context, _, _ int) ([]*domain.Session, error) {
	out := make([]*domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out, nil
}

type stubProjectRepo struct {
	visible         []*domain.Project
	listVisibleHits int
}

func (s *stubProjectRepo) GetByID(_ context.Context, id int64) (*domain.Project, error) {
	for _, p := range s.visible {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (s *stubProjectRepo) List(_ context.Context) ([]*domain.Project, error) {
	return s.visible, nil
}

func (s *stubProjectRepo) ListVisible(_ context.Context) ([]*domain.Project, error) {
	s.listVisibleHits++
	return s.visible, nil
}

func (s *stubProjectRepo) SearchByStacks(_ context.Context, _ []int64) ([]*domain.Project, error) {
	return s.visible, nil
}

func (s *stubProjectRepo) Create(_ context.Context) (*domain.Project, error) {
	return &domain.Project{ID: 99}, nil
}

func (s *stubProjectRepo) Update(_ context.Context, id int64, _ domain.ProjectUpdate) (*domain.Project, error) {
	return s.GetByID(context.Background(), id)
}

func (s *stubProjectRepo) Delete(_ context.Context, id int64) (*domain.Project, error) {
	return s.GetByID(context.Background(), id)
}

func (s *stubProjectRepo) AddStacks(_ context.Context, _ int64, _ []int64) error { return nil }

func (s *stubProjectRepo) ListRelations(_ context.Context) ([]*domain.ProjectStack, error) {
	return []*domain.ProjectStack{}, nil
}

func (s *stubProjectRepo) ListRelationsForProject(_ context.Context, _ int64) ([]*domain.ProjectStack, error) {
	return []*domain.ProjectStack{}, nil
}

type stubStackRepo struct{}

func (stubStackRepo) GetByID(_ context.Context, _ int64) (*domain.Stack, error) {
	return nil, domain.ErrStackNotFound
}
func (stubStackRepo) List(_ context.Context) ([]*domain.Stack, error) {
	return []*domain.Stack{}, nil
}
func (stubStackRepo) CreateBatch(_ context.Context, stacks []*domain.Stack) ([]*domain.Stack, error) {
	return stacks, nil
}
func (stubStackRepo) UpdateBatch(_ context.Context, _ []domain.StackUpdate) ([]*domain.Stack, error) {
	return []*domain.Stack{}, nil
}
func (stubStackRepo) DeleteBatch(_ context.Context, _ []int64) error { return nil }
func (stubStackRepo) ListRelationsForStack(_ context.Context, _ int64) ([]*domain.ProjectStack, error) {
	return []*domain.ProjectStack{}, nil
}

type stubActivityRepo struct{}

func (stubActivityRepo) ListRecent(_ context.Context, _ int) ([]*domain.Activity, error) {
	return nil, nil
}
func (stubActivityRepo) ListRecentMedia(_ context.Context, _ int) ([]*domain.ActivityMedia, error) {
	return nil, nil
}

type fakeBlobStore struct {
	key  string
	opts blobstore.PutOptions
	body []byte
}

func (f *fakeBlobStore) Put(_ context.Context, key string, r io.Reader, opts blobstore.PutOptions) error {
	f.key = key
	f.opts = opts
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.body = body
	return nil
}

// --- Harness ---

type apiFixture struct {
	echo     *echo.Echo
	tokens   *portfolio.TokenService
	sessions *stubSessionRepo
	projects *stubProjectRepo
	blobs    *fakeBlobStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	cfg := &config.ServerConfig{
		CDNBaseURL:            "https://cdn.phasenull.dev",
		ProjectsCacheTTLHours: 168,
	}
	tokens := portfolio.NewTokenService("api-test-secret")
	sessions := &stubSessionRepo{sessions: map[int64]*domain.Session{}}
	projects := &stubProjectRepo{visible: []*domain.Project{{ID: 1, Title: "shadow"}}}
	store := cache.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	blobs := &fakeBlobStore{}

	api := NewPortfolioAPI(cfg, nil, tokens, sessions, projects,
		stubStackRepo{}, stubActivityRepo{}, cache.NewReadThrough(store), blobs)

	e := echo.New()
	api.RegisterRoutes(e)
	return &apiFixture{echo: e, tokens: tokens, sessions: sessions, projects: projects, blobs: blobs}
}

func (f *apiFixture) request(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) sessionToken(t *testing.T, id int64) string {
	t.Helper()
	token, err := f.tokens.SignSession(id, time.Hour)
	require.NoError(t, err)
	return token
}

// --- Public surface ---

func TestStatusHandler(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.request(t, http.MethodGet, "/status", "", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestProjectsAllServesFromCache(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/projects/all", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.projects.listVisibleHits)

	var body struct {
		Success  bool              `json:"success"`
		Projects []*domain.Project `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Projects, 1)
	assert.Equal(t, "shadow", body.Projects[0].Title)

	// Second read within ttl comes from the cache.
	f.request(t, http.MethodGet, "/projects/all", "", nil, "")
	assert.Equal(t, 1, f.projects.listVisibleHits)

	// The invalidate flag forces a recompute.
	f.request(t, http.MethodGet, "/projects/all?invalidate=1", "", nil, "")
	assert.Equal(t, 2, f.projects.listVisibleHits)
}

func TestProjectsSearchWithoutParam(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.request(t, http.MethodGet, "/projects/search", "", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Cant find search param: stacks", body.Message)
}

func TestProjectsSearchRejectsBadIDs(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.request(t, http.MethodGet, "/projects/search?stacks=1,abc", "", nil, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentActivitiesReturnsEmptyLists(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.request(t, http.MethodGet, "/social/get-recent-activities", "", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"activity_list":[],"media_list":[]}`, rec.Body.String())
}

func TestProjectNotFound(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.request(t, http.MethodGet, "/projects/404", "", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Guarded surface ---

func TestAdminRoutesRejectAnonymous(t *testing.T) {
	f := newAPIFixture(t)
	for _, target := range []string{"/admin/whoami", "/admin/list-sessions", "/admin/projects", "/admin/stacks"} {
		rec := f.request(t, http.MethodGet, target, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestWhoAmI(t *testing.T) {
	f := newAPIFixture(t)
	f.sessions.sessions[7] = &domain.Session{
		ID:              7,
		IP:              "203.0.113.1",
		Bearer:          "provider-secret-token",
		AccountUserID:   "1337",
		AccountUsername: "phase null",
	}
	token := f.sessionToken(t, 7)

	rec := f.request(t, http.MethodGet, "/admin/whoami", token, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"account_userid":"1337"`)
	// The provider bearer never leaves the server.
	assert.NotContains(t, rec.Body.String(), "provider-secret-token")
}

func TestWhoAmIUnknownSession(t *testing.T) {
	f := newAPIFixture(t)
	token := f.sessionToken(t, 404)

	rec := f.request(t, http.MethodGet, "/admin/whoami", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSessionsRedactsBearer(t *testing.T) {
	f := newAPIFixture(t)
	f.sessions.sessions[7] = &domain.Session{ID: 7, Bearer: "provider-secret-token", AccountUserID: "1337"}
	f.sessions.sessions[8] = &domain.Session{ID: 8, Bearer: "another-secret", AccountUserID: "1337"}
	token := f.sessionToken(t, 7)

	rec := f.request(t, http.MethodGet, "/admin/list-sessions", token, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "provider-secret-token")
	assert.NotContains(t, rec.Body.String(), "another-secret")
	assert.NotContains(t, rec.Body.String(), "bearer")
}

func TestAdminUpdateProjectRefreshesCache(t *testing.T) {
	f := newAPIFixture(t)
	token := f.sessionToken(t, 7)
	f.sessions.sessions[7] = &domain.Session{ID: 7}

	body := strings.NewReader(`{"title":"renamed"}`)
	rec := f.request(t, http.MethodPatch, "/admin/projects/1", token, body, echo.MIMEApplicationJSON)

	assert.Equal(t, http.StatusOK, rec.Code)
	// The write recomputed the public aggregate.
	assert.Equal(t, 1, f.projects.listVisibleHits)
}

func TestAdminCreateStacksRequiresKeys(t *testing.T) {
	f := newAPIFixture(t)
	token := f.sessionToken(t, 7)

	rec := f.request(t, http.MethodPut, "/admin/stacks", token,
		strings.NewReader(`{"rows":[{"description":"no key"}]}`), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(t, http.MethodPut, "/admin/stacks", token,
		strings.NewReader(`{"rows":[]}`), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMediaUpload(t *testing.T) {
	f := newAPIFixture(t)
	token := f.sessionToken(t, 7)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := f.request(t, http.MethodPut, "/admin/media/upload", token, &buf, writer.FormDataContentType())
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "https://cdn.phasenull.dev/"+f.blobs.key, body.URL)
	assert.True(t, strings.HasPrefix(f.blobs.key, "uploads/"))
	assert.NotContains(t, f.blobs.key, "-")
	assert.Equal(t, []byte("png-bytes"), f.blobs.body)
}

func TestMediaUploadWithoutFile(t *testing.T) {
	f := newAPIFixture(t)
	token := f.sessionToken(t, 7)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("other", "value"))
	require.NoError(t, writer.Close())

	rec := f.request(t, http.MethodPut, "/admin/media/upload", token, &buf, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No file provided")
}

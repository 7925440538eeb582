// Package echoapi exposes the portfolio HTTP surface on an echo router.
package echoapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	portfolio "go.phasenull.dev/portfolio"
	"go.phasenull.dev/portfolio/blobstore"
	"go.phasenull.dev/portfolio/cache"
	"go.phasenull.dev/portfolio/config"
	"go.phasenull.dev/portfolio/domain"
	apierrors "go.phasenull.dev/portfolio/errors"
)

// ipHeader carries the original client IP set by the edge proxy.
const ipHeader = "CF-Connecting-IP"

// projectsCacheKey is the logical name of the public aggregate snapshot.
const projectsCacheKey = "projects_all"

const recentActivitiesLimit = 100

// PortfolioAPI holds the handler dependencies.
type PortfolioAPI struct {
	cfg        *config.ServerConfig
	auth       *portfolio.AuthService
	tokens     *portfolio.TokenService
	sessions   domain.SessionRepository
	projects   domain.ProjectRepository
	stacks     domain.StackRepository
	activities domain.ActivityRepository
	cache      *cache.ReadThrough
	blobs      blobstore.Store
}

// NewPortfolioAPI initializes the API.
func NewPortfolioAPI(
	cfg *config.ServerConfig,
	auth *portfolio.AuthService,
	tokens *portfolio.TokenService,
	sessions domain.SessionRepository,
	projects domain.ProjectRepository,
	stacks domain.StackRepository,
	activities domain.ActivityRepository,
	readThrough *cache.ReadThrough,
	blobs blobstore.Store,
) *PortfolioAPI {
	return &PortfolioAPI{
		cfg:        cfg,
		auth:       auth,
		tokens:     tokens,
		sessions:   sessions,
		projects:   projects,
		stacks:     stacks,
		activities: activities,
		cache:      readThrough,
		blobs:      blobs,
	}
}

// RegisterRoutes registers the public and admin routes.
func (a *PortfolioAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/status", a.StatusHandler)
	e.GET("/projects/all", a.ProjectsAllHandler)
	e.GET("/projects/search", a.ProjectsSearchHandler)
	e.GET("/projects/:id", a.ProjectHandler)
	e.GET("/social/get-recent-activities", a.RecentActivitiesHandler)

	admin := e.Group("/admin")
	admin.GET("/oauth/authorize", a.AuthorizeHandler)
	admin.GET("/oauth/callback", a.CallbackHandler)

	guarded := admin.Group("", RequireSession(a.tokens))
	guarded.GET("/whoami", a.WhoAmIHandler)
	guarded.GET("/list-sessions", a.ListSessionsHandler)

	guarded.GET("/projects", a.AdminListProjectsHandler)
	guarded.GET("/projects/:id", a.AdminGetProjectHandler)
	guarded.PUT("/projects", a.AdminCreateProjectHandler)
	guarded.PATCH("/projects/:id", a.AdminUpdateProjectHandler)
	guarded.DELETE("/projects/:id", a.AdminDeleteProjectHandler)
	guarded.POST("/projects/:id/stacks", a.AdminAddProjectStacksHandler)

	guarded.GET("/stacks", a.AdminListStacksHandler)
	guarded.GET("/stacks/:id", a.AdminGetStackHandler)
	guarded.PUT("/stacks", a.AdminCreateStacksHandler)
	guarded.PATCH("/stacks", a.AdminUpdateStacksHandler)
	guarded.DELETE("/stacks", a.AdminDeleteStacksHandler)

	guarded.PUT("/media/upload", a.MediaUploadHandler)
}

// apiError converts any error to the uniform {success:false, message} body.
func apiError(c echo.Context, err error) error {
	status := apierrors.StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
	}
	return c.JSON(status, echo.Map{
		"success": false,
		"message": apierrors.MessageOf(err),
	})
}

func clientIP(c echo.Context) string {
	return c.Request().Header.Get(ipHeader)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierrors.Validation("Invalid ID")
	}
	return id, nil
}

func (a *PortfolioAPI) StatusHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ProjectsAllHandler serves the cached public aggregate. The invalidate
// query parameter forces a recompute.
func (a *PortfolioAPI) ProjectsAllHandler(c echo.Context) error {
	force := c.QueryParam("invalidate") != ""
	blob, err := a.cache.Read(c.Request().Context(), projectsCacheKey,
		a.cfg.ProjectsCacheTTL(), force, a.computeProjectsAggregate)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSONBlob(http.StatusOK, blob)
}

// computeProjectsAggregate is the expensive read the cache wraps: visible
// projects, all stacks and all relations, fetched concurrently.
func (a *PortfolioAPI) computeProjectsAggregate(ctx context.Context) (interface{}, error) {
	var (
		projects  []*domain.Project
		stacks    []*domain.Stack
		relations []*domain.ProjectStack
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = a.projects.ListVisible(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stacks, err = a.stacks.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		relations, err = a.projects.ListRelations(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return echo.Map{
		"success":   true,
		"projects":  projects,
		"stacks":    stacks,
		"relations": relations,
	}, nil
}

// refreshProjectsCache recomputes the aggregate after an admin write. A
// refresh failure only costs freshness, so it is logged and swallowed.
func (a *PortfolioAPI) refreshProjectsCache(ctx context.Context) {
	_, err := a.cache.Read(ctx, projectsCacheKey, a.cfg.ProjectsCacheTTL(), true, a.computeProjectsAggregate)
	if err != nil {
		log.Warn().Err(err).Msg("failed to refresh projects cache")
	}
}

func (a *PortfolioAPI) ProjectsSearchHandler(c echo.Context) error {
	raw := c.QueryParam("stacks")
	if raw == "" {
		return c.JSON(http.StatusOK, echo.Map{
			"success":  true,
			"projects": []*domain.Project{},
			"message":  "Cant find search param: stacks",
		})
	}
	parts := strings.Split(raw, ",")
	stackIDs := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return apiError(c, apierrors.Validation("Invalid stack IDs"))
		}
		stackIDs = append(stackIDs, id)
	}
	projects, err := a.projects.SearchByStacks(c.Request().Context(), stackIDs)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "projects": projects})
}

func (a *PortfolioAPI) ProjectHandler(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return apiError(c, apierrors.Validation("Invalid project ID"))
	}
	ctx := c.Request().Context()

	project, err := a.projects.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrProjectNotFound {
			return apiError(c, apierrors.NotFound("Project not found"))
		}
		return apiError(c, err)
	}
	stacks, err := a.stacks.List(ctx)
	if err != nil {
		return apiError(c, err)
	}
	relations, err := a.projects.ListRelationsForProject(ctx, id)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"project":   project,
		"stacks":    stacks,
		"relations": relations,
	})
}

// RecentActivitiesHandler returns the latest mirrored social posts and
// their media, fetched in parallel.
func (a *PortfolioAPI) RecentActivitiesHandler(c echo.Context) error {
	var (
		activities []*domain.Activity
		media      []*domain.ActivityMedia
	)
	g, gctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		activities, err = a.activities.ListRecent(gctx, recentActivitiesLimit)
		return err
	})
	g.Go(func() error {
		var err error
		media, err = a.activities.ListRecentMedia(gctx, recentActivitiesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return apiError(c, err)
	}
	if activities == nil {
		activities = []*domain.Activity{}
	}
	if media == nil {
		media = []*domain.ActivityMedia{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"activity_list": activities,
		"media_list":    media,
	})
}

// AuthorizeHandler starts the admin login and returns the provider URL;
// the caller performs the redirect.
func (a *PortfolioAPI) AuthorizeHandler(c echo.Context) error {
	url, err := a.auth.Authorize(c.Request().Context(), clientIP(c))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "url": url})
}

// CallbackHandler completes the admin login.
func (a *PortfolioAPI) CallbackHandler(c echo.Context) error {
	result, err := a.auth.Callback(c.Request().Context(),
		c.QueryParam("code"), c.QueryParam("state"), clientIP(c))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"access_token": result.AccessToken,
		"user":         result.User,
	})
}

package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"go.phasenull.dev/portfolio/blobstore"
	"go.phasenull.dev/portfolio/domain"
	apierrors "go.phasenull.dev/portfolio/errors"
)

const (
	sessionsPerPage = 20
	maxUploadBytes  = 50 * 1024 * 1024
)

// WhoAmIHandler resolves the full session row for the authenticated caller.
func (a *PortfolioAPI) WhoAmIHandler(c echo.Context) error {
	claims, ok := SessionFromContext(c)
	if !ok {
		return apiError(c, apierrors.Auth("Invalid token."))
	}
	session, err := a.sessions.GetByID(c.Request().Context(), claims.SessionID)
	if err != nil {
		if err == domain.ErrSessionNotFound {
			return apiError(c, apierrors.NotFound("session not found"))
		}
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": session})
}

// ListSessionsHandler pages through past logins. The session struct never
// serializes its bearer token.
func (a *PortfolioAPI) ListSessionsHandler(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	sessions, err := a.sessions.List(c.Request().Context(), page, sessionsPerPage)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"sessions": sessions,
		"page":     page,
	})
}

func (a *PortfolioAPI) AdminListProjectsHandler(c echo.Context) error {
	projects, err := a.projects.List(c.Request().Context())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "projects": projects})
}

func (a *PortfolioAPI) AdminGetProjectHandler(c echo.Context) error {
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

func (a *PortfolioAPI) AdminCreateProjectHandler(c echo.Context) error {
	project, err := a.projects.Create(c.Request().Context())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Project created successfully",
		"project": project,
	})
}

func (a *PortfolioAPI) AdminUpdateProjectHandler(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return apiError(c, apierrors.Validation("Invalid project ID"))
	}
	var upd domain.ProjectUpdate
	if err := c.Bind(&upd); err != nil {
		return apiError(c, apierrors.Validation("Invalid request body"))
	}
	ctx := c.Request().Context()
	project, err := a.projects.Update(ctx, id, upd)
	if err != nil {
		if err == domain.ErrProjectNotFound {
			return apiError(c, apierrors.NotFound("Project not found"))
		}
		return apiError(c, err)
	}
	a.refreshProjectsCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Project updated successfully",
		"project": project,
	})
}

func (a *PortfolioAPI) AdminDeleteProjectHandler(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return apiError(c, apierrors.Validation("Invalid project ID"))
	}
	ctx := c.Request().Context()
	deleted, err := a.projects.Delete(ctx, id)
	if err != nil {
		if err == domain.ErrProjectNotFound {
			return apiError(c, apierrors.NotFound("No project found"))
		}
		return apiError(c, err)
	}
	a.refreshProjectsCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Project deleted successfully",
		"deleted": deleted,
	})
}

type addProjectStacksRequest struct {
	StackIDs []int64 `json:"stack_ids"`
}

func (a *PortfolioAPI) AdminAddProjectStacksHandler(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return apiError(c, apierrors.Validation("Invalid project ID"))
	}
	var req addProjectStacksRequest
	if err := c.Bind(&req); err != nil || len(req.StackIDs) == 0 {
		return apiError(c, apierrors.Validation("Invalid stack IDs"))
	}
	ctx := c.Request().Context()
	if err := a.projects.AddStacks(ctx, id, req.StackIDs); err != nil {
		return apiError(c, err)
	}
	a.refreshProjectsCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Project stacks updated successfully",
	})
}

func (a *PortfolioAPI) AdminListStacksHandler(c echo.Context) error {
	stacks, err := a.stacks.List(c.Request().Context())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stacks": stacks})
}

func (a *PortfolioAPI) AdminGetStackHandler(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return apiError(c, apierrors.Validation("Invalid stack ID"))
	}
	ctx := c.Request().Context()
	stack, err := a.stacks.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrStackNotFound {
			return apiError(c, apierrors.NotFound("Stack not found"))
		}
		return apiError(c, err)
	}
	relations, err := a.stacks.ListRelationsForStack(ctx, id)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"stack":     stack,
		"relations": relations,
	})
}

type stackRowsRequest struct {
	Rows []struct {
		Key         string            `json:"key"`
		Description *string           `json:"description"`
		URL         *string           `json:"url"`
		Type        *domain.StackType `json:"type"`
		ImageURL    *string           `json:"image_url"`
	} `json:"rows"`
}

func (a *PortfolioAPI) AdminCreateStacksHandler(c echo.Context) error {
	var req stackRowsRequest
	if err := c.Bind(&req); err != nil || len(req.Rows) == 0 {
		return apiError(c, apierrors.Validation("No rows provided"))
	}
	stacks := make([]*domain.Stack, 0, len(req.Rows))
	for _, row := range req.Rows {
		if row.Key == "" {
			return apiError(c, apierrors.Validation("All rows must have a key"))
		}
		stacks = append(stacks, &domain.Stack{
			Key:         row.Key,
			Description: row.Description,
			URL:         row.URL,
			Type:        row.Type,
			ImageURL:    row.ImageURL,
		})
	}
	ctx := c.Request().Context()
	created, err := a.stacks.CreateBatch(ctx, stacks)
	if err != nil {
		return apiError(c, err)
	}
	a.refreshProjectsCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Stacks created successfully",
		"data":    created,
	})
}

type updateStacksRequest struct {
	Rows []domain.StackUpdate `json:"rows"`
}

func (a *PortfolioAPI) AdminUpdateStacksHandler(c echo.Context) error {
	var req updateStacksRequest
	if err := c.Bind(&req); err != nil || len(req.Rows) == 0 {
		return apiError(c, apierrors.Validation("No rows provided"))
	}
	ctx := c.Request().Context()
	updated, err := a.stacks.UpdateBatch(ctx, req.Rows)
	if err != nil {
		return apiError(c, err)
	}
	a.refreshProjectsCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Stacks updated successfully",
		"result":  updated,
	})
}

type deleteStacksRequest struct {
	IDs []int64 `json:"ids"`
}

func (a *PortfolioAPI) AdminDeleteStacksHandler(c echo.Context) error {
	var req deleteStacksRequest
	if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
		return apiError(c, apierrors.Validation("Invalid stack IDs"))
	}
	ctx := c.Request().Context()
	if err := a.stacks.DeleteBatch(ctx, req.IDs); err != nil {
		return apiError(c, err)
	}
	a.refreshProjectsCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Stacks deleted successfully",
	})
}

// MediaUploadHandler streams a multipart file into the blob store and
// returns its CDN URL.
func (a *PortfolioAPI) MediaUploadHandler(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apiError(c, apierrors.Validation("No file provided"))
	}
	if fileHeader.Size > maxUploadBytes {
		return apiError(c, apierrors.Validation("File size exceeds 50MB"))
	}
	src, err := fileHeader.Open()
	if err != nil {
		return apiError(c, err)
	}
	defer src.Close()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	key := "uploads/" + name
	opts := blobstore.PutOptions{
		ContentType:        fileHeader.Header.Get("Content-Type"),
		ContentDisposition: fmt.Sprintf("inline; filename=%q", name),
		CacheControl:       "public, max-age=31536000, immutable",
	}
	if err := a.blobs.Put(c.Request().Context(), key, src, opts); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "File uploaded successfully",
		"url":     a.cfg.CDNBaseURL + "/" + key,
	})
}

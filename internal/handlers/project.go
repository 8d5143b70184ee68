package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/collabhub/backend/internal/dto"
	apperrors "github.com/collabhub/backend/internal/errors"
	"github.com/collabhub/backend/internal/middleware"
	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/services"
	"github.com/collabhub/backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// ProjectHandler coordinates project-related HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject creates a new project owned by the caller.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	type CreateProjectRequest struct {
		Key         string `json:"key" binding:"required,min=2,max=20,alphanum"`
		Name        string `json:"name" binding:"required,max=255"`
		Description string `json:"description"`
		IsPublic    bool   `json:"is_public"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	authCtx, ok := middleware.GetAuth(c)
	if !ok {
		apperrors.Unauthorized(c, "", "")
		return
	}

	project, err := h.projectService.CreateProject(authCtx.UserID, services.CreateProjectInput{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// ListProjects lists projects the caller owns or belongs to.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	authCtx, ok := middleware.GetAuth(c)
	if !ok {
		apperrors.Unauthorized(c, "", "")
		return
	}

	projects, err := h.projectService.ListProjects(authCtx.UserID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	projectDTOs := make([]dto.ProjectDTO, len(projects))
	for i, project := range projects {
		projectDTOs[i] = dto.ToProjectDTO(project)
	}

	c.JSON(http.StatusOK, gin.H{"projects": projectDTOs})
}

// GetProject returns one project with the caller's resolved role.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	project, acc, err := h.projectService.GetProject(projectID, middleware.CurrentUserID(c))
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*project, acc.Role))
}

// UpdateProject applies changes to a project.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	type UpdateProjectRequest struct {
		Name        *string `json:"name" binding:"omitempty,max=255"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"is_public"`
		IsArchived  *bool   `json:"is_archived"`
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(projectID, middleware.CurrentUserID(c), services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		IsArchived:  req.IsArchived,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject removes a project.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	if err := h.projectService.DeleteProject(projectID, middleware.CurrentUserID(c)); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted",
	})
}

// ListMembers lists the project's members.
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	params := utils.GetPaginationParams(c)

	members, total, err := h.projectService.ListMembers(projectID, middleware.CurrentUserID(c), params)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberListDTO(members, params, total))
}

// AddMember adds a user to the project.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	type AddMemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.projectService.AddMember(projectID, middleware.CurrentUserID(c), req.UserID, models.ProjectRole(req.Role))
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"project_id": member.ProjectID,
		"user_id":    member.UserID,
		"role":       member.Role,
	})
}

// UpdateMember changes a member's role.
func (h *ProjectHandler) UpdateMember(c *gin.Context) {
	type UpdateMemberRequest struct {
		Role string `json:"role" binding:"required"`
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid user ID")
		return
	}

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.projectService.UpdateMemberRole(projectID, middleware.CurrentUserID(c), targetID, models.ProjectRole(req.Role))
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": member.ProjectID,
		"user_id":    member.UserID,
		"role":       member.Role,
	})
}

// RemoveMember removes a member from the project.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.projectService.RemoveMember(projectID, middleware.CurrentUserID(c), targetID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed",
	})
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrMemberNotFound):
		apperrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		apperrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrProjectKeyTaken),
		errors.Is(err, services.ErrAlreadyMember):
		apperrors.Conflict(c, "", err.Error())
	case errors.Is(err, services.ErrInvalidProjectName),
		errors.Is(err, services.ErrInvalidProjectKey),
		errors.Is(err, services.ErrInvalidMemberRole):
		apperrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apperrors.NotFound(c, err.Error())
	default:
		apperrors.InternalError(c, "")
	}
}

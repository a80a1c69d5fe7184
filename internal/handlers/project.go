package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"teamboard/internal/middleware"
	"teamboard/internal/services"
	"teamboard/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB, pub services.Publisher) *ProjectHandler {
	return &ProjectHandler{projectService: services.NewProjectService(db, pub)}
}

// List returns the actor's projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"count": len(projects), "projects": projects})
}

// Get returns a project with its tasks
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, tasks, err := h.projectService.Get(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"project": project, "tasks": tasks})
}

// Create creates a new project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "project created successfully", gin.H{"project": project})
}

// Update applies a partial update to a project
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(id, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "project updated successfully", gin.H{"project": project})
}

// Delete removes a project and everything it owns
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.projectService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "project and all associated tasks deleted successfully", nil)
}

// AddMember adds a user to the project
// POST /api/projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.AddMember(id, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "member added successfully", gin.H{"project": project})
}

// RemoveMember removes a user from the project
// DELETE /api/projects/:id/members/:userId
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	userID, err := parseID(c, "userId")
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	project, err := h.projectService.RemoveMember(id, userID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "member removed successfully", gin.H{"project": project})
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id), err
}

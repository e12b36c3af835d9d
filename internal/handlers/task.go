package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskroom/internal/dto"
	apierrors "github.com/yukikurage/taskroom/internal/errors"
	"github.com/yukikurage/taskroom/internal/middleware"
	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/services"
	"github.com/yukikurage/taskroom/internal/utils"
)

// TaskHandler serves the task board. Every route runs behind RequireTenant.
type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// taskRequest is the body of create and full edit
type taskRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description string  `json:"description"`
	Department  string  `json:"department" binding:"max=255"`
	AssignedTo  *uint64 `json:"assigned_to"`
	Severity    int     `json:"severity" binding:"required,min=1,max=4"`
}

// ListTasks returns a page of the tenant's tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	scope, _, ok := tenantAndUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		Scope:    scope,
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		input.Status = &s
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// GetBoard returns the tenant's tasks grouped by status with progress
func (h *TaskHandler) GetBoard(c *gin.Context) {
	scope, _, ok := tenantAndUser(c)
	if !ok {
		return
	}

	board, err := h.taskService.GetBoard(c.Request.Context(), scope)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(board))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	scope, _, ok := tenantAndUser(c)
	if !ok {
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), scope, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task in the "To Do" column
func (h *TaskHandler) CreateTask(c *gin.Context) {
	scope, userID, ok := tenantAndUser(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Scope:       scope,
		ActorID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Department:  req.Department,
		AssignedTo:  req.AssignedTo,
		Severity:    req.Severity,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask overwrites every editable field of a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	scope, userID, ok := tenantAndUser(c)
	if !ok {
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), scope, taskID, userID, services.UpdateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Department:  req.Department,
		AssignedTo:  req.AssignedTo,
		Severity:    req.Severity,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTaskStatus moves a task to another column (drag and drop)
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	scope, userID, ok := tenantAndUser(c)
	if !ok {
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	type StatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.SetStatus(c.Request.Context(), scope, taskID, models.TaskStatus(req.Status), userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ToggleTaskStatus flips a task between "Done" and "To Do" (checkbox)
func (h *TaskHandler) ToggleTaskStatus(c *gin.Context) {
	scope, userID, ok := tenantAndUser(c)
	if !ok {
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleStatus(c.Request.Context(), scope, taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// GenerateTasks drafts task suggestions from text using AI. Nothing is stored.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	if _, _, ok := tenantAndUser(c); !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.taskService.GenerateTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDraftDTOs(drafts),
	})
}

func parseTaskID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return 0, false
	}
	return id, true
}

// tenantAndUser reads the values stored by RequireAuth and RequireTenant.
func tenantAndUser(c *gin.Context) (models.TenantScope, uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return models.TenantScope{}, 0, false
	}
	scope, exists := middleware.GetTenant(c)
	if !exists {
		apierrors.InternalError(c, "Tenant not resolved")
		return models.TenantScope{}, 0, false
	}
	return scope, userID, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskNameRequired),
		errors.Is(err, services.ErrInvalidSeverity),
		errors.Is(err, services.ErrStatusRequired),
		errors.Is(err, services.ErrDraftTextRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	case errors.Is(err, services.ErrAIRequestFailed):
		apierrors.BadGateway(c, "AI service request failed")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.InvalidOperation(c, err.Error())
	default:
		log.Printf("task request failed: %v", err)
		apierrors.InternalError(c, "Internal server error")
	}
}

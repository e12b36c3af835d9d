package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yukikurage/taskroom/internal/cache"
	"github.com/yukikurage/taskroom/internal/constants"
	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/repository"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTaskNameRequired       = errors.New("name is required")
	ErrInvalidSeverity        = fmt.Errorf("severity must be between %d and %d", constants.MinSeverity, constants.MaxSeverity)
	ErrStatusRequired         = errors.New("status is required")
	ErrDraftTextRequired      = errors.New("text is required")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAIRequestFailed        = errors.New("AI request failed")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic. Every operation runs inside a tenant scope.
type TaskService struct {
	taskRepo  repository.TaskRepository
	cache     cache.BoardCache
	aiService *AIService
	sf        singleflight.Group
}

// NewTaskService creates a new TaskService. A nil boardCache disables caching
// and a nil aiService disables drafting.
func NewTaskService(taskRepo repository.TaskRepository, boardCache cache.BoardCache, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		cache:     boardCache,
		aiService: aiService,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Scope       models.TenantScope
	ActorID     uint64
	Name        string
	Description string
	Department  string
	AssignedTo  *uint64
	Severity    int
}

// UpdateTaskInput carries every editable field; all of them are overwritten.
type UpdateTaskInput struct {
	Name        string
	Description string
	Department  string
	AssignedTo  *uint64
	Severity    int
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Scope    models.TenantScope
	Status   *models.TaskStatus
	Page     int
	PageSize int
}

// BoardColumn is one status column of the board, in database order.
type BoardColumn struct {
	Status models.TaskStatus
	Tasks  []models.Task
}

type BoardProgress struct {
	Done       int
	Total      int
	Percentage float64
}

// Board groups every task of a scope by status.
type Board struct {
	Columns []BoardColumn
	// Other holds tasks whose status is not one of the columns.
	Other    []models.Task
	Progress BoardProgress
}

// CreateTask stores a new task in the "To Do" column of the scope
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTaskNameRequired
	}
	if !validSeverity(input.Severity) {
		return nil, ErrInvalidSeverity
	}

	task := &models.Task{
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		Department:     strings.TrimSpace(input.Department),
		AssignedTo:     input.AssignedTo,
		Severity:       input.Severity,
		Status:         models.TaskStatusTodo,
		OwnerID:        input.Scope.OwnerID,
		OrganizationID: input.Scope.OrganizationID,
		CreatedByID:    input.ActorID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidate(ctx, input.Scope)
	return task, nil
}

// GetTask returns a task of the scope
func (s *TaskService) GetTask(ctx context.Context, scope models.TenantScope, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, scope, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ListTasks returns a page of the scope's tasks in database order
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		Scope:    input.Scope,
		Status:   input.Status,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// GetBoard returns the scope's tasks grouped into status columns with progress
func (s *TaskService) GetBoard(ctx context.Context, scope models.TenantScope) (*Board, error) {
	tasks, err := s.boardTasks(ctx, scope)
	if err != nil {
		return nil, err
	}
	return BuildBoard(tasks), nil
}

// BuildBoard groups tasks by status, keeping their relative order.
func BuildBoard(tasks []models.Task) *Board {
	board := &Board{
		Columns: make([]BoardColumn, len(models.BoardStatuses)),
		Other:   []models.Task{},
	}
	index := make(map[models.TaskStatus]int, len(models.BoardStatuses))
	for i, status := range models.BoardStatuses {
		board.Columns[i] = BoardColumn{Status: status, Tasks: []models.Task{}}
		index[status] = i
	}

	for _, task := range tasks {
		if i, ok := index[task.Status]; ok {
			board.Columns[i].Tasks = append(board.Columns[i].Tasks, task)
		} else {
			board.Other = append(board.Other, task)
		}
		if task.Status == models.TaskStatusDone {
			board.Progress.Done++
		}
	}

	board.Progress.Total = len(tasks)
	if board.Progress.Total > 0 {
		board.Progress.Percentage = float64(board.Progress.Done) / float64(board.Progress.Total) * 100
	}
	return board
}

// boardFillTimeout bounds a shared board fill, which outlives the request that started it.
const boardFillTimeout = 5 * time.Second

func (s *TaskService) boardTasks(ctx context.Context, scope models.TenantScope) ([]models.Task, error) {
	load := func(ctx context.Context) ([]models.Task, error) {
		tasks, _, err := s.taskRepo.List(ctx, repository.TaskFilter{Scope: scope})
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		return tasks, nil
	}

	if s.cache == nil {
		return load(ctx)
	}

	gen, err := s.cache.Generation(ctx, scope)
	if err != nil {
		log.Printf("board cache generation read failed for %s: %v", cache.GenerationKey(scope), err)
		return load(ctx)
	}
	key := cache.BoardKey(scope, gen)

	// Followers share the leader's fill, so it must not die with the leader's request.
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), boardFillTimeout)
		defer cancel()

		cached, err := s.cache.GetBoard(fillCtx, scope, gen)
		if err != nil {
			log.Printf("board cache read failed for %s: %v", key, err)
		} else if cached != nil {
			return cached, nil
		}

		tasks, err := load(fillCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetBoard(fillCtx, scope, gen, tasks); err != nil {
			log.Printf("board cache write failed for %s: %v", key, err)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Task), nil
}

// UpdateTask overwrites the editable fields of a task. Status is untouched.
func (s *TaskService) UpdateTask(ctx context.Context, scope models.TenantScope, taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTaskNameRequired
	}
	if !validSeverity(input.Severity) {
		return nil, ErrInvalidSeverity
	}

	rows, err := s.taskRepo.UpdateFields(ctx, scope, taskID, repository.TaskFields{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Department:  strings.TrimSpace(input.Department),
		AssignedTo:  input.AssignedTo,
		Severity:    input.Severity,
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if rows == 0 {
		return nil, ErrTaskNotFound
	}

	s.invalidate(ctx, scope)
	return s.GetTask(ctx, scope, taskID)
}

// SetStatus moves a task to another column. Any non-empty status is accepted
// and concurrent writers are not detected: the last write wins.
func (s *TaskService) SetStatus(ctx context.Context, scope models.TenantScope, taskID uint64, status models.TaskStatus, actorID uint64) (*models.Task, error) {
	status = models.TaskStatus(strings.TrimSpace(string(status)))
	if status == "" {
		return nil, ErrStatusRequired
	}

	rows, err := s.taskRepo.UpdateStatus(ctx, scope, taskID, status, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if rows == 0 {
		return nil, ErrTaskNotFound
	}

	s.invalidate(ctx, scope)
	return s.GetTask(ctx, scope, taskID)
}

// ToggleStatus toggles a task between "Done" and "To Do"
func (s *TaskService) ToggleStatus(ctx context.Context, scope models.TenantScope, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.GetTask(ctx, scope, taskID)
	if err != nil {
		return nil, err
	}

	next := models.TaskStatusDone
	if task.Status == models.TaskStatusDone {
		next = models.TaskStatusTodo
	}

	return s.SetStatus(ctx, scope, taskID, next, actorID)
}

// GenerateTasks uses AI to draft tasks from text. Nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, text string) ([]TaskDraft, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrDraftTextRequired
	}

	drafts, err := s.aiService.DraftTasks(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAIRequestFailed, err)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	valid := make([]TaskDraft, 0, len(drafts))
	for _, d := range drafts {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			continue
		}
		d.Severity = clampSeverity(d.Severity)
		valid = append(valid, d)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}
	return valid, nil
}

// invalidate drops the scope's cached board. Failures are logged only;
// the write has already been committed.
func (s *TaskService) invalidate(ctx context.Context, scope models.TenantScope) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scope); err != nil {
		log.Printf("board cache invalidation failed for %s: %v", cache.GenerationKey(scope), err)
	}
}

func validSeverity(v int) bool {
	return v >= constants.MinSeverity && v <= constants.MaxSeverity
}

func clampSeverity(v int) int {
	if v < constants.MinSeverity {
		return constants.MinSeverity
	}
	if v > constants.MaxSeverity {
		return constants.MaxSeverity
	}
	return v
}

package dto

import (
	"time"

	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/services"
	"github.com/yukikurage/taskroom/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Department     string            `json:"department"`
	AssignedTo     *uint64           `json:"assigned_to"`
	Severity       int               `json:"severity"`
	Status         models.TaskStatus `json:"status"`
	OwnerID        uint64            `json:"owner_id"`
	OrganizationID uint64            `json:"organization_id"`
	CreatedByID    uint64            `json:"created_by_id"`
	UpdatedByID    *uint64           `json:"updated_by_id"`
	CreatedOn      time.Time         `json:"created_on"`
	UpdatedOn      *time.Time        `json:"updated_on"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// BoardColumnDTO is one column of the board
type BoardColumnDTO struct {
	Status models.TaskStatus `json:"status"`
	Tasks  []TaskDTO         `json:"tasks"`
}

type BoardProgressDTO struct {
	Done       int     `json:"done"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// BoardDTO is the response of the board endpoint
type BoardDTO struct {
	Columns  []BoardColumnDTO `json:"columns"`
	Other    []TaskDTO        `json:"other"`
	Progress BoardProgressDTO `json:"progress"`
}

// TaskDraftDTO is an AI suggested task that has not been stored
type TaskDraftDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Department  string `json:"department"`
	Severity    int    `json:"severity"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:             task.ID,
		Name:           task.Name,
		Description:    task.Description,
		Department:     task.Department,
		AssignedTo:     task.AssignedTo,
		Severity:       task.Severity,
		Status:         task.Status,
		OwnerID:        task.OwnerID,
		OrganizationID: task.OrganizationID,
		CreatedByID:    task.CreatedByID,
		UpdatedByID:    task.UpdatedByID,
		CreatedOn:      task.CreatedOn,
		UpdatedOn:      task.UpdatedOn,
	}
}

func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		out[i] = ToTaskDTO(task)
	}
	return out
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks),
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToBoardDTO converts a service board to its response shape
func ToBoardDTO(board *services.Board) BoardDTO {
	columns := make([]BoardColumnDTO, len(board.Columns))
	for i, column := range board.Columns {
		columns[i] = BoardColumnDTO{
			Status: column.Status,
			Tasks:  ToTaskDTOs(column.Tasks),
		}
	}

	return BoardDTO{
		Columns: columns,
		Other:   ToTaskDTOs(board.Other),
		Progress: BoardProgressDTO{
			Done:       board.Progress.Done,
			Total:      board.Progress.Total,
			Percentage: board.Progress.Percentage,
		},
	}
}

func ToTaskDraftDTOs(drafts []services.TaskDraft) []TaskDraftDTO {
	out := make([]TaskDraftDTO, len(drafts))
	for i, d := range drafts {
		out[i] = TaskDraftDTO{
			Name:        d.Name,
			Description: d.Description,
			Department:  d.Department,
			Severity:    d.Severity,
		}
	}
	return out
}

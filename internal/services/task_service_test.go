package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskroom/internal/cache"
	"github.com/yukikurage/taskroom/internal/mocks"
	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/repository"
	"go.uber.org/mock/gomock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(s *suite.Suite) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.T().Cleanup(func() { sqlDB.Close() })

	s.Require().NoError(db.AutoMigrate(models.All()...))
	return db
}

type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	repo    repository.TaskRepository
	service *TaskService
	ctx     context.Context
	scope   models.TenantScope
}

func (suite *TaskServiceTestSuite) SetupTest() {
	suite.db = openTestDB(&suite.Suite)
	suite.repo = repository.NewTaskRepository(suite.db)
	suite.service = NewTaskService(suite.repo, nil, nil)
	suite.ctx = context.Background()
	suite.scope = models.TenantScope{OwnerID: 1, OrganizationID: 10}
}

func (suite *TaskServiceTestSuite) create(scope models.TenantScope, name string) *models.Task {
	task, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{
		Scope:       scope,
		ActorID:     scope.OwnerID,
		Name:        name,
		Description: "details",
		Department:  "ops",
		Severity:    2,
	})
	suite.Require().NoError(err)
	return task
}

func (suite *TaskServiceTestSuite) TestCreateTask() {
	assignee := uint64(7)
	task, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{
		Scope:       suite.scope,
		ActorID:     1,
		Name:        "  Write report  ",
		Description: "quarterly",
		Department:  "finance",
		AssignedTo:  &assignee,
		Severity:    3,
	})
	suite.Require().NoError(err)

	suite.NotZero(task.ID)
	suite.Equal("Write report", task.Name)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(suite.scope.OwnerID, task.OwnerID)
	suite.Equal(suite.scope.OrganizationID, task.OrganizationID)
	suite.EqualValues(1, task.CreatedByID)
	suite.Nil(task.UpdatedByID)
	suite.Nil(task.UpdatedOn)
}

func (suite *TaskServiceTestSuite) TestCreateTaskValidation() {
	_, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{Scope: suite.scope, Name: " ", Severity: 1})
	suite.ErrorIs(err, ErrTaskNameRequired)

	for _, severity := range []int{0, 5} {
		_, err = suite.service.CreateTask(suite.ctx, CreateTaskInput{Scope: suite.scope, Name: "x", Severity: severity})
		suite.ErrorIs(err, ErrInvalidSeverity)
	}
}

func (suite *TaskServiceTestSuite) TestCreatedTaskOnlyVisibleInItsScope() {
	task := suite.create(suite.scope, "scoped")

	tasks, total, err := suite.service.ListTasks(suite.ctx, ListTasksInput{Scope: suite.scope})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
	suite.Equal(task.ID, tasks[0].ID)

	for _, other := range []models.TenantScope{
		{OwnerID: 1, OrganizationID: 11},
		{OwnerID: 2, OrganizationID: 10},
	} {
		tasks, total, err = suite.service.ListTasks(suite.ctx, ListTasksInput{Scope: other})
		suite.Require().NoError(err)
		suite.Zero(total)
		suite.Empty(tasks)

		_, err = suite.service.GetTask(suite.ctx, other, task.ID)
		suite.ErrorIs(err, ErrTaskNotFound)
	}
}

func (suite *TaskServiceTestSuite) TestSetStatus() {
	task := suite.create(suite.scope, "move")

	updated, err := suite.service.SetStatus(suite.ctx, suite.scope, task.ID, models.TaskStatusDone, 42)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, updated.Status)
	suite.Require().NotNil(updated.UpdatedByID)
	suite.EqualValues(42, *updated.UpdatedByID)
	suite.NotNil(updated.UpdatedOn)

	// unknown statuses are stored as given
	updated, err = suite.service.SetStatus(suite.ctx, suite.scope, task.ID, "Blocked", 42)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatus("Blocked"), updated.Status)

	_, err = suite.service.SetStatus(suite.ctx, suite.scope, task.ID, "  ", 42)
	suite.ErrorIs(err, ErrStatusRequired)
}

func (suite *TaskServiceTestSuite) TestSetStatusOutsideScope() {
	task := suite.create(suite.scope, "mine")

	_, err := suite.service.SetStatus(suite.ctx, models.TenantScope{OwnerID: 2, OrganizationID: 10}, task.ID, models.TaskStatusDone, 2)
	suite.ErrorIs(err, ErrTaskNotFound)

	_, err = suite.service.SetStatus(suite.ctx, suite.scope, task.ID+100, models.TaskStatusDone, 1)
	suite.ErrorIs(err, ErrTaskNotFound)

	got, err := suite.service.GetTask(suite.ctx, suite.scope, task.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusTodo, got.Status)
}

func (suite *TaskServiceTestSuite) TestConcurrentStatusWritesLastWriteWins() {
	task := suite.create(suite.scope, "contended")

	statuses := []models.TaskStatus{models.TaskStatusInProgress, models.TaskStatusDone}
	var wg sync.WaitGroup
	errs := make([]error, len(statuses))
	for i, status := range statuses {
		wg.Add(1)
		go func(i int, status models.TaskStatus) {
			defer wg.Done()
			_, errs[i] = suite.service.SetStatus(suite.ctx, suite.scope, task.ID, status, uint64(i+1))
		}(i, status)
	}
	wg.Wait()

	for _, err := range errs {
		suite.NoError(err)
	}

	got, err := suite.service.GetTask(suite.ctx, suite.scope, task.ID)
	suite.Require().NoError(err)
	suite.Contains(statuses, got.Status)
}

func (suite *TaskServiceTestSuite) TestToggleStatus() {
	task := suite.create(suite.scope, "toggle")

	toggled, err := suite.service.ToggleStatus(suite.ctx, suite.scope, task.ID, 1)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, toggled.Status)

	toggled, err = suite.service.ToggleStatus(suite.ctx, suite.scope, task.ID, 1)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusTodo, toggled.Status)

	_, err = suite.service.SetStatus(suite.ctx, suite.scope, task.ID, models.TaskStatusInProgress, 1)
	suite.Require().NoError(err)
	toggled, err = suite.service.ToggleStatus(suite.ctx, suite.scope, task.ID, 1)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, toggled.Status)

	_, err = suite.service.ToggleStatus(suite.ctx, models.TenantScope{OwnerID: 9, OrganizationID: 9}, task.ID, 9)
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestUpdateTaskOverwritesEditableFields() {
	assignee := uint64(3)
	task := suite.create(suite.scope, "original")
	_, err := suite.service.SetStatus(suite.ctx, suite.scope, task.ID, models.TaskStatusInProgress, 1)
	suite.Require().NoError(err)

	updated, err := suite.service.UpdateTask(suite.ctx, suite.scope, task.ID, 5, UpdateTaskInput{
		Name:        "renamed",
		Description: "",
		Department:  "eng",
		AssignedTo:  &assignee,
		Severity:    4,
	})
	suite.Require().NoError(err)

	suite.Equal(task.ID, updated.ID)
	suite.Equal("renamed", updated.Name)
	suite.Equal("", updated.Description)
	suite.Equal("eng", updated.Department)
	suite.Require().NotNil(updated.AssignedTo)
	suite.EqualValues(3, *updated.AssignedTo)
	suite.Equal(4, updated.Severity)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Equal(suite.scope.OwnerID, updated.OwnerID)
	suite.Equal(suite.scope.OrganizationID, updated.OrganizationID)
	suite.Require().NotNil(updated.UpdatedByID)
	suite.EqualValues(5, *updated.UpdatedByID)

	_, err = suite.service.UpdateTask(suite.ctx, models.TenantScope{OwnerID: 2, OrganizationID: 10}, task.ID, 2, UpdateTaskInput{Name: "x", Severity: 1})
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestGetBoard() {
	a := suite.create(suite.scope, "a")
	b := suite.create(suite.scope, "b")
	c := suite.create(suite.scope, "c")
	d := suite.create(suite.scope, "d")
	suite.create(models.TenantScope{OwnerID: 2, OrganizationID: 10}, "foreign")

	_, err := suite.service.SetStatus(suite.ctx, suite.scope, b.ID, models.TaskStatusDone, 1)
	suite.Require().NoError(err)
	_, err = suite.service.SetStatus(suite.ctx, suite.scope, c.ID, models.TaskStatusInProgress, 1)
	suite.Require().NoError(err)
	_, err = suite.service.SetStatus(suite.ctx, suite.scope, d.ID, "Archived", 1)
	suite.Require().NoError(err)

	board, err := suite.service.GetBoard(suite.ctx, suite.scope)
	suite.Require().NoError(err)

	suite.Require().Len(board.Columns, 3)
	suite.Equal(models.TaskStatusTodo, board.Columns[0].Status)
	suite.Require().Len(board.Columns[0].Tasks, 1)
	suite.Equal(a.ID, board.Columns[0].Tasks[0].ID)
	suite.Require().Len(board.Columns[1].Tasks, 1)
	suite.Equal(c.ID, board.Columns[1].Tasks[0].ID)
	suite.Require().Len(board.Columns[2].Tasks, 1)
	suite.Equal(b.ID, board.Columns[2].Tasks[0].ID)
	suite.Require().Len(board.Other, 1)
	suite.Equal(d.ID, board.Other[0].ID)

	suite.Equal(1, board.Progress.Done)
	suite.Equal(4, board.Progress.Total)
	suite.InDelta(25.0, board.Progress.Percentage, 0.001)
}

func (suite *TaskServiceTestSuite) TestGetBoardEmpty() {
	board, err := suite.service.GetBoard(suite.ctx, suite.scope)
	suite.Require().NoError(err)
	suite.Zero(board.Progress.Total)
	suite.Zero(board.Progress.Percentage)
	for _, column := range board.Columns {
		suite.NotNil(column.Tasks)
		suite.Empty(column.Tasks)
	}
}

func (suite *TaskServiceTestSuite) TestBoardCacheFillAndInvalidate() {
	ctrl := gomock.NewController(suite.T())
	boardCache := mocks.NewMockBoardCache(ctrl)
	service := NewTaskService(suite.repo, boardCache, nil)

	boardCache.EXPECT().Invalidate(gomock.Any(), suite.scope).Return(nil)
	task, err := service.CreateTask(suite.ctx, CreateTaskInput{Scope: suite.scope, ActorID: 1, Name: "cached", Severity: 1})
	suite.Require().NoError(err)

	var stored []models.Task
	gomock.InOrder(
		boardCache.EXPECT().Generation(gomock.Any(), suite.scope).Return(int64(3), nil),
		boardCache.EXPECT().GetBoard(gomock.Any(), suite.scope, int64(3)).Return(nil, nil),
		boardCache.EXPECT().SetBoard(gomock.Any(), suite.scope, int64(3), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ models.TenantScope, _ int64, tasks []models.Task) error {
				stored = tasks
				return nil
			}),
	)
	board, err := service.GetBoard(suite.ctx, suite.scope)
	suite.Require().NoError(err)
	suite.Equal(1, board.Progress.Total)
	suite.Require().Len(stored, 1)
	suite.Equal(task.ID, stored[0].ID)

	// a hit is served without touching the database
	hit := []models.Task{
		{ID: 100, Status: models.TaskStatusDone},
		{ID: 101, Status: models.TaskStatusDone},
	}
	gomock.InOrder(
		boardCache.EXPECT().Generation(gomock.Any(), suite.scope).Return(int64(3), nil),
		boardCache.EXPECT().GetBoard(gomock.Any(), suite.scope, int64(3)).Return(hit, nil),
	)
	board, err = service.GetBoard(suite.ctx, suite.scope)
	suite.Require().NoError(err)
	suite.Equal(2, board.Progress.Done)
	suite.InDelta(100.0, board.Progress.Percentage, 0.001)

	boardCache.EXPECT().Invalidate(gomock.Any(), suite.scope).Return(nil)
	_, err = service.SetStatus(suite.ctx, suite.scope, task.ID, models.TaskStatusDone, 1)
	suite.Require().NoError(err)
}

func (suite *TaskServiceTestSuite) TestCacheFailuresDoNotFailRequests() {
	ctrl := gomock.NewController(suite.T())
	boardCache := mocks.NewMockBoardCache(ctrl)
	service := NewTaskService(suite.repo, boardCache, nil)

	boardCache.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).AnyTimes()
	boardCache.EXPECT().Generation(gomock.Any(), gomock.Any()).Return(int64(0), nil)
	boardCache.EXPECT().GetBoard(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	boardCache.EXPECT().SetBoard(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	_, err := service.CreateTask(suite.ctx, CreateTaskInput{Scope: suite.scope, ActorID: 1, Name: "resilient", Severity: 2})
	suite.Require().NoError(err)

	board, err := service.GetBoard(suite.ctx, suite.scope)
	suite.Require().NoError(err)
	suite.Equal(1, board.Progress.Total)

	// without a generation the board is loaded directly and never stored
	boardCache.EXPECT().Generation(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("redis down"))
	board, err = service.GetBoard(suite.ctx, suite.scope)
	suite.Require().NoError(err)
	suite.Equal(1, board.Progress.Total)
}

// memoryBoardCache is an in-process BoardCache. When pause is set, the first
// SetBoard reports on paused and waits for release before storing.
type memoryBoardCache struct {
	mu      sync.Mutex
	gens    map[models.TenantScope]int64
	boards  map[string][]models.Task
	pause   bool
	paused  chan struct{}
	release chan struct{}
}

func newMemoryBoardCache() *memoryBoardCache {
	return &memoryBoardCache{
		gens:    map[models.TenantScope]int64{},
		boards:  map[string][]models.Task{},
		paused:  make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (c *memoryBoardCache) Generation(_ context.Context, scope models.TenantScope) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[scope], nil
}

func (c *memoryBoardCache) GetBoard(_ context.Context, scope models.TenantScope, gen int64) ([]models.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boards[cache.BoardKey(scope, gen)], nil
}

func (c *memoryBoardCache) SetBoard(_ context.Context, scope models.TenantScope, gen int64, tasks []models.Task) error {
	c.mu.Lock()
	wait := c.pause
	c.pause = false
	c.mu.Unlock()
	if wait {
		close(c.paused)
		<-c.release
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[cache.BoardKey(scope, gen)] = tasks
	return nil
}

func (c *memoryBoardCache) Invalidate(_ context.Context, scope models.TenantScope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.boards, cache.BoardKey(scope, c.gens[scope]))
	c.gens[scope]++
	return nil
}

func (suite *TaskServiceTestSuite) TestBoardFillRacingAWriteIsNotServed() {
	boardCache := newMemoryBoardCache()
	service := NewTaskService(suite.repo, boardCache, nil)

	task, err := service.CreateTask(suite.ctx, CreateTaskInput{Scope: suite.scope, ActorID: 1, Name: "racy", Severity: 1})
	suite.Require().NoError(err)

	boardCache.pause = true
	done := make(chan *Board)
	go func() {
		board, err := service.GetBoard(context.Background(), suite.scope)
		suite.NoError(err)
		done <- board
	}()

	// the fill has loaded its snapshot and is about to store it
	<-boardCache.paused
	_, err = service.SetStatus(suite.ctx, suite.scope, task.ID, models.TaskStatusDone, 1)
	suite.Require().NoError(err)
	close(boardCache.release)

	stale := <-done
	suite.Require().NotNil(stale)
	suite.Zero(stale.Progress.Done)

	board, err := service.GetBoard(suite.ctx, suite.scope)
	suite.Require().NoError(err)
	suite.Equal(1, board.Progress.Done)
	suite.Equal(1, board.Progress.Total)
}

func (suite *TaskServiceTestSuite) TestBoardFillOutlivesCanceledRequest() {
	service := NewTaskService(suite.repo, newMemoryBoardCache(), nil)
	suite.create(suite.scope, "shared")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	board, err := service.GetBoard(ctx, suite.scope)
	suite.Require().NoError(err)
	suite.Equal(1, board.Progress.Total)
}

func (suite *TaskServiceTestSuite) TestGenerateTasksNotConfigured() {
	_, err := suite.service.GenerateTasks(suite.ctx, "prepare the launch")
	suite.ErrorIs(err, ErrAIServiceNotConfigured)
}

func (suite *TaskServiceTestSuite) TestGenerateTasks() {
	content := "```json\n" + `[
		{"name": "Book venue", "description": "for the offsite", "department": "ops", "severity": 9},
		{"name": "   ", "description": "dropped", "department": "", "severity": 1},
		{"name": "Send agenda", "description": "", "department": "", "severity": 0}
	]` + "\n```"
	server := fakeChatServer(suite.T(), content)
	defer server.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	service := NewTaskService(suite.repo, nil, NewAIServiceWithConfig(cfg, "gpt-test"))

	drafts, err := service.GenerateTasks(suite.ctx, "Book a venue and send the agenda")
	suite.Require().NoError(err)
	suite.Require().Len(drafts, 2)
	suite.Equal("Book venue", drafts[0].Name)
	suite.Equal(4, drafts[0].Severity)
	suite.Equal("Send agenda", drafts[1].Name)
	suite.Equal(1, drafts[1].Severity)

	_, err = service.GenerateTasks(suite.ctx, " ")
	suite.ErrorIs(err, ErrDraftTextRequired)

	tasks, total, err := suite.service.ListTasks(suite.ctx, ListTasksInput{Scope: suite.scope})
	suite.Require().NoError(err)
	suite.Zero(total)
	suite.Empty(tasks)
}

func (suite *TaskServiceTestSuite) TestGenerateTasksEmptyResult() {
	server := fakeChatServer(suite.T(), "[]")
	defer server.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	service := NewTaskService(suite.repo, nil, NewAIServiceWithConfig(cfg, ""))

	_, err := service.GenerateTasks(suite.ctx, "nothing to do here")
	suite.ErrorIs(err, ErrAINoTasksGenerated)
}

func fakeChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  "gpt-test",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: content,
					},
					FinishReason: openai.FinishReasonStop,
				},
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("write fake completion: %v", err)
		}
	}))
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func TestBuildBoardKeepsOrder(t *testing.T) {
	tasks := make([]models.Task, 0, 6)
	for i := 1; i <= 6; i++ {
		status := models.TaskStatusTodo
		if i%2 == 0 {
			status = models.TaskStatusDone
		}
		tasks = append(tasks, models.Task{ID: uint64(i), Name: fmt.Sprintf("t%d", i), Status: status})
	}

	board := BuildBoard(tasks)
	todo := board.Columns[0].Tasks
	done := board.Columns[2].Tasks
	if len(todo) != 3 || todo[0].ID != 1 || todo[1].ID != 3 || todo[2].ID != 5 {
		t.Fatalf("unexpected todo column: %+v", todo)
	}
	if len(done) != 3 || done[0].ID != 2 || done[2].ID != 6 {
		t.Fatalf("unexpected done column: %+v", done)
	}
	if board.Progress.Percentage != 50 {
		t.Fatalf("percentage = %v, want 50", board.Progress.Percentage)
	}
}

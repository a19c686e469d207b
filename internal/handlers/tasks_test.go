package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TASKPILOT_BACK-END/internal/dto"
	"TASKPILOT_BACK-END/internal/models"
	"TASKPILOT_BACK-END/internal/repository"
	"TASKPILOT_BACK-END/internal/utils"
)

// fakeTaskRepo mirrors the SQL filter semantics: owner scoping, status and
// title-substring predicates, updated_at DESC ordering, limit/offset paging.
type fakeTaskRepo struct {
	tasks map[uuid.UUID]*models.Task
	now   time.Time
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*models.Task), now: time.Now()}
}

func (f *fakeTaskRepo) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	ts := f.tick()
	task.CreatedAt = ts
	task.UpdatedAt = ts
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	task, ok := f.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (f *fakeTaskRepo) List(ctx context.Context, userID uuid.UUID, filter repository.TaskFilter) ([]models.Task, int, error) {
	var matched []models.Task
	for _, task := range f.tasks {
		if task.UserID != userID {
			continue
		}
		if filter.Status != "all" && task.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(task.Title), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, *task)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, userID uuid.UUID, task *models.Task) error {
	existing, ok := f.tasks[task.ID]
	if !ok || existing.UserID != userID {
		return repository.ErrNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = f.tick()
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	existing, ok := f.tasks[taskID]
	if !ok || existing.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.tasks, taskID)
	return nil
}

// ---- helpers ----

func authedRequest(method, target string, body *dto.CreateTaskRequest, t *testing.T, userID uuid.UUID) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, jsonBody(t, body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	user := &models.User{ID: userID, Email: "alice@example.com"}
	return req.WithContext(utils.WithUser(req.Context(), user, &models.Session{ID: "sid", UserID: userID}))
}

func createTask(t *testing.T, h *TasksHandler, userID uuid.UUID, title, status string) dto.TaskResponse {
	t.Helper()
	req := authedRequest(http.MethodPost, "/api/tasks", &dto.CreateTaskRequest{Title: title, Status: status}, t, userID)
	rec := httptest.NewRecorder()
	h.CreateTask(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.CreateTaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Task
}

// ---- tests ----

func TestCreateTask_DefaultsToPending(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	userID := uuid.New()

	task := createTask(t, h, userID, "Buy milk", "")
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.NotEmpty(t, task.ID)
}

func TestCreateTask_InvalidStatus(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	req := authedRequest(http.MethodPost, "/api/tasks", &dto.CreateTaskRequest{Title: "x", Status: "done"}, t, uuid.New())
	rec := httptest.NewRecorder()
	h.CreateTask(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTask_MissingTitle(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	req := authedRequest(http.MethodPost, "/api/tasks", &dto.CreateTaskRequest{Title: "   "}, t, uuid.New())
	rec := httptest.NewRecorder()
	h.CreateTask(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTask_RoundTrip(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	userID := uuid.New()
	created := createTask(t, h, userID, "Write report", models.TaskStatusInProgress)

	req := authedRequest(http.MethodGet, "/api/tasks/"+created.ID, nil, t, userID)
	rec := httptest.NewRecorder()
	h.GetTask(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, models.TaskStatusInProgress, got.Status)
}

func TestGetTask_OtherUsersTaskIs404(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	owner := uuid.New()
	created := createTask(t, h, owner, "Private", models.TaskStatusPending)

	req := authedRequest(http.MethodGet, "/api/tasks/"+created.ID, nil, t, uuid.New())
	rec := httptest.NewRecorder()
	h.GetTask(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code,
		"a task owned by someone else must be indistinguishable from a missing one")
}

func TestGetTask_BadID(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	req := authedRequest(http.MethodGet, "/api/tasks/not-a-uuid", nil, t, uuid.New())
	rec := httptest.NewRecorder()
	h.GetTask(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTasks_PaginationMath(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	userID := uuid.New()
	for i := 0; i < 25; i++ {
		createTask(t, h, userID, fmt.Sprintf("Task %02d", i), models.TaskStatusPending)
	}

	req := authedRequest(http.MethodGet, "/api/tasks?page=3&limit=10", nil, t, userID)
	rec := httptest.NewRecorder()
	h.ListTasks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 25, resp.TotalCount)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 3, resp.CurrentPage)
	assert.Len(t, resp.Tasks, 5, "last page holds the remainder")
}

func TestListTasks_PageBeyondEndIsEmpty(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	userID := uuid.New()
	createTask(t, h, userID, "Only one", models.TaskStatusPending)

	req := authedRequest(http.MethodGet, "/api/tasks?page=5&limit=10", nil, t, userID)
	rec := httptest.NewRecorder()
	h.ListTasks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Tasks)
	assert.Equal(t, 1, resp.TotalCount, "total count reflects the filter, not the page")
}

func TestListTasks_StatusAndSearchFilters(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	userID := uuid.New()
	createTask(t, h, userID, "Buy groceries", models.TaskStatusPending)
	createTask(t, h, userID, "Buy stamps", models.TaskStatusCompleted)
	createTask(t, h, userID, "Clean house", models.TaskStatusCompleted)

	req := authedRequest(http.MethodGet, "/api/tasks?status=completed&search=buy", nil, t, userID)
	rec := httptest.NewRecorder()
	h.ListTasks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "Buy stamps", resp.Tasks[0].Title)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestListTasks_ScopedToOwner(t *testing.T) {
	repo := newFakeTaskRepo()
	h := NewTasksHandler(repo)
	alice := uuid.New()
	bob := uuid.New()
	createTask(t, h, alice, "Alice task", models.TaskStatusPending)
	createTask(t, h, bob, "Bob task", models.TaskStatusPending)

	req := authedRequest(http.MethodGet, "/api/tasks", nil, t, alice)
	rec := httptest.NewRecorder()
	h.ListTasks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "Alice task", resp.Tasks[0].Title)
}

func TestListTasks_OrderedByUpdatedAtDesc(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	userID := uuid.New()
	createTask(t, h, userID, "oldest", models.TaskStatusPending)
	createTask(t, h, userID, "middle", models.TaskStatusPending)
	createTask(t, h, userID, "newest", models.TaskStatusPending)

	req := authedRequest(http.MethodGet, "/api/tasks", nil, t, userID)
	rec := httptest.NewRecorder()
	h.ListTasks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 3)
	assert.Equal(t, "newest", resp.Tasks[0].Title)
	assert.Equal(t, "oldest", resp.Tasks[2].Title)
}

func TestUpdateTask(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	userID := uuid.New()
	created := createTask(t, h, userID, "Draft", models.TaskStatusPending)

	req := httptest.NewRequest(http.MethodPut, "/api/tasks/"+created.ID, jsonBody(t, dto.UpdateTaskRequest{
		Title:  "Final",
		Status: models.TaskStatusCompleted,
	}))
	user := &models.User{ID: userID}
	req = req.WithContext(utils.WithUser(req.Context(), user, &models.Session{ID: "sid", UserID: userID}))
	rec := httptest.NewRecorder()
	h.UpdateTask(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
}

func TestUpdateTask_NotOwned(t *testing.T) {
	h := NewTasksHandler(newFakeTaskRepo())
	created := createTask(t, h, uuid.New(), "Private", models.TaskStatusPending)

	stranger := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/api/tasks/"+created.ID, jsonBody(t, dto.UpdateTaskRequest{
		Title:  "Hijacked",
		Status: models.TaskStatusCompleted,
	}))
	req = req.WithContext(utils.WithUser(req.Context(), &models.User{ID: stranger}, &models.Session{ID: "sid", UserID: stranger}))
	rec := httptest.NewRecorder()
	h.UpdateTask(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	repo := newFakeTaskRepo()
	h := NewTasksHandler(repo)
	userID := uuid.New()
	created := createTask(t, h, userID, "Disposable", models.TaskStatusPending)

	req := authedRequest(http.MethodDelete, "/api/tasks/"+created.ID, nil, t, userID)
	rec := httptest.NewRecorder()
	h.DeleteTask(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// A second delete finds nothing.
	rec2 := httptest.NewRecorder()
	h.DeleteTask(rec2, authedRequest(http.MethodDelete, "/api/tasks/"+created.ID, nil, t, userID))
	assert.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.limit), "total=%d limit=%d", tt.total, tt.limit)
	}
}

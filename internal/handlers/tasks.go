package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"TASKPILOT_BACK-END/internal/dto"
	"TASKPILOT_BACK-END/internal/models"
	"TASKPILOT_BACK-END/internal/repository"
	"TASKPILOT_BACK-END/internal/utils"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// TasksHandler manages task CRUD endpoints. Every query is scoped to the
// authenticated user inside the repository, so another user's task behaves
// exactly like a missing one.
type TasksHandler struct {
	tasks repository.TaskRepository
}

// NewTasksHandler creates a new TasksHandler
func NewTasksHandler(tasks repository.TaskRepository) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

// Tasks dispatches by HTTP method for /api/tasks and /api/tasks/{id}
func (h *TasksHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.CreateTask(w, r)
	case http.MethodGet:
		// If path has an ID suffix, treat as detail
		if strings.HasPrefix(r.URL.Path, "/api/tasks/") && len(r.URL.Path) > len("/api/tasks/") {
			h.GetTask(w, r)
			return
		}
		h.ListTasks(w, r)
	case http.MethodPut, http.MethodPatch:
		h.UpdateTask(w, r)
	case http.MethodDelete:
		h.DeleteTask(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// CreateTask handles POST /api/tasks
// @Summary Create a new task
// @Tags tasks
// @Accept json
// @Produce json
// @Param payload body dto.CreateTaskRequest true "Task payload"
// @Success 201 {object} dto.CreateTaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/tasks [post]
func (h *TasksHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	var req dto.CreateTaskRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return // Error already handled by DecodeJSONRequest
	}

	// Basic validation
	req.Title = strings.TrimSpace(req.Title)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.Title == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "title is required")
		return
	}
	if req.Status == "" {
		req.Status = models.TaskStatusPending
	}
	if !models.ValidTaskStatus(req.Status) {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "status must be pending, in-progress, or completed")
		return
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		ImageKey:    req.ImageKey,
		UserID:      userID,
	}

	if err := h.tasks.Create(r.Context(), task); err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.CreateTaskResponse{Task: toTaskResponse(task)})
}

// ListTasks handles GET /api/tasks with filters and pagination
// @Summary List the caller's tasks
// @Tags tasks
// @Produce json
// @Param status query string false "pending|in-progress|completed|all"
// @Param search query string false "case-insensitive substring match on title"
// @Param page query int false "1-indexed page"
// @Param limit query int false "items per page (max 100)"
// @Success 200 {object} dto.TaskListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/tasks [get]
func (h *TasksHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	q := r.URL.Query()
	status := strings.ToLower(strings.TrimSpace(q.Get("status")))
	if status == "" {
		status = "all"
	}
	if status != "all" && !models.ValidTaskStatus(status) {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "invalid status")
		return
	}
	search := strings.TrimSpace(q.Get("search"))

	page := 1
	limit := defaultPageLimit
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > maxPageLimit {
				n = maxPageLimit
			}
			limit = n
		}
	}

	tasks, total, err := h.tasks.List(r.Context(), userID, repository.TaskFilter{
		Status: status,
		Search: search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, toTaskResponse(&tasks[i]))
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.TaskListResponse{
		Tasks:       items,
		TotalCount:  total,
		TotalPages:  TotalPages(total, limit),
		CurrentPage: page,
	})
}

// GetTask handles GET /api/tasks/{id}
// @Summary Get one task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/tasks/{id} [get]
func (h *TasksHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	taskID, err := taskIDFromPath(r.URL.Path)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid task id", "id must be UUID")
		return
	}

	task, err := h.tasks.GetByID(r.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Task not found")
			return
		}
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toTaskResponse(task))
}

// UpdateTask handles PUT /api/tasks/{id}
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.UpdateTaskRequest true "Task payload"
// @Success 200 {object} dto.TaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/tasks/{id} [put]
func (h *TasksHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	taskID, err := taskIDFromPath(r.URL.Path)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid task id", "id must be UUID")
		return
	}

	var req dto.UpdateTaskRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.Title == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "title is required")
		return
	}
	if !models.ValidTaskStatus(req.Status) {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "status must be pending, in-progress, or completed")
		return
	}

	task := &models.Task{
		ID:          taskID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		ImageKey:    req.ImageKey,
		UserID:      userID,
	}

	if err := h.tasks.Update(r.Context(), userID, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Task not found")
			return
		}
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	// Re-read so the response carries the stored created_at/updated_at.
	updated, err := h.tasks.GetByID(r.Context(), userID, taskID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toTaskResponse(updated))
}

// DeleteTask handles DELETE /api/tasks/{id}
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 204 "Deleted"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/tasks/{id} [delete]
func (h *TasksHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	taskID, err := taskIDFromPath(r.URL.Path)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid task id", "id must be UUID")
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "Task not found")
			return
		}
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TotalPages computes ceil(total/limit) for pagination metadata.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// taskIDFromPath extracts the task uuid from /api/tasks/{id}
func taskIDFromPath(path string) (uuid.UUID, error) {
	idStr := strings.TrimPrefix(path, "/api/tasks/")
	return uuid.Parse(idStr)
}

// toTaskResponse converts a task model to its API representation
func toTaskResponse(task *models.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		ImageKey:    task.ImageKey,
		CreatedAt:   task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.Format(time.RFC3339),
	}
}

package dto

// CreateTaskRequest represents the payload to create a task
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`    // pending | in-progress | completed; defaults to pending
	ImageKey    *string `json:"image_key"` // object-storage key from the upload endpoint
}

// UpdateTaskRequest represents the payload to update a task.
// Title and Status are required; Description and ImageKey replace the stored
// values (null clears them).
type UpdateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	ImageKey    *string `json:"image_key"`
}

// TaskResponse represents a task object in responses
type TaskResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	ImageKey    *string `json:"image_key"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// CreateTaskResponse envelope
type CreateTaskResponse struct {
	Task TaskResponse `json:"task"`
}

// TaskListResponse carries one page of tasks plus pagination totals computed
// under the same filter predicate as the page itself.
type TaskListResponse struct {
	Tasks       []TaskResponse `json:"tasks"`
	TotalCount  int            `json:"total_count"`
	TotalPages  int            `json:"total_pages"`
	CurrentPage int            `json:"current_page"`
}

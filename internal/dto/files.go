package dto

// UploadFileRequest carries a base64-encoded file body. Data may include a
// data-URL prefix ("data:image/png;base64,..."); it is stripped before decode.
type UploadFileRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type"` // MIME type, defaults to application/octet-stream
	Data string `json:"data" validate:"required"`
}

// FileResponse is the structured result of storage operations. Data holds the
// storage key after an upload, or a time-limited signed URL for reads.
type FileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

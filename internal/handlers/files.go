package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"TASKPILOT_BACK-END/internal/config"
	"TASKPILOT_BACK-END/internal/dto"
	"TASKPILOT_BACK-END/internal/storage"
	"TASKPILOT_BACK-END/internal/utils"
)

// FilesHandler exposes the storage layer over HTTP: authenticated uploads and
// key-to-signed-URL exchange. Storage failures are reported as a structured
// {success:false} body rather than a bare 500, so the frontend can surface the
// message directly.
type FilesHandler struct {
	storage storage.Service
	cfg     *config.StorageConfig
}

// NewFilesHandler creates a new FilesHandler
func NewFilesHandler(svc storage.Service, cfg *config.StorageConfig) *FilesHandler {
	return &FilesHandler{storage: svc, cfg: cfg}
}

// UploadFile handles POST /api/files/upload
// @Summary Upload a file
// @Description Upload a base64-encoded file to object storage; returns the storage key
// @Tags files
// @Accept json
// @Produce json
// @Param request body dto.UploadFileRequest true "File payload"
// @Success 200 {object} dto.FileResponse "Upload result"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /api/files/upload [post]
func (h *FilesHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.UploadFileRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Data == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing required fields", "name and data are required")
		return
	}

	// Tolerate a data-URL prefix from the browser.
	raw := req.Data
	if idx := strings.Index(raw, ";base64,"); idx != -1 && strings.HasPrefix(raw, "data:") {
		raw = raw[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid file data", "data must be base64 encoded")
		return
	}

	key := storage.GenerateFileKey(req.Name)
	if _, err := h.storage.Upload(r.Context(), key, data, req.Type); err != nil {
		utils.WriteJSONResponse(w, http.StatusOK, dto.FileResponse{
			Success: false,
			Message: "Failed to upload file: " + err.Error(),
		})
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.FileResponse{
		Success: true,
		Message: "File uploaded successfully",
		Data:    key,
	})
}

// GetSignedURL handles GET /api/files/signed-url?key=...
// @Summary Get a signed download URL
// @Description Exchange a storage key for a fresh, time-limited signed URL. URLs are never cached or persisted.
// @Tags files
// @Produce json
// @Param key query string true "Storage key returned by upload"
// @Success 200 {object} dto.FileResponse "Signed URL in data"
// @Failure 400 {object} dto.ErrorResponse "Missing key"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /api/files/signed-url [get]
func (h *FilesHandler) GetSignedURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing key", "key query parameter is required")
		return
	}

	url, err := h.storage.SignedURL(r.Context(), key, h.cfg.SignedURLTTL)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusOK, dto.FileResponse{
			Success: false,
			Message: "Failed to sign URL: " + err.Error(),
		})
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.FileResponse{
		Success: true,
		Message: "Signed URL generated",
		Data:    url,
	})
}

package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/tilemart/tileadmin/internal/images"
	"github.com/tilemart/tileadmin/internal/ingest"
	"github.com/tilemart/tileadmin/internal/models"
)

const maxFormMemory = 32 << 20

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if this is a JSON request with image URLs
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	h.handleFileUpload(w, r)
}

type uploadRequest struct {
	Kind         string
	CollectionID string
	Thickness    string
	Files        []models.UploadFile
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURLs    []string `json:"image_urls"`
		Thickness    string   `json:"thickness"`
		CollectionID string   `json:"collection_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	upload := uploadRequest{Kind: "images", CollectionID: request.CollectionID, Thickness: request.Thickness}
	for _, url := range request.ImageURLs {
		data, _, err := h.fetcher.Fetch(r.Context(), url)
		if err != nil {
			h.writeError(w, "Failed to download image: "+err.Error(), http.StatusBadRequest)
			return
		}
		name := path.Base(url)
		if name == "" || name == "/" || name == "." {
			name = "image.jpg"
		}
		file, err := h.preflight.Image(name, data)
		if err != nil {
			h.writeError(w, err.Error(), statusFor(err))
			return
		}
		upload.Files = append(upload.Files, file)
	}

	h.runUpload(w, r, upload)
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.writeError(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	upload := uploadRequest{
		Kind:         r.FormValue("kind"),
		CollectionID: r.FormValue("collection_id"),
		Thickness:    r.FormValue("thickness"),
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	for _, header := range headers {
		file, err := h.readFormFile(header, upload.Kind)
		if err != nil {
			h.writeError(w, err.Error(), statusFor(err))
			return
		}
		upload.Files = append(upload.Files, file)
	}

	h.runUpload(w, r, upload)
}

func (h *Handler) readFormFile(header *multipart.FileHeader, kind string) (models.UploadFile, error) {
	if header.Size >= images.MaxUploadSize {
		return models.UploadFile{}, fmt.Errorf("%s: %w", header.Filename, images.ErrTooLarge)
	}
	f, err := header.Open()
	if err != nil {
		return models.UploadFile{}, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, images.MaxUploadSize))
	if err != nil {
		return models.UploadFile{}, fmt.Errorf("failed to read file contents: %w", err)
	}
	if kind == "pdf" {
		return h.preflight.PDF(header.Filename, data)
	}
	return h.preflight.Image(header.Filename, data)
}

func (h *Handler) runUpload(w http.ResponseWriter, r *http.Request, upload uploadRequest) {
	if upload.CollectionID == "" {
		upload.CollectionID = h.collectionID()
	}

	h.opMu.Lock()
	defer h.opMu.Unlock()

	uploader := ingest.NewUploader(h.backend, h.workspace.Store, h.sellersFor(r), h.notifier)

	var (
		drafts []models.ExtractedDraft
		err    error
	)
	if upload.Kind == "pdf" {
		if len(upload.Files) != 1 {
			h.writeError(w, "Exactly one PDF file is required", http.StatusBadRequest)
			return
		}
		drafts, err = uploader.UploadPDF(r.Context(), upload.CollectionID, upload.Thickness, upload.Files[0], nil)
	} else {
		drafts, err = uploader.UploadImages(r.Context(), upload.CollectionID, upload.Thickness, upload.Files)
	}
	if err != nil {
		h.writeError(w, "Upload failed: "+err.Error(), statusFor(err))
		return
	}

	h.adoptCollection(upload.CollectionID)
	h.save()

	h.writeJSON(w, map[string]any{
		"message": fmt.Sprintf("Successfully extracted %d tiles", len(drafts)),
		"tiles":   len(drafts),
		"drafts":  draftViews(h.workspace.Store.Drafts()),
	})
}

func (h *Handler) HandleCancelUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" && r.Method != "DELETE" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uploader := ingest.NewUploader(h.backend, h.workspace.Store, h.sellersFor(r), h.notifier)
	if err := uploader.CancelExtraction(r.Context()); err != nil {
		h.writeError(w, "Failed to cancel extraction: "+err.Error(), statusFor(err))
		return
	}
	h.writeJSON(w, map[string]string{"message": "Extraction process canceled!"})
}

// HandleProgress relays the backend's PDF extraction progress.
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, err := h.backend.Progress(r.Context())
	if err != nil {
		h.writeError(w, "Failed to read progress: "+err.Error(), statusFor(err))
		return
	}
	h.writeJSON(w, models.Progress{Progress: p})
}

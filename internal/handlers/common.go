package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/tilemart/tileadmin/internal/images"
	"github.com/tilemart/tileadmin/internal/ingest"
	"github.com/tilemart/tileadmin/internal/notify"
	"github.com/tilemart/tileadmin/internal/picker"
	"github.com/tilemart/tileadmin/internal/seller"
	"github.com/tilemart/tileadmin/internal/storage"
	"github.com/tilemart/tileadmin/internal/tileapi"
)

// Backend is everything the review API needs from the marketplace backend.
type Backend interface {
	ingest.UploadBackend
	ingest.CommitBackend
	storage.TempDeleter
	picker.Catalog
}

// Options configures a Handler.
type Options struct {
	Backend   Backend
	Workspace *storage.Workspace
	// WorkspacePath is where the workspace is saved after each change.
	// Empty keeps drafts in memory only.
	WorkspacePath string
	Sellers       seller.Source
	Notifier      *notify.Center
	Preflight     images.Preflight
	Images        *images.Fetcher
	ImageBase     string
}

type Handler struct {
	backend       Backend
	workspace     *storage.Workspace
	workspacePath string
	sellers       seller.Source
	notifier      *notify.Center
	preflight     images.Preflight
	fetcher       *images.Fetcher
	imageBase     string

	// serializes every change to the shared store
	opMu sync.Mutex
	// guards workspace.CollectionID and the workspace file
	stateMu sync.Mutex
}

func New(opts Options) *Handler {
	if opts.Workspace == nil {
		opts.Workspace = &storage.Workspace{Store: storage.New()}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.New()
	}
	if opts.Images == nil {
		opts.Images = images.NewFetcher()
	}
	if opts.Sellers == nil {
		opts.Sellers = seller.Static("")
	}
	return &Handler{
		backend:       opts.Backend,
		workspace:     opts.Workspace,
		workspacePath: opts.WorkspacePath,
		sellers:       opts.Sellers,
		notifier:      opts.Notifier,
		preflight:     opts.Preflight,
		fetcher:       opts.Images,
		imageBase:     opts.ImageBase,
	}
}

// Routes registers the review API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/drafts", h.HandleDrafts)
	mux.HandleFunc("/api/drafts/", h.HandleDraftDetail)
	mux.HandleFunc("/api/upload", h.HandleUpload)
	mux.HandleFunc("/api/upload/cancel", h.HandleCancelUpload)
	mux.HandleFunc("/api/progress", h.HandleProgress)
	mux.HandleFunc("/api/commit", h.HandleCommit)
	mux.HandleFunc("/api/notification", h.HandleNotification)
	mux.HandleFunc("/api/collections", h.HandleCollections)
	mux.HandleFunc("/api/existing", h.HandleExisting)
	mux.HandleFunc("/images/", h.HandleImage)
}

// sellersFor prefers the seller cookie of the request over the configured seller.
func (h *Handler) sellersFor(r *http.Request) seller.Source {
	return seller.Fallback(seller.FromRequest(r), h.sellers)
}

func (h *Handler) collectionID() string {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.workspace.CollectionID
}

// adoptCollection makes id the workspace collection unless one is set.
func (h *Handler) adoptCollection(id string) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	if h.workspace.CollectionID == "" {
		h.workspace.CollectionID = id
	}
}

func (h *Handler) save() {
	if h.workspacePath == "" {
		return
	}
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	if err := h.workspace.Save(h.workspacePath); err != nil {
		slog.Error("Unable to save workspace", "path", h.workspacePath, "err", err)
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// statusFor maps workflow errors to HTTP status codes.
func statusFor(err error) int {
	var apiErr *tileapi.Error
	switch {
	case errors.Is(err, seller.ErrMissingSellerID):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrNoSuchDraft):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrNoTilesExtracted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, picker.ErrNoSelection),
		errors.Is(err, picker.ErrClosed),
		errors.Is(err, picker.ErrOwnCollection),
		errors.Is(err, picker.ErrUnknownCollection):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, ingest.ErrNoFiles),
		errors.Is(err, ingest.ErrMissingThickness),
		errors.Is(err, ingest.ErrInvalidThickness),
		errors.Is(err, ingest.ErrMissingCollection),
		errors.Is(err, ingest.ErrBlankName),
		errors.Is(err, ingest.ErrNothingToCommit),
		errors.Is(err, storage.ErrFieldNotEditable),
		errors.Is(err, images.ErrTooLarge),
		errors.Is(err, images.ErrNotImage),
		errors.Is(err, images.ErrNotPDF):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

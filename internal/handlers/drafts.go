package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/tilemart/tileadmin/internal/ingest"
	"github.com/tilemart/tileadmin/internal/models"
	"github.com/tilemart/tileadmin/internal/storage"
)

// DraftView is a draft as listed by the review API.
type DraftView struct {
	Index int          `json:"index"`
	Kind  string       `json:"kind"`
	Draft models.Draft `json:"draft"`
}

func draftViews(drafts []models.Draft) []DraftView {
	views := make([]DraftView, 0, len(drafts))
	for i, d := range drafts {
		kind := "extracted"
		if _, ok := d.(models.ExistingDraft); ok {
			kind = "existing"
		}
		views = append(views, DraftView{Index: i, Kind: kind, Draft: d})
	}
	return views
}

func (h *Handler) HandleDrafts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, map[string]any{
			"collection_id": h.collectionID(),
			"drafts":        draftViews(h.workspace.Store.Drafts()),
		})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleDraftDetail(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/drafts/"))
	if err != nil {
		h.writeError(w, "Invalid draft index", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "GET":
		draft, ok := h.workspace.Store.Get(index)
		if !ok {
			h.writeError(w, "Draft not found", http.StatusNotFound)
			return
		}
		h.writeJSON(w, draftViews([]models.Draft{draft})[0])
	case "PUT":
		var request struct {
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		field, err := storage.ParseField(request.Field)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.opMu.Lock()
		defer h.opMu.Unlock()
		if err := h.workspace.Store.UpdateField(index, field, request.Value); err != nil {
			h.writeError(w, err.Error(), statusFor(err))
			return
		}
		h.save()
		h.writeJSON(w, draftViews(h.workspace.Store.Drafts()))
	case "DELETE":
		h.opMu.Lock()
		defer h.opMu.Unlock()
		if err := ingest.RemoveDraft(r.Context(), h.workspace.Store, h.backend, h.notifier, index); err != nil {
			h.writeError(w, "Failed to delete draft: "+err.Error(), statusFor(err))
			return
		}
		h.save()
		h.writeJSON(w, draftViews(h.workspace.Store.Drafts()))
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.opMu.Lock()
	defer h.opMu.Unlock()

	committer := ingest.NewCommitter(h.backend, h.workspace.Store, h.sellersFor(r), h.notifier)
	plan, err := committer.Commit(r.Context())
	if err != nil {
		h.writeError(w, "Commit failed: "+err.Error(), statusFor(err))
		return
	}
	h.save()

	h.writeJSON(w, map[string]any{
		"message":  "Tiles saved successfully!",
		"images":   len(plan.Images),
		"pdf":      len(plan.PDF),
		"existing": len(plan.Existing),
		"calls":    plan.Calls(),
	})
}

func (h *Handler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		n, ok := h.notifier.Current()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.writeJSON(w, n)
	case "DELETE":
		h.notifier.Hide()
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

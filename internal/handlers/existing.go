package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tilemart/tileadmin/internal/models"
	"github.com/tilemart/tileadmin/internal/notify"
	"github.com/tilemart/tileadmin/internal/picker"
)

// HandleCollections lists the collections designs can be copied from.
// With ?collection_id= it lists that collection's designs instead,
// filtered by ?q=.
func (h *Handler) HandleCollections(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p := picker.New(h.backend, h.sellersFor(r), h.imageBase)
	p.Debounce = 0
	if err := p.Open(r.Context(), h.target(r.URL.Query().Get("target"))); err != nil {
		h.writeError(w, "Failed to fetch collections: "+err.Error(), statusFor(err))
		return
	}
	defer p.Close()

	from := r.URL.Query().Get("collection_id")
	if from == "" {
		h.writeJSON(w, p.Collections())
		return
	}

	if err := p.SelectCollection(r.Context(), from); err != nil {
		h.writeError(w, "Failed to fetch tile designs: "+err.Error(), statusFor(err))
		return
	}
	if err := p.SetQuery(r.URL.Query().Get("q")); err != nil {
		h.writeError(w, err.Error(), http.StatusConflict)
		return
	}
	h.writeJSON(w, p.Visible())
}

// HandleExisting adds designs from another collection to the drafts.
func (h *Handler) HandleExisting(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		From          string   `json:"from"`
		Target        string   `json:"target"`
		TileDesignIDs []string `json:"tile_design_ids"`
		All           bool     `json:"all"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	target := h.target(request.Target)
	if target == "" {
		h.writeError(w, "target collection is required", http.StatusBadRequest)
		return
	}
	p := picker.New(h.backend, h.sellersFor(r), h.imageBase)
	if err := p.Open(r.Context(), target); err != nil {
		h.writeError(w, "Failed to fetch collections: "+err.Error(), statusFor(err))
		return
	}
	defer p.Close()
	if err := p.SelectCollection(r.Context(), request.From); err != nil {
		h.writeError(w, "Failed to fetch tile designs: "+err.Error(), statusFor(err))
		return
	}

	if request.All {
		p.ToggleAll()
	}
	for _, id := range request.TileDesignIDs {
		if !p.IsSelected(id) {
			p.Toggle(id)
		}
	}

	drafts, err := p.Proceed()
	if err != nil {
		h.notifier.Notify(notify.Error, "No tiles selected!")
		h.writeError(w, err.Error(), statusFor(err))
		return
	}

	items := make([]models.Draft, len(drafts))
	for i, d := range drafts {
		items[i] = d
	}
	h.opMu.Lock()
	defer h.opMu.Unlock()
	added := h.workspace.Store.Append(items...)
	h.adoptCollection(target)
	h.save()

	h.writeJSON(w, map[string]any{
		"added":  added,
		"drafts": draftViews(h.workspace.Store.Drafts()),
	})
}

func (h *Handler) target(requested string) string {
	if requested != "" {
		return requested
	}
	return h.collectionID()
}

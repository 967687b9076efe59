package handlers

import (
	"net/http"
	"strings"

	"github.com/tilemart/tileadmin/internal/images"
)

// HandleImage redirects /images/{path} to the backend URL of a tile image,
// so staged and permanent images can be previewed from the review API.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" && r.Method != "HEAD" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	imagePath := strings.TrimPrefix(r.URL.Path, "/images/")

	// Prevent directory traversal attacks
	if strings.Contains(imagePath, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	target := images.ResolveURL(h.imageBase, imagePath)
	if target == images.PlaceholderURL {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

package ingest

import (
	"context"
	"log/slog"

	"github.com/tilemart/tileadmin/internal/notify"
	"github.com/tilemart/tileadmin/internal/storage"
)

// RemoveDraft removes the draft at index from store, deleting its staged
// image on the server first when it has one, and reports the outcome.
func RemoveDraft(ctx context.Context, store *storage.DraftStore, deleter storage.TempDeleter, notifier notify.Notifier, index int) error {
	if err := store.Remove(ctx, index, deleter); err != nil {
		slog.Error("Failed to remove draft", "index", index, "err", err)
		notifier.Notify(notify.Error, "Error deleting tile. Try again.")
		return err
	}
	notifier.Notify(notify.Success, "Tile deleted successfully!")
	return nil
}

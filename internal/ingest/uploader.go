// Package ingest coordinates the bulk tile ingestion workflow: uploading
// images or a PDF for extraction and committing the resulting drafts.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tilemart/tileadmin/internal/models"
	"github.com/tilemart/tileadmin/internal/notify"
	"github.com/tilemart/tileadmin/internal/seller"
	"github.com/tilemart/tileadmin/internal/storage"
)

// UploadBackend is the part of the backend the uploader needs.
type UploadBackend interface {
	UploadImages(ctx context.Context, files []models.UploadFile) (*models.UploadResult, error)
	UploadPDF(ctx context.Context, file models.UploadFile, thickness float64, collectionID string) (*models.UploadResult, error)
	Progress(ctx context.Context) (float64, error)
	CancelExtraction(ctx context.Context) (*models.Message, error)
}

// Uploader sends files for extraction and appends the extracted tiles to
// the draft store. The store is only changed when an upload succeeds with at
// least one tile.
type Uploader struct {
	Backend  UploadBackend
	Store    *storage.DraftStore
	Sellers  seller.Source
	Notifier notify.Notifier

	// ProgressInterval is the PDF progress polling period.
	ProgressInterval time.Duration
	// CancelTimeout bounds the cancel-extraction call made after an
	// interrupted PDF upload.
	CancelTimeout time.Duration

	newBatch func() string
}

func NewUploader(backend UploadBackend, store *storage.DraftStore, sellers seller.Source, notifier notify.Notifier) *Uploader {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Uploader{
		Backend:          backend,
		Store:            store,
		Sellers:          sellers,
		Notifier:         notifier,
		ProgressInterval: time.Second,
		CancelTimeout:    5 * time.Second,
		newBatch:         func() string { return ulid.Make().String() },
	}
}

func (u *Uploader) checkCommon(ctx context.Context, collectionID, thickness string) error {
	if strings.TrimSpace(thickness) == "" {
		return ErrMissingThickness
	}
	if strings.TrimSpace(collectionID) == "" {
		return ErrMissingCollection
	}
	if _, err := u.Sellers.SellerID(ctx); err != nil {
		return err
	}
	return nil
}

// UploadImages uploads tile images and appends one extracted draft per
// returned tile, each with an empty name and the given thickness.
func (u *Uploader) UploadImages(ctx context.Context, collectionID, thickness string, files []models.UploadFile) ([]models.ExtractedDraft, error) {
	err := u.checkCommon(ctx, collectionID, thickness)
	if err == nil && len(files) == 0 {
		err = ErrNoFiles
	}
	if err != nil {
		u.Notifier.Notify(notify.Error, "Please select files and enter thickness before uploading.")
		return nil, err
	}

	u.Notifier.Notify(notify.Info, "Uploading files... Processing color detection.")
	slog.Info("Uploading tile images", "collection_id", collectionID, "files", len(files))

	result, err := u.Backend.UploadImages(ctx, files)
	if err != nil {
		slog.Error("Tile image upload failed", "err", err)
		u.Notifier.Notify(notify.Error, "File upload failed. Please try again.")
		return nil, err
	}
	if len(result.Tiles) == 0 {
		u.Notifier.Notify(notify.Error, "No tiles were extracted. Please try again.")
		return nil, ErrNoTilesExtracted
	}

	drafts := u.toDrafts(result.Tiles, collectionID, thickness, models.SourceImages)
	u.appendDrafts(drafts)
	slog.Info("Tiles extracted", "collection_id", collectionID, "tiles", len(drafts), "batch", drafts[0].Batch)
	u.Notifier.Notify(notify.Success, "Tile Designs uploaded successfully in Collection!")
	return drafts, nil
}

// UploadPDF uploads a catalog PDF for extraction. While the upload runs the
// backend's progress is polled and reported to onProgress, which may be nil.
// Progress is informational: poll failures are ignored and never delay the
// result. If ctx is canceled mid-upload the extraction is canceled on the
// backend as well.
func (u *Uploader) UploadPDF(ctx context.Context, collectionID, thickness string, file models.UploadFile, onProgress func(int)) ([]models.ExtractedDraft, error) {
	err := u.checkCommon(ctx, collectionID, thickness)
	if err == nil && len(file.Data) == 0 {
		err = ErrNoFiles
	}
	var value float64
	if err == nil {
		value, err = parseThickness(thickness)
	}
	if err != nil {
		u.Notifier.Notify(notify.Error, "Please select a PDF file and enter thickness.")
		return nil, err
	}

	u.Notifier.Notify(notify.Info, "Uploading PDF and extracting tiles...")
	slog.Info("Uploading PDF", "collection_id", collectionID, "file", file.Name, "bytes", len(file.Data))

	pollCtx, stopPolling := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if onProgress != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.pollProgress(pollCtx, onProgress)
		}()
	}

	result, err := u.Backend.UploadPDF(ctx, file, value, collectionID)
	stopPolling()
	wg.Wait()

	if err != nil {
		if ctx.Err() != nil {
			u.cancelAfterInterrupt(ctx)
		}
		slog.Error("PDF upload failed", "err", err)
		u.Notifier.Notify(notify.Error, "File upload failed. Please try again.")
		return nil, err
	}
	if len(result.Tiles) == 0 {
		u.Notifier.Notify(notify.Error, "No tiles were extracted. Please try again.")
		return nil, ErrNoTilesExtracted
	}
	if onProgress != nil {
		onProgress(100)
	}

	drafts := u.toDrafts(result.Tiles, collectionID, thickness, models.SourcePDF)
	u.appendDrafts(drafts)
	slog.Info("Tiles extracted from PDF", "collection_id", collectionID, "tiles", len(drafts), "batch", drafts[0].Batch)
	u.Notifier.Notify(notify.Success, "Tiles extracted successfully!")
	return drafts, nil
}

// CancelExtraction stops the backend's running PDF extraction.
func (u *Uploader) CancelExtraction(ctx context.Context) error {
	if _, err := u.Backend.CancelExtraction(ctx); err != nil {
		slog.Error("Cancel extraction failed", "err", err)
		u.Notifier.Notify(notify.Error, "Failed to cancel extraction.")
		return err
	}
	u.Notifier.Notify(notify.Info, "Extraction process canceled!")
	return nil
}

func (u *Uploader) cancelAfterInterrupt(ctx context.Context) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.CancelTimeout)
	defer cancel()
	if _, err := u.Backend.CancelExtraction(cctx); err != nil {
		slog.Warn("Unable to cancel extraction after interrupt", "err", err)
		return
	}
	slog.Info("Extraction canceled after interrupt")
}

func (u *Uploader) pollProgress(ctx context.Context, onProgress func(int)) {
	interval := u.ProgressInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p, err := u.Backend.Progress(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Debug("Progress poll failed", "err", err)
				}
				continue
			}
			onProgress(clampPercent(p))
		}
	}
}

func (u *Uploader) toDrafts(tiles []models.ExtractedTile, collectionID, thickness string, source models.ExtractionSource) []models.ExtractedDraft {
	batch := u.newBatch()
	drafts := make([]models.ExtractedDraft, 0, len(tiles))
	for _, t := range tiles {
		drafts = append(drafts, models.ExtractedDraft{
			CollectionID:      collectionID,
			Name:              "",
			DetectedColorName: t.DetectedColorName,
			DetectedColorHex:  t.DetectedColorHex,
			TempImagePath:     t.TempImagePath,
			Thickness:         thickness,
			Source:            source,
			SuggestedName:     t.Name,
			Batch:             batch,
		})
	}
	return drafts
}

func (u *Uploader) appendDrafts(drafts []models.ExtractedDraft) {
	items := make([]models.Draft, len(drafts))
	for i, d := range drafts {
		items[i] = d
	}
	u.Store.Append(items...)
}

func clampPercent(p float64) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return int(p)
}

// parseThickness reads a thickness in millimetres, accepting an "mm" suffix.
func parseThickness(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "mm"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidThickness, s)
	}
	return v, nil
}

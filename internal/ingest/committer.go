package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tilemart/tileadmin/internal/models"
	"github.com/tilemart/tileadmin/internal/notify"
	"github.com/tilemart/tileadmin/internal/seller"
	"github.com/tilemart/tileadmin/internal/storage"
)

// CommitBackend is the part of the backend the committer needs.
type CommitBackend interface {
	StoreFinalMultiple(ctx context.Context, tiles []models.FinalTile) (*models.Message, error)
	StoreFinalPDF(ctx context.Context, submission models.FinalPDFSubmission) (*models.Message, error)
	AddExistingTiles(ctx context.Context, collectionID string, tiles []models.ExistingTileSelection) (*models.Message, error)
}

// Plan is the set of backend calls a commit will make, in order.
type Plan struct {
	Images   []models.FinalTile
	PDF      []models.ExtractedDraft
	Existing []ExistingGroup
}

// ExistingGroup is the existing designs destined for one collection.
type ExistingGroup struct {
	CollectionID string
	Tiles        []models.ExistingTileSelection
}

// Calls reports how many backend requests the plan makes.
func (p *Plan) Calls() int {
	n := len(p.Existing)
	if len(p.Images) > 0 {
		n++
	}
	if len(p.PDF) > 0 {
		n++
	}
	return n
}

// NewPlan partitions drafts by destination endpoint. It fails when any
// draft has a blank name or a PDF draft's thickness is not a number.
func NewPlan(drafts []models.Draft) (*Plan, error) {
	if len(drafts) == 0 {
		return nil, ErrNothingToCommit
	}

	plan := &Plan{}
	groups := make(map[string]int)
	for i, d := range drafts {
		if strings.TrimSpace(d.DraftName()) == "" {
			return nil, fmt.Errorf("draft %d: %w", i, ErrBlankName)
		}

		switch d := d.(type) {
		case models.ExtractedDraft:
			if d.Source == models.SourcePDF {
				if _, err := parseThickness(d.Thickness); err != nil {
					return nil, fmt.Errorf("draft %d: %w", i, err)
				}
				plan.PDF = append(plan.PDF, d)
				continue
			}
			plan.Images = append(plan.Images, models.FinalTile{
				CollectionID:      d.CollectionID,
				Name:              d.Name,
				DetectedColorName: d.DetectedColorName,
				DetectedColorHex:  d.DetectedColorHex,
				TempImagePath:     d.TempImagePath,
				Thickness:         d.Thickness,
			})
		case models.ExistingDraft:
			g, ok := groups[d.CollectionID]
			if !ok {
				g = len(plan.Existing)
				groups[d.CollectionID] = g
				plan.Existing = append(plan.Existing, ExistingGroup{CollectionID: d.CollectionID})
			}
			plan.Existing[g].Tiles = append(plan.Existing[g].Tiles, models.ExistingTileSelection{
				TileDesignID: d.TileDesignID,
				CollectionID: d.CollectionID,
				Name:         d.Name,
				ColorID:      d.ColorID,
				Thickness:    d.Thickness,
				ImageURL:     d.ImageURL,
			})
		}
	}
	return plan, nil
}

// pdfSubmission stamps the seller onto the PDF partition.
func (p *Plan) pdfSubmission(sellerID string) models.FinalPDFSubmission {
	sub := models.FinalPDFSubmission{SellerID: sellerID, Tiles: make([]models.FinalPDFTile, 0, len(p.PDF))}
	for _, d := range p.PDF {
		thickness, _ := parseThickness(d.Thickness)
		sub.Tiles = append(sub.Tiles, models.FinalPDFTile{
			CollectionID:      d.CollectionID,
			SellerID:          sellerID,
			Name:              d.Name,
			DetectedColorName: d.DetectedColorName,
			DetectedColorHex:  d.DetectedColorHex,
			TempImagePath:     d.TempImagePath,
			Thickness:         thickness,
		})
	}
	return sub
}

// Committer persists every draft in the store to the backend.
type Committer struct {
	Backend  CommitBackend
	Store    *storage.DraftStore
	Sellers  seller.Source
	Notifier notify.Notifier
}

func NewCommitter(backend CommitBackend, store *storage.DraftStore, sellers seller.Source, notifier notify.Notifier) *Committer {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Committer{Backend: backend, Store: store, Sellers: sellers, Notifier: notifier}
}

// Commit sends all drafts to the backend: image drafts first, then PDF
// drafts, then existing designs grouped by target collection. The first
// failing call stops the commit and the store is left as it was. On success
// the committed drafts are removed from the store; drafts added meanwhile stay.
func (c *Committer) Commit(ctx context.Context) (*Plan, error) {
	drafts := c.Store.Drafts()
	plan, err := NewPlan(drafts)
	if err != nil {
		switch {
		case errors.Is(err, ErrNothingToCommit):
			c.Notifier.Notify(notify.Error, "No tiles selected!")
		case errors.Is(err, ErrBlankName):
			c.Notifier.Notify(notify.Error, "Please enter a tile name for all tiles before saving.")
		default:
			c.Notifier.Notify(notify.Error, "Please enter a valid thickness for all tiles before saving.")
		}
		return nil, err
	}

	var sellerID string
	if len(plan.PDF) > 0 {
		if sellerID, err = c.Sellers.SellerID(ctx); err != nil {
			c.Notifier.Notify(notify.Error, "Seller ID is missing. Please log in again.")
			return nil, err
		}
	}

	slog.Info("Committing drafts", "images", len(plan.Images), "pdf", len(plan.PDF), "existing_groups", len(plan.Existing))

	if err := c.run(ctx, plan, sellerID); err != nil {
		slog.Error("Commit failed", "err", err)
		c.Notifier.Notify(notify.Error, "Failed to save tiles. Try again.")
		return nil, err
	}

	c.Store.Discard(drafts)
	c.Notifier.Notify(notify.Success, "Tiles saved successfully!")
	return plan, nil
}

func (c *Committer) run(ctx context.Context, plan *Plan, sellerID string) error {
	if len(plan.Images) > 0 {
		if _, err := c.Backend.StoreFinalMultiple(ctx, plan.Images); err != nil {
			return err
		}
		slog.Debug("Stored image tiles", "count", len(plan.Images))
	}
	if len(plan.PDF) > 0 {
		if _, err := c.Backend.StoreFinalPDF(ctx, plan.pdfSubmission(sellerID)); err != nil {
			return err
		}
		slog.Debug("Stored PDF tiles", "count", len(plan.PDF))
	}
	for _, g := range plan.Existing {
		if _, err := c.Backend.AddExistingTiles(ctx, g.CollectionID, g.Tiles); err != nil {
			return err
		}
		slog.Debug("Added existing designs", "collection_id", g.CollectionID, "count", len(g.Tiles))
	}
	return nil
}

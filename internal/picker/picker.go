// Package picker browses another collection's tile designs and turns the
// selected ones into existing-design drafts.
package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tilemart/tileadmin/internal/images"
	"github.com/tilemart/tileadmin/internal/models"
	"github.com/tilemart/tileadmin/internal/seller"
)

// DefaultDebounce is the delay before a search query is applied.
const DefaultDebounce = 500 * time.Millisecond

const (
	unnamedTile      = "Unnamed Tile"
	defaultThickness = "10"
)

var (
	ErrClosed      = errors.New("picker is closed")
	ErrBusy        = errors.New("a fetch is in flight")
	ErrStale       = errors.New("response superseded by a newer request")
	ErrNoSelection = errors.New("no tiles selected")

	ErrOwnCollection     = errors.New("a collection cannot add its own tiles")
	ErrUnknownCollection = errors.New("collection is not offered as a source")
)

type State int

const (
	Closed State = iota
	CollectionsLoading
	CollectionsLoaded
	TilesEmpty
	TilesLoading
	TilesLoaded
	TilesError
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case CollectionsLoading:
		return "collections-loading"
	case CollectionsLoaded:
		return "collections-loaded"
	case TilesEmpty:
		return "tiles-empty"
	case TilesLoading:
		return "tiles-loading"
	case TilesLoaded:
		return "tiles-loaded"
	case TilesError:
		return "tiles-error"
	}
	return "unknown"
}

// Catalog lists a seller's collections and their designs.
type Catalog interface {
	ListCollections(ctx context.Context, sellerID string) ([]models.Collection, error)
	ListTileDesigns(ctx context.Context, sellerID, collectionID string) ([]models.TileDesign, error)
}

// Row is one selectable design.
type Row struct {
	TileDesignID string `json:"tile_design_id" parquet:"tile_design_id"`
	Name         string `json:"name" parquet:"name"`
	ColorID      string `json:"color_id" parquet:"color_id"`
	Thickness    string `json:"thickness" parquet:"thickness"`
	ImageURL     string `json:"image_url" parquet:"image_url"`
}

// NewRow maps a design to a row, resolving its image against imageBase.
func NewRow(d models.TileDesign, imageBase string) Row {
	name := d.Name
	if strings.TrimSpace(name) == "" {
		name = unnamedTile
	}
	thickness := strings.TrimSpace(strings.ReplaceAll(d.Thickness, "mm", ""))
	if thickness == "" {
		thickness = defaultThickness
	}
	return Row{
		TileDesignID: d.TileDesignID,
		Name:         name,
		ColorID:      d.ColorName,
		Thickness:    thickness,
		ImageURL:     images.ResolveURL(imageBase, d.ImageURL),
	}
}

// Picker holds the state of one browse and select session. Every fetch is
// tagged with a generation number and a response is applied only if no newer
// fetch, open or close happened since it was issued.
type Picker struct {
	catalog   Catalog
	sellers   seller.Source
	imageBase string

	// Debounce delays SetQuery. Zero applies queries immediately.
	Debounce time.Duration

	mu           sync.Mutex
	state        State
	gen          uint64
	target       string
	collections  []models.Collection
	collectionID string
	rows         []Row
	selected     map[string]struct{}
	query        string
	queryTimer   *time.Timer
	pendingQuery string
	err          error
}

func New(catalog Catalog, sellers seller.Source, imageBase string) *Picker {
	return &Picker{
		catalog:   catalog,
		sellers:   sellers,
		imageBase: imageBase,
		Debounce:  DefaultDebounce,
		selected:  make(map[string]struct{}),
	}
}

// Open starts a session that adds designs to target. The seller's
// collections are loaded, leaving out target itself.
func (p *Picker) Open(ctx context.Context, target string) error {
	sellerID, err := p.sellers.SellerID(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.resetLocked()
	p.gen++
	gen := p.gen
	p.target = target
	p.state = CollectionsLoading
	p.mu.Unlock()

	collections, err := p.catalog.ListCollections(ctx, sellerID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return ErrStale
	}
	if err != nil {
		slog.Error("Failed to fetch collections", "err", err)
		p.resetLocked()
		return fmt.Errorf("failed to fetch collections: %w", err)
	}

	p.collections = p.collections[:0]
	for _, c := range collections {
		if c.ID != target {
			p.collections = append(p.collections, c)
		}
	}
	p.state = CollectionsLoaded
	return nil
}

// SelectCollection loads the designs of collectionID. An empty id clears
// the choice. Choosing a collection replaces the rows and the selection.
// Only collections returned by Collections can be chosen.
func (p *Picker) SelectCollection(ctx context.Context, collectionID string) error {
	p.mu.Lock()
	if p.state == Closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if collectionID != "" {
		if err := p.checkSourceLocked(collectionID); err != nil {
			p.mu.Unlock()
			return err
		}
	}
	p.gen++
	gen := p.gen
	p.collectionID = collectionID
	p.rows = nil
	p.selected = make(map[string]struct{})
	p.err = nil
	if collectionID == "" {
		p.state = TilesEmpty
		p.mu.Unlock()
		return nil
	}
	p.state = TilesLoading
	p.mu.Unlock()

	sellerID, err := p.sellers.SellerID(ctx)
	var designs []models.TileDesign
	if err == nil {
		designs, err = p.catalog.ListTileDesigns(ctx, sellerID, collectionID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		slog.Debug("Discarding stale tile designs", "collection_id", collectionID)
		return ErrStale
	}
	if err != nil {
		slog.Error("Failed to fetch tile designs", "collection_id", collectionID, "err", err)
		p.state = TilesError
		p.err = err
		return err
	}

	p.rows = make([]Row, 0, len(designs))
	for _, d := range designs {
		p.rows = append(p.rows, NewRow(d, p.imageBase))
	}
	p.state = TilesLoaded
	return nil
}

func (p *Picker) checkSourceLocked(collectionID string) error {
	if collectionID == p.target {
		return fmt.Errorf("%w: %s", ErrOwnCollection, collectionID)
	}
	for _, c := range p.collections {
		if c.ID == collectionID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownCollection, collectionID)
}

// SetQuery sets the name filter once Debounce has passed without another
// call. It is refused while a fetch is in flight.
func (p *Picker) SetQuery(q string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Closed {
		return ErrClosed
	}
	if p.busyLocked() {
		return ErrBusy
	}

	p.pendingQuery = q
	if p.queryTimer != nil {
		p.queryTimer.Stop()
		p.queryTimer = nil
	}
	if p.Debounce <= 0 {
		p.query = q
		return nil
	}

	gen := p.gen
	var timer *time.Timer
	timer = time.AfterFunc(p.Debounce, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.queryTimer != timer || p.gen != gen {
			return
		}
		p.query = p.pendingQuery
		p.queryTimer = nil
	})
	p.queryTimer = timer
	return nil
}

// FlushQuery applies a pending query now.
func (p *Picker) FlushQuery() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queryTimer == nil {
		return
	}
	p.queryTimer.Stop()
	p.queryTimer = nil
	p.query = p.pendingQuery
}

// Query returns the applied filter.
func (p *Picker) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

// Visible returns the rows whose name contains the query, ignoring case.
func (p *Picker) Visible() []Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	return filterRows(p.rows, p.query)
}

func filterRows(rows []Row, query string) []Row {
	q := strings.ToLower(strings.TrimSpace(query))
	result := make([]Row, 0, len(rows))
	for _, r := range rows {
		if q == "" || strings.Contains(strings.ToLower(r.Name), q) {
			result = append(result, r)
		}
	}
	return result
}

// Toggle flips the selection of one design.
func (p *Picker) Toggle(tileDesignID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.selected[tileDesignID]; ok {
		delete(p.selected, tileDesignID)
		return
	}
	for _, r := range p.rows {
		if r.TileDesignID == tileDesignID {
			p.selected[tileDesignID] = struct{}{}
			return
		}
	}
}

// ToggleAll selects every row, or clears the selection when every row is
// already selected.
func (p *Picker) ToggleAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.allSelectedLocked() {
		p.selected = make(map[string]struct{})
		return
	}
	for _, r := range p.rows {
		p.selected[r.TileDesignID] = struct{}{}
	}
}

// AllSelected reports whether ToggleAll would clear the selection.
func (p *Picker) AllSelected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allSelectedLocked()
}

func (p *Picker) allSelectedLocked() bool {
	return len(p.rows) > 0 && len(p.selected) == len(p.rows)
}

func (p *Picker) IsSelected(tileDesignID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.selected[tileDesignID]
	return ok
}

// Selected returns the selected rows in display order.
func (p *Picker) Selected() []Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedLocked()
}

func (p *Picker) selectedLocked() []Row {
	var rows []Row
	for _, r := range p.rows {
		if _, ok := p.selected[r.TileDesignID]; ok {
			rows = append(rows, r)
		}
	}
	return rows
}

func (p *Picker) CanProceed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.selected) > 0
}

// Proceed returns the selection as drafts for the target collection and
// closes the picker.
func (p *Picker) Proceed() ([]models.ExistingDraft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Closed {
		return nil, ErrClosed
	}
	if len(p.selected) == 0 {
		return nil, ErrNoSelection
	}

	rows := p.selectedLocked()
	drafts := make([]models.ExistingDraft, 0, len(rows))
	for _, r := range rows {
		drafts = append(drafts, models.ExistingDraft{
			TileDesignID:       r.TileDesignID,
			CollectionID:       p.target,
			SourceCollectionID: p.collectionID,
			Name:               r.Name,
			ColorID:            r.ColorID,
			Thickness:          r.Thickness,
			ImageURL:           r.ImageURL,
		})
	}
	p.gen++
	p.resetLocked()
	return drafts, nil
}

// Close ends the session. Nothing survives into the next Open.
func (p *Picker) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.resetLocked()
}

func (p *Picker) resetLocked() {
	if p.queryTimer != nil {
		p.queryTimer.Stop()
		p.queryTimer = nil
	}
	p.state = Closed
	p.target = ""
	p.collections = nil
	p.collectionID = ""
	p.rows = nil
	p.selected = make(map[string]struct{})
	p.query = ""
	p.pendingQuery = ""
	p.err = nil
}

func (p *Picker) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Busy reports whether a fetch is in flight. Collection choice and search
// should be disabled while it is.
func (p *Picker) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busyLocked()
}

func (p *Picker) busyLocked() bool {
	return p.state == CollectionsLoading || p.state == TilesLoading
}

// Collections returns the collections offered as sources.
func (p *Picker) Collections() []models.Collection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Collection(nil), p.collections...)
}

// CollectionID returns the chosen source collection.
func (p *Picker) CollectionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.collectionID
}

// Err returns the error of the last failed tile fetch.
func (p *Picker) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

package picker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tilemart/tileadmin/internal/models"
	"github.com/tilemart/tileadmin/internal/seller"
)

type fakeCatalog struct {
	mu          sync.Mutex
	collections []models.Collection
	designs     map[string][]models.TileDesign
	gates       map[string]chan struct{}
	err         error
	requests    []string
}

func (f *fakeCatalog) ListCollections(_ context.Context, sellerID string) ([]models.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, "collections:"+sellerID)
	return f.collections, f.err
}

func (f *fakeCatalog) ListTileDesigns(_ context.Context, sellerID, collectionID string) ([]models.TileDesign, error) {
	f.mu.Lock()
	f.requests = append(f.requests, "designs:"+collectionID)
	gate := f.gates[collectionID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.designs[collectionID], f.err
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		collections: []models.Collection{{ID: "target", Name: "Target"}, {ID: "c1", Name: "Marble"}, {ID: "c2", Name: "Ocean"}},
		designs: map[string][]models.TileDesign{
			"c1": {
				{TileDesignID: "d1", Name: "Ocean Blue", ColorName: "Blue", Thickness: "12mm", ImageURL: `tiles\d1.png`},
				{TileDesignID: "d2", Name: "Sunset", ColorName: "Orange", Thickness: ""},
				{TileDesignID: "d3", Name: "blue marble", ColorName: "Blue", Thickness: "8 mm", ImageURL: "/tiles/d3.png"},
			},
			"c2": {
				{TileDesignID: "d9", Name: ""},
			},
		},
	}
}

func openPicker(t *testing.T, catalog *fakeCatalog) *Picker {
	t.Helper()
	p := New(catalog, seller.Static("s1"), "http://api:8000")
	p.Debounce = 0
	if err := p.Open(context.Background(), "target"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return p
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestOpenExcludesTarget(t *testing.T) {
	p := openPicker(t, newCatalog())

	if p.State() != CollectionsLoaded {
		t.Errorf("Expected %s, got %s", CollectionsLoaded, p.State())
	}
	got := p.Collections()
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c2" {
		t.Errorf("Expected c1 and c2, got %+v", got)
	}
}

func TestOpenRequiresSeller(t *testing.T) {
	catalog := newCatalog()
	p := New(catalog, seller.Static(""), "http://api:8000")
	if err := p.Open(context.Background(), "target"); !errors.Is(err, seller.ErrMissingSellerID) {
		t.Fatalf("Expected ErrMissingSellerID, got %v", err)
	}
	if len(catalog.requests) != 0 {
		t.Errorf("Expected no requests, got %v", catalog.requests)
	}
	if p.State() != Closed {
		t.Errorf("Expected closed, got %s", p.State())
	}
}

func TestOpenFailureCloses(t *testing.T) {
	catalog := newCatalog()
	catalog.err = errors.New("boom")
	p := New(catalog, seller.Static("s1"), "http://api:8000")
	if err := p.Open(context.Background(), "target"); err == nil {
		t.Fatal("Expected an error")
	}
	if p.State() != Closed {
		t.Errorf("Expected closed, got %s", p.State())
	}
}

func TestSelectCollectionMapsRows(t *testing.T) {
	p := openPicker(t, newCatalog())
	if err := p.SelectCollection(context.Background(), "c1"); err != nil {
		t.Fatalf("SelectCollection failed: %v", err)
	}
	if p.State() != TilesLoaded {
		t.Errorf("Expected %s, got %s", TilesLoaded, p.State())
	}

	want := []Row{
		{TileDesignID: "d1", Name: "Ocean Blue", ColorID: "Blue", Thickness: "12", ImageURL: "http://api:8000/tiles/d1.png"},
		{TileDesignID: "d2", Name: "Sunset", ColorID: "Orange", Thickness: "10", ImageURL: "/default-placeholder.png"},
		{TileDesignID: "d3", Name: "blue marble", ColorID: "Blue", Thickness: "8", ImageURL: "http://api:8000/tiles/d3.png"},
	}
	got := p.Visible()
	if len(got) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if err := p.SelectCollection(context.Background(), "c2"); err != nil {
		t.Fatal(err)
	}
	if rows := p.Visible(); len(rows) != 1 || rows[0].Name != "Unnamed Tile" {
		t.Errorf("Expected an unnamed tile, got %+v", rows)
	}

	if err := p.SelectCollection(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if p.State() != TilesEmpty || len(p.Visible()) != 0 {
		t.Errorf("Expected empty tiles, got %s with %d rows", p.State(), len(p.Visible()))
	}
}

func TestSelectCollectionError(t *testing.T) {
	catalog := newCatalog()
	p := openPicker(t, catalog)
	catalog.err = errors.New("boom")

	if err := p.SelectCollection(context.Background(), "c1"); err == nil {
		t.Fatal("Expected an error")
	}
	if p.State() != TilesError || p.Err() == nil {
		t.Errorf("Expected %s with an error, got %s", TilesError, p.State())
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	catalog := newCatalog()
	slow := make(chan struct{})
	catalog.gates = map[string]chan struct{}{"c1": slow}
	p := openPicker(t, catalog)

	done := make(chan error, 1)
	go func() {
		done <- p.SelectCollection(context.Background(), "c1")
	}()

	for !p.Busy() {
		time.Sleep(time.Millisecond)
	}
	if err := p.SelectCollection(context.Background(), "c2"); err != nil {
		t.Fatalf("SelectCollection failed: %v", err)
	}
	close(slow)

	if err := <-done; !errors.Is(err, ErrStale) {
		t.Errorf("Expected ErrStale, got %v", err)
	}
	if p.CollectionID() != "c2" {
		t.Errorf("Expected c2, got %s", p.CollectionID())
	}
	if rows := p.Visible(); len(rows) != 1 || rows[0].TileDesignID != "d9" {
		t.Errorf("Expected the c2 rows, got %+v", rows)
	}
}

func TestQueryFilter(t *testing.T) {
	p := openPicker(t, newCatalog())
	if err := p.SelectCollection(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	if err := p.SetQuery("blue"); err != nil {
		t.Fatal(err)
	}

	got := names(p.Visible())
	want := []string{"Ocean Blue", "blue marble"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestQueryIsDebounced(t *testing.T) {
	p := openPicker(t, newCatalog())
	p.Debounce = 20 * time.Millisecond
	if err := p.SelectCollection(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}

	_ = p.SetQuery("sun")
	_ = p.SetQuery("ocean")
	if p.Query() != "" {
		t.Errorf("Expected no query applied yet, got %q", p.Query())
	}

	deadline := time.Now().Add(time.Second)
	for p.Query() == "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.Query() != "ocean" {
		t.Errorf("Expected the last query, got %q", p.Query())
	}

	_ = p.SetQuery("marble")
	p.FlushQuery()
	if got := names(p.Visible()); len(got) != 1 || got[0] != "blue marble" {
		t.Errorf("Expected blue marble, got %v", got)
	}
}

func TestSetQueryRefusedWhileBusy(t *testing.T) {
	catalog := newCatalog()
	gate := make(chan struct{})
	catalog.gates = map[string]chan struct{}{"c1": gate}
	p := openPicker(t, catalog)

	done := make(chan error, 1)
	go func() { done <- p.SelectCollection(context.Background(), "c1") }()
	for !p.Busy() {
		time.Sleep(time.Millisecond)
	}

	if err := p.SetQuery("x"); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy, got %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestToggleAllIsSymmetric(t *testing.T) {
	p := openPicker(t, newCatalog())
	if err := p.SelectCollection(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}

	p.ToggleAll()
	if len(p.Selected()) != 3 || !p.AllSelected() {
		t.Errorf("Expected 3 selected, got %d", len(p.Selected()))
	}
	p.ToggleAll()
	if len(p.Selected()) != 0 || p.CanProceed() {
		t.Errorf("Expected empty selection, got %d", len(p.Selected()))
	}

	p.Toggle("d2")
	p.ToggleAll()
	if len(p.Selected()) != 3 {
		t.Errorf("Expected partial selection to become full, got %d", len(p.Selected()))
	}
}

func TestToggleIgnoresUnknownDesign(t *testing.T) {
	p := openPicker(t, newCatalog())
	if err := p.SelectCollection(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	p.Toggle("nope")
	if p.CanProceed() {
		t.Error("Expected nothing selected")
	}
	p.Toggle("d1")
	p.Toggle("d1")
	if p.IsSelected("d1") {
		t.Error("Expected d1 deselected")
	}
}

func TestProceed(t *testing.T) {
	p := openPicker(t, newCatalog())
	if err := p.SelectCollection(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Proceed(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("Expected ErrNoSelection, got %v", err)
	}

	p.Toggle("d3")
	p.Toggle("d1")
	drafts, err := p.Proceed()
	if err != nil {
		t.Fatalf("Proceed failed: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("Expected 2 drafts, got %d", len(drafts))
	}
	want := models.ExistingDraft{
		TileDesignID: "d1", CollectionID: "target", SourceCollectionID: "c1",
		Name: "Ocean Blue", ColorID: "Blue", Thickness: "12", ImageURL: "http://api:8000/tiles/d1.png",
	}
	if drafts[0] != want {
		t.Errorf("Expected %+v, got %+v", want, drafts[0])
	}
	if p.State() != Closed {
		t.Errorf("Expected closed after proceed, got %s", p.State())
	}
}

func TestCloseResetsState(t *testing.T) {
	p := openPicker(t, newCatalog())
	if err := p.SelectCollection(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	_ = p.SetQuery("blue")
	p.ToggleAll()

	p.Close()
	if err := p.Open(context.Background(), "target"); err != nil {
		t.Fatal(err)
	}
	if p.Query() != "" || p.CanProceed() || len(p.Visible()) != 0 || p.CollectionID() != "" {
		t.Errorf("Expected a fresh session, got query %q, %d visible", p.Query(), len(p.Visible()))
	}
	if err := p.SelectCollection(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	if p.CanProceed() {
		t.Error("Expected selection to be cleared")
	}
}

func TestSelectCollectionRejectsTargetAndUnknown(t *testing.T) {
	tests := []struct {
		name         string
		collectionID string
		want         error
	}{
		{name: "target itself", collectionID: "target", want: ErrOwnCollection},
		{name: "not offered", collectionID: "elsewhere", want: ErrUnknownCollection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newCatalog()
			catalog.designs["target"] = []models.TileDesign{{TileDesignID: "t1", Name: "Own"}}
			p := openPicker(t, catalog)

			if err := p.SelectCollection(context.Background(), tt.collectionID); !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if p.State() != CollectionsLoaded || p.CollectionID() != "" {
				t.Errorf("Expected state unchanged, got %s with %q", p.State(), p.CollectionID())
			}
			for _, r := range catalog.requests {
				if r == "designs:"+tt.collectionID {
					t.Errorf("Expected no design request for %s", tt.collectionID)
				}
			}
			p.Toggle("t1")
			if _, err := p.Proceed(); !errors.Is(err, ErrNoSelection) {
				t.Errorf("Expected ErrNoSelection, got %v", err)
			}
		})
	}
}

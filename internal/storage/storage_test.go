package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tilemart/tileadmin/internal/models"
)

type recordingDeleter struct {
	paths []string
	err   error
}

func (d *recordingDeleter) DeleteTemp(_ context.Context, path string) error {
	d.paths = append(d.paths, path)
	return d.err
}

func TestAppendDeduplicatesExistingDrafts(t *testing.T) {
	s := New()
	s.Append(
		models.ExtractedDraft{TempImagePath: "temp/a.png"},
		models.ExistingDraft{TileDesignID: "d1", Name: "Ocean"},
	)

	added := s.Append(
		models.ExistingDraft{TileDesignID: "d1", Name: "Ocean again"},
		models.ExistingDraft{TileDesignID: "d2"},
		models.ExistingDraft{TileDesignID: "d2"},
		models.ExtractedDraft{TempImagePath: "temp/a.png"},
	)

	if added != 2 {
		t.Errorf("Expected 2 drafts added, got %d", added)
	}
	if s.Len() != 4 {
		t.Errorf("Expected 4 drafts, got %d", s.Len())
	}
	if d, _ := s.Get(1); d.DraftName() != "Ocean" {
		t.Errorf("Expected the original draft to be kept, got %q", d.DraftName())
	}
}

func TestUpdateField(t *testing.T) {
	tests := []struct {
		name    string
		draft   models.Draft
		index   int
		field   Field
		value   string
		want    models.Draft
		wantErr error
	}{
		{
			name:  "extracted name",
			draft: models.ExtractedDraft{Thickness: "10"},
			field: FieldName, value: "Marble White",
			want: models.ExtractedDraft{Name: "Marble White", Thickness: "10"},
		},
		{
			name:  "extracted color",
			draft: models.ExtractedDraft{DetectedColorName: "Gray"},
			field: FieldDetectedColorName, value: "Silver",
			want: models.ExtractedDraft{DetectedColorName: "Silver"},
		},
		{
			name:  "existing thickness",
			draft: models.ExistingDraft{TileDesignID: "d1", Thickness: "10"},
			field: FieldThickness, value: "12",
			want: models.ExistingDraft{TileDesignID: "d1", Thickness: "12"},
		},
		{
			name:  "existing color is not editable",
			draft: models.ExistingDraft{TileDesignID: "d1"},
			field: FieldDetectedColorName, value: "Blue",
			want:    models.ExistingDraft{TileDesignID: "d1"},
			wantErr: ErrFieldNotEditable,
		},
		{
			name:  "out of range is a no-op",
			draft: models.ExtractedDraft{Name: "kept"},
			index: 3, field: FieldName, value: "lost",
			want: models.ExtractedDraft{Name: "kept"},
		},
		{
			name:  "negative index is a no-op",
			draft: models.ExtractedDraft{Name: "kept"},
			index: -1, field: FieldName, value: "lost",
			want: models.ExtractedDraft{Name: "kept"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Append(tt.draft)

			err := s.UpdateField(tt.index, tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got, _ := s.Get(0); got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestRemoveExtractedDeletesTempFirst(t *testing.T) {
	s := New()
	s.Append(
		models.ExtractedDraft{TempImagePath: "temp/a.png"},
		models.ExtractedDraft{TempImagePath: "temp/b.png"},
	)

	deleter := &recordingDeleter{}
	if err := s.Remove(context.Background(), 1, deleter); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(deleter.paths) != 1 || deleter.paths[0] != "temp/b.png" {
		t.Errorf("Expected one delete of temp/b.png, got %v", deleter.paths)
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 draft left, got %d", s.Len())
	}
}

func TestRemoveKeepsDraftWhenDeleteFails(t *testing.T) {
	s := New()
	s.Append(models.ExtractedDraft{TempImagePath: "temp/a.png"})

	deleter := &recordingDeleter{err: errors.New("boom")}
	if err := s.Remove(context.Background(), 0, deleter); err == nil {
		t.Fatal("Expected an error")
	}
	if len(deleter.paths) != 1 {
		t.Errorf("Expected exactly one delete call, got %d", len(deleter.paths))
	}
	if s.Len() != 1 {
		t.Errorf("Expected draft to stay, got %d drafts", s.Len())
	}
}

func TestRemoveExistingIsLocal(t *testing.T) {
	s := New()
	s.Append(models.ExistingDraft{TileDesignID: "d1"})

	deleter := &recordingDeleter{}
	if err := s.Remove(context.Background(), 0, deleter); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(deleter.paths) != 0 {
		t.Errorf("Expected no delete call, got %v", deleter.paths)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d", s.Len())
	}

	if err := s.Remove(context.Background(), 0, deleter); !errors.Is(err, ErrNoSuchDraft) {
		t.Errorf("Expected ErrNoSuchDraft, got %v", err)
	}
}

func TestDraftsReturnsCopy(t *testing.T) {
	s := New()
	s.Append(models.ExtractedDraft{Name: "a"}, models.ExtractedDraft{Name: "b"})

	snapshot := s.Drafts()
	_ = s.Remove(context.Background(), 0, &recordingDeleter{})
	s.Discard(s.Drafts())

	if len(snapshot) != 2 || snapshot[0].DraftName() != "a" {
		t.Errorf("snapshot changed: %+v", snapshot)
	}
}

func TestDiscardKeepsLaterDrafts(t *testing.T) {
	s := New()
	s.Append(
		models.ExtractedDraft{Name: "a", TempImagePath: "temp/a.png"},
		models.ExtractedDraft{Name: "a", TempImagePath: "temp/a.png"},
		models.ExistingDraft{TileDesignID: "d1", CollectionID: "c1", Name: "Ocean"},
	)
	committed := s.Drafts()[:2]

	s.Append(models.ExistingDraft{TileDesignID: "d2", CollectionID: "c1", Name: "Sunset"})

	if removed := s.Discard(committed); removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}
	got := s.Drafts()
	if len(got) != 2 {
		t.Fatalf("Expected 2 drafts left, got %d", len(got))
	}
	if got[0].DraftName() != "Ocean" || got[1].DraftName() != "Sunset" {
		t.Errorf("Expected Ocean and Sunset, got %s and %s", got[0].DraftName(), got[1].DraftName())
	}
}

func TestWorkspaceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws", "drafts.yaml")

	ws, err := LoadWorkspace(path)
	if err != nil {
		t.Fatalf("LoadWorkspace on missing file failed: %v", err)
	}
	if ws.Store.Len() != 0 {
		t.Fatalf("Expected empty workspace")
	}

	ws.CollectionID = "col-1"
	ws.Store.Append(
		models.ExtractedDraft{CollectionID: "col-1", TempImagePath: "temp/a.png", Thickness: "10", Source: models.SourcePDF, Batch: "01HX"},
		models.ExistingDraft{TileDesignID: "d1", CollectionID: "col-1", SourceCollectionID: "col-2", Name: "Ocean", ImageURL: "http://x/d1.png"},
	)
	if err := ws.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadWorkspace(path)
	if err != nil {
		t.Fatalf("LoadWorkspace failed: %v", err)
	}
	if loaded.CollectionID != "col-1" {
		t.Errorf("Expected col-1, got %s", loaded.CollectionID)
	}
	got := loaded.Store.Drafts()
	want := ws.Store.Drafts()
	if len(got) != len(want) {
		t.Fatalf("Expected %d drafts, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("draft %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestLoadWorkspaceRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.yaml")
	content := "collection_id: c\ndrafts:\n  - kind: mystery\n    name: x\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadWorkspace(path); err == nil {
		t.Error("Expected an error for an unknown draft kind")
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		want    Field
		wantErr bool
	}{
		{in: "name", want: FieldName},
		{in: " Thickness ", want: FieldThickness},
		{in: "color", want: FieldDetectedColorName},
		{in: "image_url", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseField(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

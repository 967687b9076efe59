package export

import (
	"path/filepath"
	"testing"

	"github.com/tilemart/tileadmin/internal/picker"
)

func TestWriteFileRoundTrip(t *testing.T) {
	rows := []picker.Row{
		{TileDesignID: "d1", Name: "Ocean Blue", ColorID: "Blue", Thickness: "12", ImageURL: "http://api/d1.png"},
		{TileDesignID: "d2", Name: "Unnamed Tile", Thickness: "10", ImageURL: "/default-placeholder.png"},
	}
	path := filepath.Join(t.TempDir(), "designs.parquet")

	if err := WriteFile(path, "c1", rows); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	records, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	want := Record{SourceCollectionID: "c1", TileDesignID: "d1", Name: "Ocean Blue", ColorID: "Blue", Thickness: "12", ImageURL: "http://api/d1.png"}
	if records[0] != want {
		t.Errorf("Expected %+v, got %+v", want, records[0])
	}
	if records[1].Name != "Unnamed Tile" {
		t.Errorf("Expected Unnamed Tile, got %s", records[1].Name)
	}
}

func TestWriteFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	if err := WriteFile(path, "c1", nil); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	records, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

// Package export writes picker rows to Parquet files for offline review.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/tilemart/tileadmin/internal/picker"
)

// Record is one exported design row.
type Record struct {
	SourceCollectionID string `parquet:"source_collection_id"`
	TileDesignID       string `parquet:"tile_design_id"`
	Name               string `parquet:"name"`
	ColorID            string `parquet:"color_id"`
	Thickness          string `parquet:"thickness"`
	ImageURL           string `parquet:"image_url"`
}

func toRecords(collectionID string, rows []picker.Row) []Record {
	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = Record{
			SourceCollectionID: collectionID,
			TileDesignID:       r.TileDesignID,
			Name:               r.Name,
			ColorID:            r.ColorID,
			Thickness:          r.Thickness,
			ImageURL:           r.ImageURL,
		}
	}
	return records
}

// Write encodes rows of collectionID as Parquet to w.
func Write(w io.Writer, collectionID string, rows []picker.Row) error {
	writer := parquet.NewGenericWriter[Record](w)
	if _, err := writer.Write(toRecords(collectionID, rows)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteFile writes rows to a Parquet file at path.
func WriteFile(path, collectionID string, rows []picker.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	if err := Write(file, collectionID, rows); err != nil {
		return err
	}
	slog.Debug("Wrote parquet export", "path", path, "rows", len(rows))
	return file.Close()
}

// ReadFile loads an export written by WriteFile.
func ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	records := make([]Record, 0, pf.NumRows())
	batch := make([]Record, 128)
	for {
		n, err := reader.Read(batch)
		records = append(records, batch[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return records, nil
}

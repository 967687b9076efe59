package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tilemart/tileadmin/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	kindExtracted = "extracted"
	kindExisting  = "existing"
)

// Workspace is the draft store of one target collection as kept on disk
// between command invocations.
type Workspace struct {
	CollectionID string
	Store        *DraftStore
}

type workspaceFile struct {
	CollectionID string        `yaml:"collection_id"`
	UpdatedAt    string        `yaml:"updated_at,omitempty"`
	Drafts       []draftRecord `yaml:"drafts"`
}

type draftRecord struct {
	Kind               string `yaml:"kind"`
	TileDesignID       string `yaml:"tile_design_id,omitempty"`
	CollectionID       string `yaml:"collection_id"`
	SourceCollectionID string `yaml:"source_collection_id,omitempty"`
	Name               string `yaml:"name"`
	ColorID            string `yaml:"color_id,omitempty"`
	DetectedColorName  string `yaml:"detected_color_name,omitempty"`
	DetectedColorHex   string `yaml:"detected_color_hex,omitempty"`
	TempImagePath      string `yaml:"temp_image_path,omitempty"`
	ImageURL           string `yaml:"image_url,omitempty"`
	Thickness          string `yaml:"thickness"`
	Source             string `yaml:"source,omitempty"`
	SuggestedName      string `yaml:"suggested_name,omitempty"`
	Batch              string `yaml:"batch,omitempty"`
}

func toRecord(d models.Draft) draftRecord {
	switch v := d.(type) {
	case models.ExtractedDraft:
		return draftRecord{
			Kind:              kindExtracted,
			CollectionID:      v.CollectionID,
			Name:              v.Name,
			DetectedColorName: v.DetectedColorName,
			DetectedColorHex:  v.DetectedColorHex,
			TempImagePath:     v.TempImagePath,
			Thickness:         v.Thickness,
			Source:            string(v.Source),
			SuggestedName:     v.SuggestedName,
			Batch:             v.Batch,
		}
	case models.ExistingDraft:
		return draftRecord{
			Kind:               kindExisting,
			TileDesignID:       v.TileDesignID,
			CollectionID:       v.CollectionID,
			SourceCollectionID: v.SourceCollectionID,
			Name:               v.Name,
			ColorID:            v.ColorID,
			Thickness:          v.Thickness,
			ImageURL:           v.ImageURL,
		}
	}
	return draftRecord{}
}

func (r draftRecord) toDraft() (models.Draft, error) {
	switch r.Kind {
	case kindExtracted:
		source := models.ExtractionSource(r.Source)
		if source == "" {
			source = models.SourceImages
		}
		return models.ExtractedDraft{
			CollectionID:      r.CollectionID,
			Name:              r.Name,
			DetectedColorName: r.DetectedColorName,
			DetectedColorHex:  r.DetectedColorHex,
			TempImagePath:     r.TempImagePath,
			Thickness:         r.Thickness,
			Source:            source,
			SuggestedName:     r.SuggestedName,
			Batch:             r.Batch,
		}, nil
	case kindExisting:
		return models.ExistingDraft{
			TileDesignID:       r.TileDesignID,
			CollectionID:       r.CollectionID,
			SourceCollectionID: r.SourceCollectionID,
			Name:               r.Name,
			ColorID:            r.ColorID,
			Thickness:          r.Thickness,
			ImageURL:           r.ImageURL,
		}, nil
	}
	return nil, fmt.Errorf("unknown draft kind %q", r.Kind)
}

// LoadWorkspace reads a workspace file. A missing file yields an empty
// workspace.
func LoadWorkspace(path string) (*Workspace, error) {
	ws := &Workspace{Store: New()}

	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ws, nil
		}
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}

	var f workspaceFile
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, fmt.Errorf("failed to parse workspace %s: %w", path, err)
	}

	ws.CollectionID = f.CollectionID
	drafts := make([]models.Draft, 0, len(f.Drafts))
	for i, r := range f.Drafts {
		d, err := r.toDraft()
		if err != nil {
			return nil, fmt.Errorf("workspace %s, draft %d: %w", path, i, err)
		}
		drafts = append(drafts, d)
	}
	ws.Store.drafts = drafts
	return ws, nil
}

// Save writes the workspace, replacing the previous file atomically.
func (w *Workspace) Save(path string) error {
	f := workspaceFile{
		CollectionID: w.CollectionID,
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	for _, d := range w.Store.Drafts() {
		f.Drafts = append(f.Drafts, toRecord(d))
	}

	buf, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to encode workspace: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0644); err != nil {
		return fmt.Errorf("failed to write workspace: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace workspace: %w", err)
	}
	return nil
}

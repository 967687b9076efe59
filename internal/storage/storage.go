package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tilemart/tileadmin/internal/models"
)

var (
	ErrNoSuchDraft      = errors.New("no draft at that position")
	ErrFieldNotEditable = errors.New("field is not editable")
)

// Field names a user-editable draft field.
type Field string

const (
	FieldName              Field = "name"
	FieldThickness         Field = "thickness"
	FieldDetectedColorName Field = "detected_color_name"
)

// ParseField accepts the field names used on the command line and the API.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldName, FieldThickness, FieldDetectedColorName:
		return f, nil
	case "color", "color_name":
		return FieldDetectedColorName, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFieldNotEditable, s)
}

// TempDeleter discards a staged image on the server.
type TempDeleter interface {
	DeleteTemp(ctx context.Context, imagePath string) error
}

// DraftStore is the ordered list of drafts waiting to be committed.
// Drafts are addressed by position.
type DraftStore struct {
	drafts []models.Draft
	mu     sync.RWMutex
}

func New() *DraftStore {
	return &DraftStore{}
}

// Append adds drafts at the end. An existing-design draft whose tile design
// is already in the store (or earlier in the same call) is skipped.
// It returns how many drafts were added.
func (s *DraftStore) Append(drafts ...models.Draft) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, d := range s.drafts {
		if e, ok := d.(models.ExistingDraft); ok {
			seen[e.TileDesignID] = struct{}{}
		}
	}

	added := 0
	for _, d := range drafts {
		if e, ok := d.(models.ExistingDraft); ok {
			if _, dup := seen[e.TileDesignID]; dup {
				continue
			}
			seen[e.TileDesignID] = struct{}{}
		}
		s.drafts = append(s.drafts, d)
		added++
	}
	return added
}

// UpdateField sets one field of the draft at index. An out of range index
// is ignored.
func (s *DraftStore) UpdateField(index int, field Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.drafts) {
		return nil
	}

	switch d := s.drafts[index].(type) {
	case models.ExtractedDraft:
		switch field {
		case FieldName:
			d.Name = value
		case FieldThickness:
			d.Thickness = value
		case FieldDetectedColorName:
			d.DetectedColorName = value
		default:
			return fmt.Errorf("%w: %s on an extracted tile", ErrFieldNotEditable, field)
		}
		s.drafts[index] = d
	case models.ExistingDraft:
		switch field {
		case FieldName:
			d.Name = value
		case FieldThickness:
			d.Thickness = value
		default:
			return fmt.Errorf("%w: %s on an existing tile", ErrFieldNotEditable, field)
		}
		s.drafts[index] = d
	}
	return nil
}

// Remove drops the draft at index. For an extracted draft the staged image
// is deleted first and the draft stays if that fails. Other mutations wait
// while the delete is in flight.
func (s *DraftStore) Remove(ctx context.Context, index int, deleter TempDeleter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.drafts) {
		return fmt.Errorf("%w: %d", ErrNoSuchDraft, index)
	}

	if d, ok := s.drafts[index].(models.ExtractedDraft); ok {
		if err := deleter.DeleteTemp(ctx, d.TempImagePath); err != nil {
			return err
		}
	}

	s.drafts = append(s.drafts[:index:index], s.drafts[index+1:]...)
	return nil
}

// Discard removes each of committed once, matching by value, and returns
// how many were removed. Drafts appended or edited after committed was taken
// stay in the store.
func (s *DraftStore) Discard(committed []models.Draft) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make(map[models.Draft]int, len(committed))
	for _, d := range committed {
		pending[d]++
	}

	kept := s.drafts[:0:0]
	removed := 0
	for _, d := range s.drafts {
		if pending[d] > 0 {
			pending[d]--
			removed++
			continue
		}
		kept = append(kept, d)
	}
	s.drafts = kept
	return removed
}

// Drafts returns a copy of the current drafts.
func (s *DraftStore) Drafts() []models.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Draft, len(s.drafts))
	copy(result, s.drafts)
	return result
}

func (s *DraftStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// Get returns the draft at index.
func (s *DraftStore) Get(index int) (models.Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.drafts) {
		return nil, false
	}
	return s.drafts[index], true
}

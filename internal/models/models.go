package models

// ExtractionSource records which upload path produced an extracted draft.
// It decides the store-final endpoint used at commit time.
type ExtractionSource string

const (
	SourceImages ExtractionSource = "images"
	SourcePDF    ExtractionSource = "pdf"
)

// Draft is a tile that has not been committed to a collection yet.
// The only implementations are ExtractedDraft and ExistingDraft.
type Draft interface {
	DraftName() string
	TargetCollection() string
	isDraft()
}

// ExtractedDraft is a tile newly extracted from an uploaded image or PDF.
// TempImagePath points at a staging file on the server and becomes invalid
// once the draft is deleted or committed.
type ExtractedDraft struct {
	CollectionID      string           `json:"collection_id"`
	Name              string           `json:"name"`
	DetectedColorName string           `json:"detected_color_name"`
	DetectedColorHex  string           `json:"detected_color_hex"`
	TempImagePath     string           `json:"temp_image_path"`
	Thickness         string           `json:"thickness"`
	Source            ExtractionSource `json:"source"`
	SuggestedName     string           `json:"suggested_name,omitempty"`
	Batch             string           `json:"batch,omitempty"`
}

func (d ExtractedDraft) DraftName() string        { return d.Name }
func (d ExtractedDraft) TargetCollection() string { return d.CollectionID }
func (ExtractedDraft) isDraft()                   {}

// ExistingDraft is a copy of a design already in the catalog, selected
// through the picker. ImageURL is permanent.
type ExistingDraft struct {
	TileDesignID       string `json:"tile_design_id"`
	CollectionID       string `json:"collection_id"`
	SourceCollectionID string `json:"source_collection_id,omitempty"`
	Name               string `json:"name"`
	ColorID            string `json:"color_id"`
	Thickness          string `json:"thickness"`
	ImageURL           string `json:"image_url"`
}

func (d ExistingDraft) DraftName() string        { return d.Name }
func (d ExistingDraft) TargetCollection() string { return d.CollectionID }
func (ExistingDraft) isDraft()                   {}

// Attribute is a named catalog attribute (size, series, material, finish,
// category or suitable place).
type Attribute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Collection is a seller's named grouping of tiles.
type Collection struct {
	ID             string      `json:"id"`
	SellerID       string      `json:"seller_id"`
	SellerName     string      `json:"seller_name,omitempty"`
	Name           string      `json:"name"`
	Size           *Attribute  `json:"size,omitempty"`
	Series         *Attribute  `json:"series,omitempty"`
	Material       *Attribute  `json:"material,omitempty"`
	Finish         *Attribute  `json:"finish,omitempty"`
	Category       *Attribute  `json:"category,omitempty"`
	SuitablePlaces []Attribute `json:"suitable_places,omitempty"`
	Description    string      `json:"description,omitempty"`
	Status         string      `json:"status,omitempty"`
	CreatedAt      string      `json:"created_at,omitempty"`
	UpdatedAt      string      `json:"updated_at,omitempty"`
}

// TileDesign is a design row as returned by GET /tiles/designs.
type TileDesign struct {
	TileDesignID string `json:"tile_design_id"`
	Name         string `json:"name"`
	ColorName    string `json:"color_name"`
	ImageURL     string `json:"image_url"`
	Thickness    string `json:"thickness"` // e.g. "10mm"
}

// ExtractedTile is one item of an extraction response. Name is only set by
// the multi-image endpoint.
type ExtractedTile struct {
	Name              string `json:"name,omitempty"`
	TempImagePath     string `json:"temp_image_path"`
	DetectedColorName string `json:"detected_color_name"`
	DetectedColorHex  string `json:"detected_color_hex"`
}

// UploadResult is the body returned by both extraction endpoints.
type UploadResult struct {
	Message string          `json:"message,omitempty"`
	Tiles   []ExtractedTile `json:"tiles"`
}

// FinalTile is the body item of POST /tiles/store-final-multiple.
type FinalTile struct {
	CollectionID      string `json:"collection_id"`
	Name              string `json:"name"`
	DetectedColorName string `json:"detected_color_name"`
	DetectedColorHex  string `json:"detected_color_hex"`
	TempImagePath     string `json:"temp_image_path"`
	Thickness         string `json:"thickness"`
}

// FinalPDFTile is the body item of POST /tiles/store-final-pdf, which takes
// thickness as a number.
type FinalPDFTile struct {
	CollectionID      string  `json:"collection_id"`
	SellerID          string  `json:"seller_id"`
	Name              string  `json:"name"`
	DetectedColorName string  `json:"detected_color_name"`
	DetectedColorHex  string  `json:"detected_color_hex"`
	TempImagePath     string  `json:"temp_image_path"`
	Thickness         float64 `json:"thickness"`
}

// FinalPDFSubmission is the body of POST /tiles/store-final-pdf.
type FinalPDFSubmission struct {
	SellerID string         `json:"seller_id"`
	Tiles    []FinalPDFTile `json:"tiles"`
}

// ExistingTileSelection is the body item of the add-tiles endpoint.
type ExistingTileSelection struct {
	TileDesignID string `json:"tile_design_id"`
	CollectionID string `json:"collection_id,omitempty"`
	Name         string `json:"name"`
	ColorID      string `json:"color_id"`
	Thickness    string `json:"thickness"`
	ImageURL     string `json:"image_url"`
}

// Message is the generic {"message": ...} acknowledgement.
type Message struct {
	Message string `json:"message"`
}

// Progress is the body of GET /progress.
type Progress struct {
	Progress float64 `json:"progress"`
}

// UploadFile is a file ready to be sent in a multipart request.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

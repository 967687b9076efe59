package tileapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tilemart/tileadmin/internal/models"
)

// UploadImages sends a batch of tile images for color detection.
func (c *Client) UploadImages(ctx context.Context, files []models.UploadFile) (*models.UploadResult, error) {
	const op = "upload tiles"
	body, contentType, err := multipartBody("files", files)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	var result models.UploadResult
	if err := c.do(ctx, op, http.MethodPost, c.apipath("tiles", "upload-multiple"), body, contentType, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadPDF sends a catalog PDF for tile extraction.
func (c *Client) UploadPDF(ctx context.Context, file models.UploadFile, thickness float64, collectionID string) (*models.UploadResult, error) {
	const op = "upload PDF"
	body, contentType, err := multipartBody(
		"file", []models.UploadFile{file},
		formPart{name: "thickness", value: strconv.FormatFloat(thickness, 'f', -1, 64)},
		formPart{name: "collection_id", value: collectionID},
	)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	var result models.UploadResult
	if err := c.do(ctx, op, http.MethodPost, c.apipath("pdf", "upload"), body, contentType, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Progress reports the extraction progress of the running PDF upload.
func (c *Client) Progress(ctx context.Context) (float64, error) {
	var p models.Progress
	if err := c.doJSON(ctx, "fetch extraction progress", http.MethodGet, c.apipath("progress"), nil, &p); err != nil {
		return 0, err
	}
	return p.Progress, nil
}

// DeleteTemp discards a staged tile image.
func (c *Client) DeleteTemp(ctx context.Context, imagePath string) error {
	return c.doJSON(ctx, "delete temporary tile", http.MethodDelete, c.apipath("pdf", "temp-delete", escapePath(imagePath)), nil, nil)
}

// CancelExtraction asks the backend to stop the running PDF extraction.
func (c *Client) CancelExtraction(ctx context.Context) (*models.Message, error) {
	var msg models.Message
	if err := c.doJSON(ctx, "cancel extraction", http.MethodDelete, c.apipath("pdf", "cancel-extraction"), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// StoreFinalMultiple commits tiles extracted from an image batch.
func (c *Client) StoreFinalMultiple(ctx context.Context, tiles []models.FinalTile) (*models.Message, error) {
	var msg models.Message
	if err := c.doJSON(ctx, "store tiles", http.MethodPost, c.apipath("tiles", "store-final-multiple"), tiles, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// StoreFinalPDF commits tiles extracted from a PDF.
func (c *Client) StoreFinalPDF(ctx context.Context, submission models.FinalPDFSubmission) (*models.Message, error) {
	var msg models.Message
	if err := c.doJSON(ctx, "store PDF tiles", http.MethodPost, c.apipath("tiles", "store-final-pdf"), submission, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AddExistingTiles copies existing designs into a collection.
func (c *Client) AddExistingTiles(ctx context.Context, collectionID string, tiles []models.ExistingTileSelection) (*models.Message, error) {
	body := struct {
		Tiles []models.ExistingTileSelection `json:"tiles"`
	}{Tiles: tiles}

	var msg models.Message
	u := c.apipath("tiles", "collections", url.PathEscape(collectionID), "add-tiles")
	if err := c.doJSON(ctx, "add existing tiles", http.MethodPost, u, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListCollections lists the seller's collections.
func (c *Client) ListCollections(ctx context.Context, sellerID string) ([]models.Collection, error) {
	q := url.Values{}
	q.Set("seller_id", sellerID)

	var collections []models.Collection
	if err := c.doJSON(ctx, "load collections", http.MethodGet, c.apipath("collections")+"?"+q.Encode(), nil, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// ListTileDesigns lists the designs of one of the seller's collections.
func (c *Client) ListTileDesigns(ctx context.Context, sellerID, collectionID string) ([]models.TileDesign, error) {
	q := url.Values{}
	q.Set("seller_id", sellerID)
	q.Set("collection_id", collectionID)

	var designs []models.TileDesign
	if err := c.doJSON(ctx, "load tile designs", http.MethodGet, c.apipath("tiles", "designs")+"?"+q.Encode(), nil, &designs); err != nil {
		return nil, err
	}
	return designs, nil
}

// escapePath escapes each segment of a server path, normalizing backslashes.
func escapePath(p string) string {
	segments := strings.Split(strings.ReplaceAll(p, `\`, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

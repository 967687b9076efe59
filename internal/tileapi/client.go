package tileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tilemart/tileadmin/internal/models"
)

// Client talks to the marketplace REST backend.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend client. A zero timeout defaults to 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// build URL with path
func (c *Client) apipath(path ...string) string {
	trimmed := make([]string, 0, len(path)+1)
	trimmed = append(trimmed, c.BaseURL)
	for _, p := range path {
		trimmed = append(trimmed, strings.Trim(p, "/"))
	}
	return strings.Join(trimmed, "/")
}

// formPart is one non-file field of a multipart body.
type formPart struct {
	name  string
	value string
}

// multipartBody encodes files under fileField plus plain fields.
func multipartBody(fileField string, files []models.UploadFile, fields ...formPart) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, f := range files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, f.Name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form part for %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write form part for %s: %w", f.Name, err)
		}
	}

	for _, field := range fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", field.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

// do sends a request and decodes a 2xx JSON response into out (if non-nil).
// Any failure is reported as *Error carrying op.
func (c *Client) do(ctx context.Context, op, method, url string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("Backend request", "op", op, "method", method, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if statusCodeRangeOfResponse(resp) != Status2xx {
		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &Error{Op: op, StatusCode: resp.StatusCode, Detail: "cannot read server message: " + readErr.Error()}
		}
		return &Error{Op: op, StatusCode: resp.StatusCode, Detail: parseErrorDetail(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, url string, in, out any) error {
	if in == nil {
		return c.do(ctx, op, method, url, nil, "", out)
	}
	buf, err := json.Marshal(in)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}
	return c.do(ctx, op, method, url, bytes.NewReader(buf), "application/json", out)
}

package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/omegatable/outreach/internal/config"
)

// Client renders HTML to PDF through a Gotenberg instance's Chromium route.
type Client struct {
	baseURL     string
	paperWidth  float64
	paperHeight float64
	httpClient  *http.Client
}

// NewClient creates a Gotenberg client from config.
func NewClient(cfg config.PDFConfig) *Client {
	return &Client{
		baseURL:     cfg.GotenbergURL,
		paperWidth:  cfg.PaperWidth,
		paperHeight: cfg.PaperHeight,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// RenderPDF converts the given HTML document to PDF bytes.
func (c *Client) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	// Gotenberg's Chromium route requires the document to be named index.html.
	part, err := w.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	if err := w.WriteField("paperWidth", strconv.FormatFloat(c.paperWidth, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("write field: %w", err)
	}
	if err := w.WriteField("paperHeight", strconv.FormatFloat(c.paperHeight, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("write field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	endpoint := c.baseURL + "/forms/chromium/convert/html"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gotenberg error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

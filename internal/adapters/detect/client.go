package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/pkg/config"
)

// Client talks to the material recognition service. The model takes a
// single image upload and returns per-label instance counts.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a detector client from config.
func NewClient(cfg config.DetectorConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		// Inference on a large photo can take a while.
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type detectResponse struct {
	Labels []struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	} `json:"labels"`
}

// Detect uploads the image and returns the raw label counts.
func (c *Client) Detect(ctx context.Context, image []byte, filename string) ([]domain.LabelCount, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/detect", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("detector status %d: %s", res.StatusCode, snippet)
	}

	var decoded detectResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode detector response: %w", err)
	}

	counts := make([]domain.LabelCount, 0, len(decoded.Labels))
	for _, l := range decoded.Labels {
		counts = append(counts, domain.LabelCount{Label: l.Label, Count: l.Count})
	}
	return counts, nil
}

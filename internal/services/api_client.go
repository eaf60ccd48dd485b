package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/govjobalert/govjobalert/internal/dtos"
	"github.com/govjobalert/govjobalert/internal/models"
)

// APIClient talks to a running API server. It lets the standalone scraper
// ingest through the bulk endpoint and match against the served catalog.
type APIClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewAPIClient(baseURL, apiKey string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: time.Minute},
	}
}

func (c *APIClient) BulkUpsert(ctx context.Context, inputs []dtos.JobInput) (*dtos.BulkImportResult, error) {
	body, err := json.Marshal(dtos.BulkImportRequest{Data: inputs})
	if err != nil {
		return nil, fmt.Errorf("encode bulk request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/jobs/bulk", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	var result dtos.BulkImportResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := c.meta(ctx, "categories", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *APIClient) ListLocations(ctx context.Context) ([]models.Location, error) {
	var items []models.Location
	if err := c.meta(ctx, "locations", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *APIClient) meta(ctx context.Context, kind string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/api/v1/meta?type="+url.QueryEscape(kind), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *APIClient) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rainydayslabs/storefront-core/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client reads the product catalog from the public demo shop API. The
// catalog is an external collaborator: this service never writes to it.
type Client interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// envelope is the upstream API's response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *httpClient) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog responded with status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("failed to decode catalog payload: %w", err)
	}

	return nil
}

func (c *httpClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product

	if err := c.get(ctx, "", &products); err != nil {
		return nil, err
	}

	return products, nil
}

func (c *httpClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product

	if err := c.get(ctx, "/"+url.PathEscape(id), &product); err != nil {
		return nil, err
	}

	return &product, nil
}

// ErrNotFound marks an unknown product id.
var ErrNotFound = fmt.Errorf("product not found")

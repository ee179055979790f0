package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imperionite/fm-core/internal/cache"
)

// ErrServiceNotFound covers both a genuine miss and any non-success upstream
// response; there is no retry, a transient catalog failure surfaces to the
// caller immediately.
var ErrServiceNotFound = errors.New("service not found in catalog")

// Service is the catalog's view of a sellable service.
type Service struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Client struct {
	baseURL string
	httpc   *http.Client
	store   cache.Store
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, store cache.Store, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		store:   store,
		logger:  logger,
	}
}

// FetchService resolves service metadata by ID, read-through cached for an
// hour. The cache is only populated on success.
func (c *Client) FetchService(ctx context.Context, serviceID string) (*Service, error) {
	key := cache.ServiceKey(serviceID)

	if data, err := c.store.Get(ctx, key); err == nil {
		var svc Service
		if err2 := json.Unmarshal(data, &svc); err2 == nil {
			return &svc, nil
		}
		c.logger.Warn("dropping undecodable catalog cache entry", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("catalog cache get failed", zap.String("key", key), zap.Error(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s", c.baseURL, serviceID), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
	}

	var svc Service
	if err := json.NewDecoder(resp.Body).Decode(&svc); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	if data, err := json.Marshal(&svc); err == nil {
		if err := c.store.Set(ctx, key, data, cache.ServiceTTL); err != nil {
			c.logger.Warn("catalog cache set failed", zap.String("key", key), zap.Error(err))
		}
	}

	return &svc, nil
}

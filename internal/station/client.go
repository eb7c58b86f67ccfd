package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// ErrCatalogFetch marks every failure to obtain the station list. It is the
// only error the playback core surfaces to the user.
var ErrCatalogFetch = errors.New("station catalog unavailable")

// maxCatalogBytes caps the response body; a catalog is a few hundred entries.
const maxCatalogBytes = 8 << 20

// Client fetches the station catalog from the backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient builds a catalog client for the backend rooted at baseURL.
func NewClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

// Fetch performs GET {baseURL}/stations and decodes the JSON array. All
// failures wrap ErrCatalogFetch.
func (c *Client) Fetch(ctx context.Context) ([]Station, error) {
	url := c.baseURL + "/stations"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrCatalogFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", url).Msg("catalog request failed")
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("catalog request rejected")
		return nil, fmt.Errorf("%w: unexpected status %d", ErrCatalogFetch, resp.StatusCode)
	}

	var list []Station
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBytes)).Decode(&list); err != nil {
		c.logger.Warn().Err(err).Str("url", url).Msg("catalog decode failed")
		return nil, fmt.Errorf("%w: decode: %v", ErrCatalogFetch, err)
	}
	if list == nil {
		list = []Station{}
	}
	c.logger.Debug().Int("stations", len(list)).Msg("catalog fetched")
	return list, nil
}

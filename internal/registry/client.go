// Package registry looks up Polish tax identifiers (NIP) in the Ministry of
// Finance VAT white-list to confirm the vendor is an active VAT payer.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client queries the white-list API. It implements pipeline.TaxStatusChecker.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type checkResponse struct {
	Result struct {
		Subject struct {
			StatusVAT string `json:"statusVat"`
		} `json:"subject"`
	} `json:"result"`
}

// CheckStatus fetches the VAT status of the identifier as of the given date.
// A response of a different JSON shape yields an empty status, which callers
// treat as inactive. Transport and decode failures are returned as errors.
func (c *Client) CheckStatus(ctx context.Context, taxID, date string) (string, error) {
	url := fmt.Sprintf("%s/%s?date=%s", c.baseURL, taxID, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("registry: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("registry: check %s: %w", taxID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("registry: read response for %s: %w", taxID, err)
	}

	var payload checkResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("registry: decode response for %s: %w", taxID, err)
	}

	return payload.Result.Subject.StatusVAT, nil
}

// Package docintel is a minimal client for the Azure Document Intelligence
// REST API, covering the prebuilt invoice model's analyze/poll flow.
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/invoice-ingest/internal/pipeline"
)

const (
	apiVersion = "2023-07-31"
	modelID    = "prebuilt-invoice"
)

// Client calls the Document Intelligence service. It implements
// pipeline.DocumentAnalyzer.
type Client struct {
	endpoint     string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
}

func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{},
		pollInterval: 2 * time.Second,
	}
}

type analyzeResponse struct {
	Status        string         `json:"status"`
	Error         *apiError      `json:"error"`
	AnalyzeResult *analyzeResult `json:"analyzeResult"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type analyzeResult struct {
	Documents []analyzedDocument `json:"documents"`
}

type analyzedDocument struct {
	Fields map[string]documentField `json:"fields"`
}

type documentField struct {
	Content string `json:"content"`
}

// Analyze submits the document bytes to the prebuilt invoice model and polls
// the returned operation until it settles. Each analyzed document becomes
// one raw field set; fields without content are dropped.
func (c *Client) Analyze(ctx context.Context, data []byte) ([]pipeline.RawInvoiceFields, error) {
	operationURL, err := c.submit(ctx, data)
	if err != nil {
		return nil, err
	}

	for {
		result, err := c.fetchResult(ctx, operationURL)
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case "succeeded":
			return mapDocuments(result.AnalyzeResult), nil
		case "failed":
			if result.Error != nil {
				return nil, fmt.Errorf("docintel: analysis failed: %s: %s", result.Error.Code, result.Error.Message)
			}
			return nil, fmt.Errorf("docintel: analysis failed")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) submit(ctx context.Context, data []byte) (string, error) {
	url := fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s", c.endpoint, modelID, apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("docintel: build analyze request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("docintel: submit document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("docintel: submit document: unexpected status %d: %s", resp.StatusCode, body)
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", fmt.Errorf("docintel: submit document: missing Operation-Location header")
	}
	return operationURL, nil
}

func (c *Client) fetchResult(ctx context.Context, operationURL string) (*analyzeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return nil, fmt.Errorf("docintel: build result request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docintel: fetch result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("docintel: fetch result: unexpected status %d: %s", resp.StatusCode, body)
	}

	var result analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("docintel: decode result: %w", err)
	}
	return &result, nil
}

func mapDocuments(result *analyzeResult) []pipeline.RawInvoiceFields {
	if result == nil {
		return nil
	}
	docs := make([]pipeline.RawInvoiceFields, 0, len(result.Documents))
	for _, doc := range result.Documents {
		fields := make(map[string]string, len(doc.Fields))
		for name, field := range doc.Fields {
			fields[name] = field.Content
		}
		docs = append(docs, pipeline.NewRawInvoiceFields(fields))
	}
	return docs
}

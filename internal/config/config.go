package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Analyzer backends.
const (
	AnalyzerAzure  = "azure"
	AnalyzerGemini = "gemini"
)

// Config carries everything the batch needs from the environment. It is
// loaded once in main and passed down explicitly; no package reads env vars
// on its own.
type Config struct {
	// Document-analysis collaborator.
	Analyzer         string // "azure" (default) or "gemini"
	DocIntelEndpoint string
	DocIntelAPIKey   string
	GeminiModel      string

	// NIP white-list registry, e.g. https://wl-api.mf.gov.pl/api/search/nip
	NIPRegistryURL string

	// Base directory holding {year}/{month}/ invoice folders.
	InvoicesPath string

	// Optional sinks.
	GCSArchiveBucket string
	BigQueryProject  string
	BigQueryDataset  string
	NotionToken      string
	NotionDatabaseID string
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Analyzer:         getenvDefault("ANALYZER", AnalyzerAzure),
		DocIntelEndpoint: os.Getenv("DOCINTEL_ENDPOINT"),
		DocIntelAPIKey:   os.Getenv("DOCINTEL_API_KEY"),
		GeminiModel:      os.Getenv("GEMINI_MODEL"),
		NIPRegistryURL:   os.Getenv("NIP_REGISTRY_URL"),
		InvoicesPath:     os.Getenv("INVOICES_PATH"),
		GCSArchiveBucket: os.Getenv("GCS_ARCHIVE_BUCKET"),
		BigQueryProject:  os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:  getenvDefault("BIGQUERY_DATASET", "faktury"),
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.InvoicesPath == "" {
		return fmt.Errorf("config: INVOICES_PATH is required")
	}
	if c.NIPRegistryURL == "" {
		return fmt.Errorf("config: NIP_REGISTRY_URL is required")
	}
	switch c.Analyzer {
	case AnalyzerAzure:
		if c.DocIntelEndpoint == "" || c.DocIntelAPIKey == "" {
			return fmt.Errorf("config: DOCINTEL_ENDPOINT and DOCINTEL_API_KEY are required for the azure analyzer")
		}
	case AnalyzerGemini:
		// Credentials come from the GenAI SDK's own environment.
	default:
		return fmt.Errorf("config: unknown analyzer %q", c.Analyzer)
	}
	if c.NotionToken != "" && c.NotionDatabaseID == "" {
		return fmt.Errorf("config: NOTION_DATABASE_ID is required when NOTION_TOKEN is set")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

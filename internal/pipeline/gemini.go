package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiAnalyzer is an alternative document-analysis backend that asks a
// Gemini vision model for the invoice fields instead of the Azure service.
type GeminiAnalyzer struct {
	model string
}

func NewGeminiAnalyzer(model string) *GeminiAnalyzer {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiAnalyzer{model: model}
}

const geminiPrompt = "You are an invoice field extractor for scanned Polish vendor invoices.\n\n" +
	"Task:\n" +
	"- Find EVERY invoice in the attached document.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array with one object per invoice.\n\n" +
	"Each object must have exactly these fields, every value a string copied\n" +
	"verbatim from the document, or null when not printed on the invoice:\n" +
	"- \"InvoiceId\"\n" +
	"- \"VendorName\"\n" +
	"- \"VendorAddress\"\n" +
	"- \"VendorTaxId\"\n" +
	"- \"InvoiceDate\"\n" +
	"- \"SubTotal\"\n" +
	"- \"TotalTax\"\n" +
	"- \"InvoiceTotal\"\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"[\" and end with \"]\".\n"

// Analyze sends the document to Gemini and maps the returned JSON objects to
// raw field sets.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, data []byte) ([]RawInvoiceFields, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini analyze: create client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: geminiPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: http.DetectContentType(data),
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini analyze: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("gemini analyze: empty response from model")
	}

	var parsed []map[string]*string
	clean := cleanModelJSON(rawText)
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("gemini analyze: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	docs := make([]RawInvoiceFields, 0, len(parsed))
	for _, obj := range parsed {
		fields := make(map[string]string, len(obj))
		for name, value := range obj {
			if value != nil {
				fields[name] = *value
			}
		}
		docs = append(docs, NewRawInvoiceFields(fields))
	}
	return docs, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

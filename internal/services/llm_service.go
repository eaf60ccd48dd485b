package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/govjobalert/govjobalert/internal/dtos"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"

	maxPromptHTML = 60000
)

// ErrLLMUnavailable is returned by extraction entry points when no model is
// configured.
var ErrLLMUnavailable = errors.New("llm not configured")

type LLMService struct {
	Client   llms.Model
	validate *validator.Validate
}

// NewLLMService creates a Gemini-backed extractor.
func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewLLMServiceWithModel(client), nil
}

func NewLLMServiceWithModel(client llms.Model) *LLMService {
	return &LLMService{Client: client, validate: newValidator()}
}

const listingExtractionPrompt = `
You are an expert web scraping assistant. Analyze the HTML of a government job board page and extract every job listing on it.

### INSTRUCTIONS:
1. Ignore navigation menus, footers, advertisements and result/admit-card sections.
2. Use the absolute URL of each listing's detail page as "link".
3. Return a JSON array only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
[
  {
    "link": "Full URL of the job detail page",
    "title": "Title of the job",
    "department": "Department or organization posting the job",
    "applicationDeadline": "Last date to apply, YYYY-MM-DD if possible, omitted when absent"
  }
]

### CONSTRAINT:
If the deadline is missing, omit the field. Do not invent listings.

### RAW CONTENT:
%s
`

// ExtractJobListings asks the model for the listings on a job board page.
// Items that miss a link, title or department are dropped.
func (s *LLMService) ExtractJobListings(ctx context.Context, rawHTML string) ([]dtos.ScrapedJob, error) {
	if s == nil || s.Client == nil {
		return nil, ErrLLMUnavailable
	}
	rawHTML = truncateUTF8(rawHTML, maxPromptHTML)

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client,
		fmt.Sprintf(listingExtractionPrompt, rawHTML),
		llms.WithJSONMode(),
		llms.WithTemperature(0),
	)
	if err != nil {
		return nil, fmt.Errorf("generate listings: %w", err)
	}

	var items []dtos.ScrapedJob
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &items); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}

	valid := make([]dtos.ScrapedJob, 0, len(items))
	for _, item := range items {
		item.Link = strings.TrimSpace(item.Link)
		item.Title = strings.TrimSpace(item.Title)
		item.Department = strings.TrimSpace(item.Department)
		if err := s.validate.Struct(&item); err != nil {
			log.Warn().Str("link", item.Link).Err(validationFailure("invalid listing", err)).Msg("dropping extracted listing")
			continue
		}
		valid = append(valid, item)
	}
	log.Info().Int("extracted", len(items)).Int("valid", len(valid)).Msg("llm listing extraction finished")
	return valid, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add despite
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

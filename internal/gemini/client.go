// Package gemini implements the meal classifier on Google's Gemini API:
// one multi-modal generateContent call per logical event, returning a
// validated structured analysis.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/genai"

	"github.com/burgerquest/bot/internal/config"
	"github.com/burgerquest/bot/internal/store"
)

// mealSchema constrains the model to the analysis field set. Responses that
// still deviate are rejected when the JSON is decoded and validated.
var mealSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":      {Type: genai.TypeString, Description: "Restaurant or dish name."},
		"category":  {Type: genai.TypeString, Enum: []string{"burger", "other"}},
		"rating":    {Type: genai.TypeInteger, Description: "Overall rating from 1 to 10."},
		"price":     {Type: genai.TypeNumber, Description: "Price as a plain number."},
		"is_burger": {Type: genai.TypeBoolean},
		"comment":   {Type: genai.TypeString, Description: "Short summary."},
		"items":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"name", "category", "rating", "price", "is_burger", "comment", "items"},
}

// Client is the Gemini-backed classifier.
type Client struct {
	genaiClient *genai.Client
	logger      *slog.Logger
	validate    *validator.Validate
	config      *genai.GenerateContentConfig
	modelName   string
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new Gemini classifier client with the provided
// configuration and verifies that an API key is present.
func NewClient(ctx context.Context, cfg config.GeminiConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	contentConfig := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: MealSystemInstruction}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    mealSchema,
	}

	log := logger.With("component", "gemini_client")
	log.Info("Gemini client initialized", "model", cfg.Model)

	return &Client{
		genaiClient: gi,
		logger:      log,
		validate:    validator.New(),
		config:      contentConfig,
		modelName:   cfg.Model,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

// Classify sends the combined event text followed by each image, in order,
// and decodes the response into a validated analysis. Any API failure,
// non-JSON response, or schema violation is returned as an error; the caller
// treats it as a per-event failure.
func (c *Client) Classify(ctx context.Context, text string, imagePaths []string) (*store.Analysis, error) {
	parts := []*genai.Part{{Text: text}}
	for _, path := range imagePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", path, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mimeForPath(path)))
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.generateWithRetries(ctx, contents)
	if err != nil {
		return nil, err
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("classifier returned empty response")
	}

	return c.decodeAnalysis(raw)
}

// generateWithRetries calls the API, retrying transient server errors.
func (c *Client) generateWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.config)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) && i < c.maxRetries {
			c.logger.WarnContext(ctx, "Gemini API call failed, retrying",
				"attempt", i+1, "code", apiErr.Code, "delay", c.retryDelay)
			time.Sleep(c.retryDelay)
			continue
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, fmt.Errorf("gemini API call failed after %d retries: %w", c.maxRetries, err)
}

// decodeAnalysis parses the classifier response as a single JSON object and
// enforces the field contract (category enum, rating range, required fields).
func (c *Client) decodeAnalysis(raw string) (*store.Analysis, error) {
	var analysis store.Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &analysis); err != nil {
		return nil, fmt.Errorf("classifier response is not valid JSON: %w", err)
	}

	if err := c.validate.Struct(&analysis); err != nil {
		return nil, fmt.Errorf("classifier response violates schema: %w", err)
	}

	return &analysis, nil
}

// mimeForPath maps an image file extension to its MIME type, defaulting to
// JPEG, which is what the transport writes.
func mimeForPath(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/jpeg"
}

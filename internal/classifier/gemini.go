package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when GEMINI_MODEL is not set.
const DefaultModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("empty response from model")

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Generator = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   expenseSchema(),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func expenseSchema() *genai.Schema {
	nullable := true
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc, Nullable: &nullable}
	}
	num := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeNumber, Description: desc, Nullable: &nullable}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"amount":        num("amount spent, non-negative"),
			"currency":      str("3-letter ISO currency code"),
			"category":      str("expense category"),
			"subcategory":   str("expense subcategory"),
			"description":   str("brief description"),
			"location":      str("where the expense happened"),
			"date":          str("YYYY-MM-DD"),
			"time":          str("HH:MM"),
			"paymentMethod": str("cash, card, mobile"),
			"quantity":      num("number of items"),
			"unit":          str("unit of the quantity"),
			"merchant":      str("store or restaurant name"),
			"tags":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"priority":      {Type: genai.TypeString, Enum: []string{"low", "medium", "high"}},
			"isRecurring":   {Type: genai.TypeBoolean},
			"notes":         str("other relevant information"),
		},
		Required: []string{"amount", "category"},
	}
}

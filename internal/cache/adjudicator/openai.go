package adjudicator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const openAIChatURL = "https://api.openai.com/v1/chat/completions"

// OpenAIAdjudicator implements Adjudicator using OpenAI's chat completions API
type OpenAIAdjudicator struct {
	apiKey string
	model  string
	client *http.Client
}

// NewOpenAIAdjudicator creates a new OpenAI adjudicator
func NewOpenAIAdjudicator(apiKey, model string) (*OpenAIAdjudicator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIAdjudicator{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Classify asks the model whether the query matches any candidate
func (o *OpenAIAdjudicator) Classify(ctx context.Context, query string, candidates []QA) (Classification, error) {
	prompt, err := buildPrompt(query, candidates)
	if err != nil {
		return Classification{}, err
	}

	reqBody := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Classification{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", openAIChatURL,
		bytes.NewBuffer(jsonData))
	if err != nil {
		return Classification{}, err
	}

	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return Classification{}, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, errResp.Error.Message)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Classification{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return Classification{}, fmt.Errorf("empty completion returned")
	}

	return parseClassification(result.Choices[0].Message.Content)
}

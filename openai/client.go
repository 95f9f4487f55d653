package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"fundfinder-backend/config"
)

// LeadRequest is the business profile a set of leads is generated for.
type LeadRequest struct {
	BusinessType string
	Location     string
	Purpose      string
}

// CallError is returned when the completion call itself fails. Diagnostic
// holds whatever the API reported, for operators.
type CallError struct {
	Status     int
	Diagnostic map[string]any
	Err        error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ai request failed with status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("ai request failed: %v", e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

var ErrEmptyCompletion = errors.New("ai returned no choices")

type Client struct {
	api   *openai.Client
	Model string
}

// sanitizeEnv strips whitespace and one pair of matching surrounding quotes,
// which tend to sneak into keys copied from .env files.
func sanitizeEnv(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func NewClient(cfg *config.Config) *Client {
	oc := openai.DefaultConfig(sanitizeEnv(cfg.OpenAIKey))
	if base := sanitizeEnv(cfg.OpenAIBaseURL); base != "" {
		oc.BaseURL = base
	}
	model := sanitizeEnv(cfg.OpenAIModel)
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{api: openai.NewClientWithConfig(oc), Model: model}
}

const systemPrompt = `You are a funding research assistant for small businesses.
Reply with a JSON array of exactly 3 objects and nothing else.
Each object has the string fields "name", "type", "amount", "deadline", "link" and "matchReason".
"type" is one of "Grant", "Loan" or "Investor".`

func buildPrompt(req LeadRequest) string {
	return fmt.Sprintf(
		"Find 3 funding opportunities (grants, loans or investors) for this business.\nBusiness type: %s\nLocation: %s\nFunding purpose: %s",
		req.BusinessType, req.Location, req.Purpose,
	)
}

// GenerateLeads asks the model for leads and returns the raw text of the
// first choice. Parsing is the caller's job.
func (c *Client) GenerateLeads(ctx context.Context, req LeadRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.Model,
		Temperature: 0.4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &CallError{Diagnostic: map[string]any{"id": resp.ID}, Err: ErrEmptyCompletion}
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &CallError{
			Status: apiErr.HTTPStatusCode,
			Diagnostic: map[string]any{
				"type":    apiErr.Type,
				"code":    apiErr.Code,
				"message": apiErr.Message,
			},
			Err: err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &CallError{
			Status:     reqErr.HTTPStatusCode,
			Diagnostic: map[string]any{"message": reqErr.Error()},
			Err:        err,
		}
	}
	return &CallError{Diagnostic: map[string]any{"message": err.Error()}, Err: err}
}

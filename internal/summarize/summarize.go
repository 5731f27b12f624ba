// Package summarize turns batches of chat messages into short bullet
// digests via the Anthropic API. The engine supplies messages and
// detected-issue context; rendering the result is the caller's job.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"digest/internal/models"
)

// Bullet is one line of a digest. Link is an optional message permalink.
type Bullet struct {
	Text string `json:"text"`
	Link string `json:"link"`
}

// Summary is the digest returned by the model.
type Summary struct {
	Bullets []Bullet `json:"bullets"`
}

// Client wraps the Anthropic API for digest generation.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates a summarizer client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// Digest summarizes messages into a five-bullet digest. customPrompt is
// the user's stored prompt customization, empty for none.
func (c *Client) Digest(ctx context.Context, msgs []string, customPrompt string) (*Summary, error) {
	system := combinedPrompt(basePrompt, customPrompt)
	user := "Summarize these team chat messages:\n\n" + strings.Join(msgs, "\n")
	return c.complete(ctx, system, user, 256)
}

// ProjectDigest summarizes messages gathered across a project's
// channels into a six-bullet, project-focused digest.
func (c *Client) ProjectDigest(ctx context.Context, msgs []string, project string, channels []string, customPrompt string) (*Summary, error) {
	system := projectPrompt(project, channels, customPrompt)
	user := "Analyze these project messages from multiple channels:\n\n" + strings.Join(msgs, "\n")
	return c.complete(ctx, system, user, 400)
}

// IssueDigest summarizes messages with a technical-issue focus,
// including metadata about issues the detector already found.
func (c *Client) IssueDigest(ctx context.Context, msgs []string, customPrompt string, detected []models.CandidateIssue) (*Summary, error) {
	system := combinedPrompt(issueBasePrompt, customPrompt)
	user := "Analyze these messages for technical issues and problems:\n\n" +
		strings.Join(msgs, "\n") + issueContext(detected)
	return c.complete(ctx, system, user, 500)
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int64) (*Summary, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return parseSummary(text)
}

// parseSummary decodes the model's JSON digest, tolerating markdown
// code fences around the payload.
func parseSummary(text string) (*Summary, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var summary Summary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		return nil, fmt.Errorf("parse digest response as JSON: %w\nraw response: %s", err, text)
	}
	return &summary, nil
}

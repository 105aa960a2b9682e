// Package ai talks to an OpenAI-compatible chat-completions endpoint for the
// generated parts of the product: session summaries, mentor suggestions and
// teaching tips.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"mentorly-backend-go/internal/models"
)

// NoSummaryMessage is stored verbatim when a session's chat is too short to
// say anything useful about.
const NoSummaryMessage = "Not enough conversation to generate a summary."

// minTranscriptChars gates the summarizer: anything shorter is not worth a
// remote call.
const minTranscriptChars = 50

var errMaxRetries = errors.New("max retries exceeded")

// Client is a chat-completions API client with bounded retries.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a Client for the given endpoint and model.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model     string                  `json:"model"`
	Messages  []chatCompletionMessage `json:"messages"`
	MaxTokens int                     `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// complete runs one chat completion, retrying with exponential backoff on
// rate limits and server errors.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatCompletionMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryDelay
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}

		var completion chatCompletionResponse
		if err := json.Unmarshal(body, &completion); err != nil {
			return "", fmt.Errorf("failed to decode API response: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", errors.New("no completion returned by the API")
		}
		return strings.TrimSpace(completion.Choices[0].Message.Content), nil
	}
	return "", fmt.Errorf("%w: %v", errMaxRetries, lastErr)
}

// Summarize condenses a session transcript into a short paragraph. Chats
// below the length threshold get the fixed too-short message without hitting
// the remote service at all.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	if len(strings.TrimSpace(transcript)) < minTranscriptChars {
		return NoSummaryMessage, nil
	}
	system := "You summarize mentoring session chats. Reply with a concise paragraph " +
		"covering the topics discussed and any agreed next steps. Plain text only."
	return c.complete(ctx, system, transcript, 300)
}

// SuggestMentors matches the learner's goals against the mentor roster and
// returns up to three suggestions with reasons.
func (c *Client) SuggestMentors(ctx context.Context, goals string, interests []string, mentors []*models.Mentor) ([]models.MentorSuggestion, error) {
	var roster strings.Builder
	for _, m := range mentors {
		fmt.Fprintf(&roster, "- id=%s name=%s subjects=%s skills=%s rating=%.1f\n",
			m.ID, m.Name, strings.Join(m.Subjects, ","), strings.Join(m.Skills, ","), m.Rating)
	}

	system := "You match learners with mentors. Given the learner's goals and the mentor roster, " +
		"pick up to 3 mentors. Reply with ONLY a JSON array of objects with keys " +
		`"mentorId" and "reason". Use only ids from the roster.`
	user := fmt.Sprintf("Goals: %s\nInterests: %s\nMentors:\n%s",
		goals, strings.Join(interests, ", "), roster.String())

	content, err := c.complete(ctx, system, user, 400)
	if err != nil {
		return nil, err
	}

	var suggestions []models.MentorSuggestion
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	return suggestions, nil
}

// TeachingTips generates short coaching tips for the given subjects.
func (c *Client) TeachingTips(ctx context.Context, subjects []string) ([]string, error) {
	system := "You coach mentors on teaching technique. Reply with ONLY a JSON array of " +
		"3 to 5 short, actionable tip strings."
	user := "Subjects taught: " + strings.Join(subjects, ", ")

	content, err := c.complete(ctx, system, user, 300)
	if err != nil {
		return nil, err
	}

	var tips []string
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &tips); err != nil {
		return nil, fmt.Errorf("failed to parse teaching tips: %w", err)
	}
	return tips, nil
}

// stripCodeFence unwraps a ```json ... ``` block some models insist on.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Package zulip fetches introduction messages from a Zulip channel.
package zulip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// minIntroLength filters out short replies and emoji reactions; real
// intro messages in the welcome topic run long.
const minIntroLength = 600

// Message is one Zulip message as returned by GET /api/v1/messages.
type Message struct {
	SenderFullName string `json:"sender_full_name"`
	Content        string `json:"content"` // rendered HTML
}

type messagesResponse struct {
	Result   string    `json:"result"`
	Msg      string    `json:"msg"`
	Messages []Message `json:"messages"`
}

type narrowFilter struct {
	Operator string `json:"operator"`
	Operand  string `json:"operand"`
}

// Client communicates with a Zulip server over its REST API.
type Client struct {
	baseURL    string
	email      string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for the given Zulip site using email + API key
// basic auth.
func New(baseURL, email, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetMessages fetches up to limit of the newest messages in the given
// channel and topic.
func (c *Client) GetMessages(ctx context.Context, channel, topic string, limit int) ([]Message, error) {
	narrow, err := json.Marshal([]narrowFilter{
		{Operator: "channel", Operand: channel},
		{Operator: "topic", Operand: topic},
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling narrow: %w", err)
	}

	q := url.Values{}
	q.Set("anchor", "newest")
	q.Set("num_before", strconv.Itoa(limit))
	q.Set("num_after", "0")
	q.Set("narrow", string(narrow))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/messages?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating messages request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("messages: unexpected status %d", resp.StatusCode)
	}

	var result messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding messages response: %w", err)
	}
	if result.Result != "success" {
		return nil, fmt.Errorf("messages: API error: %s", result.Msg)
	}

	return result.Messages, nil
}

// GetIntros fetches messages from the intro topic and returns the
// plain-text intro per sender, keeping only messages long enough to be
// actual introductions. When a person posted several qualifying
// messages, the newest wins.
func (c *Client) GetIntros(ctx context.Context, channel, topic string, limit int) (map[string]string, error) {
	messages, err := c.GetMessages(ctx, channel, topic, limit)
	if err != nil {
		return nil, err
	}

	intros := make(map[string]string)
	for _, msg := range messages {
		if len([]rune(msg.Content)) < minIntroLength {
			continue
		}
		text := StripHTML(msg.Content)
		if text == "" {
			continue
		}
		intros[msg.SenderFullName] = text
	}
	return intros, nil
}

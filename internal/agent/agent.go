// Package agent answers natural-language questions about batchmates by
// routing them through an LLM intent parse and then querying the
// relational store, mirroring the original database-tool agent.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/batchmates/batchmates/internal/openai"
	"github.com/batchmates/batchmates/internal/storage"
)

const routeTimeout = 30 * time.Second

// Chatter is the interface for chat completion against the routing model.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []openai.Message, jsonSchema *openai.Schema) (string, error)
}

// Lookup kinds the router can choose between.
const (
	LookupPersonInterests    = "person_interests"
	LookupPeopleWithInterest = "people_with_interest"
)

// ErrUnknownSubject is returned when the question's subject matches
// nothing in the store, so callers can tell "no data" from a broken
// pipeline.
var ErrUnknownSubject = errors.New("unknown subject")

// Agent resolves questions against the store.
type Agent struct {
	client Chatter
	store  *storage.Store
	model  string
}

// New creates an Agent using the given routing model.
func New(client Chatter, store *storage.Store, model string) *Agent {
	return &Agent{client: client, store: store, model: model}
}

// PersonInterests returns the raw interests a person listed.
func (a *Agent) PersonInterests(ctx context.Context, name string) ([]string, error) {
	interests, err := a.store.InterestsOfPerson(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: person %q", ErrUnknownSubject, name)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up interests for %q: %w", name, err)
	}
	if interests == nil {
		interests = []string{}
	}
	return interests, nil
}

// PeopleWithInterest returns everyone whose interests resolve to the
// given canonical tag. The lookup is case-insensitive on the tag name.
func (a *Agent) PeopleWithInterest(ctx context.Context, interest string) ([]string, error) {
	people, err := a.store.PeopleWithTag(ctx, strings.ToLower(strings.TrimSpace(interest)))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: interest %q", ErrUnknownSubject, interest)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up people for %q: %w", interest, err)
	}
	if people == nil {
		people = []string{}
	}
	return people, nil
}

// route is the structured routing decision from the LLM.
type route struct {
	Lookup  string `json:"lookup"`
	Subject string `json:"subject"`
}

// Ask answers a free-form question by asking the LLM which lookup to
// run and with what subject, then executing it. The answer is a JSON
// array of strings, matching the original agent's response contract.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("empty question")
	}

	ctx, cancel := context.WithTimeout(ctx, routeTimeout)
	defer cancel()

	raw, err := a.client.Chat(ctx, a.model, buildRoutePrompt(question), routeSchema())
	if err != nil {
		return "", fmt.Errorf("routing question: %w", err)
	}

	var r route
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return "", fmt.Errorf("malformed routing decision: %w", err)
	}

	var result []string
	switch r.Lookup {
	case LookupPersonInterests:
		result, err = a.PersonInterests(ctx, r.Subject)
	case LookupPeopleWithInterest:
		result, err = a.PeopleWithInterest(ctx, r.Subject)
	default:
		return "", fmt.Errorf("router chose unknown lookup %q", r.Lookup)
	}
	if err != nil {
		return "", err
	}

	answer, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshalling answer: %w", err)
	}
	return string(answer), nil
}

const routePrompt = `You route questions about a cohort of programmers to one of two database lookups.

Lookups:
- "person_interests": the question asks what a specific person is interested in. Subject is the person's name.
- "people_with_interest": the question asks who is interested in a topic. Subject is the topic, lowercase.

Respond only in JSON: {"lookup": "", "subject": ""}`

func buildRoutePrompt(question string) []openai.Message {
	return []openai.Message{
		{Role: "developer", Content: routePrompt},
		{Role: "user", Content: question},
	}
}

func routeSchema() *openai.Schema {
	return &openai.Schema{
		Type: "object",
		Properties: map[string]openai.SchemaProperty{
			"lookup":  {Type: "string", Description: "One of: person_interests, people_with_interest"},
			"subject": {Type: "string", Description: "The person name or interest topic"},
		},
		Required: []string{"lookup", "subject"},
	}
}

// Package extract turns raw intro messages into structured profile
// records via per-person LLM calls.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/batchmates/batchmates/internal/openai"
	"github.com/batchmates/batchmates/internal/profile"
)

const extractionTimeout = 60 * time.Second

// batchConcurrency bounds parallel extraction calls so a large batch
// does not trip provider rate limits.
const batchConcurrency = 4

// Chatter is the interface for chat completion against the extraction
// model.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []openai.Message, jsonSchema *openai.Schema) (string, error)
}

// Extractor uses an LLM to extract a structured profile from one intro
// message.
type Extractor struct {
	client Chatter
	model  string
}

// NewExtractor creates an Extractor using the given client and model name.
func NewExtractor(client Chatter, model string) *Extractor {
	return &Extractor{client: client, model: model}
}

// Extract analyses one person's intro text and returns the structured
// profile. A missing or blank extracted name falls back to the sender
// name from the chat platform.
func (e *Extractor) Extract(ctx context.Context, name, text string) (profile.Profile, error) {
	if strings.TrimSpace(text) == "" {
		return profile.Profile{}, fmt.Errorf("empty intro text for %q", name)
	}

	ctx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	raw, err := e.client.Chat(ctx, e.model, buildPrompt(name, text), profileSchema())
	if err != nil {
		return profile.Profile{}, fmt.Errorf("extraction chat for %q: %w", name, err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return profile.Profile{}, fmt.Errorf("malformed extraction for %q: %w", name, err)
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = name
	}
	if err := p.Validate(); err != nil {
		return profile.Profile{}, fmt.Errorf("extraction for %q: %w", name, err)
	}
	return p, nil
}

// ExtractAll runs extraction over every intro concurrently (bounded) and
// returns the profiles keyed by name. Extraction is best-effort per
// person: individual failures are logged and skipped. It is an error
// only when every extraction fails.
func (e *Extractor) ExtractAll(ctx context.Context, intros map[string]string) (profile.Set, error) {
	if len(intros) == 0 {
		return profile.Set{}, nil
	}

	var mu sync.Mutex
	set := make(profile.Set, len(intros))
	failed := 0

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for name, text := range intros {
		g.Go(func() error {
			p, err := e.Extract(gCtx, name, text)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("skipping person: extraction failed", "name", name, "error", err)
				failed++
				return nil
			}
			set[p.Name] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("all %d extractions failed", failed)
	}
	if failed > 0 {
		slog.Warn("extraction batch finished with failures", "extracted", len(set), "failed", failed)
	}
	return set, nil
}

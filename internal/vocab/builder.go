package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/batchmates/batchmates/internal/openai"
)

// Chatter is the interface for chat completion against the normalizer
// model.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []openai.Message, jsonSchema *openai.Schema) (string, error)
}

// Builder asks an LLM to collapse raw interest strings into a bounded
// canonical tag vocabulary plus a raw-string → tag mapping.
type Builder struct {
	client Chatter
	model  string
}

// NewBuilder creates a Builder using the given client and model name.
func NewBuilder(client Chatter, model string) *Builder {
	return &Builder{client: client, model: model}
}

// Build runs one normalization pass over the given raw interest set and
// returns the validated artifact. The normalizer is non-deterministic,
// so repeated builds over the same input may differ; callers persist one
// artifact per pipeline run and reuse it for every downstream stage.
//
// Unparsable or structurally invalid output fails the build; nothing is
// persisted here, so callers retry the whole batch rather than patching
// a partial vocabulary.
func (b *Builder) Build(ctx context.Context, rawInterests []string) (Artifact, error) {
	if len(rawInterests) == 0 {
		return Artifact{}, fmt.Errorf("no raw interests to normalize")
	}

	messages := []openai.Message{
		{Role: "developer", Content: condensePrompt},
		{Role: "user", Content: "Here is the info: " + strings.Join(rawInterests, ", ")},
	}

	raw, err := b.client.Chat(ctx, b.model, messages, nil)
	if err != nil {
		return Artifact{}, fmt.Errorf("normalizer call: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal([]byte(stripMarkdownFence(raw)), &a); err != nil {
		return Artifact{}, fmt.Errorf("normalizer returned unparsable output: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Artifact{}, fmt.Errorf("normalizer response: %w", err)
	}

	// The normalizer does not guarantee mapping values stay inside its
	// own tag list. Tolerate strays (lazy tag creation picks them up at
	// ingest time) but make the discrepancy visible.
	for _, tag := range a.StrayTags() {
		slog.Warn("normalizer mapped to a tag outside standardized_tags", "tag", tag)
	}

	slog.Info("built tag vocabulary",
		"raw_interests", len(rawInterests),
		"tags", len(a.StandardizedTags),
		"mappings", len(a.Mappings))
	return a, nil
}

// stripMarkdownFence removes a ```json ... ``` wrapper some models emit
// despite being told not to.
func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

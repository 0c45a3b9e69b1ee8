package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/batchmates/batchmates/internal/openai"
)

// fakeChatter returns per-name canned responses keyed on the user
// message content.
type fakeChatter struct {
	responses map[string]string // substring of user message -> response
	err       error
}

func (f *fakeChatter) Chat(ctx context.Context, model string, messages []openai.Message, jsonSchema *openai.Schema) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var user string
	for _, m := range messages {
		if m.Role == "user" {
			user = m.Content
		}
	}
	for key, resp := range f.responses {
		if strings.Contains(user, key) {
			return resp, nil
		}
	}
	return "", errors.New("no canned response")
}

func TestExtract(t *testing.T) {
	chatter := &fakeChatter{responses: map[string]string{
		"Hi, I'm Ada": `{
			"name": "Ada Lovelace",
			"role_and_institution": "Engineer at Analytical Engines",
			"location": "London",
			"technical_skills_and_interests": ["rust and embedded systems"],
			"goals": [],
			"non_technical_hobbies_and_interest": ["playing jazz piano"],
			"other": []
		}`,
	}}
	e := NewExtractor(chatter, "test-model")

	p, err := e.Extract(context.Background(), "Ada", "Hi, I'm Ada and I love rust.")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want Ada Lovelace", p.Name)
	}
	if len(p.TechnicalSkillsAndInterests) != 1 {
		t.Errorf("TechnicalSkillsAndInterests = %v, want 1 entry", p.TechnicalSkillsAndInterests)
	}
}

// TestExtractNameFallback verifies a blank extracted name falls back to
// the sender name.
func TestExtractNameFallback(t *testing.T) {
	chatter := &fakeChatter{responses: map[string]string{
		"no name here": `{"name": "  ", "role_and_institution": "", "location": "", "technical_skills_and_interests": [], "goals": [], "non_technical_hobbies_and_interest": [], "other": []}`,
	}}
	e := NewExtractor(chatter, "test-model")

	p, err := e.Extract(context.Background(), "Bob Sender", "no name here")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.Name != "Bob Sender" {
		t.Errorf("Name = %q, want sender fallback Bob Sender", p.Name)
	}
}

func TestExtractRejectsEmptyText(t *testing.T) {
	e := NewExtractor(&fakeChatter{}, "test-model")
	if _, err := e.Extract(context.Background(), "Ada", "   "); err == nil {
		t.Error("Extract with blank text should fail")
	}
}

func TestExtractMalformedResponse(t *testing.T) {
	chatter := &fakeChatter{responses: map[string]string{"intro": "not json"}}
	e := NewExtractor(chatter, "test-model")
	if _, err := e.Extract(context.Background(), "Ada", "intro"); err == nil {
		t.Error("Extract with unparsable response should fail")
	}
}

// TestExtractAllSkipsFailures runs a batch where one extraction fails
// and verifies the rest still come through.
func TestExtractAllSkipsFailures(t *testing.T) {
	chatter := &fakeChatter{responses: map[string]string{
		"Ada's intro": `{"name": "Ada", "role_and_institution": "", "location": "", "technical_skills_and_interests": [], "goals": [], "non_technical_hobbies_and_interest": [], "other": []}`,
		"Bob's intro": "garbage",
	}}
	e := NewExtractor(chatter, "test-model")

	set, err := e.ExtractAll(context.Background(), map[string]string{
		"Ada": "Ada's intro",
		"Bob": "Bob's intro",
	})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("ExtractAll returned %d profiles, want 1", len(set))
	}
	if _, ok := set["Ada"]; !ok {
		t.Error("Ada missing from extracted set")
	}
}

func TestExtractAllFailsWhenAllFail(t *testing.T) {
	e := NewExtractor(&fakeChatter{err: errors.New("provider down")}, "test-model")
	if _, err := e.ExtractAll(context.Background(), map[string]string{"Ada": "intro"}); err == nil {
		t.Error("ExtractAll should fail when every extraction fails")
	}
}

func TestExtractAllEmptyBatch(t *testing.T) {
	e := NewExtractor(&fakeChatter{}, "test-model")
	set, err := e.ExtractAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("ExtractAll(nil) = %v, want empty set", set)
	}
}

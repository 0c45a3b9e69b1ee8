package ingest

import (
	"context"
	"testing"

	"github.com/batchmates/batchmates/internal/profile"
	"github.com/batchmates/batchmates/internal/storage"
	"github.com/batchmates/batchmates/internal/vocab"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testInputs() (profile.Set, vocab.Artifact) {
	set := profile.Set{
		"Ada": {
			Name:                           "Ada",
			Location:                       "London",
			RoleAndInstitution:             "Engineer at Analytical Engines",
			TechnicalSkillsAndInterests:    []string{"rust and embedded systems"},
			NonTechnicalHobbiesAndInterest: []string{"playing jazz piano"},
		},
		"Bob": {
			Name:  "Bob",
			Goals: []string{"learning rust"},
			Other: []string{"underwater basket weaving"},
		},
	}
	art := vocab.Artifact{
		StandardizedTags: []string{"music", "rust"},
		Mappings: map[string]string{
			"rust and embedded systems": "rust",
			"learning rust":             "rust",
			"playing jazz piano":        "music",
		},
	}
	return set, art
}

func TestRun(t *testing.T) {
	store := openTestStore(t)
	set, art := testInputs()
	ctx := context.Background()

	stats, err := New(store).Run(ctx, set, art, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.People != 2 {
		t.Errorf("People = %d, want 2", stats.People)
	}
	// misc + the two standardized tags.
	if stats.Tags != 3 {
		t.Errorf("Tags = %d, want 3", stats.Tags)
	}
	if stats.Interests != 4 {
		t.Errorf("Interests = %d, want 4", stats.Interests)
	}
	if stats.Associations != 4 {
		t.Errorf("Associations = %d, want 4", stats.Associations)
	}

	// Bob's unmapped interest lands under misc instead of being dropped.
	people, err := store.PeopleWithTag(ctx, vocab.MiscTag)
	if err != nil {
		t.Fatalf("PeopleWithTag(misc): %v", err)
	}
	if len(people) != 1 || people[0] != "Bob" {
		t.Errorf("PeopleWithTag(misc) = %v, want [Bob]", people)
	}
}

// TestRunIdempotent re-runs the same ingestion and verifies nothing is
// added the second time.
func TestRunIdempotent(t *testing.T) {
	store := openTestStore(t)
	set, art := testInputs()
	ctx := context.Background()

	if _, err := New(store).Run(ctx, set, art, Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}

	stats, err := New(store).Run(ctx, set, art, Options{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if stats != (Stats{}) {
		t.Errorf("second Run stats = %+v, want all zero", stats)
	}

	after, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if before != after {
		t.Errorf("row counts changed on re-run: %+v -> %+v", before, after)
	}
}

func TestRunFirstWriteWinsAndOverwrite(t *testing.T) {
	store := openTestStore(t)
	set, art := testInputs()
	ctx := context.Background()

	if _, err := New(store).Run(ctx, set, art, Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	moved := set["Ada"]
	moved.Location = "Paris"
	set["Ada"] = moved

	if _, err := New(store).Run(ctx, set, art, Options{}); err != nil {
		t.Fatalf("Run without overwrite: %v", err)
	}
	p, err := store.GetPerson(ctx, "Ada")
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if p.Location != "London" {
		t.Errorf("Location = %q, want London (first write wins)", p.Location)
	}

	if _, err := New(store).Run(ctx, set, art, Options{Overwrite: true}); err != nil {
		t.Fatalf("Run with overwrite: %v", err)
	}
	p, err = store.GetPerson(ctx, "Ada")
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if p.Location != "Paris" {
		t.Errorf("Location = %q, want Paris after overwrite", p.Location)
	}
}

// TestRunStrayTagCreatedLazily maps an interest to a tag outside the
// standardized vocabulary and verifies the tag row still appears.
func TestRunStrayTagCreatedLazily(t *testing.T) {
	store := openTestStore(t)
	set, art := testInputs()
	art.Mappings["underwater basket weaving"] = "crafts"
	ctx := context.Background()

	if _, err := New(store).Run(ctx, set, art, Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	people, err := store.PeopleWithTag(ctx, "crafts")
	if err != nil {
		t.Fatalf("PeopleWithTag(crafts): %v", err)
	}
	if len(people) != 1 || people[0] != "Bob" {
		t.Errorf("PeopleWithTag(crafts) = %v, want [Bob]", people)
	}
}

func TestRunRejectsInvalidArtifact(t *testing.T) {
	store := openTestStore(t)
	set, _ := testInputs()

	if _, err := New(store).Run(context.Background(), set, vocab.Artifact{}, Options{}); err == nil {
		t.Error("Run with invalid artifact should fail")
	}
}

package vocab

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/batchmates/batchmates/internal/profile"
)

func testArtifact() Artifact {
	return Artifact{
		StandardizedTags: []string{"music", "rust"},
		Mappings: map[string]string{
			"rust and embedded systems": "rust",
			"learning rust":             "rust",
			"playing jazz piano":        "music",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		art     Artifact
		wantErr bool
	}{
		{"valid", testArtifact(), false},
		{"no tags", Artifact{Mappings: map[string]string{"a": "b"}}, true},
		{"nil mappings", Artifact{StandardizedTags: []string{"rust"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.art.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	art := testArtifact()

	tag, ok := Resolve("learning rust", art)
	if !ok || tag != "rust" {
		t.Errorf("Resolve(mapped) = %q, %v; want rust, true", tag, ok)
	}

	tag, ok = Resolve("underwater basket weaving", art)
	if ok {
		t.Error("Resolve(unmapped) reported ok")
	}
	if tag != MiscTag {
		t.Errorf("Resolve(unmapped) = %q, want %q", tag, MiscTag)
	}
}

func TestStrayTags(t *testing.T) {
	art := testArtifact()
	art.Mappings["surfing"] = "sports"
	art.Mappings["climbing"] = "sports"

	stray := art.StrayTags()
	if !reflect.DeepEqual(stray, []string{"sports"}) {
		t.Errorf("StrayTags() = %v, want [sports]", stray)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.json")
	art := testArtifact()

	if err := Save(path, art); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, art) {
		t.Errorf("round trip changed artifact: got %+v, want %+v", got, art)
	}
}

func TestSaveRefusesInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.json")
	if err := Save(path, Artifact{}); err == nil {
		t.Error("Save of invalid artifact should fail")
	}
}

func TestCollectInterests(t *testing.T) {
	set := profile.Set{
		"Ada": {
			Name:                           "Ada",
			TechnicalSkillsAndInterests:    []string{"rust and embedded systems", ""},
			NonTechnicalHobbiesAndInterest: []string{"playing jazz piano"},
		},
		"Bob": {
			Name:  "Bob",
			Goals: []string{"learning rust", "playing jazz piano"},
		},
	}

	got := CollectInterests(set, profile.AllTypes())
	want := []string{"learning rust", "playing jazz piano", "rust and embedded systems"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectInterests = %v, want %v", got, want)
	}

	// Restricting fields restricts the collection.
	got = CollectInterests(set, []string{profile.TypeGoal})
	want = []string{"learning rust", "playing jazz piano"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectInterests(goals only) = %v, want %v", got, want)
	}
}

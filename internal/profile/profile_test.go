package profile

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestValidate(t *testing.T) {
	if err := (Profile{Name: "Ada"}).Validate(); err != nil {
		t.Errorf("Validate with name = %v, want nil", err)
	}
	if err := (Profile{Name: "   "}).Validate(); err == nil {
		t.Error("Validate with blank name should fail")
	}
}

func TestInterests(t *testing.T) {
	p := Profile{
		TechnicalSkillsAndInterests:    []string{"rust"},
		Goals:                          []string{"ship something"},
		NonTechnicalHobbiesAndInterest: []string{"piano"},
		Other:                          []string{"cats"},
	}

	tests := []struct {
		typeName string
		want     []string
	}{
		{TypeTechnical, []string{"rust"}},
		{TypeGoal, []string{"ship something"}},
		{TypeHobby, []string{"piano"}},
		{TypeOther, []string{"cats"}},
		{"bogus", nil},
	}
	for _, tt := range tests {
		if got := p.Interests(tt.typeName); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Interests(%q) = %v, want %v", tt.typeName, got, tt.want)
		}
	}
}

func TestLoadSetNameFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	data := `{
		"Ada Lovelace": {"name": "", "role_and_institution": "", "location": "London",
			"technical_skills_and_interests": [], "goals": [],
			"non_technical_hobbies_and_interest": [], "other": []}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadSet(path)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	p, ok := set["Ada Lovelace"]
	if !ok {
		t.Fatalf("set = %v, want keyed by map-key fallback", set)
	}
	if p.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want map key fallback", p.Name)
	}
}

func TestLoadSetRejectsNameless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	if err := os.WriteFile(path, []byte(`{"  ": {"name": ""}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSet(path); err == nil {
		t.Error("LoadSet should fail when neither name nor key is usable")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	set := Set{
		"Ada": {Name: "Ada", Location: "London", Goals: []string{"ship"}},
		"Bob": {Name: "Bob"},
	}
	if err := SaveSet(path, set); err != nil {
		t.Fatalf("SaveSet: %v", err)
	}
	got, err := LoadSet(path)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if !reflect.DeepEqual(got, set) {
		t.Errorf("round trip changed set: got %+v, want %+v", got, set)
	}
}

func TestNames(t *testing.T) {
	set := Set{"Bob": {Name: "Bob"}, "Ada": {Name: "Ada"}}
	names := set.Names()
	sort.Strings(names)
	if !reflect.DeepEqual(names, []string{"Ada", "Bob"}) {
		t.Errorf("Names = %v, want [Ada Bob]", names)
	}
}

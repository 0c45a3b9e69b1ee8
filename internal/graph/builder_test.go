package graph

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/batchmates/batchmates/internal/profile"
	"github.com/batchmates/batchmates/internal/vocab"
)

func testInputs() (profile.Set, vocab.Artifact) {
	set := profile.Set{
		"Ada": {
			Name:                        "Ada",
			TechnicalSkillsAndInterests: []string{"rust and embedded systems"},
			NonTechnicalHobbiesAndInterest: []string{
				"playing jazz piano",
			},
		},
		"Bob": {
			Name:  "Bob",
			Goals: []string{"learning rust"},
		},
		"Cleo": {
			Name:  "Cleo",
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

func TestBuild(t *testing.T) {
	set, art := testInputs()
	g := Build(set, art)

	// 2 tag nodes + 3 person nodes, tags first, people in name order.
	wantNodes := []Node{
		{ID: "music", Type: NodeInterest},
		{ID: "rust", Type: NodeInterest},
		{ID: "Ada", Type: NodePerson},
		{ID: "Bob", Type: NodePerson},
		{ID: "Cleo", Type: NodePerson},
	}
	if !reflect.DeepEqual(g.Nodes, wantNodes) {
		t.Errorf("Nodes = %v, want %v", g.Nodes, wantNodes)
	}

	// Only Ada and Bob share a tag. Cleo's sole interest is unmapped
	// and dropped, so she stays disconnected.
	wantLinks := []Link{
		{Source: "Ada", Target: "Bob", Label: "rust"},
	}
	if !reflect.DeepEqual(g.Links, wantLinks) {
		t.Errorf("Links = %v, want %v", g.Links, wantLinks)
	}
}

func TestBuildNoSelfOrDuplicateEdges(t *testing.T) {
	set, art := testInputs()
	g := Build(set, art)

	seen := make(map[[2]string]bool)
	for _, l := range g.Links {
		if l.Source == l.Target {
			t.Errorf("self edge on %q", l.Source)
		}
		key := [2]string{l.Source, l.Target}
		rev := [2]string{l.Target, l.Source}
		if seen[key] || seen[rev] {
			t.Errorf("duplicate edge %v", key)
		}
		seen[key] = true
	}
}

func TestBuildMultipleSharedTags(t *testing.T) {
	set, art := testInputs()
	bob := set["Bob"]
	bob.NonTechnicalHobbiesAndInterest = []string{"playing jazz piano"}
	set["Bob"] = bob

	g := Build(set, art)

	want := Link{Source: "Ada", Target: "Bob", Label: "music, rust"}
	if len(g.Links) != 1 || g.Links[0] != want {
		t.Errorf("Links = %v, want [%v]", g.Links, want)
	}
}

func TestBuildDeterministic(t *testing.T) {
	set, art := testInputs()
	g1 := Build(set, art)
	g2 := Build(set, art)
	if !reflect.DeepEqual(g1, g2) {
		t.Error("Build is not deterministic over the same inputs")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	set, art := testInputs()
	g := Build(set, art)

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteFile(path, g); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(got, g) {
		t.Errorf("round trip changed graph: got %+v, want %+v", got, g)
	}
}

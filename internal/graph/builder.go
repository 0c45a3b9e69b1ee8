// Package graph derives the undirected shared-interest graph: people
// connected by the canonical tags their interests have in common.
package graph

import (
	"sort"
	"strings"

	"github.com/batchmates/batchmates/internal/artifact"
	"github.com/batchmates/batchmates/internal/profile"
	"github.com/batchmates/batchmates/internal/vocab"
)

// Node types in the graph artifact.
const (
	NodeInterest = "interest"
	NodePerson   = "person"
)

// Node is one graph node: a canonical tag or a person.
type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Link is one undirected edge between two people, labelled with their
// shared canonical tags.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Graph is the serializable artifact handed to visualization consumers.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Build derives the graph from the profile set and one fixed mapping
// artifact. Unmapped interests are dropped from a person's tag set here
// (unlike ingestion's misc fallback) so the graph doesn't grow a
// dominant misc hub node. People are enumerated in sorted-name order
// and each unordered pair is visited once, so the output is
// deterministic, symmetric, and self-edge free.
func Build(profiles profile.Set, art vocab.Artifact) Graph {
	var g Graph

	for _, tag := range art.StandardizedTags {
		g.Nodes = append(g.Nodes, Node{ID: tag, Type: NodeInterest})
	}

	people := profiles.Names()
	sort.Strings(people)

	tagSets := make(map[string]map[string]bool, len(people))
	for _, name := range people {
		g.Nodes = append(g.Nodes, Node{ID: name, Type: NodePerson})
		tagSets[name] = personTags(profiles[name], art)
	}

	for i := 0; i < len(people); i++ {
		for j := i + 1; j < len(people); j++ {
			shared := intersect(tagSets[people[i]], tagSets[people[j]])
			if len(shared) == 0 {
				continue
			}
			g.Links = append(g.Links, Link{
				Source: people[i],
				Target: people[j],
				Label:  strings.Join(shared, ", "),
			})
		}
	}

	return g
}

// personTags resolves every free-text item across all interest fields,
// silently excluding items the mapping doesn't cover.
func personTags(p profile.Profile, art vocab.Artifact) map[string]bool {
	tags := make(map[string]bool)
	for _, field := range profile.AllTypes() {
		for _, item := range p.Interests(field) {
			if tag, ok := vocab.Resolve(item, art); ok {
				tags[tag] = true
			}
		}
	}
	return tags
}

func intersect(a, b map[string]bool) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	var shared []string
	for tag := range a {
		if b[tag] {
			shared = append(shared, tag)
		}
	}
	sort.Strings(shared)
	return shared
}

// WriteFile persists the graph artifact atomically.
func WriteFile(path string, g Graph) error {
	return artifact.WriteJSON(path, g)
}

// ReadFile loads a previously built graph artifact.
func ReadFile(path string) (Graph, error) {
	var g Graph
	if err := artifact.ReadJSON(path, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

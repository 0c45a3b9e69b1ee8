// Package vocab builds and applies the canonical tag vocabulary: it
// collects raw interest strings across all profiles, asks the normalizer
// to collapse them into a bounded tag set, and resolves raw strings to
// canonical tags through the resulting mapping artifact.
package vocab

import (
	"fmt"
	"sort"

	"github.com/batchmates/batchmates/internal/artifact"
	"github.com/batchmates/batchmates/internal/profile"
)

// MiscTag is the catch-all canonical tag the resolver falls back to for
// raw interests the mapping does not cover. It always exists in the
// persisted tag store.
const MiscTag = "misc"

// Artifact is the persisted normalizer output: the canonical tag
// vocabulary plus the raw-string → tag lookup table. Downstream stages
// load one artifact per run and never re-derive it mid-run.
type Artifact struct {
	StandardizedTags []string          `json:"standardized_tags"`
	Mappings         map[string]string `json:"mappings"`
}

// Validate checks the structural shape the normalizer contract promises.
// Mapping values outside StandardizedTags are tolerated here; the
// resolver's lazy tag creation absorbs them downstream.
func (a Artifact) Validate() error {
	if len(a.StandardizedTags) == 0 {
		return fmt.Errorf("artifact has no standardized_tags")
	}
	if a.Mappings == nil {
		return fmt.Errorf("artifact has no mappings")
	}
	return nil
}

// StrayTags returns mapping values that do not appear in
// StandardizedTags, sorted. The normalizer does not guarantee this
// invariant, so callers log these rather than failing.
func (a Artifact) StrayTags() []string {
	known := make(map[string]bool, len(a.StandardizedTags))
	for _, t := range a.StandardizedTags {
		known[t] = true
	}
	seen := make(map[string]bool)
	var stray []string
	for _, tag := range a.Mappings {
		if !known[tag] && !seen[tag] {
			seen[tag] = true
			stray = append(stray, tag)
		}
	}
	sort.Strings(stray)
	return stray
}

// Load reads and validates a mapping artifact from path.
func Load(path string) (Artifact, error) {
	var a Artifact
	if err := artifact.ReadJSON(path, &a); err != nil {
		return Artifact{}, fmt.Errorf("loading tag mappings: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Artifact{}, fmt.Errorf("tag mappings %s: %w", path, err)
	}
	return a, nil
}

// Save persists the artifact atomically. A build that fails before this
// point writes nothing.
func Save(path string, a Artifact) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid artifact: %w", err)
	}
	return artifact.WriteJSON(path, a)
}

// Resolve looks raw up in the artifact's mapping. The boolean reports
// whether a mapping existed; when false the returned tag is MiscTag.
// Callers pick their own unmapped policy: ingestion keeps the misc
// fallback, the graph builder drops the item instead.
func Resolve(raw string, a Artifact) (string, bool) {
	if tag, ok := a.Mappings[raw]; ok && tag != "" {
		return tag, true
	}
	return MiscTag, false
}

// CollectInterests gathers the deduplicated set of raw interest strings
// across the given interest-type fields of every profile, sorted so the
// normalizer input is stable for a given profile set.
func CollectInterests(profiles profile.Set, fields []string) []string {
	seen := make(map[string]bool)
	for _, p := range profiles {
		for _, field := range fields {
			for _, item := range p.Interests(field) {
				if item != "" {
					seen[item] = true
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for item := range seen {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

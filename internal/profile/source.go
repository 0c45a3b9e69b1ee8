package profile

import (
	"fmt"
	"strings"

	"github.com/batchmates/batchmates/internal/artifact"
)

// LoadSet reads a profiles artifact (a JSON object keyed by person name)
// from path. Records with a blank name field fall back to their map key.
func LoadSet(path string) (Set, error) {
	var raw map[string]Profile
	if err := artifact.ReadJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}

	set := make(Set, len(raw))
	for key, p := range raw {
		if strings.TrimSpace(p.Name) == "" {
			p.Name = strings.TrimSpace(key)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", key, err)
		}
		set[p.Name] = p
	}
	return set, nil
}

// SaveSet writes the profiles artifact atomically.
func SaveSet(path string, set Set) error {
	return artifact.WriteJSON(path, set)
}

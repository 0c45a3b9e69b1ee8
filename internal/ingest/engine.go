// Package ingest loads profile records into the relational store
// idempotently: phases run in dependency order, each phase commits as
// one batch, and re-running a phase never duplicates rows.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/batchmates/batchmates/internal/profile"
	"github.com/batchmates/batchmates/internal/storage"
	"github.com/batchmates/batchmates/internal/vocab"
)

// Options control one ingestion run.
type Options struct {
	// Overwrite updates an existing person's location and role instead
	// of leaving the first-written values in place. Off by default.
	Overwrite bool
	// Fields are the interest-type fields whose raw interests are bulk
	// loaded in the interests phase. Defaults to all four types. The
	// associations phase always covers all types and creates any
	// straggler interests inline.
	Fields []string
}

// Stats summarizes what one run changed.
type Stats struct {
	People       int `json:"people_added"`
	Tags         int `json:"tags_added"`
	Interests    int `json:"interests_added"`
	Associations int `json:"associations_added"`
}

// Engine performs the relational ingestion pass. It assumes exclusive
// ownership of the target tables for the duration of a run.
type Engine struct {
	store *storage.Store
}

// New creates an Engine writing to the given store.
func New(store *storage.Store) *Engine {
	return &Engine{store: store}
}

// Run ingests the profile set using one fixed mapping artifact. Phases
// run in dependency order (types → people → tags → interests →
// associations) because later rows reference earlier ones by foreign
// key. Any failure aborts the run with nothing half-committed beyond
// already completed phases; the whole run is safe to retry.
func (e *Engine) Run(ctx context.Context, profiles profile.Set, art vocab.Artifact, opts Options) (Stats, error) {
	if err := art.Validate(); err != nil {
		return Stats{}, fmt.Errorf("ingest: %w", err)
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = profile.AllTypes()
	}

	var stats Stats

	typeIDs, err := e.ensureInterestTypes(ctx)
	if err != nil {
		return stats, fmt.Errorf("interest types phase: %w", err)
	}

	if err := e.ensurePeople(ctx, profiles, opts.Overwrite, &stats); err != nil {
		return stats, fmt.Errorf("people phase: %w", err)
	}

	if err := e.ensureTags(ctx, art, &stats); err != nil {
		return stats, fmt.Errorf("tags phase: %w", err)
	}

	if err := e.ensureInterests(ctx, profiles, fields, art, &stats); err != nil {
		return stats, fmt.Errorf("interests phase: %w", err)
	}

	if err := e.ensureAssociations(ctx, profiles, art, typeIDs, opts.Overwrite, &stats); err != nil {
		return stats, fmt.Errorf("associations phase: %w", err)
	}

	slog.Info("ingestion complete",
		"people_added", stats.People,
		"tags_added", stats.Tags,
		"interests_added", stats.Interests,
		"associations_added", stats.Associations)
	return stats, nil
}

// ensureInterestTypes seeds the fixed taxonomy and returns name → id.
func (e *Engine) ensureInterestTypes(ctx context.Context) (map[string]int64, error) {
	ids := make(map[string]int64, len(profile.AllTypes()))
	err := e.store.InTx(ctx, func(tx *storage.Tx) error {
		for _, name := range profile.AllTypes() {
			id, _, err := tx.EnsureInterestType(ctx, name)
			if err != nil {
				return fmt.Errorf("interest type %q: %w", name, err)
			}
			ids[name] = id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (e *Engine) ensurePeople(ctx context.Context, profiles profile.Set, overwrite bool, stats *Stats) error {
	return e.store.InTx(ctx, func(tx *storage.Tx) error {
		for _, name := range sortedNames(profiles) {
			p := profiles[name]
			_, created, err := tx.EnsurePerson(ctx, storage.Person{
				Name:               p.Name,
				Location:           p.Location,
				RoleAndInstitution: p.RoleAndInstitution,
			}, overwrite)
			if err != nil {
				return fmt.Errorf("person %q: %w", p.Name, err)
			}
			if created {
				stats.People++
			} else if !overwrite {
				slog.Debug("person already in store, keeping existing row", "name", p.Name)
			}
		}
		return nil
	})
}

// ensureTags loads the artifact's vocabulary plus the misc catch-all.
// The vocabulary only grows; existing tags are never touched.
func (e *Engine) ensureTags(ctx context.Context, art vocab.Artifact, stats *Stats) error {
	return e.store.InTx(ctx, func(tx *storage.Tx) error {
		names := append([]string{vocab.MiscTag}, art.StandardizedTags...)
		for _, name := range names {
			_, created, err := tx.EnsureTag(ctx, name)
			if err != nil {
				return fmt.Errorf("tag %q: %w", name, err)
			}
			if created {
				stats.Tags++
			}
		}
		return nil
	})
}

// ensureInterests bulk-loads every distinct raw interest across the
// configured fields, resolving each to its canonical tag with the misc
// fallback. Stray mapping values get their tag row created lazily here.
func (e *Engine) ensureInterests(ctx context.Context, profiles profile.Set, fields []string, art vocab.Artifact, stats *Stats) error {
	raw := vocab.CollectInterests(profiles, fields)
	return e.store.InTx(ctx, func(tx *storage.Tx) error {
		for _, item := range raw {
			if _, err := ensureResolvedInterest(ctx, tx, item, art, stats); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) ensureAssociations(ctx context.Context, profiles profile.Set, art vocab.Artifact, typeIDs map[string]int64, overwrite bool, stats *Stats) error {
	return e.store.InTx(ctx, func(tx *storage.Tx) error {
		for _, name := range sortedNames(profiles) {
			p := profiles[name]
			personID, _, err := tx.EnsurePerson(ctx, storage.Person{
				Name:               p.Name,
				Location:           p.Location,
				RoleAndInstitution: p.RoleAndInstitution,
			}, false)
			if err != nil {
				return fmt.Errorf("person %q: %w", p.Name, err)
			}

			for _, typeName := range profile.AllTypes() {
				typeID, ok := typeIDs[typeName]
				if !ok {
					return fmt.Errorf("unknown interest type %q", typeName)
				}
				for _, item := range p.Interests(typeName) {
					if item == "" {
						continue
					}
					// Stragglers not covered by the bulk interests
					// phase are created inline here.
					interestID, err := ensureResolvedInterest(ctx, tx, item, art, stats)
					if err != nil {
						return err
					}
					created, err := tx.EnsureAssociation(ctx, storage.PersonInterest{
						PersonID:       personID,
						InterestID:     interestID,
						InterestTypeID: typeID,
					})
					if err != nil {
						return fmt.Errorf("association %q/%q/%q: %w", p.Name, item, typeName, err)
					}
					if created {
						stats.Associations++
					}
				}
			}
		}
		return nil
	})
}

// ensureResolvedInterest resolves one raw interest through the artifact
// (misc fallback for unmapped items) and upserts the interest row. The
// tag row is created on demand, so the live tag set can grow beyond the
// artifact — the safety valve against an incomplete normalizer response.
func ensureResolvedInterest(ctx context.Context, tx *storage.Tx, item string, art vocab.Artifact, stats *Stats) (int64, error) {
	tag, mapped := vocab.Resolve(item, art)
	if !mapped {
		slog.Debug("no mapping for interest, filing under misc", "interest", item)
	}
	tagID, createdTag, err := tx.EnsureTag(ctx, tag)
	if err != nil {
		return 0, fmt.Errorf("tag %q: %w", tag, err)
	}
	if createdTag {
		stats.Tags++
	}
	interestID, createdInterest, err := tx.EnsureInterest(ctx, item, tagID)
	if err != nil {
		return 0, fmt.Errorf("interest %q: %w", item, err)
	}
	if createdInterest {
		stats.Interests++
	}
	return interestID, nil
}

func sortedNames(profiles profile.Set) []string {
	names := profiles.Names()
	sort.Strings(names)
	return names
}

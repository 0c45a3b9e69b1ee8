package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Person is a row in the people table, keyed naturally by Name.
type Person struct {
	ID                 int64
	Name               string
	Location           string
	RoleAndInstitution string
}

// Tag is one canonical tag of the bounded vocabulary. Tags are never
// renamed or deleted; the vocabulary only grows.
type Tag struct {
	ID   int64
	Name string
}

// InterestType is one row of the fixed interest-type taxonomy.
type InterestType struct {
	ID   int64
	Name string
}

// Interest is a raw interest string exactly as a person typed it. Its
// tag assignment is fixed at creation time, even if a later mapping
// artifact disagrees; changing it requires a full re-normalization pass.
type Interest struct {
	ID          int64
	Description string
	TagID       int64
}

// PersonInterest links a person to a raw interest under one interest
// type. The triple is the composite identity; re-ingestion never
// duplicates it.
type PersonInterest struct {
	PersonID       int64
	InterestID     int64
	InterestTypeID int64
}

// Run records one pipeline stage execution for the status surface.
type Run struct {
	ID         string
	Stage      string
	Status     string // "running", "ok", "failed"
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Counts summarizes table sizes for the stats endpoint and CLI status.
type Counts struct {
	People       int `json:"people"`
	Tags         int `json:"tags"`
	Interests    int `json:"interests"`
	Associations int `json:"associations"`
}

// Package store provides the SQLite persistence layer for the knowledge base:
// entities, temporally-versioned facts and relations, decisions, and domain
// assignments.
package store

import (
	"errors"
	"time"
)

// EntityType is the closed vocabulary of entity kinds. Unknown values are
// coerced to EntityConcept at the boundary.
type EntityType string

const (
	EntityPerson  EntityType = "person"
	EntityProject EntityType = "project"
	EntityCompany EntityType = "company"
	EntityConcept EntityType = "concept"
	EntityFeature EntityType = "feature"
	EntityTool    EntityType = "tool"
)

// NormalizeEntityType validates a proposed entity type against the closed
// vocabulary, coercing anything unrecognized (including empty) to EntityConcept.
func NormalizeEntityType(s string) EntityType {
	switch EntityType(s) {
	case EntityPerson, EntityProject, EntityCompany, EntityConcept, EntityFeature, EntityTool:
		return EntityType(s)
	default:
		return EntityConcept
	}
}

// Entity is a real-world thing the knowledge base tracks. Names are display
// strings and are not guaranteed unique across case variants until merged.
type Entity struct {
	ID        string
	Name      string
	Type      EntityType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fact is a versioned (entity, attribute, value) assertion with a validity
// interval [ValidFrom, ValidTo). A nil ValidTo means currently true.
// Validity bounds are calendar dates (YYYY-MM-DD); CreatedAt is the full
// write timestamp.
type Fact struct {
	ID           string
	EntityID     string
	Attribute    string
	Value        string
	Source       string
	ValidFrom    string
	ValidTo      *string
	SupersededBy *string
	CreatedAt    time.Time
}

// Current reports whether the fact is currently valid.
func (f *Fact) Current() bool { return f.ValidTo == nil }

// Relation is a versioned directed edge between two entities with the same
// validity-interval shape as Fact.
type Relation struct {
	ID           string
	FromEntityID string
	RelationType string
	ToEntityID   string
	ValidFrom    string
	ValidTo      *string
	CreatedAt    time.Time
}

// Current reports whether the relation is currently valid.
func (r *Relation) Current() bool { return r.ValidTo == nil }

// Decision statuses. Decisions are append-only; status is the only mutable field.
const (
	DecisionActive     = "active"
	DecisionSuperseded = "superseded"
)

// Decision is an immutable log entry for a choice that changed how things work.
type Decision struct {
	ID        string
	Title     string
	Rationale string
	Status    string
	Context   string
	DecidedAt string
	CreatedAt time.Time
}

// DomainAssignment is a weighted membership of an entity in a domain.
// Confidence is the fraction of the entity's facts attributable to sources
// matching that domain's patterns, in (0,1].
type DomainAssignment struct {
	EntityID   string
	Domain     string
	Confidence float64
	Source     string
}

// EntityRelation is a relation seen from one entity's point of view, with the
// opposite endpoint's display name resolved for presentation.
type EntityRelation struct {
	Relation
	Outgoing  bool
	OtherName string
}

// EntityFactCount pairs an entity with its currently-valid fact count.
type EntityFactCount struct {
	Entity
	FactCount int
}

// DomainEntity is an entity listed under a domain with its membership
// confidence and currently-valid fact count.
type DomainEntity struct {
	Entity
	Confidence float64
	FactCount  int
}

// FactSource pairs an entity identifier with one of its facts' source labels.
// Used by the domain classifier's bulk scan.
type FactSource struct {
	EntityID string
	Source   string
}

// ErrEntityNotFound indicates that no entity was found for the given criteria.
var ErrEntityNotFound = errors.New("entity not found")

package migration

import (
	"fmt"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// Table is the append-only mapping store for one entity kind, queryable by
// source id and by target id. A nil *Table means the kind was never
// migrated this run — distinct from an empty table, which means the pass
// ran and produced no mappings.
type Table struct {
	kind     string
	order    []models.Mapping
	bySource map[string]int
	byTarget map[string]int
}

// NewTable creates an empty mapping table for the given entity kind.
func NewTable(kind string) *Table {
	return &Table{
		kind:     kind,
		bySource: make(map[string]int),
		byTarget: make(map[string]int),
	}
}

// Kind returns the entity kind this table maps.
func (t *Table) Kind() string { return t.kind }

// Add appends a mapping. Both the source id and the target id must be new
// to the table: a source entity maps to at most one target entity, and no
// two source entities may collapse onto one target entity.
func (t *Table) Add(m models.Mapping) error {
	if m.SourceID == "" || m.TargetID == "" {
		return fmt.Errorf("%s mapping %q: empty id", t.kind, m.Name)
	}
	if i, ok := t.bySource[m.SourceID]; ok {
		return fmt.Errorf("%s: source %s already mapped to %s", t.kind, m.SourceID, t.order[i].TargetID)
	}
	if i, ok := t.byTarget[m.TargetID]; ok {
		return fmt.Errorf("%s: target %s already mapped from %s", t.kind, m.TargetID, t.order[i].SourceID)
	}
	t.bySource[m.SourceID] = len(t.order)
	t.byTarget[m.TargetID] = len(t.order)
	t.order = append(t.order, m)
	return nil
}

// TargetFor returns the target id mapped from a source id.
func (t *Table) TargetFor(sourceID string) (string, bool) {
	if t == nil {
		return "", false
	}
	i, ok := t.bySource[sourceID]
	if !ok {
		return "", false
	}
	return t.order[i].TargetID, true
}

// SourceFor returns the source id mapped to a target id.
func (t *Table) SourceFor(targetID string) (string, bool) {
	if t == nil {
		return "", false
	}
	i, ok := t.byTarget[targetID]
	if !ok {
		return "", false
	}
	return t.order[i].SourceID, true
}

// HasTarget reports whether a target id is already covered by the table.
func (t *Table) HasTarget(targetID string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byTarget[targetID]
	return ok
}

// Len returns the number of mappings in the table. Safe on a nil table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Mappings returns all mappings in insertion order.
func (t *Table) Mappings() []models.Mapping {
	if t == nil {
		return nil
	}
	out := make([]models.Mapping, len(t.order))
	copy(out, t.order)
	return out
}

package models

import "fmt"

// Mapping records the correspondence between a source-side entity and its
// target-side counterpart for one entity kind. TargetIDs are assigned by
// the platform on creation, never chosen here.
type Mapping struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Name     string `json:"name"`
}

// Warning is a structured, non-fatal problem report emitted during a
// migration: which kind and entity it concerns and, when a reference could
// not be resolved, which dependency kind was missing.
type Warning struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Missing  string `json:"missing,omitempty"` // dependency kind that could not be resolved
	Detail   string `json:"detail"`
}

func (w Warning) String() string {
	s := fmt.Sprintf("WARNING [%s] %s", w.Kind, w.Name)
	if w.EntityID != "" {
		s += fmt.Sprintf(" (%s)", w.EntityID)
	}
	if w.Missing != "" {
		s += " missing " + w.Missing
	}
	if w.Detail != "" {
		s += ": " + w.Detail
	}
	return s
}

// MigrationResource describes a single entity being considered for migration.
type MigrationResource struct {
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Action   string `json:"action"` // "create", "skip_exists", "skip_disabled"
	TargetID string `json:"target_id,omitempty"`
}

// MigrationPreview holds the per-kind create/skip classification computed
// without touching the target.
type MigrationPreview struct {
	SourceID  string                         `json:"source_id"`
	TargetID  string                         `json:"target_id"`
	Resources map[string][]MigrationResource `json:"resources"`
	Warnings  []Warning                      `json:"warnings"`
}

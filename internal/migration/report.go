package migration

import (
	"sync"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// Report accumulates structured warnings and per-kind creation counts over
// a run. Safe for concurrent use: per-item rewriting runs on multiple
// workers and each may emit warnings.
type Report struct {
	mu       sync.Mutex
	warnings []models.Warning
	created  map[string]int
	logger   func(string)
}

// NewReport creates an empty report. Warnings are also rendered to the
// given logger so they appear in the job output as they happen.
func NewReport(logger func(string)) *Report {
	if logger == nil {
		logger = func(string) {}
	}
	return &Report{created: make(map[string]int), logger: logger}
}

// Warn records a warning and logs it. None are swallowed.
func (r *Report) Warn(w models.Warning) {
	r.mu.Lock()
	r.warnings = append(r.warnings, w)
	r.mu.Unlock()
	r.logger("  " + w.String())
}

// AddCreated bumps the creation counter for a kind.
func (r *Report) AddCreated(kind string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[kind] += n
}

// Warnings returns all warnings recorded so far.
func (r *Report) Warnings() []models.Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Created returns the number of entities created for a kind.
func (r *Report) Created(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created[kind]
}

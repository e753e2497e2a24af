package migration

import (
	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// Admit filters out candidates that structurally depend on a kind whose
// mapping table was never built this run (nil table). This is about
// capability absence only: a table that exists but misses a specific id is
// handled per-field by the rewriter, not by exclusion here.
func Admit[E models.DependencyHolder](kind string, candidates []E, taskGroups, variableGroups *Table, report *Report) []E {
	out := make([]E, 0, len(candidates))
	for _, c := range candidates {
		if taskGroups == nil && c.ReferencesTaskGroups() {
			report.Warn(models.Warning{
				Kind:     kind,
				EntityID: c.EntityID(),
				Name:     c.EntityName(),
				Missing:  models.KindTaskGroup,
				Detail:   "references task groups but task groups were not migrated; excluded",
			})
			continue
		}
		if variableGroups == nil && c.ReferencesVariableGroups() {
			report.Warn(models.Warning{
				Kind:     kind,
				EntityID: c.EntityID(),
				Name:     c.EntityName(),
				Missing:  models.KindVariableGroup,
				Detail:   "references variable groups but variable groups were not migrated; excluded",
			})
			continue
		}
		out = append(out, c)
	}
	return out
}

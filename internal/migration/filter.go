package migration

import (
	"fmt"
	"strings"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// FilterNew returns the source entities whose name has no exact
// case-insensitive match in the target. Together with the name-matched
// remainder (recovered by ReconcileExisting) this partitions the source
// set: every source entity lands on exactly one side.
func FilterNew[E models.Entity](kind string, source, target []E, logger func(string)) []E {
	existing := make(map[string]bool, len(target))
	for _, e := range target {
		existing[strings.ToLower(e.EntityName())] = true
	}
	var out []E
	for _, e := range source {
		if !existing[strings.ToLower(e.EntityName())] {
			out = append(out, e)
		}
	}
	if logger != nil {
		logger(fmt.Sprintf("  %s: %d of %d to migrate", kind, len(out), len(source)))
	}
	return out
}

// ReconcileExisting folds pre-existing target entities into the mapping
// table: for every target entity not covered by the freshly-created
// mappings, a source entity with the same name yields a recovered mapping.
// Target entities with no source counterpart are reported, non-fatally.
//
// Recovery is name-based and therefore unsafe when two differently
// configured entities share a name; that limitation is accepted.
func ReconcileExisting[E models.Entity](kind string, source, target []E, table *Table, report *Report) {
	byName := make(map[string]E, len(source))
	for _, e := range source {
		byName[strings.ToLower(e.EntityName())] = e
	}
	for _, tgt := range target {
		if table.HasTarget(tgt.EntityID()) {
			continue
		}
		src, ok := byName[strings.ToLower(tgt.EntityName())]
		if !ok {
			report.Warn(models.Warning{
				Kind:     kind,
				EntityID: tgt.EntityID(),
				Name:     tgt.EntityName(),
				Detail:   "target entity has no source counterpart",
			})
			continue
		}
		m := models.Mapping{SourceID: src.EntityID(), TargetID: tgt.EntityID(), Name: tgt.EntityName()}
		if err := table.Add(m); err != nil {
			report.Warn(models.Warning{
				Kind:     kind,
				EntityID: tgt.EntityID(),
				Name:     tgt.EntityName(),
				Detail:   "cannot reconcile: " + err.Error(),
			})
		}
	}
}

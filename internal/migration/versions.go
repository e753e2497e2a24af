package migration

import (
	"strings"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// PartitionVersions splits to-be-migrated task groups into the root
// generation (major version 1) and subsequent updates (major > 1). Roots
// must be created in the target first; updates are then applied onto the
// created roots by name, never created as fresh entities — otherwise
// duplicate version chains accumulate in the target.
//
// An update chain with no major-1 root cannot be anchored: its updates are
// dropped with a warning, never rooted on an arbitrary version.
func PartitionVersions(groups []models.TaskGroup, report *Report) (roots, updates []models.TaskGroup) {
	rootNames := make(map[string]bool)
	for _, g := range groups {
		if g.Version.Major == 1 {
			roots = append(roots, g)
			rootNames[strings.ToLower(g.Name)] = true
		}
	}
	for _, g := range groups {
		if g.Version.Major <= 1 {
			continue
		}
		if !rootNames[strings.ToLower(g.Name)] {
			report.Warn(models.Warning{
				Kind:     models.KindTaskGroup,
				EntityID: g.ID,
				Name:     g.Name,
				Detail:   "version chain has no major-1 root; update skipped",
			})
			continue
		}
		updates = append(updates, g)
	}
	return roots, updates
}

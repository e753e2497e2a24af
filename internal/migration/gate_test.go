package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

func buildWithTaskGroupRef(id, name string) models.BuildDefinition {
	return models.BuildDefinition{
		ID:   id,
		Name: name,
		Phases: []models.BuildPhase{{
			Steps: []models.TaskStep{{
				Task: models.TaskRef{ID: "tg-1", DefinitionType: models.DefinitionTypeMetaTask},
			}},
		}},
	}
}

func TestAdmitExcludesOnAbsentTaskGroupTable(t *testing.T) {
	defs := []models.BuildDefinition{
		buildWithTaskGroupRef("b1", "uses-taskgroup"),
		{ID: "b2", Name: "plain"},
	}

	report := NewReport(nil)
	out := Admit(models.KindBuildDefinition, defs, nil, NewTable(models.KindVariableGroup), report)

	require.Len(t, out, 1)
	assert.Equal(t, "b2", out[0].ID)

	warns := report.Warnings()
	require.Len(t, warns, 1)
	assert.Equal(t, "b1", warns[0].EntityID)
	assert.Equal(t, models.KindTaskGroup, warns[0].Missing)
}

func TestAdmitExcludesOnAbsentVariableGroupTable(t *testing.T) {
	defs := []models.BuildDefinition{
		{ID: "b1", Name: "uses-vargroup", VariableGroupIDs: []string{"vg-1"}},
		{ID: "b2", Name: "plain"},
	}

	report := NewReport(nil)
	out := Admit(models.KindBuildDefinition, defs, NewTable(models.KindTaskGroup), nil, report)

	require.Len(t, out, 1)
	assert.Equal(t, "b2", out[0].ID)

	warns := report.Warnings()
	require.Len(t, warns, 1)
	assert.Equal(t, models.KindVariableGroup, warns[0].Missing)
}

func TestAdmitPassesWhenTablesPresent(t *testing.T) {
	// An empty table means the pass ran; entities are admitted and any
	// unresolved reference is the rewriter's business, not the gate's.
	defs := []models.BuildDefinition{
		buildWithTaskGroupRef("b1", "uses-taskgroup"),
		{ID: "b2", Name: "uses-vargroup", VariableGroupIDs: []string{"vg-1"}},
	}

	report := NewReport(nil)
	out := Admit(models.KindBuildDefinition, defs, NewTable(models.KindTaskGroup), NewTable(models.KindVariableGroup), report)

	assert.Len(t, out, 2)
	assert.Empty(t, report.Warnings())
}

func TestAdmitReleaseDefinitions(t *testing.T) {
	defs := []models.ReleaseDefinition{
		{
			ID:   "r1",
			Name: "env-vargroup",
			Environments: []models.ReleaseEnvironment{
				{Name: "prod", VariableGroupIDs: []string{"vg-1"}},
			},
		},
		{ID: "r2", Name: "plain"},
	}

	report := NewReport(nil)
	out := Admit(models.KindReleaseDefinition, defs, NewTable(models.KindTaskGroup), nil, report)

	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].ID)
}

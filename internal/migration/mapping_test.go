package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

func TestTableAddAndLookup(t *testing.T) {
	table := NewTable(models.KindServiceConnection)
	require.NoError(t, table.Add(models.Mapping{SourceID: "s1", TargetID: "t1", Name: "registry"}))
	require.NoError(t, table.Add(models.Mapping{SourceID: "s2", TargetID: "t2", Name: "github"}))

	target, ok := table.TargetFor("s1")
	require.True(t, ok)
	assert.Equal(t, "t1", target)

	source, ok := table.SourceFor("t2")
	require.True(t, ok)
	assert.Equal(t, "s2", source)

	assert.True(t, table.HasTarget("t1"))
	assert.False(t, table.HasTarget("s1"))
	assert.Equal(t, 2, table.Len())

	_, ok = table.TargetFor("missing")
	assert.False(t, ok)
}

func TestTableRejectsDuplicates(t *testing.T) {
	table := NewTable(models.KindTaskGroup)
	require.NoError(t, table.Add(models.Mapping{SourceID: "s1", TargetID: "t1"}))

	assert.Error(t, table.Add(models.Mapping{SourceID: "s1", TargetID: "t9"}), "duplicate source")
	assert.Error(t, table.Add(models.Mapping{SourceID: "s9", TargetID: "t1"}), "duplicate target")
	assert.Error(t, table.Add(models.Mapping{SourceID: "", TargetID: "t2"}), "empty source id")
	assert.Error(t, table.Add(models.Mapping{SourceID: "s2", TargetID: ""}), "empty target id")

	// Failed adds leave the table untouched
	assert.Equal(t, 1, table.Len())
}

func TestTableMappingsPreserveOrder(t *testing.T) {
	table := NewTable(models.KindVariableGroup)
	require.NoError(t, table.Add(models.Mapping{SourceID: "a", TargetID: "1"}))
	require.NoError(t, table.Add(models.Mapping{SourceID: "b", TargetID: "2"}))
	require.NoError(t, table.Add(models.Mapping{SourceID: "c", TargetID: "3"}))

	maps := table.Mappings()
	require.Len(t, maps, 3)
	assert.Equal(t, "a", maps[0].SourceID)
	assert.Equal(t, "c", maps[2].SourceID)
}

func TestNilTableIsAbsentNotEmpty(t *testing.T) {
	var table *Table

	_, ok := table.TargetFor("s1")
	assert.False(t, ok)
	_, ok = table.SourceFor("t1")
	assert.False(t, ok)
	assert.False(t, table.HasTarget("t1"))
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Mappings())
}

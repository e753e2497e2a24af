package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

func sc(id, name string) models.ServiceConnection {
	return models.ServiceConnection{ID: id, Name: name}
}

func TestFilterNewPartitionsByName(t *testing.T) {
	source := []models.ServiceConnection{sc("s1", "registry"), sc("s2", "github"), sc("s3", "sonar")}
	target := []models.ServiceConnection{sc("t1", "Registry")}

	out := FilterNew(models.KindServiceConnection, source, target, nil)

	require.Len(t, out, 2)
	assert.Equal(t, "s2", out[0].ID)
	assert.Equal(t, "s3", out[1].ID)
}

func TestFilterNewEmptyTarget(t *testing.T) {
	source := []models.ServiceConnection{sc("s1", "a"), sc("s2", "b")}

	out := FilterNew(models.KindServiceConnection, source, nil, nil)

	assert.Len(t, out, 2)
}

func TestReconcileExistingRecoversByName(t *testing.T) {
	source := []models.ServiceConnection{sc("s1", "registry"), sc("s2", "github")}
	target := []models.ServiceConnection{sc("t1", "REGISTRY"), sc("t2", "github")}

	table := NewTable(models.KindServiceConnection)
	report := NewReport(nil)
	ReconcileExisting(models.KindServiceConnection, source, target, table, report)

	got, ok := table.TargetFor("s1")
	require.True(t, ok)
	assert.Equal(t, "t1", got)
	got, ok = table.TargetFor("s2")
	require.True(t, ok)
	assert.Equal(t, "t2", got)
	assert.Empty(t, report.Warnings())
}

func TestReconcileExistingSkipsFreshlyCreated(t *testing.T) {
	source := []models.ServiceConnection{sc("s1", "registry")}
	target := []models.ServiceConnection{sc("t1", "registry")}

	table := NewTable(models.KindServiceConnection)
	require.NoError(t, table.Add(models.Mapping{SourceID: "s1", TargetID: "t1", Name: "registry"}))

	report := NewReport(nil)
	ReconcileExisting(models.KindServiceConnection, source, target, table, report)

	// Already-covered target must not produce a duplicate or a warning
	assert.Equal(t, 1, table.Len())
	assert.Empty(t, report.Warnings())
}

func TestReconcileExistingWarnsOnOrphanTarget(t *testing.T) {
	source := []models.ServiceConnection{sc("s1", "registry")}
	target := []models.ServiceConnection{sc("t1", "registry"), sc("t2", "legacy-only")}

	table := NewTable(models.KindServiceConnection)
	report := NewReport(nil)
	ReconcileExisting(models.KindServiceConnection, source, target, table, report)

	assert.Equal(t, 1, table.Len())
	warns := report.Warnings()
	require.Len(t, warns, 1)
	assert.Equal(t, "t2", warns[0].EntityID)
	assert.Contains(t, warns[0].Detail, "no source counterpart")
}

func TestFilterAndReconcileCoverEverySource(t *testing.T) {
	// Every source entity either passes the filter or gets reconciled,
	// never both, never neither.
	source := []models.ServiceConnection{sc("s1", "a"), sc("s2", "b"), sc("s3", "c")}
	target := []models.ServiceConnection{sc("t2", "b")}

	fresh := FilterNew(models.KindServiceConnection, source, target, nil)
	table := NewTable(models.KindServiceConnection)
	report := NewReport(nil)
	ReconcileExisting(models.KindServiceConnection, source, target, table, report)

	seen := make(map[string]bool)
	for _, e := range fresh {
		seen[e.ID] = true
	}
	for _, m := range table.Mappings() {
		assert.False(t, seen[m.SourceID], "entity %s on both sides of the partition", m.SourceID)
		seen[m.SourceID] = true
	}
	assert.Len(t, seen, len(source))
}

package migration

import (
	"context"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// SourceCollection lists entities from a collection. Implementations own
// pagination, rate limiting and authentication; two calls within one pass
// are expected to observe a consistent snapshot.
type SourceCollection interface {
	ServiceConnections(ctx context.Context) ([]models.ServiceConnection, error)
	VariableGroups(ctx context.Context) ([]models.VariableGroup, error)
	TaskGroups(ctx context.Context) ([]models.TaskGroup, error)
	BuildDefinitions(ctx context.Context) ([]models.BuildDefinition, error)
	ReleaseDefinitions(ctx context.Context) ([]models.ReleaseDefinition, error)
	AgentPools(ctx context.Context) ([]models.AgentPool, error)
	DeploymentGroups(ctx context.Context) ([]models.DeploymentGroup, error)
	Repositories(ctx context.Context) ([]models.GitRepo, error)
}

// TargetCollection additionally creates entities. Creation is batch-wise:
// the platform assigns target ids and one mapping is returned per created
// entity. Any transport-level error fails the whole batch — the core
// assumes no partial-success contract.
type TargetCollection interface {
	SourceCollection

	CreateServiceConnections(ctx context.Context, items []models.ServiceConnection) ([]models.Mapping, error)
	CreateVariableGroups(ctx context.Context, items []models.VariableGroup) ([]models.Mapping, error)
	CreateTaskGroups(ctx context.Context, items []models.TaskGroup) ([]models.Mapping, error)
	CreateBuildDefinitions(ctx context.Context, items []models.BuildDefinition) ([]models.Mapping, error)
	CreateReleaseDefinitions(ctx context.Context, items []models.ReleaseDefinition) ([]models.Mapping, error)

	// UpdateTaskGroupVersions applies subsequent-version updates onto
	// already-created root task groups, matched by name. It must complete
	// before the target is re-listed for final reconciliation.
	UpdateTaskGroupVersions(ctx context.Context, target, rootTarget, updates []models.TaskGroup) error
}

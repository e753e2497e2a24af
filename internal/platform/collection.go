package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// Collection exposes one project of a collection as typed list/create
// operations. It implements migration.SourceCollection and, for target
// connections, migration.TargetCollection.
type Collection struct {
	client  *Client
	project string
}

// NewCollection creates a Collection for a connection.
func NewCollection(conn *models.Connection) *Collection {
	return &Collection{client: NewClient(conn), project: conn.Project}
}

// Ping checks reachability of the deployment.
func (c *Collection) Ping(ctx context.Context) error { return c.client.Ping(ctx) }

// CheckAuth verifies credentials.
func (c *Collection) CheckAuth(ctx context.Context) error { return c.client.CheckAuth(ctx) }

func (c *Collection) projectPath(suffix string) string {
	return "/" + c.project + "/_apis/" + suffix
}

func (c *Collection) ServiceConnections(ctx context.Context) ([]models.ServiceConnection, error) {
	return list[models.ServiceConnection](ctx, c.client, c.projectPath("serviceendpoint/endpoints"))
}

func (c *Collection) VariableGroups(ctx context.Context) ([]models.VariableGroup, error) {
	return list[models.VariableGroup](ctx, c.client, c.projectPath("distributedtask/variablegroups"))
}

func (c *Collection) TaskGroups(ctx context.Context) ([]models.TaskGroup, error) {
	return list[models.TaskGroup](ctx, c.client, c.projectPath("distributedtask/taskgroups"))
}

func (c *Collection) BuildDefinitions(ctx context.Context) ([]models.BuildDefinition, error) {
	return list[models.BuildDefinition](ctx, c.client, c.projectPath("build/definitions"))
}

func (c *Collection) ReleaseDefinitions(ctx context.Context) ([]models.ReleaseDefinition, error) {
	return list[models.ReleaseDefinition](ctx, c.client, c.projectPath("release/definitions"))
}

// AgentPools are collection-scoped, not project-scoped.
func (c *Collection) AgentPools(ctx context.Context) ([]models.AgentPool, error) {
	return list[models.AgentPool](ctx, c.client, "/_apis/distributedtask/pools")
}

func (c *Collection) DeploymentGroups(ctx context.Context) ([]models.DeploymentGroup, error) {
	return list[models.DeploymentGroup](ctx, c.client, c.projectPath("distributedtask/deploymentgroups"))
}

func (c *Collection) Repositories(ctx context.Context) ([]models.GitRepo, error) {
	return list[models.GitRepo](ctx, c.client, c.projectPath("git/repositories"))
}

func (c *Collection) CreateServiceConnections(ctx context.Context, items []models.ServiceConnection) ([]models.Mapping, error) {
	return create(ctx, c.client, c.projectPath("serviceendpoint/endpoints"), items)
}

func (c *Collection) CreateVariableGroups(ctx context.Context, items []models.VariableGroup) ([]models.Mapping, error) {
	return create(ctx, c.client, c.projectPath("distributedtask/variablegroups"), items)
}

func (c *Collection) CreateTaskGroups(ctx context.Context, items []models.TaskGroup) ([]models.Mapping, error) {
	return create(ctx, c.client, c.projectPath("distributedtask/taskgroups"), items)
}

func (c *Collection) CreateBuildDefinitions(ctx context.Context, items []models.BuildDefinition) ([]models.Mapping, error) {
	return create(ctx, c.client, c.projectPath("build/definitions"), items)
}

func (c *Collection) CreateReleaseDefinitions(ctx context.Context, items []models.ReleaseDefinition) ([]models.Mapping, error) {
	return create(ctx, c.client, c.projectPath("release/definitions"), items)
}

// UpdateTaskGroupVersions applies later-major source versions onto
// already-created target roots matched by name. The update keeps the
// target root's id so the platform extends the existing version chain
// instead of opening a new one.
func (c *Collection) UpdateTaskGroupVersions(ctx context.Context, target, rootTarget, updates []models.TaskGroup) error {
	for _, upd := range updates {
		var root *models.TaskGroup
		for i := range rootTarget {
			if models.SameName(rootTarget[i].Name, upd.Name) {
				root = &rootTarget[i]
				break
			}
		}
		if root == nil {
			// Partitioning guarantees an anchored root; an unmatched name
			// means the root create was skipped upstream.
			continue
		}
		payload := upd
		payload.ID = root.ID
		path := c.projectPath("distributedtask/taskgroups") + "/" + root.ID
		if _, _, err := c.client.Put(ctx, path, payload); err != nil {
			return fmt.Errorf("updating task group %q to version %d: %w", upd.Name, upd.Version.Major, err)
		}
	}
	return nil
}

// list fetches and decodes every page of a list endpoint.
func list[E any](ctx context.Context, client *Client, path string) ([]E, error) {
	raws, err := client.GetAll(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(raws))
	for _, raw := range raws {
		var e E
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("parsing %s entity: %w", path, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// create POSTs the batch one entity at a time. The platform assigns the
// target id; the source id never travels in the payload. Any error fails
// the whole batch — callers treat the pass as aborted.
func create[E models.Entity](ctx context.Context, client *Client, path string, items []E) ([]models.Mapping, error) {
	maps := make([]models.Mapping, 0, len(items))
	for _, item := range items {
		payload, err := stripID(item)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", item.EntityName(), err)
		}
		body, _, err := client.Post(ctx, path, payload)
		if err != nil {
			return nil, fmt.Errorf("creating %q: %w", item.EntityName(), err)
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &created); err != nil {
			return nil, fmt.Errorf("parsing create response for %q: %w", item.EntityName(), err)
		}
		if created.ID == "" {
			return nil, fmt.Errorf("create response for %q carries no id", item.EntityName())
		}
		maps = append(maps, models.Mapping{
			SourceID: item.EntityID(),
			TargetID: created.ID,
			Name:     item.EntityName(),
		})
	}
	return maps, nil
}

// stripID renders an entity as a creation payload without its source id.
func stripID(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	delete(m, "id")
	return m, nil
}

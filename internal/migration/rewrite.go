package migration

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// RefMaps carries everything the rewriter can resolve against: per-kind
// mapping tables (any may be nil, meaning that kind was not migrated this
// run) and the target's own repository list for name-based fallback.
type RefMaps struct {
	ServiceConnections *Table
	TaskGroups         *Table
	VariableGroups     *Table
	AgentPools         *Table
	DeploymentGroups   *Table
	TargetRepos        []models.GitRepo
}

// Rewriter rewrites identifier-valued fields on entities about to be
// created in the target, so they point at target-side entities instead of
// stale source-side ones. Read-only over its tables; safe to share across
// workers.
type Rewriter struct {
	refs   RefMaps
	report *Report
}

// NewRewriter creates a rewriter over the given reference maps.
func NewRewriter(refs RefMaps, report *Report) *Rewriter {
	return &Rewriter{refs: refs, report: report}
}

// RewriteTaskGroup rewrites the references inside a task group's steps.
func (rw *Rewriter) RewriteTaskGroup(tg *models.TaskGroup) {
	rw.rewriteSteps(models.KindTaskGroup, tg.ID, tg.Name, tg.Tasks)
}

// RewriteBuildDefinition rewrites all reference fields of a build pipeline:
// repository, step-level task-group and service-connection references, and
// the variable group list.
func (rw *Rewriter) RewriteBuildDefinition(def *models.BuildDefinition) {
	rw.rewriteRepository(models.KindBuildDefinition, def.ID, def.Name, &def.Repository)
	for i := range def.Phases {
		rw.rewriteSteps(models.KindBuildDefinition, def.ID, def.Name, def.Phases[i].Steps)
	}
	rw.rewriteVariableGroupRefs(models.KindBuildDefinition, def.ID, def.Name, def.VariableGroupIDs)
}

// RewriteReleaseDefinition rewrites all reference fields of a release
// pipeline: workflow task references, deployment phase queues, and
// variable group lists at both definition and environment level.
func (rw *Rewriter) RewriteReleaseDefinition(def *models.ReleaseDefinition) {
	rw.rewriteVariableGroupRefs(models.KindReleaseDefinition, def.ID, def.Name, def.VariableGroupIDs)
	for i := range def.Environments {
		env := &def.Environments[i]
		rw.rewriteVariableGroupRefs(models.KindReleaseDefinition, def.ID, def.Name, env.VariableGroupIDs)
		for j := range env.DeployPhases {
			ph := &env.DeployPhases[j]
			rw.rewriteSteps(models.KindReleaseDefinition, def.ID, def.Name, ph.WorkflowTasks)
			rw.rewriteQueue(def.ID, def.Name, ph)
		}
	}
}

// rewriteSteps handles the per-step reference classes: task-group ids on
// metaTask steps and service-connection ids anywhere in the input bag.
func (rw *Rewriter) rewriteSteps(kind, id, name string, steps []models.TaskStep) {
	for i := range steps {
		st := &steps[i]
		if st.Task.DefinitionType == models.DefinitionTypeMetaTask {
			rw.rewriteTaskGroupRef(kind, id, name, &st.Task)
		}
		if st.Inputs != nil && rw.refs.ServiceConnections != nil {
			st.Inputs = rw.rewriteInputMap(st.Inputs)
		}
	}
}

// rewriteTaskGroupRef swaps a meta-task invocation to the target-side task
// group id. On a lookup miss the stale id is deliberately left in place:
// a visibly broken reference beats one that silently points elsewhere.
func (rw *Rewriter) rewriteTaskGroupRef(kind, id, name string, ref *models.TaskRef) {
	if rw.refs.TaskGroups == nil {
		return
	}
	target, ok := rw.refs.TaskGroups.TargetFor(ref.ID)
	if !ok {
		rw.report.Warn(models.Warning{
			Kind:     kind,
			EntityID: id,
			Name:     name,
			Missing:  models.KindTaskGroup,
			Detail:   fmt.Sprintf("task group %s not in mapping; reference left unchanged", ref.ID),
		})
		return
	}
	ref.ID = target
}

// rewriteInputMap walks the schema-less step input bag. The set of input
// keys holding service connection ids varies by task type, so any string
// value equal to a known source connection id is rewritten, at any depth.
func (rw *Rewriter) rewriteInputMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = rw.rewriteInputValue(v)
	}
	return out
}

func (rw *Rewriter) rewriteInputValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if target, ok := rw.refs.ServiceConnections.TargetFor(val); ok {
			return target
		}
		return val
	case map[string]interface{}:
		return rw.rewriteInputMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = rw.rewriteInputValue(item)
		}
		return out
	default:
		return v
	}
}

// rewriteRepository resolves platform-native repositories by name against
// the target's repository list, rewriting id and remote URL. Repositories
// of external types pass through unchanged.
func (rw *Rewriter) rewriteRepository(kind, id, name string, repo *models.RepoRef) {
	if repo.Type != models.RepoTypeNative || repo.Name == "" {
		return
	}
	for _, tr := range rw.refs.TargetRepos {
		if models.SameName(tr.Name, repo.Name) {
			repo.ID = tr.ID
			repo.URL = tr.RemoteURL
			return
		}
	}
	rw.report.Warn(models.Warning{
		Kind:     kind,
		EntityID: id,
		Name:     name,
		Missing:  models.KindGitRepo,
		Detail:   fmt.Sprintf("repository %q not found in target; reference left unchanged", repo.Name),
	})
}

// rewriteVariableGroupRefs rewrites each id in a variable group reference
// list independently. Misses are warned about and left stale, same policy
// as task group references.
func (rw *Rewriter) rewriteVariableGroupRefs(kind, id, name string, ids []string) {
	if rw.refs.VariableGroups == nil || len(ids) == 0 {
		return
	}
	for i, vg := range ids {
		target, ok := rw.refs.VariableGroups.TargetFor(vg)
		if !ok {
			rw.report.Warn(models.Warning{
				Kind:     kind,
				EntityID: id,
				Name:     name,
				Missing:  models.KindVariableGroup,
				Detail:   fmt.Sprintf("variable group %s not in mapping; reference left unchanged", vg),
			})
			continue
		}
		ids[i] = target
	}
}

// rewriteQueue resolves a deployment phase's queue id through the agent
// pool or deployment group mapping, depending on the phase type. An
// unresolved queue is reset to the unset sentinel rather than left stale:
// an unset queue is a visible, immediately actionable gap, while a stale
// id would silently point at the wrong or a nonexistent pool.
func (rw *Rewriter) rewriteQueue(id, name string, ph *models.DeployPhase) {
	if ph.DeploymentInput.QueueID == models.QueueUnset {
		return
	}
	var table *Table
	var missing string
	switch ph.PhaseType {
	case models.PhaseTypeAgent:
		table, missing = rw.refs.AgentPools, models.KindAgentPool
	case models.PhaseTypeMachineGroup:
		table, missing = rw.refs.DeploymentGroups, models.KindDeploymentGroup
	default:
		missing = "queue for phase type " + ph.PhaseType
	}
	if target, ok := table.TargetFor(strconv.Itoa(ph.DeploymentInput.QueueID)); ok {
		if n, err := strconv.Atoi(target); err == nil {
			ph.DeploymentInput.QueueID = n
			return
		}
	}
	rw.report.Warn(models.Warning{
		Kind:     models.KindReleaseDefinition,
		EntityID: id,
		Name:     name,
		Missing:  missing,
		Detail: fmt.Sprintf("queue %d on phase %q unresolved; reset to unset",
			ph.DeploymentInput.QueueID, strings.TrimSpace(ph.Name)),
	})
	ph.DeploymentInput.QueueID = models.QueueUnset
}

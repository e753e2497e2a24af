package models

import "strings"

// Entity kind names, used in mapping tables, previews and warnings.
const (
	KindServiceConnection = "service_connections"
	KindVariableGroup     = "variable_groups"
	KindTaskGroup         = "task_groups"
	KindBuildDefinition   = "build_definitions"
	KindReleaseDefinition = "release_definitions"
	KindAgentPool         = "agent_pools"
	KindDeploymentGroup   = "deployment_groups"
	KindGitRepo           = "repositories"
)

// Task definition type marking a step as a task-group invocation.
const DefinitionTypeMetaTask = "metaTask"

// Repository type for repos hosted natively on the platform. Other types
// (GitHub, external git, ...) are passed through untouched during migration.
const RepoTypeNative = "TfsGit"

// Deployment phase types, determining which pool mapping resolves the queue.
const (
	PhaseTypeAgent        = "agentBasedDeployment"
	PhaseTypeMachineGroup = "machineGroupBasedDeployment"
)

// QueueUnset is the platform's "no queue assigned" sentinel.
const QueueUnset = 0

// Entity is the capability surface shared by every migratable kind.
// IDs are opaque, collection-scoped and assigned by the platform on
// creation; names are the cross-collection matching key.
type Entity interface {
	EntityID() string
	EntityName() string
}

// DependencyHolder is implemented by kinds whose payload can reference
// task groups or variable groups, for the pre-creation dependency gate.
type DependencyHolder interface {
	Entity
	ReferencesTaskGroups() bool
	ReferencesVariableGroups() bool
}

// Version identifies one revision of a versioned entity. Major 1 is the
// root definition; Major > 1 is a derived update sharing the same name.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// ServiceConnection is an endpoint credential (docker registry, external
// git host, cloud subscription, ...) referenced from task step inputs.
type ServiceConnection struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Type          string                 `json:"type"`
	URL           string                 `json:"url,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Authorization map[string]interface{} `json:"authorization,omitempty"`
	Data          map[string]string      `json:"data,omitempty"`
}

func (s ServiceConnection) EntityID() string   { return s.ID }
func (s ServiceConnection) EntityName() string { return s.Name }

// Variable is a single entry in a variable group. Secret values are not
// exported by the platform and arrive empty.
type Variable struct {
	Value    string `json:"value"`
	IsSecret bool   `json:"isSecret,omitempty"`
}

// VariableGroup is a named bag of variables shared across pipelines.
type VariableGroup struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Variables   map[string]Variable `json:"variables"`
}

func (v VariableGroup) EntityID() string   { return v.ID }
func (v VariableGroup) EntityName() string { return v.Name }

// TaskRef identifies the task definition a step executes. DefinitionType
// "metaTask" means the step invokes a task group by ID.
type TaskRef struct {
	ID             string `json:"id"`
	VersionSpec    string `json:"versionSpec,omitempty"`
	DefinitionType string `json:"definitionType,omitempty"`
}

// TaskStep is one step of a task group, build phase or deployment phase.
// Inputs is schema-less: the set of keys and their meaning vary per task
// type, and any value may hold a service connection id.
type TaskStep struct {
	DisplayName string                 `json:"displayName,omitempty"`
	Enabled     bool                   `json:"enabled"`
	Condition   string                 `json:"condition,omitempty"`
	Task        TaskRef                `json:"task"`
	Inputs      map[string]interface{} `json:"inputs,omitempty"`
}

// TaskGroup is a reusable named bundle of steps, referenced from pipelines
// by id and versioned: major version 1 is the root, later majors are
// updates applied onto the root chain.
type TaskGroup struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Version  Version    `json:"version"`
	Category string     `json:"category,omitempty"`
	Tasks    []TaskStep `json:"tasks"`
}

func (t TaskGroup) EntityID() string   { return t.ID }
func (t TaskGroup) EntityName() string { return t.Name }

// ReferencesTaskGroups reports whether any step invokes another task group.
func (t TaskGroup) ReferencesTaskGroups() bool { return stepsReferenceTaskGroups(t.Tasks) }

func (t TaskGroup) ReferencesVariableGroups() bool { return false }

// RepoRef points a pipeline at the repository it builds.
type RepoRef struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	URL           string `json:"url,omitempty"`
	DefaultBranch string `json:"defaultBranch,omitempty"`
}

// BuildPhase groups the steps of a build definition.
type BuildPhase struct {
	Name  string     `json:"name,omitempty"`
	Steps []TaskStep `json:"steps"`
}

// BuildDefinition is a build pipeline.
type BuildDefinition struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Path             string       `json:"path,omitempty"`
	Repository       RepoRef      `json:"repository"`
	Phases           []BuildPhase `json:"phases"`
	VariableGroupIDs []string     `json:"variableGroups,omitempty"`
}

func (b BuildDefinition) EntityID() string   { return b.ID }
func (b BuildDefinition) EntityName() string { return b.Name }

func (b BuildDefinition) ReferencesTaskGroups() bool {
	for _, ph := range b.Phases {
		if stepsReferenceTaskGroups(ph.Steps) {
			return true
		}
	}
	return false
}

func (b BuildDefinition) ReferencesVariableGroups() bool { return len(b.VariableGroupIDs) > 0 }

// DeploymentInput carries the agent queue a deployment phase runs on.
// A QueueID of 0 means no queue assigned.
type DeploymentInput struct {
	QueueID int `json:"queueId"`
}

// DeployPhase is one phase of a release environment. PhaseType decides
// whether QueueID denotes an agent pool or a deployment group.
type DeployPhase struct {
	Name            string          `json:"name,omitempty"`
	PhaseType       string          `json:"phaseType"`
	DeploymentInput DeploymentInput `json:"deploymentInput"`
	WorkflowTasks   []TaskStep      `json:"workflowTasks"`
}

// ReleaseEnvironment is a stage of a release pipeline.
type ReleaseEnvironment struct {
	Name             string        `json:"name"`
	Rank             int           `json:"rank,omitempty"`
	DeployPhases     []DeployPhase `json:"deployPhases"`
	VariableGroupIDs []string      `json:"variableGroups,omitempty"`
}

// ReleaseDefinition is a release pipeline.
type ReleaseDefinition struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Path             string               `json:"path,omitempty"`
	Environments     []ReleaseEnvironment `json:"environments"`
	VariableGroupIDs []string             `json:"variableGroups,omitempty"`
}

func (r ReleaseDefinition) EntityID() string   { return r.ID }
func (r ReleaseDefinition) EntityName() string { return r.Name }

func (r ReleaseDefinition) ReferencesTaskGroups() bool {
	for _, env := range r.Environments {
		for _, ph := range env.DeployPhases {
			if stepsReferenceTaskGroups(ph.WorkflowTasks) {
				return true
			}
		}
	}
	return false
}

func (r ReleaseDefinition) ReferencesVariableGroups() bool {
	if len(r.VariableGroupIDs) > 0 {
		return true
	}
	for _, env := range r.Environments {
		if len(env.VariableGroupIDs) > 0 {
			return true
		}
	}
	return false
}

// AgentPool hosts build/deployment agents. Reference-only during
// migration: pools are correlated by name, never created.
type AgentPool struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsHosted bool   `json:"isHosted,omitempty"`
	Size     int    `json:"size,omitempty"`
}

func (p AgentPool) EntityID() string   { return p.ID }
func (p AgentPool) EntityName() string { return p.Name }

// DeploymentGroup is a named set of deployment target machines.
// Reference-only during migration, like AgentPool.
type DeploymentGroup struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PoolID       string `json:"poolId,omitempty"`
	MachineCount int    `json:"machineCount,omitempty"`
}

func (d DeploymentGroup) EntityID() string   { return d.ID }
func (d DeploymentGroup) EntityName() string { return d.Name }

// GitRepo is a repository hosted on the platform. Only its identity is
// used here; content migration is out of scope.
type GitRepo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	RemoteURL     string `json:"remoteUrl"`
	DefaultBranch string `json:"defaultBranch,omitempty"`
}

func (g GitRepo) EntityID() string   { return g.ID }
func (g GitRepo) EntityName() string { return g.Name }

// SameName compares entity names the way the platform does: exact,
// case-insensitive.
func SameName(a, b string) bool { return strings.EqualFold(a, b) }

func stepsReferenceTaskGroups(steps []TaskStep) bool {
	for _, st := range steps {
		if st.Task.DefinitionType == DefinitionTypeMetaTask {
			return true
		}
	}
	return false
}

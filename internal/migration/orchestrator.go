package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// Options selects which passes run and bounds the per-item rewrite
// parallelism. Read once at construction and never mutated afterwards.
type Options struct {
	ServiceConnections bool `yaml:"service_connections" json:"service_connections"`
	VariableGroups     bool `yaml:"variable_groups" json:"variable_groups"`
	TaskGroups         bool `yaml:"task_groups" json:"task_groups"`
	BuildPipelines     bool `yaml:"build_pipelines" json:"build_pipelines"`
	ReleasePipelines   bool `yaml:"release_pipelines" json:"release_pipelines"`

	// ReleaseNames optionally restricts the release pass to these names.
	ReleaseNames []string `yaml:"release_names" json:"release_names,omitempty"`

	// Workers bounds parallel per-item rewriting within a pass.
	Workers int `yaml:"workers" json:"workers"`
}

// DefaultOptions enables every pass with a modest worker bound.
func DefaultOptions() Options {
	return Options{
		ServiceConnections: true,
		VariableGroups:     true,
		TaskGroups:         true,
		BuildPipelines:     true,
		ReleasePipelines:   true,
		Workers:            4,
	}
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

// Orchestrator sequences the per-kind migration passes in fixed dependency
// order, threading each pass's mapping table into the passes that consume
// it: service connections → variable groups → task groups → build
// pipelines → release pipelines.
type Orchestrator struct {
	source SourceCollection
	target TargetCollection
	opts   Options
	logger func(string)
}

// New creates an orchestrator for one source/target pair.
func New(source SourceCollection, target TargetCollection, opts Options, logger func(string)) *Orchestrator {
	if logger == nil {
		logger = func(string) {}
	}
	return &Orchestrator{source: source, target: target, opts: opts, logger: logger}
}

// Run executes all enabled passes. A pass-level failure aborts that pass
// only: its mapping table stays absent, which makes downstream passes
// exclude dependent entities instead of crashing the run. The returned
// error joins all pass errors; the report is always valid.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := NewReport(o.logger)
	var passErrs []error

	var scTable, vgTable, tgTable *Table

	scTable = o.runPass(ctx, models.KindServiceConnection, o.opts.ServiceConnections, &passErrs,
		func(ctx context.Context) (*Table, error) {
			return o.migrateServiceConnections(ctx, report)
		})

	vgTable = o.runPass(ctx, models.KindVariableGroup, o.opts.VariableGroups, &passErrs,
		func(ctx context.Context) (*Table, error) {
			return o.migrateVariableGroups(ctx, report)
		})

	tgTable = o.runPass(ctx, models.KindTaskGroup, o.opts.TaskGroups, &passErrs,
		func(ctx context.Context) (*Table, error) {
			return o.migrateTaskGroups(ctx, scTable, report)
		})

	o.runPass(ctx, models.KindBuildDefinition, o.opts.BuildPipelines, &passErrs,
		func(ctx context.Context) (*Table, error) {
			return o.migrateBuildDefinitions(ctx, scTable, vgTable, tgTable, report)
		})

	o.runPass(ctx, models.KindReleaseDefinition, o.opts.ReleasePipelines, &passErrs,
		func(ctx context.Context) (*Table, error) {
			return o.migrateReleaseDefinitions(ctx, scTable, vgTable, tgTable, report)
		})

	o.logger(fmt.Sprintf("Migration finished: %d warnings", len(report.Warnings())))
	return report, errors.Join(passErrs...)
}

// runPass wraps one pass with the enable/disable and failure policy. A
// disabled or failed pass yields a nil (absent) table, never an empty one.
func (o *Orchestrator) runPass(ctx context.Context, kind string, enabled bool, passErrs *[]error, pass func(context.Context) (*Table, error)) *Table {
	if !enabled {
		o.logger(fmt.Sprintf("=== Skipping %s (disabled) ===", kind))
		return nil
	}
	if err := ctx.Err(); err != nil {
		*passErrs = append(*passErrs, fmt.Errorf("%s: %w", kind, err))
		return nil
	}
	o.logger(fmt.Sprintf("=== Migrating %s ===", kind))
	table, err := pass(ctx)
	if err != nil {
		o.logger(fmt.Sprintf("  FAIL: %s pass aborted: %v", kind, err))
		*passErrs = append(*passErrs, fmt.Errorf("%s: %w", kind, err))
		return nil
	}
	o.logger(fmt.Sprintf("  %s: %d mapped", kind, table.Len()))
	return table
}

func (o *Orchestrator) migrateServiceConnections(ctx context.Context, report *Report) (*Table, error) {
	src, err := o.source.ServiceConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source: %w", err)
	}
	tgt, err := o.target.ServiceConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target: %w", err)
	}

	toMigrate := FilterNew(models.KindServiceConnection, src, tgt, o.logger)
	table := NewTable(models.KindServiceConnection)
	if err := createBatch(ctx, table, report, o.logger, toMigrate, o.target.CreateServiceConnections); err != nil {
		return nil, err
	}
	ReconcileExisting(models.KindServiceConnection, src, tgt, table, report)
	return table, nil
}

func (o *Orchestrator) migrateVariableGroups(ctx context.Context, report *Report) (*Table, error) {
	src, err := o.source.VariableGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source: %w", err)
	}
	tgt, err := o.target.VariableGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target: %w", err)
	}

	toMigrate := FilterNew(models.KindVariableGroup, src, tgt, o.logger)
	table := NewTable(models.KindVariableGroup)
	if err := createBatch(ctx, table, report, o.logger, toMigrate, o.target.CreateVariableGroups); err != nil {
		return nil, err
	}
	ReconcileExisting(models.KindVariableGroup, src, tgt, table, report)
	return table, nil
}

// migrateTaskGroups creates the root generation first, then applies
// subsequent-version updates onto the created roots, then re-lists the
// target so reconciliation sees the final state.
func (o *Orchestrator) migrateTaskGroups(ctx context.Context, scTable *Table, report *Report) (*Table, error) {
	src, err := o.source.TaskGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source: %w", err)
	}
	tgt, err := o.target.TaskGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target: %w", err)
	}

	toMigrate := FilterNew(models.KindTaskGroup, src, tgt, o.logger)
	roots, updates := PartitionVersions(toMigrate, report)

	rw := NewRewriter(RefMaps{ServiceConnections: scTable}, report)
	if err := rewriteAll(ctx, o.opts.workers(), roots, rw.RewriteTaskGroup); err != nil {
		return nil, err
	}

	table := NewTable(models.KindTaskGroup)
	if err := createBatch(ctx, table, report, o.logger, roots, o.target.CreateTaskGroups); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		created, err := o.target.TaskGroups(ctx)
		if err != nil {
			return nil, fmt.Errorf("re-listing target: %w", err)
		}
		var rootTargets []models.TaskGroup
		for _, g := range created {
			if table.HasTarget(g.ID) {
				rootTargets = append(rootTargets, g)
			}
		}
		if err := o.target.UpdateTaskGroupVersions(ctx, created, rootTargets, updates); err != nil {
			return nil, fmt.Errorf("applying version updates: %w", err)
		}
		tgt, err = o.target.TaskGroups(ctx)
		if err != nil {
			return nil, fmt.Errorf("re-listing target: %w", err)
		}
	}

	ReconcileExisting(models.KindTaskGroup, src, tgt, table, report)
	return table, nil
}

func (o *Orchestrator) migrateBuildDefinitions(ctx context.Context, scTable, vgTable, tgTable *Table, report *Report) (*Table, error) {
	src, err := o.source.BuildDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source: %w", err)
	}
	tgt, err := o.target.BuildDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target: %w", err)
	}

	toMigrate := FilterNew(models.KindBuildDefinition, src, tgt, o.logger)
	admitted := Admit(models.KindBuildDefinition, toMigrate, tgTable, vgTable, report)

	repos, err := o.target.Repositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target repositories: %w", err)
	}

	rw := NewRewriter(RefMaps{
		ServiceConnections: scTable,
		TaskGroups:         tgTable,
		VariableGroups:     vgTable,
		TargetRepos:        repos,
	}, report)
	if err := rewriteAll(ctx, o.opts.workers(), admitted, rw.RewriteBuildDefinition); err != nil {
		return nil, err
	}

	table := NewTable(models.KindBuildDefinition)
	if err := createBatch(ctx, table, report, o.logger, admitted, o.target.CreateBuildDefinitions); err != nil {
		return nil, err
	}
	ReconcileExisting(models.KindBuildDefinition, src, tgt, table, report)
	return table, nil
}

func (o *Orchestrator) migrateReleaseDefinitions(ctx context.Context, scTable, vgTable, tgTable *Table, report *Report) (*Table, error) {
	src, err := o.source.ReleaseDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source: %w", err)
	}
	if len(o.opts.ReleaseNames) > 0 {
		src = filterAllowed(src, o.opts.ReleaseNames)
		o.logger(fmt.Sprintf("  release allow-list: %d definitions selected", len(src)))
	}
	tgt, err := o.target.ReleaseDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target: %w", err)
	}

	toMigrate := FilterNew(models.KindReleaseDefinition, src, tgt, o.logger)
	admitted := Admit(models.KindReleaseDefinition, toMigrate, tgTable, vgTable, report)

	poolTable, err := o.correlateAgentPools(ctx)
	if err != nil {
		return nil, err
	}
	dgTable, err := o.correlateDeploymentGroups(ctx)
	if err != nil {
		return nil, err
	}

	rw := NewRewriter(RefMaps{
		ServiceConnections: scTable,
		TaskGroups:         tgTable,
		VariableGroups:     vgTable,
		AgentPools:         poolTable,
		DeploymentGroups:   dgTable,
	}, report)
	if err := rewriteAll(ctx, o.opts.workers(), admitted, rw.RewriteReleaseDefinition); err != nil {
		return nil, err
	}

	table := NewTable(models.KindReleaseDefinition)
	if err := createBatch(ctx, table, report, o.logger, admitted, o.target.CreateReleaseDefinitions); err != nil {
		return nil, err
	}
	ReconcileExisting(models.KindReleaseDefinition, src, tgt, table, report)
	return table, nil
}

// correlateAgentPools builds the reference-only agent pool mapping by name
// correlation. Pools are never created by a migration.
func (o *Orchestrator) correlateAgentPools(ctx context.Context) (*Table, error) {
	src, err := o.source.AgentPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source agent pools: %w", err)
	}
	tgt, err := o.target.AgentPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target agent pools: %w", err)
	}
	return correlateByName(models.KindAgentPool, src, tgt), nil
}

func (o *Orchestrator) correlateDeploymentGroups(ctx context.Context) (*Table, error) {
	src, err := o.source.DeploymentGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source deployment groups: %w", err)
	}
	tgt, err := o.target.DeploymentGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target deployment groups: %w", err)
	}
	return correlateByName(models.KindDeploymentGroup, src, tgt), nil
}

// createBatch submits a batch and folds the returned mappings into the
// table. Any transport error is fatal to the pass; no partial table
// survives.
func createBatch[E models.Entity](ctx context.Context, table *Table, report *Report, logger func(string), items []E, submit func(context.Context, []E) ([]models.Mapping, error)) error {
	if len(items) == 0 {
		return nil
	}
	maps, err := submit(ctx, items)
	if err != nil {
		return fmt.Errorf("creating %s: %w", table.Kind(), err)
	}
	for _, m := range maps {
		if err := table.Add(m); err != nil {
			report.Warn(models.Warning{
				Kind:   table.Kind(),
				Name:   m.Name,
				Detail: "mapping rejected: " + err.Error(),
			})
		}
	}
	report.AddCreated(table.Kind(), len(maps))
	logger(fmt.Sprintf("  created %d %s", len(maps), table.Kind()))
	return nil
}

// rewriteAll runs the per-item rewrite with bounded parallelism. Items are
// independent: each is mutated by exactly one worker, and the reference
// tables are read-only, so no synchronization beyond the group is needed.
// Cancellation is checked between items, never mid-rewrite.
func rewriteAll[E any](ctx context.Context, workers int, items []E, fn func(*E)) error {
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range items {
		if err := ctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			fn(&items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// correlateByName pairs source and target entities of a reference-only
// kind by case-insensitive name. Unmatched entries are simply absent from
// the table; absence surfaces later as a per-field rewrite warning.
func correlateByName[E models.Entity](kind string, source, target []E) *Table {
	byName := make(map[string]E, len(source))
	for _, e := range source {
		byName[strings.ToLower(e.EntityName())] = e
	}
	table := NewTable(kind)
	for _, tgt := range target {
		src, ok := byName[strings.ToLower(tgt.EntityName())]
		if !ok {
			continue
		}
		// Errors only on duplicate names; first match wins.
		_ = table.Add(models.Mapping{SourceID: src.EntityID(), TargetID: tgt.EntityID(), Name: tgt.EntityName()})
	}
	return table
}

func filterAllowed(defs []models.ReleaseDefinition, names []string) []models.ReleaseDefinition {
	var out []models.ReleaseDefinition
	for _, d := range defs {
		for _, n := range names {
			if models.SameName(d.Name, n) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

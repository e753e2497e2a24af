package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// Preview classifies every source entity of the enabled kinds as "create"
// or "skip_exists" against the current target state, without creating
// anything. The real run re-lists, so a preview never goes stale silently.
func Preview(ctx context.Context, source, target SourceCollection, opts Options, logger func(string)) (*models.MigrationPreview, error) {
	if logger == nil {
		logger = func(string) {}
	}
	preview := &models.MigrationPreview{
		Resources: make(map[string][]models.MigrationResource),
	}

	type kindPreview struct {
		kind    string
		enabled bool
		collect func(context.Context) ([]models.MigrationResource, error)
	}

	kinds := []kindPreview{
		{models.KindServiceConnection, opts.ServiceConnections, func(ctx context.Context) ([]models.MigrationResource, error) {
			return previewKind(ctx, models.KindServiceConnection, source.ServiceConnections, target.ServiceConnections)
		}},
		{models.KindVariableGroup, opts.VariableGroups, func(ctx context.Context) ([]models.MigrationResource, error) {
			return previewKind(ctx, models.KindVariableGroup, source.VariableGroups, target.VariableGroups)
		}},
		{models.KindTaskGroup, opts.TaskGroups, func(ctx context.Context) ([]models.MigrationResource, error) {
			return previewKind(ctx, models.KindTaskGroup, source.TaskGroups, target.TaskGroups)
		}},
		{models.KindBuildDefinition, opts.BuildPipelines, func(ctx context.Context) ([]models.MigrationResource, error) {
			return previewKind(ctx, models.KindBuildDefinition, source.BuildDefinitions, target.BuildDefinitions)
		}},
		{models.KindReleaseDefinition, opts.ReleasePipelines, func(ctx context.Context) ([]models.MigrationResource, error) {
			return previewKind(ctx, models.KindReleaseDefinition, source.ReleaseDefinitions, target.ReleaseDefinitions)
		}},
	}

	var createCount, skipCount int
	for _, kp := range kinds {
		if !kp.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger(fmt.Sprintf("Checking %s...", kp.kind))
		resources, err := kp.collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kp.kind, err)
		}
		preview.Resources[kp.kind] = resources
		for _, r := range resources {
			if r.Action == "create" {
				createCount++
			} else {
				skipCount++
			}
		}
	}

	if n := len(preview.Resources[models.KindVariableGroup]); n > 0 {
		preview.Warnings = append(preview.Warnings, models.Warning{
			Kind:   models.KindVariableGroup,
			Detail: "secret variable values cannot be exported; migrated groups carry empty secrets that must be re-entered",
		})
	}
	if n := len(preview.Resources[models.KindServiceConnection]); n > 0 {
		preview.Warnings = append(preview.Warnings, models.Warning{
			Kind:   models.KindServiceConnection,
			Detail: "service connection credentials cannot be exported; migrated connections must be re-authorized",
		})
	}

	logger(fmt.Sprintf("Preview complete: %d to create, %d to skip", createCount, skipCount))
	return preview, nil
}

// previewKind lists one kind on both sides and classifies by name match.
func previewKind[E models.Entity](ctx context.Context, kind string, listSource, listTarget func(context.Context) ([]E, error)) ([]models.MigrationResource, error) {
	src, err := listSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source: %w", err)
	}
	tgt, err := listTarget(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target: %w", err)
	}

	targetByName := make(map[string]E, len(tgt))
	for _, e := range tgt {
		targetByName[strings.ToLower(e.EntityName())] = e
	}

	resources := make([]models.MigrationResource, 0, len(src))
	for _, e := range src {
		mr := models.MigrationResource{
			SourceID: e.EntityID(),
			Name:     e.EntityName(),
			Type:     kind,
			Action:   "create",
		}
		if existing, ok := targetByName[strings.ToLower(e.EntityName())]; ok {
			mr.Action = "skip_exists"
			mr.TargetID = existing.EntityID()
		}
		resources = append(resources, mr)
	}
	return resources, nil
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
	"github.com/azdo-tools/pipeline-migration-workbench/internal/platform"
)

// Browsable entity kinds, in migration order.
var entityKinds = []string{
	models.KindServiceConnection,
	models.KindVariableGroup,
	models.KindTaskGroup,
	models.KindBuildDefinition,
	models.KindReleaseDefinition,
	models.KindAgentPool,
	models.KindDeploymentGroup,
	models.KindGitRepo,
}

func (s *Server) ListEntityKinds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.Connections.Get(id) == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	writeJSON(w, http.StatusOK, entityKinds)
}

func (s *Server) ListEntitiesOfKind(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind := chi.URLParam(r, "kind")
	conn := s.Connections.Get(id)
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}

	coll := platform.NewCollection(conn)
	ctx := r.Context()

	var entities interface{}
	var err error
	switch kind {
	case models.KindServiceConnection:
		entities, err = coll.ServiceConnections(ctx)
	case models.KindVariableGroup:
		entities, err = coll.VariableGroups(ctx)
	case models.KindTaskGroup:
		entities, err = coll.TaskGroups(ctx)
	case models.KindBuildDefinition:
		entities, err = coll.BuildDefinitions(ctx)
	case models.KindReleaseDefinition:
		entities, err = coll.ReleaseDefinitions(ctx)
	case models.KindAgentPool:
		entities, err = coll.AgentPools(ctx)
	case models.KindDeploymentGroup:
		entities, err = coll.DeploymentGroups(ctx)
	case models.KindGitRepo:
		entities, err = coll.Repositories(ctx)
	default:
		writeError(w, http.StatusNotFound, "unknown entity kind: "+kind)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entities)
}
